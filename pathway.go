package mind

import (
	"strings"
	"sync"
	"time"
)

// Tier is the coarse capability class of a Pathway (spec §3).
type Tier int

const (
	TierLocal Tier = iota
	TierCloudLight
	TierCloudPremium
	TierSpecialized
)

func (t Tier) String() string {
	switch t {
	case TierLocal:
		return "local"
	case TierCloudLight:
		return "cloud_light"
	case TierCloudPremium:
		return "cloud_premium"
	case TierSpecialized:
		return "specialized"
	default:
		return "unknown"
	}
}

// Specialization is a declared strength of a Pathway (spec §3).
type Specialization string

const (
	SpecRetrieval Specialization = "retrieval"
	SpecTransform Specialization = "transform"
	SpecReasoning Specialization = "reasoning"
	SpecCreative  Specialization = "creative"
	SpecCoding    Specialization = "coding"
	SpecMath      Specialization = "math"
	SpecSynthesis Specialization = "synthesis"
)

const (
	minWeight = 0.1
	maxWeight = 2.0

	weightGrowth = 1.05
	weightDecay  = 0.7
	latencyEMAAlpha = 0.2
)

// PathwaySpec describes a Pathway to add to a Mind.
type PathwaySpec struct {
	Name         string
	EndpointType string
	Model        string
	Endpoint     string
	APIKey       string
	Settings     map[string]any

	// Tier overrides automatic tier inference (spec §4.1) when non-nil.
	Tier *Tier
	// Specializations overrides automatic specialization inference when non-empty.
	Specializations []Specialization

	// Client, when set, is used directly instead of invoking the Mind's
	// client factory. Tests and callers that already hold a PathwayClient
	// use this to skip factory resolution.
	Client      PathwayClient
	CostTracker CostTracker
}

// Health is the mutable, guarded dynamic state of a Pathway (spec §3).
type Health struct {
	Synapses           int64
	Activations        int64
	Inhibitions        int64
	LastActivationTime time.Time
	AvgLatency         time.Duration
	Weight             float64
}

// ActivationRate is activations / max(synapses, 1).
func (h Health) ActivationRate() float64 {
	d := h.Synapses
	if d < 1 {
		d = 1
	}
	return float64(h.Activations) / float64(d)
}

// Pathway is one logical provider connection: identity, static config, a
// capability handle, dynamic health, and a circuit breaker (spec §3).
type Pathway struct {
	Name            string
	EndpointType    string
	Model           string
	Tier            Tier
	Specializations []Specialization

	client  PathwayClient
	cost    CostTracker
	breaker *breaker

	statsHook func(pathwayStatsSample)

	mu     sync.RWMutex
	health Health
}

// pathwayStatsSample is one invocation's outcome, handed to the Mind-level
// stats collector through Pathway.statsHook.
type pathwayStatsSample struct {
	pathway      string
	latency      time.Duration
	success      bool
	outputTokens int
	inputTokens  int
}

func newPathway(spec PathwaySpec, client PathwayClient) *Pathway {
	tier := inferTier(spec.EndpointType, spec.Model)
	if spec.Tier != nil {
		tier = *spec.Tier
	}
	specs := spec.Specializations
	if len(specs) == 0 {
		specs = inferSpecializations(spec.Model)
	}
	cost := spec.CostTracker
	if cost == nil {
		cost = noopCostTracker{}
	}
	return &Pathway{
		Name:            spec.Name,
		EndpointType:    spec.EndpointType,
		Model:           spec.Model,
		Tier:            tier,
		Specializations: specs,
		client:          client,
		cost:            cost,
		breaker:         newBreaker(),
		health:          Health{Weight: 1.0},
	}
}

// onBreakerTransition registers a callback fired whenever this pathway's
// circuit breaker changes state (spec §4.1: "Transitions emit events on the
// thought stream").
func (p *Pathway) onBreakerTransition(fn func(from, to BreakerState)) {
	p.breaker.mu.Lock()
	defer p.breaker.mu.Unlock()
	p.breaker.onStateChange = fn
}

// BreakerState reports the pathway's current circuit breaker state.
func (p *Pathway) BreakerState() BreakerState {
	return p.breaker.currentState()
}

// IsHealthy reports whether the breaker is not Open (spec §3, §4.1).
func (p *Pathway) IsHealthy() bool {
	return p.breaker.currentState() != BreakerOpen
}

// HasSpecialization reports whether the pathway declares the given strength.
func (p *Pathway) HasSpecialization(s Specialization) bool {
	for _, have := range p.Specializations {
		if have == s {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the current health state.
func (p *Pathway) Snapshot() Health {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.health
}

// score returns weight * activation_rate, the quantity next_pathway and the
// decomposition tier selector both maximize (spec §4.1, §4.6 step 1).
func (p *Pathway) score() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.health.Weight * p.health.ActivationRate()
}

// recordActivation records a successful invocation: weight grows, latency
// EMA updates, synapses/activations both increment (spec §3 invariant).
func (p *Pathway) recordActivation(latency time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.health.Synapses++
	p.health.Activations++
	p.health.LastActivationTime = time.Now()
	p.health.Weight = clampWeight(p.health.Weight * weightGrowth)
	p.health.AvgLatency = emaLatency(p.health.AvgLatency, latency, p.health.Activations+p.health.Inhibitions)
}

// recordInhibition records a failed invocation: weight decays, synapses/
// inhibitions both increment.
func (p *Pathway) recordInhibition() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.health.Synapses++
	p.health.Inhibitions++
	p.health.Weight = clampWeight(p.health.Weight * weightDecay)
}

func clampWeight(w float64) float64 {
	if w < minWeight {
		return minWeight
	}
	if w > maxWeight {
		return maxWeight
	}
	return w
}

func emaLatency(prev, sample time.Duration, n int64) time.Duration {
	if n <= 1 {
		return sample
	}
	return time.Duration(latencyEMAAlpha*float64(sample) + (1-latencyEMAAlpha)*float64(prev))
}

// inferTier applies spec §4.1's endpoint-type / model-name heuristic when a
// Pathway is added without an explicit tier.
func inferTier(endpointType, model string) Tier {
	if strings.EqualFold(endpointType, "local") {
		return TierLocal
	}
	m := strings.ToLower(model)
	for _, s := range []string{"opus", "gpt-4o", "claude-3-5", "claude-sonnet-4", "gemini-1.5-pro", "gemini-2.0"} {
		if strings.Contains(m, s) {
			return TierCloudPremium
		}
	}
	for _, s := range []string{"codex", "deepseek-coder", "codellama", "starcoder"} {
		if strings.Contains(m, s) {
			return TierSpecialized
		}
	}
	for _, s := range []string{"mini", "haiku", "flash", "instant", "turbo"} {
		if strings.Contains(m, s) {
			return TierCloudLight
		}
	}
	return TierCloudLight
}

// inferSpecializations applies spec §4.1's model-name substring heuristic.
func inferSpecializations(model string) []Specialization {
	m := strings.ToLower(model)
	var out []Specialization
	for _, s := range []string{"code", "coder"} {
		if strings.Contains(m, s) {
			out = append(out, SpecCoding)
			break
		}
	}
	for _, s := range []string{"math", "wizard"} {
		if strings.Contains(m, s) {
			out = append(out, SpecMath)
			break
		}
	}
	for _, s := range []string{"creative", "writer"} {
		if strings.Contains(m, s) {
			out = append(out, SpecCreative)
			break
		}
	}
	return out
}
