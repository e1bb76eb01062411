// Package mind implements the Collective Mind core: a resilient, concurrent
// router presenting a single chat-completion interface while dispatching
// requests across a pool of heterogeneous remote language-model providers
// (spec §1). Grounded throughout on github.com/jordanhubbard/tokenhub's
// internal/router, internal/health, and internal/circuitbreaker packages.
package mind

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/collectivemind/mind/internal/decompose"
	"github.com/collectivemind/mind/internal/election"
	"github.com/collectivemind/mind/internal/events"
	"github.com/collectivemind/mind/internal/logging"
	"github.com/collectivemind/mind/internal/stats"
	"github.com/collectivemind/mind/internal/telemetry"
)

// ThinkingMode is the top-level strategy a Mind uses to satisfy a request
// (spec §2, GLOSSARY).
type ThinkingMode int

const (
	ModeRacing ThinkingMode = iota
	ModeSequential
	ModeEnsemble
	ModeAdaptive
	ModeDecomposed
)

func (m ThinkingMode) String() string {
	switch m {
	case ModeRacing:
		return "racing"
	case ModeSequential:
		return "sequential"
	case ModeEnsemble:
		return "ensemble"
	case ModeAdaptive:
		return "adaptive"
	case ModeDecomposed:
		return "decomposed"
	default:
		return "unknown"
	}
}

// Adaptive routing thresholds (spec §4.2).
const (
	adaptiveEnsemblePromptLen = 500
	adaptiveRacingPromptLen   = 100
)

// Mind aggregates an ordered bag of Pathways and dispatches requests
// through one of five thinking modes (spec §2). It exclusively owns its
// Pathway list and Election engine (spec §3 "Ownership & lifecycle").
type Mind struct {
	reg *registry

	mu              sync.RWMutex
	thinkingMode    ThinkingMode
	electionStrat   election.Strategy
	criteria        election.EvaluationCriteria
	decompConfig    decompose.DecompositionConfig

	electionEngine *election.Engine
	logger         *slog.Logger
	telemetry      *telemetry.Registry
	statsCollector *stats.Collector
	buses          *eventBuses

	closeOnce sync.Once
}

// Option configures a Mind at construction time (SPEC_FULL.md AMBIENT
// STACK: functional options, mirroring the teacher's circuitbreaker.New /
// health.NewTracker Option pattern).
type Option func(*Mind)

// WithClientFactory supplies the Resolver used to build a PathwayClient for
// pathways added without one directly (spec §9 "Global ChatConfig singleton
// ... collapses to a pure Resolver").
func WithClientFactory(factory ClientFactory) Option {
	return func(m *Mind) { m.reg.factory = factory }
}

// WithLogger overrides the default structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mind) { m.logger = logger }
}

// WithThinkingMode sets the initial thinking mode (default Adaptive).
func WithThinkingMode(mode ThinkingMode) Option {
	return func(m *Mind) { m.thinkingMode = mode }
}

// WithElectionStrategy sets the initial voting strategy (default
// WeightedMajority).
func WithElectionStrategy(strategy election.Strategy) Option {
	return func(m *Mind) { m.electionStrat = strategy }
}

// WithEvaluationCriteria overrides the default scoring weights.
func WithEvaluationCriteria(criteria election.EvaluationCriteria) Option {
	return func(m *Mind) {
		m.criteria = criteria
		m.electionEngine = election.NewEngine(criteria)
	}
}

// WithDecompositionConfig overrides the default decomposition tuning.
func WithDecompositionConfig(cfg decompose.DecompositionConfig) Option {
	return func(m *Mind) { m.decompConfig = cfg }
}

// WithTelemetry wires a Prometheus registry; without this option, metrics
// calls are skipped.
func WithTelemetry(reg *telemetry.Registry) Option {
	return func(m *Mind) { m.telemetry = reg }
}

// WithStatsCollector overrides the default rolling-window stats collector.
func WithStatsCollector(c *stats.Collector) Option {
	return func(m *Mind) { m.statsCollector = c }
}

// New builds a Mind with zero pathways. Callers add pathways with
// AddPathway.
func New(opts ...Option) *Mind {
	m := &Mind{
		reg:            newRegistry(nil),
		thinkingMode:   ModeAdaptive,
		electionStrat:  election.WeightedMajority,
		criteria:       election.Default(),
		decompConfig:   decompose.Default(),
		logger:         logging.Setup("info"),
		statsCollector: stats.NewCollector(),
		buses:          newEventBuses(),
	}
	m.electionEngine = election.NewEngine(m.criteria)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddPathway resolves spec into a Pathway and adds it to the pool (spec §6
// add_pathway). It is fluent in the sense that a successful call returns m
// for chaining; the core replaces source exception-as-control-flow with an
// explicit error return (spec §9), so a caller must check err before
// continuing the chain.
func (m *Mind) AddPathway(spec PathwaySpec) (*Mind, error) {
	p, err := m.reg.add(spec)
	if err != nil {
		return m, err
	}
	p.onBreakerTransition(func(from, to BreakerState) {
		m.buses.publishThought(ThoughtBreakerTransition, p.Name, fmt.Sprintf("%s -> %s", from, to))
		if m.telemetry != nil {
			m.telemetry.PathwayBreakerState.WithLabelValues(p.Name).Set(telemetry.BreakerStateValue(to.String()))
		}
		m.logger.Info("breaker_transition", slog.String("pathway", p.Name), slog.String("from", from.String()), slog.String("to", to.String()))
	})
	p.statsHook = func(sample pathwayStatsSample) {
		m.statsCollector.Record(stats.Snapshot{
			Timestamp:    time.Now(),
			PathwayName:  sample.pathway,
			LatencyMs:    float64(sample.latency.Milliseconds()),
			Success:      sample.success,
			InputTokens:  sample.inputTokens,
			OutputTokens: sample.outputTokens,
		})
		if m.telemetry != nil {
			m.telemetry.PathwayWeight.WithLabelValues(sample.pathway).Set(p.Snapshot().Weight)
			m.telemetry.PathwayActivationRate.WithLabelValues(sample.pathway).Set(p.Snapshot().ActivationRate())
		}
	}
	return m, nil
}

// ConfigurePathway updates a pathway's tier and specializations in place
// (spec §6 configure_pathway).
func (m *Mind) ConfigurePathway(name string, tier Tier, specs ...Specialization) error {
	return m.reg.configure(name, tier, specs)
}

// SetMaster designates the named pathway as master, or clears it when name
// is empty (spec §6 set_master).
func (m *Mind) SetMaster(name string) error {
	return m.reg.setMaster(name)
}

// SetFirstAsMaster designates the first-added pathway as master (spec §6
// set_first_as_master).
func (m *Mind) SetFirstAsMaster() {
	m.reg.setFirstAsMaster()
}

// Pathways returns a read-only snapshot of the pool (spec §6 pathways
// property).
func (m *Mind) Pathways() []*Pathway {
	return m.reg.snapshot()
}

// HealthyPathwayCount reports how many pathways currently have a non-Open
// breaker (spec §6 healthy_pathway_count).
func (m *Mind) HealthyPathwayCount() int {
	return len(m.reg.healthyPathways())
}

// ThinkingMode returns the current top-level strategy.
func (m *Mind) ThinkingMode() ThinkingMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.thinkingMode
}

// SetThinkingMode changes the top-level strategy (spec §6 thinking_mode
// property, settable).
func (m *Mind) SetThinkingMode(mode ThinkingMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thinkingMode = mode
}

// ElectionStrategy returns the current voting strategy.
func (m *Mind) ElectionStrategy() election.Strategy {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.electionStrat
}

// SetElectionStrategy changes the voting strategy (spec §6 election_strategy
// property).
func (m *Mind) SetElectionStrategy(strategy election.Strategy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.electionStrat = strategy
}

// DecompositionConfig returns the current decomposition tuning.
func (m *Mind) DecompositionConfig() decompose.DecompositionConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.decompConfig
}

// SetDecompositionConfig changes the decomposition tuning (spec §6
// decomposition_config property).
func (m *Mind) SetDecompositionConfig(cfg decompose.DecompositionConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decompConfig = cfg
}

// ThoughtStream subscribes to the thought event stream (spec §6).
func (m *Mind) ThoughtStream(bufSize int) *events.Subscriber[ThoughtEvent] {
	return m.buses.thoughts.Subscribe(bufSize)
}

// SubGoalStream subscribes to per-sub-goal execution events (spec §6).
func (m *Mind) SubGoalStream(bufSize int) *events.Subscriber[SubGoalEvent] {
	return m.buses.subGoals.Subscribe(bufSize)
}

// ElectionEvents subscribes to election outcome events (spec §6).
func (m *Mind) ElectionEvents(bufSize int) *events.Subscriber[ElectionEvent] {
	return m.buses.elections.Subscribe(bufSize)
}

// Generate dispatches prompt through the current thinking mode and returns
// the resulting ThinkingResponse (spec §6 generate).
func (m *Mind) Generate(ctx context.Context, prompt string) (ThinkingResponse, error) {
	mode := m.ThinkingMode()
	if mode == ModeAdaptive {
		resolved, err := m.resolveAdaptiveMode(prompt)
		if err != nil {
			return ThinkingResponse{}, err
		}
		mode = resolved
	}

	ctx, span := startSpan(ctx, "mind.generate", attribute.String("mode", mode.String()))
	var resp ThinkingResponse
	var err error
	defer func() { endSpan(span, err) }()

	switch mode {
	case ModeRacing:
		resp, err = m.race(ctx, prompt)
	case ModeSequential:
		resp, err = m.runSequential(ctx, prompt)
	case ModeEnsemble:
		resp, err = m.ensemble(ctx, prompt)
	case ModeDecomposed:
		resp, err = m.decomposedGenerate(ctx, prompt)
	default:
		resp, err = m.runSequential(ctx, prompt)
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	if m.telemetry != nil {
		m.telemetry.ModeDispatchTotal.WithLabelValues(mode.String(), status).Inc()
	}
	return resp, err
}

// resolveAdaptiveMode applies spec §4.2's ordered routing rules.
func (m *Mind) resolveAdaptiveMode(prompt string) (ThinkingMode, error) {
	healthy := m.HealthyPathwayCount()
	switch {
	case healthy == 0:
		return 0, ErrNoHealthyPathways
	case healthy == 1:
		return ModeSequential, nil
	case len(prompt) > adaptiveEnsemblePromptLen || strings.Contains(prompt, "analyze") || strings.Contains(prompt, "compare"):
		return ModeEnsemble, nil
	case len(prompt) < adaptiveRacingPromptLen:
		return ModeRacing, nil
	default:
		return ModeSequential, nil
	}
}

// Close disposes the Mind: it closes every Closer-capable pathway client
// and completes the event streams (spec §5 "Resource release"). Idempotent.
func (m *Mind) Close() error {
	var firstErr error
	m.closeOnce.Do(func() {
		for _, p := range m.reg.snapshot() {
			if closer, ok := p.client.(Closer); ok {
				if err := closer.Close(); err != nil && firstErr == nil {
					firstErr = err
				}
			}
		}
		m.buses.close()
	})
	return firstErr
}
