// Package decompose holds the pure data model and parsing/classification
// algorithms for the Decomposed thinking mode (spec §4.6). It deliberately
// knows nothing about Pathway or the registry — wave execution and pathway
// selection, which need those, live in the root package's decompose.go —
// so this package stays import-cycle-free and independently testable, the
// way the teacher keeps internal/router's pure scoring helpers
// (rewards.go, thompson.go) free of the provider/sender types.
package decompose

import "fmt"

// Complexity is a sub-goal's estimated difficulty (spec §3).
type Complexity int

const (
	Trivial Complexity = iota
	Simple
	Moderate
	Complex
	Expert
)

func (c Complexity) String() string {
	switch c {
	case Trivial:
		return "trivial"
	case Simple:
		return "simple"
	case Moderate:
		return "moderate"
	case Complex:
		return "complex"
	case Expert:
		return "expert"
	default:
		return "unknown"
	}
}

// ParseComplexity maps a lowercase or capitalized name to a Complexity,
// defaulting to Moderate for anything else (including other casings).
func ParseComplexity(s string) Complexity {
	switch s {
	case "trivial", "Trivial":
		return Trivial
	case "simple", "Simple":
		return Simple
	case "moderate", "Moderate":
		return Moderate
	case "complex", "Complex":
		return Complex
	case "expert", "Expert":
		return Expert
	default:
		return Moderate
	}
}

// GoalType is a sub-goal's declared task category (spec §3); it reuses the
// same vocabulary as Pathway Specialization, plus Synthesis, which only
// appears as a tier-routing key for the synthesis step.
type GoalType string

const (
	TypeRetrieval GoalType = "retrieval"
	TypeTransform GoalType = "transform"
	TypeReasoning GoalType = "reasoning"
	TypeCreative  GoalType = "creative"
	TypeCoding    GoalType = "coding"
	TypeMath      GoalType = "math"
	TypeSynthesis GoalType = "synthesis"
)

// ParseGoalType maps a lowercase or capitalized name to a GoalType,
// defaulting to TypeReasoning for anything else, including other casings
// (spec §4.6: "default Reasoning").
func ParseGoalType(s string) GoalType {
	switch s {
	case "retrieval", "Retrieval":
		return TypeRetrieval
	case "transform", "Transform":
		return TypeTransform
	case "creative", "Creative":
		return TypeCreative
	case "coding", "Coding":
		return TypeCoding
	case "math", "Math":
		return TypeMath
	case "synthesis", "Synthesis":
		return TypeSynthesis
	default:
		return TypeReasoning
	}
}

// Tier mirrors the root package's Tier enum (spec §3). Duplicated rather
// than imported to keep this package free of a dependency on the root
// package; the root package converts between the two at its boundary.
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

// SubGoal is one decomposition unit (spec §3). Immutable once created by
// the decomposer.
type SubGoal struct {
	ID            string
	Description   string
	Complexity    Complexity
	Type          GoalType
	Dependencies  []string
	PreferredTier Tier
}

// SubGoalResult is the execution record for one SubGoal (spec §3).
type SubGoalResult struct {
	GoalID      string
	PathwayUsed string
	Content     string
	Duration    int64 // nanoseconds; root package converts to time.Duration
	Success     bool
	Err         error
}

// CircularDependencyError is returned by BuildWaves when no wave can make
// progress (spec §4.6 step 4).
type CircularDependencyError struct {
	Remaining []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("decompose: circular dependency among sub-goals %v", e.Remaining)
}

// DecompositionConfig tunes the decomposition engine (spec §4.6).
type DecompositionConfig struct {
	TypeRouting             map[GoalType]Tier
	PreferLocalForSimple    bool
	DecompositionThreshold  Complexity // default Moderate
	MaxSubGoals             int        // default 10
	ParallelizationEnabled  bool
	PremiumForSynthesis     bool
}

// DefaultTypeRouting is spec §4.6's default type→tier table.
func DefaultTypeRouting() map[GoalType]Tier {
	return map[GoalType]Tier{
		TypeRetrieval: TierLocal,
		TypeTransform: TierLocal,
		TypeReasoning: TierCloudLight,
		TypeCreative:  TierCloudPremium,
		TypeCoding:    TierSpecialized,
		TypeMath:      TierSpecialized,
		TypeSynthesis: TierCloudPremium,
	}
}

// Default returns spec §4.6's default configuration.
func Default() DecompositionConfig {
	return DecompositionConfig{
		TypeRouting:            DefaultTypeRouting(),
		PreferLocalForSimple:   false,
		DecompositionThreshold: Moderate,
		MaxSubGoals:            10,
		ParallelizationEnabled: true,
		PremiumForSynthesis:    false,
	}
}

// LocalFirst routes everything to Local except Synthesis, which stays
// CloudLight (spec §4.6 preset).
func LocalFirst() DecompositionConfig {
	cfg := Default()
	routing := make(map[GoalType]Tier, len(cfg.TypeRouting))
	for t := range cfg.TypeRouting {
		routing[t] = TierLocal
	}
	routing[TypeSynthesis] = TierCloudLight
	cfg.TypeRouting = routing
	return cfg
}

// QualityFirst routes everything to CloudPremium (spec §4.6 preset).
func QualityFirst() DecompositionConfig {
	cfg := Default()
	routing := make(map[GoalType]Tier, len(cfg.TypeRouting))
	for t := range cfg.TypeRouting {
		routing[t] = TierCloudPremium
	}
	cfg.TypeRouting = routing
	return cfg
}

// PreferredTier applies spec §4.6 step 3: look up the type's tier, then
// override to Local when PreferLocalForSimple and complexity <= Simple.
func PreferredTier(cfg DecompositionConfig, goalType GoalType, complexity Complexity) Tier {
	tier := cfg.TypeRouting[goalType]
	if tier != TierLocal && cfg.PreferLocalForSimple && complexity <= Simple {
		return TierLocal
	}
	return tier
}
