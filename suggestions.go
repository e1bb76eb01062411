package mind

import (
	"fmt"
	"sort"
	"strings"

	"github.com/collectivemind/mind/internal/election"
	"github.com/collectivemind/mind/internal/stats"
)

// SuggestionAction classifies an optimization suggestion (spec §6
// get_optimization_suggestions).
type SuggestionAction string

const (
	ActionConsiderRemoving SuggestionAction = "consider_removing"
	ActionReduceUsage      SuggestionAction = "reduce_usage"
	ActionIncreasePriority SuggestionAction = "increase_priority"
)

// OptimizationSuggestion is one prioritized recommendation derived from a
// pathway's election performance history (spec §6).
type OptimizationSuggestion struct {
	Pathway  string
	Action   SuggestionAction
	Priority int // 1 = most urgent
	Reason   string
}

const (
	minElectionsForRemoval  = 5
	minElectionsForPriority = 10
	lowWinRateThreshold     = 0.20
	midWinRateThreshold     = 0.50
	highWinRateThreshold    = 0.70
	highLatencySeconds      = 10.0
)

// GetOptimizationSuggestions evaluates every pathway's rolling performance
// history and returns at most one suggestion per qualifying pathway, sorted
// by priority (1 = most urgent) and then by pathway name (spec §6): a
// pathway can both be flagged for removal and for reduced usage, but only
// the single highest-priority suggestion per pathway is kept. The list
// length is not capped.
func (m *Mind) GetOptimizationSuggestions() []OptimizationSuggestion {
	perf := m.electionEngine.AllPerformance()
	byPathway := make(map[string]OptimizationSuggestion)

	keep := func(name string, s OptimizationSuggestion) {
		if existing, ok := byPathway[name]; !ok || s.Priority < existing.Priority {
			byPathway[name] = s
		}
	}

	for name, p := range perf {
		if p.TotalElections > minElectionsForRemoval && p.WinRate() < lowWinRateThreshold {
			keep(name, OptimizationSuggestion{
				Pathway: name, Action: ActionConsiderRemoving, Priority: 2,
				Reason: fmt.Sprintf("win rate %.1f%% over %d elections", p.WinRate()*100, p.TotalElections),
			})
		}
		if p.AvgLatency.Seconds() > highLatencySeconds && p.WinRate() < midWinRateThreshold {
			keep(name, OptimizationSuggestion{
				Pathway: name, Action: ActionReduceUsage, Priority: 1,
				Reason: fmt.Sprintf("avg latency %.1fs with win rate %.1f%%", p.AvgLatency.Seconds(), p.WinRate()*100),
			})
		}
		if p.TotalElections > minElectionsForPriority && p.WinRate() > highWinRateThreshold {
			keep(name, OptimizationSuggestion{
				Pathway: name, Action: ActionIncreasePriority, Priority: 3,
				Reason: fmt.Sprintf("win rate %.1f%% over %d elections", p.WinRate()*100, p.TotalElections),
			})
		}
	}

	suggestions := make([]OptimizationSuggestion, 0, len(byPathway))
	for _, s := range byPathway {
		suggestions = append(suggestions, s)
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Priority != suggestions[j].Priority {
			return suggestions[i].Priority < suggestions[j].Priority
		}
		return suggestions[i].Pathway < suggestions[j].Pathway
	})
	return suggestions
}

// GetConsciousnessStatus renders a human-readable snapshot of the pool:
// size, per-pathway weight/activation-rate/breaker state (spec §6).
func (m *Mind) GetConsciousnessStatus() string {
	pathways := m.reg.snapshot()
	var b strings.Builder
	fmt.Fprintf(&b, "collective mind: %d pathway(s), %d healthy\n", len(pathways), m.HealthyPathwayCount())
	for _, p := range pathways {
		h := p.Snapshot()
		fmt.Fprintf(&b, "  %s [%s/%s] weight=%.2f rate=%.2f breaker=%s%s\n",
			p.Name, p.Tier, p.EndpointType, h.Weight, h.ActivationRate(), p.BreakerState(), masterMarker(m, p))
	}
	return b.String()
}

func masterMarker(m *Mind, p *Pathway) string {
	if master := m.reg.getMaster(); master != nil && master.Name == p.Name {
		return " (master)"
	}
	return ""
}

// Stats returns rolling-window request statistics per pathway, distinct
// from GetConsciousnessStatus's point-in-time health snapshot (spec
// SUPPLEMENTED FEATURES).
func (m *Mind) Stats() map[string][]stats.Aggregate {
	return m.statsCollector.Summary()
}

// ElectionPerformance exposes the election engine's per-source rolling
// history for one pathway (spec §3 ModelPerformance).
func (m *Mind) ElectionPerformance(name string) election.ModelPerformance {
	return m.electionEngine.Performance(name)
}
