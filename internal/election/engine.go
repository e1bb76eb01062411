package election

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MasterEvaluator queries the master pathway for a heuristic-blending score
// per candidate (spec §4.5: "it is queried with a templated evaluation
// prompt returning a JSON array of per-candidate scores"). The engine
// package has no knowledge of Pathway/PathwayClient to avoid an import
// cycle; the Mind supplies this closure at call time.
type MasterEvaluator func(ctx context.Context, prompt string, candidates []ResponseCandidate) ([]float64, error)

// MasterDecider queries the master pathway for the MasterDecision strategy
// and returns the 0-based index of the winning candidate (the master itself
// answers 1..n; the closure converts).
type MasterDecider func(ctx context.Context, prompt string, candidates []ResponseCandidate) (int, error)

// Result is the outcome of one election.
type Result struct {
	Strategy       Strategy
	Winner         ResponseCandidate
	Votes          map[string]float64
	Trace          string
	MasterFailed   bool // MasterEvaluationFailed (spec §4.5)
	FellBackToWMaj bool // MasterDecision parse/unavailable fallback (spec §4.5, S6)
}

// Engine scores ensemble candidates and runs the configured voting
// strategy, maintaining rolling per-source performance history (spec §4.5,
// §3 ModelPerformance). Grounded on the teacher's ModeWeights scoring
// pattern (internal/router/engine.go), generalized from picking one model
// by cost/latency/failure to ranking N completed candidates by five quality
// metrics.
type Engine struct {
	mu       sync.Mutex
	perf     map[string]ModelPerformance
	criteria EvaluationCriteria
}

// NewEngine builds an Engine with the given scoring weights.
func NewEngine(criteria EvaluationCriteria) *Engine {
	return &Engine{criteria: criteria, perf: make(map[string]ModelPerformance)}
}

// Performance returns a copy of the rolling history for name, or the zero
// value if none recorded yet.
func (e *Engine) Performance(name string) ModelPerformance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.perf[name]
}

// AllPerformance returns a copy of the full performance history, keyed by
// source name. Used by get_optimization_suggestions (spec §6).
func (e *Engine) AllPerformance() map[string]ModelPerformance {
	return e.snapshotPerf()
}

// snapshotPerf copies the performance map under lock for strategies that
// need a consistent read (WeightedMajority).
func (e *Engine) snapshotPerf() map[string]ModelPerformance {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]ModelPerformance, len(e.perf))
	for k, v := range e.perf {
		out[k] = v
	}
	return out
}

// score computes the five heuristic metrics for each candidate and blends
// in a master evaluation when supplied (spec §4.5).
func (e *Engine) score(ctx context.Context, prompt string, candidates []ResponseCandidate, masterEval MasterEvaluator) ([]ResponseCandidate, bool) {
	perf := e.snapshotPerf()
	scored := make([]ResponseCandidate, len(candidates))
	for i, c := range candidates {
		p, known := perf[c.Source]
		rel := relevance(prompt, c.Content)
		coh := coherence(c.Content)
		comp := completeness(prompt, c.Content)
		lat := latencyScore(c.Latency.Seconds())
		cost := costScore(p.AvgCost, known)
		heuristic := e.criteria.WeightedSum(rel, coh, comp, lat, cost)
		scored[i] = c.WithMetrics(map[string]float64{
			"relevance":    rel,
			"coherence":    coh,
			"completeness": comp,
			"latency":      lat,
			"cost":         cost,
		}).WithScore(heuristic)
	}

	if masterEval == nil {
		return scored, false
	}
	masterScores, err := masterEval(ctx, prompt, scored)
	if err != nil || len(masterScores) != len(scored) {
		return scored, true
	}
	for i := range scored {
		scored[i] = scored[i].WithScore(0.4*scored[i].Score + 0.6*masterScores[i])
	}
	return scored, false
}

// Elect scores candidates, runs the voting strategy, updates performance
// history, and builds the thinking trace. Callers must have already
// resolved the zero- and one-candidate cases (spec §4.5); Elect assumes
// len(candidates) >= 2.
func (e *Engine) Elect(ctx context.Context, prompt string, candidates []ResponseCandidate, strategy Strategy, masterEval MasterEvaluator, masterDecide MasterDecider) Result {
	scored, masterFailed := e.score(ctx, prompt, candidates, masterEval)

	usedStrategy := strategy
	fellBack := false
	var winnerIdx int
	var votes map[string]float64

	if strategy == MasterDecision && masterDecide != nil {
		idx, err := masterDecide(ctx, prompt, scored)
		if err != nil || idx < 0 || idx >= len(scored) {
			usedStrategy = WeightedMajority
			fellBack = true
			winnerIdx, votes = Tally(WeightedMajority, scored, e.snapshotPerf())
		} else {
			winnerIdx = idx
			votes = make(map[string]float64, len(scored))
			for i, c := range scored {
				if i == idx {
					votes[c.Source] = 1
				} else {
					votes[c.Source] = 0
				}
			}
		}
	} else {
		if strategy == MasterDecision {
			usedStrategy = WeightedMajority
			fellBack = true
		}
		winnerIdx, votes = Tally(usedStrategy, scored, e.snapshotPerf())
	}

	now := time.Now()
	e.updatePerformance(scored, winnerIdx, now)

	return Result{
		Strategy:       usedStrategy,
		Winner:         scored[winnerIdx],
		Votes:          votes,
		Trace:          buildTrace(usedStrategy, scored, votes, winnerIdx, masterFailed, fellBack),
		MasterFailed:   masterFailed,
		FellBackToWMaj: fellBack,
	}
}

func (e *Engine) updatePerformance(candidates []ResponseCandidate, winnerIdx int, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, c := range candidates {
		cost := c.Metrics["cost"]
		e.perf[c.Source] = e.perf[c.Source].record(c.Score, c.Latency, cost, i == winnerIdx, now)
	}
}

func buildTrace(strategy Strategy, candidates []ResponseCandidate, votes map[string]float64, winnerIdx int, masterFailed, fellBack bool) string {
	type row struct {
		source string
		vote   float64
	}
	rows := make([]row, 0, len(votes))
	for source, v := range votes {
		rows = append(rows, row{source, v})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].vote > rows[j].vote })

	var b strings.Builder
	fmt.Fprintf(&b, "election: strategy=%s\n", strategy)
	if masterFailed {
		b.WriteString("master evaluation failed; heuristic scores used\n")
	}
	if fellBack {
		b.WriteString("master decision unavailable or unparseable; fell back to weighted_majority\n")
	}
	b.WriteString("votes (desc):\n")
	for _, r := range rows {
		marker := ""
		if candidates[winnerIdx].Source == r.source {
			marker = " <- winner"
		}
		fmt.Fprintf(&b, "  %s: %.3f%s\n", r.source, r.vote, marker)
	}
	return b.String()
}
