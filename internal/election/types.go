// Package election implements the Election Engine: candidate scoring, the
// seven voting strategies, master-pathway blending, and the rolling
// performance history the Ensemble driver consults (spec §4.5). Grounded on
// the teacher's internal/router ModeWeights scoring-coefficient pattern
// (engine.go) generalized from "pick one model by cost/latency/failure" to
// "rank N already-produced candidates by five quality metrics".
package election

import "time"

// ResponseCandidate is one ensemble worker's output, immutable except
// through with_score/with_metrics style copy-update methods (spec §3).
type ResponseCandidate struct {
	Source    string
	Thinking  string
	Content   string
	Latency   time.Duration
	Score     float64
	Metrics   map[string]float64
	Valid     bool
}

// WithScore returns a copy of c with Score replaced.
func (c ResponseCandidate) WithScore(score float64) ResponseCandidate {
	c.Score = score
	return c
}

// WithMetrics returns a copy of c with Metrics replaced.
func (c ResponseCandidate) WithMetrics(metrics map[string]float64) ResponseCandidate {
	c.Metrics = metrics
	return c
}

// EvaluationCriteria weighs the five scoring metrics (spec §4.5). Weights
// need not sum to 1; WeightedSum normalizes implicitly by construction when
// the caller uses the provided presets or Default.
type EvaluationCriteria struct {
	RelevanceWeight   float64
	CoherenceWeight   float64
	CompletenessWeight float64
	LatencyWeight     float64
	CostWeight        float64
}

// Default returns spec §4.5's default weights (0.30/0.25/0.20/0.15/0.10).
func Default() EvaluationCriteria {
	return EvaluationCriteria{
		RelevanceWeight:    0.30,
		CoherenceWeight:    0.25,
		CompletenessWeight: 0.20,
		LatencyWeight:      0.15,
		CostWeight:         0.10,
	}
}

// QualityFocused favors relevance and coherence over speed and cost.
func QualityFocused() EvaluationCriteria {
	return EvaluationCriteria{
		RelevanceWeight:    0.40,
		CoherenceWeight:    0.30,
		CompletenessWeight: 0.20,
		LatencyWeight:      0.05,
		CostWeight:         0.05,
	}
}

// SpeedFocused favors latency above all else.
func SpeedFocused() EvaluationCriteria {
	return EvaluationCriteria{
		RelevanceWeight:    0.20,
		CoherenceWeight:    0.15,
		CompletenessWeight: 0.15,
		LatencyWeight:      0.40,
		CostWeight:         0.10,
	}
}

// CostFocused favors cost above all else.
func CostFocused() EvaluationCriteria {
	return EvaluationCriteria{
		RelevanceWeight:    0.20,
		CoherenceWeight:    0.15,
		CompletenessWeight: 0.15,
		LatencyWeight:      0.10,
		CostWeight:         0.40,
	}
}

// WeightedSum combines the five per-candidate metrics under c's weights.
func (c EvaluationCriteria) WeightedSum(relevance, coherence, completeness, latency, cost float64) float64 {
	return c.RelevanceWeight*relevance +
		c.CoherenceWeight*coherence +
		c.CompletenessWeight*completeness +
		c.LatencyWeight*latency +
		c.CostWeight*cost
}

const perfScoreAlpha = 0.1 // spec §3 ModelPerformance avg_score/avg_latency EMA

// ModelPerformance is the rolling per-source record kept across elections
// (spec §3).
type ModelPerformance struct {
	TotalElections int
	Wins           int
	AvgScore       float64
	AvgLatency     time.Duration
	AvgCost        float64
	LastUsed       time.Time
}

// WinRate is Wins / max(TotalElections, 1).
func (m ModelPerformance) WinRate() float64 {
	if m.TotalElections == 0 {
		return 0
	}
	return float64(m.Wins) / float64(m.TotalElections)
}

// ReliabilityScore blends win rate with a latency penalty (spec §3):
// 0.6·win_rate + 0.4·(1 − min(1, avg_latency_s/30)).
func (m ModelPerformance) ReliabilityScore() float64 {
	latencyS := m.AvgLatency.Seconds()
	penalty := latencyS / 30
	if penalty > 1 {
		penalty = 1
	}
	return 0.6*m.WinRate() + 0.4*(1-penalty)
}

// record folds one election outcome into the running EMA. won marks whether
// this source's candidate was the election's winner.
func (m ModelPerformance) record(score float64, latency time.Duration, cost float64, won bool, now time.Time) ModelPerformance {
	m.TotalElections++
	if won {
		m.Wins++
	}
	if m.TotalElections == 1 {
		m.AvgScore = score
		m.AvgLatency = latency
		m.AvgCost = cost
	} else {
		m.AvgScore = perfScoreAlpha*score + (1-perfScoreAlpha)*m.AvgScore
		m.AvgLatency = time.Duration(perfScoreAlpha*float64(latency) + (1-perfScoreAlpha)*float64(m.AvgLatency))
		m.AvgCost = perfScoreAlpha*cost + (1-perfScoreAlpha)*m.AvgCost
	}
	m.LastUsed = now
	return m
}
