package election

import "sort"

// Strategy is one of the Election Engine's seven voting algorithms (spec
// §4.5).
type Strategy string

const (
	Majority         Strategy = "majority"
	WeightedMajority Strategy = "weighted_majority"
	BordaCount       Strategy = "borda_count"
	Condorcet        Strategy = "condorcet"
	InstantRunoff    Strategy = "instant_runoff"
	ApprovalVoting   Strategy = "approval_voting"
	MasterDecision   Strategy = "master_decision"
)

const approvalThreshold = 0.6

// Tally runs strategy over candidates (each already scored) and perf
// (rolling reliability history keyed by source). It returns the winning
// candidate's index and a votes map with exactly len(candidates) entries
// (spec §8 invariant 4). MasterDecision is not handled here: the engine
// queries the master pathway first and falls back to WeightedMajority on
// failure, per spec §4.5.
func Tally(strategy Strategy, candidates []ResponseCandidate, perf map[string]ModelPerformance) (winner int, votes map[string]float64) {
	switch strategy {
	case WeightedMajority:
		return tallyWeightedMajority(candidates, perf)
	case BordaCount:
		return tallyBordaCount(candidates)
	case Condorcet:
		return tallyCondorcet(candidates)
	case InstantRunoff:
		return tallyInstantRunoff(candidates)
	case ApprovalVoting:
		return tallyApprovalVoting(candidates)
	default: // Majority, and any strategy not listed above
		return tallyMajority(candidates)
	}
}

func tallyMajority(candidates []ResponseCandidate) (int, map[string]float64) {
	votes := make(map[string]float64, len(candidates))
	best := 0
	for i, c := range candidates {
		votes[c.Source] = c.Score
		if c.Score > candidates[best].Score {
			best = i
		}
	}
	return best, votes
}

func tallyWeightedMajority(candidates []ResponseCandidate, perf map[string]ModelPerformance) (int, map[string]float64) {
	votes := make(map[string]float64, len(candidates))
	weighted := make([]float64, len(candidates))
	best := 0
	for i, c := range candidates {
		reliability := perf[c.Source].ReliabilityScore()
		w := c.Score * (0.5 + 0.5*reliability)
		weighted[i] = w
		votes[c.Source] = w
		if w > weighted[best] {
			best = i
		}
	}
	return best, votes
}

func tallyBordaCount(candidates []ResponseCandidate) (int, map[string]float64) {
	order := rankByScoreDesc(candidates)
	votes := make(map[string]float64, len(candidates))
	n := len(candidates)
	for rank, idx := range order {
		votes[candidates[idx].Source] = float64(n - rank)
	}
	return order[0], votes
}

func tallyCondorcet(candidates []ResponseCandidate) (int, map[string]float64) {
	votes := make(map[string]float64, len(candidates))
	wins := make([]int, len(candidates))
	for i := range candidates {
		for j := range candidates {
			if i == j {
				continue
			}
			if candidates[i].Score > candidates[j].Score {
				wins[i]++
			}
		}
		votes[candidates[i].Source] = float64(wins[i])
	}
	best := 0
	for i := range candidates {
		if wins[i] > wins[best] {
			best = i
		}
	}
	return best, votes
}

// tallyInstantRunoff repeatedly eliminates the lowest scorer; each
// eliminated candidate's vote is recorded as the negative round number it
// was dropped in (spec §4.5: "track elimination round as a negative vote").
func tallyInstantRunoff(candidates []ResponseCandidate) (int, map[string]float64) {
	votes := make(map[string]float64, len(candidates))
	remaining := make([]int, len(candidates))
	for i := range candidates {
		remaining[i] = i
	}

	round := 1
	for len(remaining) > 1 {
		lowest := 0
		for k, idx := range remaining {
			if candidates[idx].Score < candidates[remaining[lowest]].Score {
				lowest = k
			}
		}
		eliminated := remaining[lowest]
		votes[candidates[eliminated].Source] = -float64(round)
		remaining = append(remaining[:lowest], remaining[lowest+1:]...)
		round++
	}

	winner := remaining[0]
	votes[candidates[winner].Source] = float64(len(candidates))
	return winner, votes
}

func tallyApprovalVoting(candidates []ResponseCandidate) (int, map[string]float64) {
	votes := make(map[string]float64, len(candidates))
	var approved []int
	for i, c := range candidates {
		if c.Score >= approvalThreshold {
			votes[c.Source] = 1
			approved = append(approved, i)
		} else {
			votes[c.Source] = 0
		}
	}
	if len(approved) == 0 {
		best := 0
		for i, c := range candidates {
			if c.Score > candidates[best].Score {
				best = i
			}
		}
		votes[candidates[best].Source] = 1
		return best, votes
	}

	best := approved[0]
	for _, idx := range approved {
		if candidates[idx].Score > candidates[best].Score {
			best = idx
		}
	}
	return best, votes
}

// rankByScoreDesc returns candidate indices ordered from highest to lowest
// score, ties broken by original (insertion) order.
func rankByScoreDesc(candidates []ResponseCandidate) []int {
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return candidates[order[a]].Score > candidates[order[b]].Score
	})
	return order
}
