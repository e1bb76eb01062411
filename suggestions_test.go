package mind

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collectivemind/mind/internal/election"
)

// electionPrompt and the winner/loser content below are engineered so that
// relevance() (the dominant heuristic term) is 1.0 for "winner" and 0 for
// "loser" regardless of everything else, making Majority's outcome
// deterministic without depending on real network timing.
const electionPrompt = "apple banana cherry date forest meadow valley delta"

const winnerContent = "Apple banana cherry date forest meadow valley delta. This is a thorough and relevant answer to the question."
const loserContent = "zzz zzz zzz zzz."

// runElection drives the engine directly (bypassing ensemble()'s real
// pathway invocations) so AvgLatency/WinRate can be engineered exactly.
// loserLatency lets a caller pin the losing candidate's latency (EMA's
// first sample sets AvgLatency exactly, since TotalElections goes 0->1).
func runElection(t *testing.T, m *Mind, winner, loser string, loserLatency time.Duration) {
	t.Helper()
	candidates := []election.ResponseCandidate{
		{Source: loser, Content: loserContent, Latency: loserLatency},
		{Source: winner, Content: winnerContent, Latency: 0},
	}
	result := m.electionEngine.Elect(context.Background(), electionPrompt, candidates, election.Majority, nil, nil)
	require.Equal(t, winner, result.Winner.Source, "engineered relevance gap should make the winner deterministic")
}

func TestGetOptimizationSuggestionsConsidersRemovalBelowLowWinRate(t *testing.T) {
	m := New()
	// "flaky" never wins across 6 elections (> minElectionsForRemoval), so
	// its win rate is 0, well under lowWinRateThreshold.
	for i := 0; i < minElectionsForRemoval+1; i++ {
		runElection(t, m, "winner", "flaky", 0)
	}

	suggestions := m.GetOptimizationSuggestions()
	found := findSuggestion(suggestions, "flaky")
	require.NotNil(t, found)
	assert.Equal(t, ActionConsiderRemoving, found.Action)
}

func TestGetOptimizationSuggestionsReducesUsageForSlowLosers(t *testing.T) {
	m := New()
	// A single election is enough: no minElections gate on ActionReduceUsage.
	runElection(t, m, "fast", "slow", 11*time.Second)

	suggestions := m.GetOptimizationSuggestions()
	found := findSuggestion(suggestions, "slow")
	require.NotNil(t, found)
	assert.Equal(t, ActionReduceUsage, found.Action)
}

func TestGetOptimizationSuggestionsIncreasesPriorityForReliableWinners(t *testing.T) {
	m := New()
	// "star" wins every one of 11 elections (> minElectionsForPriority),
	// giving it a win rate of 1.0, comfortably above highWinRateThreshold.
	for i := 0; i < minElectionsForPriority+1; i++ {
		runElection(t, m, "star", "also-ran", 0)
	}

	suggestions := m.GetOptimizationSuggestions()
	found := findSuggestion(suggestions, "star")
	require.NotNil(t, found)
	assert.Equal(t, ActionIncreasePriority, found.Action)
}

// TestGetOptimizationSuggestionsKeepsOnlyHighestPriorityPerPathway covers the
// docstring's promise: a pathway that independently qualifies for both
// ActionConsiderRemoving (priority 2) and ActionReduceUsage (priority 1)
// must only appear once, as the higher-priority ActionReduceUsage.
func TestGetOptimizationSuggestionsKeepsOnlyHighestPriorityPerPathway(t *testing.T) {
	m := New()
	// "bad" never wins (qualifies for ActionConsiderRemoving) and its
	// latency is pinned above highLatencySeconds (also qualifies for
	// ActionReduceUsage).
	for i := 0; i < minElectionsForRemoval+1; i++ {
		runElection(t, m, "good", "bad", 11*time.Second)
	}

	suggestions := m.GetOptimizationSuggestions()
	matches := 0
	for _, s := range suggestions {
		if s.Pathway == "bad" {
			matches++
			assert.Equal(t, ActionReduceUsage, s.Action, "the lower-priority-number suggestion must win the per-pathway dedup")
		}
	}
	assert.Equal(t, 1, matches, "each pathway must appear at most once in the suggestion list")
}

func TestGetOptimizationSuggestionsEmptyWhenNoHistory(t *testing.T) {
	m := New()
	assert.Empty(t, m.GetOptimizationSuggestions())
}

func findSuggestion(suggestions []OptimizationSuggestion, pathway string) *OptimizationSuggestion {
	for i := range suggestions {
		if suggestions[i].Pathway == pathway {
			return &suggestions[i]
		}
	}
	return nil
}

func TestGetConsciousnessStatusReportsPoolAndMaster(t *testing.T) {
	m := New()
	m.AddPathway(newSpecWithClient("primary", newMockClient("ok")))
	m.AddPathway(newSpecWithClient("backup", newMockClient("ok")))
	require.NoError(t, m.SetMaster("primary"))

	status := m.GetConsciousnessStatus()
	assert.Contains(t, status, "2 pathway(s)")
	assert.Contains(t, status, "primary")
	assert.Contains(t, status, "(master)")
	assert.Contains(t, status, "backup")
	assert.NotContains(t, status, "backup (master)")
}

func TestStatsReflectsRecordedRequests(t *testing.T) {
	m := New()
	m.AddPathway(newSpecWithClient("p1", newMockClient("hello there")))

	_, err := m.runSequential(context.Background(), "hi")
	require.NoError(t, err)

	summary := m.Stats()
	agg, ok := summary["1h"]
	require.True(t, ok, "expected the 1h window to have an entry after a request")
	found := false
	for _, a := range agg {
		if a.PathwayName == "p1" {
			found = true
			assert.Equal(t, 1, a.RequestCount)
		}
	}
	assert.True(t, found, "expected p1 to appear in the 1h aggregate")
}

func TestElectionPerformanceReturnsZeroValueForUnknownSource(t *testing.T) {
	m := New()
	perf := m.ElectionPerformance("never-raced")
	assert.Zero(t, perf.TotalElections)
	assert.Zero(t, perf.Wins)
}

func TestElectionPerformanceTracksWinsAfterElection(t *testing.T) {
	m := New()
	runElection(t, m, "winner", "loser", 0)

	perf := m.ElectionPerformance("winner")
	assert.Equal(t, 1, perf.TotalElections)
	assert.Equal(t, 1, perf.Wins)
	assert.Equal(t, 1.0, perf.WinRate())
}
