package mind

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collectivemind/mind/internal/decompose"
)

func TestPickDecomposerPathwayPrefersHealthyMaster(t *testing.T) {
	m := New()
	m.AddPathway(newSpecWithClient("master", newMockClient("ok")))
	m.AddPathway(newSpecWithClient("other", newMockClient("ok")))
	require.NoError(t, m.SetMaster("master"))

	got := m.pickDecomposerPathway()
	require.NotNil(t, got)
	assert.Equal(t, "master", got.Name)
}

func TestPickDecomposerPathwayFallsBackToCloudPremiumBonus(t *testing.T) {
	m := New()
	m.AddPathway(newSpecWithClient("local", newMockClient("ok")))
	m.AddPathway(newSpecWithClient("premium", newMockClient("ok")))
	require.NoError(t, m.ConfigurePathway("premium", TierCloudPremium))

	got := m.pickDecomposerPathway()
	require.NotNil(t, got)
	assert.Equal(t, "premium", got.Name, "cloud-premium tier bonus should win the decomposer pick")
}

func TestPickDecomposerPathwayNoHealthy(t *testing.T) {
	m := New()
	assert.Nil(t, m.pickDecomposerPathway())
}

func TestParseGoalsFallsBackOnInvokeFailure(t *testing.T) {
	m := New()
	c := newMockClient("")
	c.err = context.DeadlineExceeded
	m.AddPathway(newSpecWithClient("decomposer", c))
	p, _ := m.reg.byNameLookup("decomposer")

	goals := m.parseGoals(context.Background(), p, "do something complex", decompose.Default())
	assert.Len(t, goals, 1, "expected the synthetic fallback sub-goal")

	health := p.Snapshot()
	assert.EqualValues(t, 1, health.Inhibitions, "invoke() itself already recorded the inhibition for the client error")
	assert.EqualValues(t, 1, health.Synapses, "parseGoals must not add a second inhibition on top of invoke()'s")
}

func TestParseGoalsFallsBackOnOpenBreakerRecordsNothing(t *testing.T) {
	m := New()
	m.AddPathway(newSpecWithClient("decomposer", newMockClient("irrelevant")))
	p, _ := m.reg.byNameLookup("decomposer")
	for i := 0; i < breakerFailureThreshold; i++ {
		p.breaker.recordFailure()
	}
	healthBefore := p.Snapshot()

	goals := m.parseGoals(context.Background(), p, "do something complex", decompose.Default())
	assert.Len(t, goals, 1, "expected the synthetic fallback sub-goal")

	health := p.Snapshot()
	assert.Equal(t, healthBefore.Synapses, health.Synapses, "a call rejected by an open breaker never reached the client and must not fabricate a health record")
	assert.Equal(t, healthBefore.Inhibitions, health.Inhibitions)
}

func TestParseGoalsFallsBackOnUnparseableResponse(t *testing.T) {
	m := New()
	m.AddPathway(newSpecWithClient("decomposer", newMockClient("not json at all, sorry")))
	p, _ := m.reg.byNameLookup("decomposer")

	goals := m.parseGoals(context.Background(), p, "do something complex", decompose.Default())
	assert.Len(t, goals, 1, "expected the synthetic fallback sub-goal")

	health := p.Snapshot()
	assert.EqualValues(t, 1, health.Inhibitions, "a successful invocation with an unparseable plan is a rejected try")
	assert.EqualValues(t, 0, health.Activations)
	assert.EqualValues(t, 1, health.Synapses)
}

func TestParseGoalsSetsPreferredTier(t *testing.T) {
	m := New()
	plan := `[{"id":"g1","description":"write code","type":"coding","complexity":"complex","dependencies":[]}]`
	m.AddPathway(newSpecWithClient("decomposer", newMockClient(plan)))
	p, _ := m.reg.byNameLookup("decomposer")

	goals := m.parseGoals(context.Background(), p, "build a feature", decompose.Default())
	require.Len(t, goals, 1)
	assert.Equal(t, decompose.TierSpecialized, goals[0].PreferredTier, "coding defaults to TierSpecialized")
}

func TestSelectSubGoalPathwayPrefersSpecializedMatch(t *testing.T) {
	m := New()
	m.AddPathway(newSpecWithClient("generalist", newMockClient("ok")))
	m.AddPathway(newSpecWithClient("coder", newMockClient("ok")))
	require.NoError(t, m.ConfigurePathway("coder", TierCloudLight, SpecCoding))

	goal := decompose.SubGoal{ID: "g1", Type: decompose.TypeCoding, PreferredTier: decompose.TierCloudPremium}
	got := m.selectSubGoalPathway(goal)
	require.NotNil(t, got)
	assert.Equal(t, "coder", got.Name)
}

func TestSelectSubGoalPathwayFallsBackToExactTier(t *testing.T) {
	m := New()
	m.AddPathway(newSpecWithClient("light", newMockClient("ok")))
	require.NoError(t, m.ConfigurePathway("light", TierCloudLight))

	goal := decompose.SubGoal{ID: "g1", Type: decompose.TypeReasoning, PreferredTier: decompose.TierCloudLight}
	got := m.selectSubGoalPathway(goal)
	require.NotNil(t, got)
	assert.Equal(t, "light", got.Name)
}

func TestSelectSubGoalPathwayFallsBackToNearestTier(t *testing.T) {
	m := New()
	m.AddPathway(newSpecWithClient("local", newMockClient("ok")))
	require.NoError(t, m.ConfigurePathway("local", TierLocal))

	goal := decompose.SubGoal{ID: "g1", Type: decompose.TypeCreative, PreferredTier: decompose.TierCloudPremium}
	got := m.selectSubGoalPathway(goal)
	require.NotNil(t, got)
	assert.Equal(t, "local", got.Name, "only candidate should win by nearest-tier elimination")
}

func TestTierDistance(t *testing.T) {
	assert.Equal(t, 2, tierDistance(TierLocal, TierCloudPremium))
	assert.Equal(t, 2, tierDistance(TierCloudPremium, TierLocal))
}

func TestDecomposedGenerateShortCircuitsToSequentialBelowThreshold(t *testing.T) {
	m := New()
	plan := `[{"id":"g1","description":"say hi","type":"retrieval","complexity":"trivial","dependencies":[]}]`
	decomposer := newMockClient(plan)
	m.AddPathway(newSpecWithClient("only", decomposer))

	resp, err := m.decomposedGenerate(context.Background(), "hi")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Content)
}

func TestDecomposedGenerateRunsWavesAndSynthesizes(t *testing.T) {
	m := New()
	plan := `[
		{"id":"g1","description":"gather facts","type":"retrieval","complexity":"complex","dependencies":[]},
		{"id":"g2","description":"write it up","type":"creative","complexity":"complex","dependencies":["g1"]}
	]`
	m.AddPathway(newSpecWithClient("decomposer", newMockClient(plan)))
	m.AddPathway(newSpecWithClient("worker", newMockClient("worker output")))
	require.NoError(t, m.SetMaster("decomposer"))

	resp, err := m.decomposedGenerate(context.Background(), "research and write a report")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Content, "expected synthesized content")
	assert.NotEmpty(t, resp.Thinking, "expected a decomposition trace")
}

func TestDecomposedGenerateNoPathwaysReturnsErr(t *testing.T) {
	m := New()
	_, err := m.decomposedGenerate(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNoPathwayForDecomposition)
}

func TestSynthesizePrefersPremiumWhenConfigured(t *testing.T) {
	m := New()
	decomposer := newMockClient("ok")
	premium := newMockClient("premium synthesis")
	m.AddPathway(newSpecWithClient("decomposer", decomposer))
	m.AddPathway(newSpecWithClient("premium", premium))
	require.NoError(t, m.ConfigurePathway("premium", TierCloudPremium))
	decomposerPathway, _ := m.reg.byNameLookup("decomposer")

	cfg := decompose.Default()
	cfg.PremiumForSynthesis = true
	resp, err := m.synthesize(context.Background(), decomposerPathway, "prompt", nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, "premium synthesis", resp.Content)
}

func TestSynthesizeDegradesOnFailure(t *testing.T) {
	m := New()
	c := newMockClient("")
	c.err = context.DeadlineExceeded
	m.AddPathway(newSpecWithClient("decomposer", c))
	p, _ := m.reg.byNameLookup("decomposer")

	outcomes := []waveOutcome{
		{goal: decompose.SubGoal{ID: "g1"}, result: decompose.SubGoalResult{GoalID: "g1", Success: true, Content: "partial result"}},
	}
	resp, err := m.synthesize(context.Background(), p, "prompt", outcomes, decompose.Default())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Content, "expected degraded synthesis content")
}
