package mind

import (
	"context"
	"fmt"
	"time"

	"github.com/collectivemind/mind/internal/decompose"
)

// tierFromDecompose converts the decompose package's deliberately-
// duplicated Tier enum back to the root Tier at the one boundary that
// needs both (spec §4.6; see internal/decompose/types.go for why the enum
// is duplicated rather than imported).
func tierFromDecompose(t decompose.Tier) Tier { return Tier(t) }

// decomposedGenerate drives the Decomposed thinking mode end to end (spec
// §4.6): pick a decomposer, parse sub-goals, resolve tiers, execute
// dependency waves, synthesize. Grounded on the teacher's internal/router
// multi-stage dispatch, generalized from "pick one provider" to "plan, fan
// out across a dependency graph, then recombine".
func (m *Mind) decomposedGenerate(ctx context.Context, prompt string) (resp ThinkingResponse, err error) {
	ctx, span := startSpan(ctx, "mind.decompose")
	defer func() { endSpan(span, err) }()

	decomposer := m.pickDecomposerPathway()
	if decomposer == nil {
		return ThinkingResponse{}, ErrNoPathwayForDecomposition
	}

	cfg := m.DecompositionConfig()
	goals := m.parseGoals(ctx, decomposer, prompt, cfg)

	if len(goals) <= 1 {
		complexity := decompose.Moderate
		if len(goals) == 1 {
			complexity = goals[0].Complexity
		}
		if complexity <= cfg.DecompositionThreshold {
			return m.runSequential(ctx, prompt)
		}
	}

	waves, waveErr := decompose.BuildWaves(goals)
	if waveErr != nil {
		m.buses.publishThought(ThoughtCircularDependency, "", waveErr.Error())
	}

	results := m.executeWaves(ctx, waves, cfg)
	return m.synthesize(ctx, decomposer, prompt, results, cfg)
}

// pickDecomposerPathway implements spec §4.6 step 1.
func (m *Mind) pickDecomposerPathway() *Pathway {
	if master := m.reg.getMaster(); master != nil && master.IsHealthy() {
		return master
	}
	healthy := m.reg.healthyPathways()
	if len(healthy) == 0 {
		return nil
	}
	best := healthy[0]
	bestScore := decomposerScore(best)
	for _, p := range healthy[1:] {
		if s := decomposerScore(p); s > bestScore {
			bestScore = s
			best = p
		}
	}
	return best
}

func decomposerScore(p *Pathway) float64 {
	bonus := 0.0
	if p.Tier == TierCloudPremium {
		bonus = 10
	}
	return bonus + p.score()
}

// parseGoals implements spec §4.6 step 2: ask the decomposer for a JSON
// plan, falling back to a single synthetic sub-goal on parse or network
// failure.
func (m *Mind) parseGoals(ctx context.Context, decomposer *Pathway, prompt string, cfg decompose.DecompositionConfig) []decompose.SubGoal {
	resp, err, allowed := decomposer.invoke(ctx, decompose.DecompositionPrompt+prompt)
	if !allowed || err != nil {
		// invoke() already recorded an inhibition when err != nil, and
		// recorded nothing at all when !allowed (the breaker rejected the
		// call before it reached the client) — recording one here would
		// either double-count or fabricate a health event for a call that
		// never happened.
		m.buses.publishThought(ThoughtDecompositionFailed, decomposer.Name, "decomposer invocation failed")
		return []decompose.SubGoal{decompose.FallbackSubGoal(prompt)}
	}

	goals, parseErr := decompose.ParseSubGoals(resp.Content, cfg.MaxSubGoals)
	if parseErr != nil || len(goals) == 0 {
		// invoke() recorded this call as an activation; an unparseable plan
		// is a rejected try, so turn that record into an inhibition.
		decomposer.mu.Lock()
		decomposer.health.Activations--
		decomposer.health.Inhibitions++
		decomposer.health.Weight = clampWeight(decomposer.health.Weight / weightGrowth * weightDecay)
		decomposer.mu.Unlock()
		m.buses.publishThought(ThoughtDecompositionFailed, decomposer.Name, "decomposition plan unparseable")
		return []decompose.SubGoal{decompose.FallbackSubGoal(prompt)}
	}

	for i, g := range goals {
		goals[i].PreferredTier = decompose.PreferredTier(cfg, g.Type, g.Complexity)
	}
	return goals
}

// waveOutcome pairs a sub-goal's result with bookkeeping needed by
// synthesis and the thought stream.
type waveOutcome struct {
	goal   decompose.SubGoal
	result decompose.SubGoalResult
}

// executeWaves implements spec §4.6 step 4: run each dependency wave,
// selecting a pathway per goal, assembling context from completed
// dependencies, invoking via the circuit breaker, and emitting SubGoalEvents.
func (m *Mind) executeWaves(ctx context.Context, waves [][]decompose.SubGoal, cfg decompose.DecompositionConfig) []waveOutcome {
	var outcomes []waveOutcome
	contentByID := make(map[string]string)

	for _, wave := range waves {
		if m.telemetry != nil {
			m.telemetry.DecompositionWave.WithLabelValues().Observe(float64(len(wave)))
		}
		if cfg.ParallelizationEnabled && len(wave) > 1 {
			outcomes = append(outcomes, m.executeWaveParallel(ctx, wave, contentByID)...)
		} else {
			outcomes = append(outcomes, m.executeWaveSerial(ctx, wave, contentByID)...)
		}
		for _, o := range outcomes {
			if o.result.Success {
				contentByID[o.result.GoalID] = o.result.Content
			}
		}
	}
	return outcomes
}

func (m *Mind) executeWaveSerial(ctx context.Context, wave []decompose.SubGoal, contentByID map[string]string) []waveOutcome {
	out := make([]waveOutcome, 0, len(wave))
	for _, g := range wave {
		out = append(out, m.executeSubGoal(ctx, g, contentByID))
	}
	return out
}

func (m *Mind) executeWaveParallel(ctx context.Context, wave []decompose.SubGoal, contentByID map[string]string) []waveOutcome {
	out := make([]waveOutcome, len(wave))
	done := make(chan struct{}, len(wave))
	for i, g := range wave {
		go func(i int, g decompose.SubGoal) {
			out[i] = m.executeSubGoal(ctx, g, contentByID)
			done <- struct{}{}
		}(i, g)
	}
	for range wave {
		<-done
	}
	return out
}

func (m *Mind) executeSubGoal(ctx context.Context, g decompose.SubGoal, contentByID map[string]string) waveOutcome {
	p := m.selectSubGoalPathway(g)
	if p == nil {
		result := decompose.SubGoalResult{GoalID: g.ID, Success: false, Err: ErrNoHealthyPathways}
		m.buses.subGoals.Publish(SubGoalEvent{GoalID: g.ID, Success: false, Timestamp: time.Now()})
		return waveOutcome{goal: g, result: result}
	}

	contextPrompt := decompose.BuildContext(g.Dependencies, contentByID, g.Description)
	start := time.Now()
	resp, err, allowed := p.invoke(ctx, contextPrompt)
	duration := time.Since(start)

	success := allowed && err == nil
	result := decompose.SubGoalResult{GoalID: g.ID, PathwayUsed: p.Name, Duration: int64(duration), Success: success}
	if success {
		result.Content = resp.Content
	} else if err != nil {
		result.Err = err
	}

	m.buses.subGoals.Publish(SubGoalEvent{GoalID: g.ID, PathwayUsed: p.Name, Success: success, Duration: duration, Timestamp: time.Now()})
	return waveOutcome{goal: g, result: result}
}

// selectSubGoalPathway implements spec §4.6 step 4.1: specialized match
// first, then exact tier match, then nearest tier.
func (m *Mind) selectSubGoalPathway(g decompose.SubGoal) *Pathway {
	healthy := m.reg.healthyPathways()
	if len(healthy) == 0 {
		return nil
	}

	var specialized *Pathway
	var specializedScore float64
	for _, p := range healthy {
		if p.HasSpecialization(Specialization(g.Type)) {
			if specialized == nil || p.score() > specializedScore {
				specialized = p
				specializedScore = p.score()
			}
		}
	}
	if specialized != nil {
		return specialized
	}

	preferred := tierFromDecompose(g.PreferredTier)
	var tierMatch *Pathway
	var tierMatchScore float64
	for _, p := range healthy {
		if p.Tier == preferred {
			if tierMatch == nil || p.score() > tierMatchScore {
				tierMatch = p
				tierMatchScore = p.score()
			}
		}
	}
	if tierMatch != nil {
		return tierMatch
	}

	var nearest *Pathway
	nearestDist := -1
	for _, p := range healthy {
		dist := tierDistance(p.Tier, preferred)
		if nearest == nil || dist < nearestDist {
			nearest = p
			nearestDist = dist
		}
	}
	return nearest
}

func tierDistance(a, b Tier) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}

// synthesize implements spec §4.6 step 5.
func (m *Mind) synthesize(ctx context.Context, decomposer *Pathway, prompt string, outcomes []waveOutcome, cfg decompose.DecompositionConfig) (ThinkingResponse, error) {
	results := make([]decompose.SubGoalResult, len(outcomes))
	for i, o := range outcomes {
		results[i] = o.result
	}

	synthesizer := decomposer
	if cfg.PremiumForSynthesis {
		if premium := m.bestHealthyByTier(TierCloudPremium); premium != nil {
			synthesizer = premium
		}
	}

	synthPrompt := decompose.BuildSynthesisPrompt(prompt, results)
	resp, err, allowed := synthesizer.invoke(ctx, synthPrompt)

	var content string
	if !allowed || err != nil {
		m.buses.publishThought(ThoughtSynthesisFailed, synthesizer.Name, "synthesis invocation failed")
		content = decompose.DegradedSynthesis(results)
	} else {
		content = resp.Content
	}

	return ThinkingResponse{Content: content, Thinking: buildDecompositionTrace(outcomes)}, nil
}

func (m *Mind) bestHealthyByTier(tier Tier) *Pathway {
	var best *Pathway
	var bestScore float64
	for _, p := range m.reg.healthyPathways() {
		if p.Tier != tier {
			continue
		}
		if best == nil || p.score() > bestScore {
			best = p
			bestScore = p.score()
		}
	}
	return best
}

func buildDecompositionTrace(outcomes []waveOutcome) string {
	var b []byte
	b = append(b, "decomposition:\n"...)
	for _, o := range outcomes {
		status := "ok"
		if !o.result.Success {
			status = "failed"
		}
		b = append(b, fmt.Sprintf("  %s -> %s [%s] (%s)\n", o.goal.ID, o.result.PathwayUsed, status, time.Duration(o.result.Duration))...)
	}
	return string(b)
}
