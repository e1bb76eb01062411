package mind

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/collectivemind/mind/internal/decompose"
	"github.com/collectivemind/mind/internal/election"
)

// maxEnsembleWorkers bounds concurrent fan-out (spec §5: "bounded worker
// tasks ... ≤ 5 in Ensemble").
const maxEnsembleWorkers = 5

// evaluationPromptTemplate asks the master pathway to score every candidate
// on a 0-1 scale, returning a bare JSON array (spec §4.5).
const evaluationPromptTemplate = `You are evaluating %d candidate responses to the following prompt.

Prompt: %s

%s

Return only a JSON array of %d numbers between 0 and 1, one score per candidate in order.`

// decisionPromptTemplate asks the master pathway to pick a single winning
// candidate by 1-based index (spec §4.5 MasterDecision).
const decisionPromptTemplate = `You are choosing the best of %d candidate responses to the following prompt.

Prompt: %s

%s

Return only the number (1-%d) of the best candidate.`

// ensemble queries up to five worker pathways (excluding master) concurrently
// and hands the collected candidates to the Election Engine (spec §4.5).
func (m *Mind) ensemble(ctx context.Context, prompt string) (resp ThinkingResponse, err error) {
	ctx, span := startSpan(ctx, "mind.ensemble")
	defer func() { endSpan(span, err) }()

	workers := m.selectEnsembleWorkers()
	if len(workers) == 0 {
		return ThinkingResponse{}, ErrNoValidResponses
	}

	candidates := m.queryWorkers(ctx, prompt, workers)
	valid := make([]election.ResponseCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Valid {
			valid = append(valid, c)
		}
	}
	if len(valid) == 0 {
		return ThinkingResponse{}, ErrNoValidResponses
	}
	if len(valid) == 1 {
		return ThinkingResponse{Content: valid[0].Content, Thinking: valid[0].Thinking}, nil
	}

	strategy := m.ElectionStrategy()
	masterEval, masterDecide := m.masterClosures(ctx, valid)
	result := m.electionEngine.Elect(ctx, prompt, valid, strategy, masterEval, masterDecide)

	if m.telemetry != nil {
		m.telemetry.ElectionOutcomes.WithLabelValues(string(result.Strategy), result.Winner.Source).Inc()
	}

	m.buses.elections.Publish(ElectionEvent{
		Strategy:       result.Strategy,
		Winner:         result.Winner.Source,
		MasterFailed:   result.MasterFailed,
		FellBackToWMaj: result.FellBackToWMaj,
		Timestamp:      time.Now(),
	})

	return ThinkingResponse{Content: result.Winner.Content, Thinking: result.Trace}, nil
}

// selectEnsembleWorkers returns up to maxEnsembleWorkers healthy pathways,
// excluding the current master.
func (m *Mind) selectEnsembleWorkers() []*Pathway {
	master := m.reg.getMaster()
	healthy := m.reg.healthyPathways()
	out := make([]*Pathway, 0, maxEnsembleWorkers)
	for _, p := range healthy {
		if master != nil && p.Name == master.Name {
			continue
		}
		out = append(out, p)
		if len(out) == maxEnsembleWorkers {
			break
		}
	}
	return out
}

// queryWorkers invokes every worker concurrently and collects a candidate
// per worker, valid iff the invocation reached the client and produced
// non-empty content.
func (m *Mind) queryWorkers(ctx context.Context, prompt string, workers []*Pathway) []election.ResponseCandidate {
	out := make([]election.ResponseCandidate, len(workers))
	var wg sync.WaitGroup
	for i, p := range workers {
		wg.Add(1)
		go func(i int, p *Pathway) {
			defer wg.Done()
			start := time.Now()
			resp, err, allowed := p.invoke(ctx, prompt)
			latency := time.Since(start)
			if !allowed || err != nil || resp.Content == "" {
				out[i] = election.ResponseCandidate{Source: p.Name, Latency: latency, Valid: false}
				return
			}
			out[i] = election.ResponseCandidate{
				Source:   p.Name,
				Content:  resp.Content,
				Thinking: resp.Thinking,
				Latency:  latency,
				Valid:    true,
			}
		}(i, p)
	}
	wg.Wait()
	return out
}

// masterClosures builds the MasterEvaluator/MasterDecider closures the
// election engine calls, backed by the current master pathway. Both return
// nil when no healthy master is set, so the engine falls back to heuristic
// scoring / WeightedMajority respectively.
func (m *Mind) masterClosures(ctx context.Context, candidates []election.ResponseCandidate) (election.MasterEvaluator, election.MasterDecider) {
	master := m.reg.getMaster()
	if master == nil || !master.IsHealthy() {
		return nil, nil
	}

	evaluator := func(ctx context.Context, prompt string, cands []election.ResponseCandidate) ([]float64, error) {
		listing := formatCandidateListing(cands)
		query := fmt.Sprintf(evaluationPromptTemplate, len(cands), prompt, listing, len(cands))
		resp, err, allowed := master.invoke(ctx, query)
		if !allowed {
			return nil, ErrNoHealthyPathways
		}
		if err != nil {
			return nil, err
		}
		return parseScoreArray(resp.Content, len(cands))
	}

	decider := func(ctx context.Context, prompt string, cands []election.ResponseCandidate) (int, error) {
		listing := formatCandidateListing(cands)
		query := fmt.Sprintf(decisionPromptTemplate, len(cands), prompt, listing, len(cands))
		resp, err, allowed := master.invoke(ctx, query)
		if !allowed {
			return -1, ErrNoHealthyPathways
		}
		if err != nil {
			return -1, err
		}
		return parseDecisionIndex(resp.Content, len(cands))
	}

	return evaluator, decider
}

func formatCandidateListing(candidates []election.ResponseCandidate) string {
	var b strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&b, "Candidate %d (%s): %s\n", i+1, c.Source, c.Content)
	}
	return b.String()
}

// parseScoreArray extracts the first JSON array of numbers from raw,
// tolerating leading/trailing prose (spec §4.6's lexical-extraction
// pattern, reused here for the master-evaluation response).
func parseScoreArray(raw string, want int) ([]float64, error) {
	block, err := decompose.ExtractJSONArray(raw)
	if err != nil {
		return nil, err
	}
	var scores []float64
	if err := json.Unmarshal([]byte(block), &scores); err != nil {
		return nil, err
	}
	if len(scores) != want {
		return nil, fmt.Errorf("mind: master evaluation returned %d scores, want %d", len(scores), want)
	}
	return scores, nil
}

// parseDecisionIndex extracts the first integer in raw and converts it from
// the master's 1-based answer to a 0-based candidate index.
func parseDecisionIndex(raw string, n int) (int, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		} else if digits.Len() > 0 {
			break
		}
	}
	if digits.Len() == 0 {
		return -1, fmt.Errorf("mind: master decision contained no number")
	}
	v, err := strconv.Atoi(digits.String())
	if err != nil {
		return -1, err
	}
	idx := v - 1
	if idx < 0 || idx >= n {
		return -1, fmt.Errorf("mind: master decision index %d out of range", v)
	}
	return idx, nil
}
