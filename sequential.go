package mind

import (
	"context"
	"strings"
)

// fallbackSentinel marks a client-level degraded response that Sequential
// must treat as unacceptable, same as an outright failure (spec §4.4).
const fallbackSentinel = "-fallback:"

// runSequential tries pathways one at a time via next_pathway, accepting the
// first non-degraded non-empty response (spec §4.4). Grounded on the
// teacher's internal/router retry-with-exclusion loop, generalized to
// exclude on every attempt rather than only on a hard failure.
func (m *Mind) runSequential(ctx context.Context, prompt string) (resp ThinkingResponse, err error) {
	ctx, span := startSpan(ctx, "mind.sequential")
	defer func() { endSpan(span, err) }()

	tried := make(map[string]struct{})

	for {
		p := m.reg.next(tried)
		if p == nil {
			return ThinkingResponse{}, ErrAllPathwaysExhausted
		}
		tried[p.Name] = struct{}{}

		resp, err, allowed := p.invoke(ctx, prompt)
		if !allowed {
			continue
		}
		if err != nil {
			continue
		}
		if resp.Content == "" || containsFallbackSentinel(resp.Content) {
			// invoke() already recorded a success here since err == nil;
			// a degraded/empty body is still a rejected try, so correct
			// the health record to an inhibition (spec §4.4/§8 invariant 3).
			p.mu.Lock()
			p.health.Activations--
			p.health.Inhibitions++
			p.health.Weight = clampWeight(p.health.Weight / weightGrowth * weightDecay)
			p.mu.Unlock()
			continue
		}
		return resp, nil
	}
}

func containsFallbackSentinel(content string) bool {
	return strings.Contains(content, fallbackSentinel)
}
