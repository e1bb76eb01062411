package mind

import (
	"context"
	"sync"
)

// race fans out prompt to every healthy pathway concurrently and returns the
// first response with non-empty content (spec §4.3). Grounded on the
// teacher's internal/router concurrent-dispatch pattern, generalized from
// "race one winner, cancel the rest" over a fixed worker count to the full
// healthy pool.
func (m *Mind) race(ctx context.Context, prompt string) (resp ThinkingResponse, err error) {
	ctx, span := startSpan(ctx, "mind.race")
	defer func() { endSpan(span, err) }()

	healthy := m.reg.healthyPathways()
	if len(healthy) == 0 {
		return ThinkingResponse{}, ErrNoHealthyPathways
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		resp  ThinkingResponse
		valid bool
	}
	results := make(chan result, len(healthy))
	var wg sync.WaitGroup

	for _, p := range healthy {
		wg.Add(1)
		go func(p *Pathway) {
			defer wg.Done()
			resp, err, allowed := p.invoke(raceCtx, prompt)
			if !allowed {
				return
			}
			valid := err == nil && resp.Content != ""
			select {
			case results <- result{resp: resp, valid: valid}:
			case <-raceCtx.Done():
			}
		}(p)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		if r.valid {
			cancel()
			return r.resp, nil
		}
	}
	return ThinkingResponse{}, ErrAllPathwaysFailed
}
