package mind

import (
	"context"
	"time"
)

// invoke calls the pathway's client through its circuit breaker, recording
// activation/inhibition and cost-tracker bookkeeping around the call (spec
// §4.1 "calls are rejected locally without contacting the client" while
// Open; §4.8 CostTracker lifecycle). allowed is false when the breaker
// rejected the call locally — callers must not treat that as a failed
// invocation (it never reached the client).
func (p *Pathway) invoke(ctx context.Context, prompt string) (resp ThinkingResponse, err error, allowed bool) {
	if !p.breaker.allow() {
		return ThinkingResponse{}, nil, false
	}

	p.cost.StartRequest()
	start := time.Now()
	resp, err = p.client.Generate(ctx, prompt)
	latency := time.Since(start)

	if err != nil {
		p.breaker.recordFailure()
		p.recordInhibition()
		p.cost.EndRequest(0, 0)
		p.recordStats(latency, false, 0, 0)
		return ThinkingResponse{}, err, true
	}

	p.breaker.recordSuccess()
	p.recordActivation(latency)
	p.cost.EndRequest(resp.ContentTokens, resp.ThinkingTokens)
	p.recordStats(latency, true, resp.ContentTokens, resp.ThinkingTokens)
	return resp, nil, true
}

// recordStats forwards one completed invocation to the Mind-level stats
// collector via the hook wired by addPathway, if any (spec SUPPLEMENTED
// FEATURES: rolling-window request statistics per pathway).
func (p *Pathway) recordStats(latency time.Duration, success bool, outputTokens, thinkingTokens int) {
	if p.statsHook == nil {
		return
	}
	p.statsHook(pathwayStatsSample{
		pathway:      p.Name,
		latency:      latency,
		success:      success,
		outputTokens: outputTokens,
		inputTokens:  thinkingTokens,
	})
}
