package mind

import "context"

// ThinkingResponse is the result of a single generation. Thinking holds the
// model's chain-of-thought when the pathway surfaced one (either via native
// reasoning_content or an inline <think> block); Content is the answer.
type ThinkingResponse struct {
	Thinking        string
	Content         string
	ThinkingTokens  int
	ContentTokens   int
}

// HasThinking reports whether a non-empty thinking trace was captured.
func (r ThinkingResponse) HasThinking() bool {
	return r.Thinking != ""
}

// StreamChunk is one unit of a streamed response. IsThinking marks chunks
// that belong to the model's reasoning trace rather than its answer.
type StreamChunk struct {
	IsThinking bool
	Text       string
}

// PathwayClient is the capability handle a Pathway holds for talking to one
// remote provider. Concrete HTTP clients per vendor live outside this module;
// the core only ever calls through this interface (spec §4.8, §9).
type PathwayClient interface {
	Generate(ctx context.Context, prompt string) (ThinkingResponse, error)
}

// StreamingPathwayClient is the optional capability a PathwayClient may also
// implement. Callers probe for it with a type assertion rather than through
// a virtual hierarchy (spec DESIGN NOTES: "no virtual hierarchy needed").
type StreamingPathwayClient interface {
	PathwayClient
	Stream(ctx context.Context, prompt string) (<-chan StreamChunk, error)
}

// Closer is implemented by PathwayClients that hold resources (connections,
// file handles) needing explicit release on Mind disposal.
type Closer interface {
	Close() error
}

// CostTracker is an opaque per-pathway accounting capability. The core only
// calls it around invocations; it never inspects rates or currency — cost
// tables are an external collaborator (spec §1, §4.8).
type CostTracker interface {
	StartRequest()
	EndRequest(inputTokens, outputTokens int)
	SessionMetrics() map[string]float64
}

// noopCostTracker is used when a Pathway is added without one.
type noopCostTracker struct{}

func (noopCostTracker) StartRequest()                        {}
func (noopCostTracker) EndRequest(inputTokens, outputTokens int) {}
func (noopCostTracker) SessionMetrics() map[string]float64   { return nil }
