package mind

import (
	"context"
	"strings"
	"time"
)

const (
	thinkOpenTag  = "<think>"
	thinkCloseTag = "</think>"
)

// Stream drives the Streaming Layer (spec §4.7): a single pathway is chosen
// Sequential-style, and its output is split into (is_thinking, chunk)
// StreamChunks. Grounded on the teacher's internal/router/format.go
// thinkBlockRe tag-matching, generalized from a one-shot post-hoc regex
// strip over a complete response to a stateful incremental splitter that
// can see a tag split across two chunks.
func (m *Mind) Stream(ctx context.Context, prompt string) (<-chan StreamChunk, error) {
	p := m.selectStreamingPathway()
	if p == nil {
		return nil, ErrNoHealthyPathways
	}
	client, ok := p.client.(StreamingPathwayClient)
	if !ok {
		return m.streamViaGenerate(ctx, p, prompt)
	}
	if !p.breaker.allow() {
		return nil, ErrNoHealthyPathways
	}

	p.cost.StartRequest()
	upstream, err := client.Stream(ctx, prompt)
	if err != nil {
		p.breaker.recordFailure()
		p.recordInhibition()
		p.cost.EndRequest(0, 0)
		return nil, err
	}

	out := make(chan StreamChunk)
	start := time.Now()
	go func() {
		defer close(out)
		splitter := newThinkSplitter()
		for {
			select {
			case chunk, more := <-upstream:
				if !more {
					if flushed, ok := splitter.flush(); ok {
						emit(ctx, out, flushed)
					}
					p.breaker.recordSuccess()
					p.recordActivation(time.Since(start))
					p.cost.EndRequest(0, 0)
					return
				}
				if chunk.IsThinking {
					emit(ctx, out, chunk)
					continue
				}
				for _, c := range splitter.feed(chunk.Text) {
					emit(ctx, out, c)
				}
			case <-ctx.Done():
				if flushed, ok := splitter.flush(); ok {
					emit(ctx, out, flushed)
				}
				return
			}
		}
	}()
	return out, nil
}

// streamViaGenerate synthesizes a single-chunk stream for pathways whose
// client does not implement StreamingPathwayClient, still routed through
// the tag splitter so callers see a consistent StreamChunk shape.
func (m *Mind) streamViaGenerate(ctx context.Context, p *Pathway, prompt string) (<-chan StreamChunk, error) {
	resp, err, allowed := p.invoke(ctx, prompt)
	if !allowed {
		return nil, ErrNoHealthyPathways
	}
	if err != nil {
		return nil, err
	}

	out := make(chan StreamChunk, 2)
	if resp.Thinking != "" {
		out <- StreamChunk{IsThinking: true, Text: resp.Thinking}
	}
	if resp.Content != "" {
		splitter := newThinkSplitter()
		for _, c := range splitter.feed(resp.Content) {
			if c.Text != "" {
				out <- c
			}
		}
		if flushed, ok := splitter.flush(); ok && flushed.Text != "" {
			out <- flushed
		}
	}
	close(out)
	return out, nil
}

func emit(ctx context.Context, out chan<- StreamChunk, c StreamChunk) {
	select {
	case out <- c:
	case <-ctx.Done():
	}
}

// selectStreamingPathway picks a single pathway Sequential-style (spec
// §4.7: "not fanned-out"), trying the best-scoring healthy pathway first.
func (m *Mind) selectStreamingPathway() *Pathway {
	return m.reg.next(nil)
}

// thinkSplitter is a single-flag state machine that splits raw text on the
// literal tags <think>/</think>, flushing buffered content whenever a tag
// boundary is crossed so partial output is never silently dropped (spec
// §4.7). It tolerates a tag being split across two feed() calls by holding
// back a suffix that could be a tag prefix.
type thinkSplitter struct {
	thinking bool
	buf      strings.Builder
}

func newThinkSplitter() *thinkSplitter {
	return &thinkSplitter{}
}

// feed consumes raw text and returns zero or more complete chunks ready to
// emit. Any trailing partial-tag suffix is retained internally.
func (s *thinkSplitter) feed(text string) []StreamChunk {
	s.buf.WriteString(text)
	var out []StreamChunk

	for {
		raw := s.buf.String()
		tag := thinkCloseTag
		if !s.thinking {
			tag = thinkOpenTag
		}
		idx := strings.Index(raw, tag)
		if idx < 0 {
			held := heldback(raw, tag)
			flushed := raw[:len(raw)-held]
			if flushed != "" {
				out = append(out, StreamChunk{IsThinking: s.thinking, Text: flushed})
			}
			s.buf.Reset()
			s.buf.WriteString(raw[len(raw)-held:])
			return out
		}

		before := raw[:idx]
		if before != "" {
			out = append(out, StreamChunk{IsThinking: s.thinking, Text: before})
		}
		s.thinking = !s.thinking
		s.buf.Reset()
		s.buf.WriteString(raw[idx+len(tag):])
	}
}

// flush emits any buffered content at stream termination.
func (s *thinkSplitter) flush() (StreamChunk, bool) {
	remaining := s.buf.String()
	s.buf.Reset()
	if remaining == "" {
		return StreamChunk{}, false
	}
	return StreamChunk{IsThinking: s.thinking, Text: remaining}, true
}

// heldback returns how many trailing bytes of raw could be the start of tag
// and so must be held back until more text arrives.
func heldback(raw, tag string) int {
	max := len(tag) - 1
	if max > len(raw) {
		max = len(raw)
	}
	for n := max; n > 0; n-- {
		if strings.HasPrefix(tag, raw[len(raw)-n:]) {
			return n
		}
	}
	return 0
}
