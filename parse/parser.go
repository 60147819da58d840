package parse

import (
	"context"
	"strings"
)

// Metadata describes how a parse concluded.
type Metadata struct {
	Complete     bool   `json:"complete"`
	FinishReason string `json:"finish_reason"`
}

// Result is the structured outcome of parsing one complete model response.
// The caller owns it; the parser keeps no reference after returning.
type Result struct {
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Text      string     `json:"text"`
	Meta      Metadata   `json:"meta"`
}

// ResponseParser composes the extractor and cleaner into a single pass over
// a raw model response. It is stateless per call; concurrent Parse calls on
// independent inputs are safe.
type ResponseParser struct {
	log       Logger
	extractor *Extractor
	cleaner   *Cleaner
}

// NewResponseParser builds a parser reporting diagnostics to log. A nil log
// disables diagnostics.
func NewResponseParser(log Logger) *ResponseParser {
	if log == nil {
		log = NopLogger()
	}
	return &ResponseParser{
		log:       log,
		extractor: NewExtractor(log),
		cleaner:   NewCleaner(log),
	}
}

// Parse never fails: blank input yields an empty but valid result, and any
// other string degrades at worst to zero tool calls plus best-effort cleaned
// text. Extractor and cleaner both consume the original raw text.
func (p *ResponseParser) Parse(raw string) *Result {
	if strings.TrimSpace(raw) == "" {
		return &Result{Meta: Metadata{Complete: true, FinishReason: "empty"}}
	}
	calls := p.extractor.ExtractToolCalls(raw)
	text := p.cleaner.Clean(raw)
	p.log.Debugf("parsed response: %d tool calls, %d bytes of prose", len(calls), len(text))
	return &Result{
		ToolCalls: calls,
		Text:      text,
		Meta:      Metadata{Complete: true, FinishReason: "stop"},
	}
}

// ParseStream concatenates fragments until the channel closes, then runs the
// synchronous path on the full text. No partial tool calls are emitted
// mid-stream; cancellation returns ctx.Err() and no result at all.
func (p *ResponseParser) ParseStream(ctx context.Context, fragments <-chan string) (*Result, error) {
	var b strings.Builder
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case frag, ok := <-fragments:
			if !ok {
				return p.Parse(b.String()), nil
			}
			b.WriteString(frag)
		}
	}
}

// Candidates exposes the per-candidate outcomes for a raw response, useful
// for tracing why a directive was skipped.
func (p *ResponseParser) Candidates(raw string) []Candidate {
	return p.extractor.ExtractCandidates(raw)
}

// Clean exposes the cleaner directly for callers that only need prose.
func (p *ResponseParser) Clean(raw string) string {
	return p.cleaner.Clean(raw)
}
