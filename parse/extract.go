package parse

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// wrapperKey is the field name whose presence identifies a tool directive
// object in free-form model output.
const wrapperKey = "tool_call"

// directivePattern matches an object literal wrapping the tool_call key. It
// tolerates one level of brace nesting inside the wrapper; deeper argument
// nesting is beyond this first-pass filter, and ExtractFirstJSONObject is
// the companion to use when exact boundaries matter.
var directivePattern = regexp.MustCompile(`\{\s*"tool_call"\s*:\s*\{(?:[^{}]|\{[^{}]*\})*\}\s*\}`)

// ToolCall encodes a tool invocation requested by the model. Args preserves
// the argument order the model emitted.
type ToolCall struct {
	ID   string  `json:"id,omitempty"`
	Name string  `json:"name"`
	Args *Object `json:"args"`
}

// Candidate records the outcome of one directive candidate found in the raw
// text. Either Call is set or SkipReason explains why the candidate was
// dropped; a skipped candidate never aborts the scan.
type Candidate struct {
	Text       string
	Call       *ToolCall
	SkipReason string
}

// Extractor scans raw responses for embedded tool directives.
type Extractor struct {
	log Logger
}

// NewExtractor builds an extractor reporting diagnostics to log. A nil log
// disables diagnostics.
func NewExtractor(log Logger) *Extractor {
	if log == nil {
		log = NopLogger()
	}
	return &Extractor{log: log}
}

// ExtractToolCalls returns the tool invocations embedded in raw, in
// first-seen order, with duplicates removed.
func (e *Extractor) ExtractToolCalls(raw string) []ToolCall {
	var calls []ToolCall
	for _, cand := range e.ExtractCandidates(raw) {
		if cand.Call != nil {
			calls = append(calls, *cand.Call)
		}
	}
	return calls
}

// ExtractCandidates returns every directive candidate together with its
// parse outcome. Duplicate invocations keep only their first occurrence;
// later copies carry a skip reason instead.
func (e *Extractor) ExtractCandidates(raw string) []Candidate {
	if !strings.Contains(raw, wrapperKey) {
		return nil
	}
	matches := directivePattern.FindAllString(raw, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]Candidate, 0, len(matches))
	for _, match := range matches {
		cand := e.parseCandidate(match)
		if cand.Call != nil {
			key := cand.Call.Name + "\x00" + ObjectValue(cand.Call.Args).Canonical()
			if _, dup := seen[key]; dup {
				e.log.Debugf("dropping duplicate %s invocation", cand.Call.Name)
				cand.Call = nil
				cand.SkipReason = "duplicate invocation"
			} else {
				seen[key] = struct{}{}
			}
		}
		out = append(out, cand)
	}
	return out
}

// parseCandidate turns one regex match into a ToolCall or a skip reason. A
// well-formed candidate is probed directly with gjson; anything else goes
// through the repair path.
func (e *Extractor) parseCandidate(match string) Candidate {
	cand := Candidate{Text: match}
	var name string
	var rawArgs json.RawMessage
	if gjson.Valid(match) {
		wrapper := gjson.Get(match, wrapperKey)
		if !wrapper.Exists() {
			cand.SkipReason = "missing tool_call wrapper"
			return cand
		}
		name = strings.TrimSpace(wrapper.Get("name").String())
		if args := wrapper.Get("arguments"); args.Exists() {
			rawArgs = json.RawMessage(args.Raw)
		}
	} else {
		outer := SafeParse[map[string]json.RawMessage](e.log, match, nil)
		if outer == nil {
			cand.SkipReason = "unparseable candidate"
			return cand
		}
		inner, ok := outer[wrapperKey]
		if !ok {
			cand.SkipReason = "missing tool_call wrapper"
			return cand
		}
		var payload struct {
			Name      string          `json:"name"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := json.Unmarshal(inner, &payload); err != nil {
			cand.SkipReason = "malformed tool_call wrapper"
			return cand
		}
		name = strings.TrimSpace(payload.Name)
		rawArgs = payload.Arguments
	}
	if name == "" {
		cand.SkipReason = "missing tool name"
		return cand
	}
	args, reason := e.parseArguments(rawArgs)
	if reason != "" {
		e.log.Debugf("skipping %s candidate: %s", name, reason)
		cand.SkipReason = reason
		return cand
	}
	cand.Call = &ToolCall{ID: uuid.NewString(), Name: name, Args: args}
	return cand
}

// parseArguments converts the arguments field into an ordered Object.
// String-encoded arguments are unquoted and parsed recursively; a string
// that never parses is preserved under a "value" key so the tool still sees
// the payload.
func (e *Extractor) parseArguments(raw json.RawMessage) (*Object, string) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return NewObject(), ""
	}
	if trimmed[0] == '"' {
		var encoded string
		if err := json.Unmarshal([]byte(trimmed), &encoded); err != nil {
			return nil, "malformed argument string"
		}
		obj, reason := e.decodeArgumentObject(encoded)
		if reason != "" {
			fallback := NewObject()
			fallback.Set("value", String(encoded))
			return fallback, ""
		}
		return obj, ""
	}
	return e.decodeArgumentObject(trimmed)
}

// decodeArgumentObject parses text into an argument Object, repairing once
// on failure.
func (e *Extractor) decodeArgumentObject(text string) (*Object, string) {
	if strings.TrimSpace(text) == "" {
		return NewObject(), ""
	}
	v, err := DecodeValue(text)
	if err != nil {
		repaired, ok := Repair(text)
		if !ok {
			return nil, "unrepairable arguments"
		}
		e.log.Debugf("argument payload repaired")
		if v, err = DecodeValue(repaired); err != nil {
			return nil, "malformed arguments"
		}
	}
	switch v.Kind() {
	case KindObject:
		return v.Object(), ""
	case KindNull:
		return NewObject(), ""
	default:
		return nil, "arguments are not an object"
	}
}

// ExtractFirstJSONObject returns the first top-level JSON object in text
// using real brace-depth counting, ignoring braces inside quoted strings and
// honoring backslash escapes. When the object never closes it returns the
// unterminated remainder, which is what callers want for in-progress
// streamed output. found is false only when text contains no opening brace.
func ExtractFirstJSONObject(text string) (object string, found bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return text[start:], true
}
