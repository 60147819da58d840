package tools

import (
	"context"
	"encoding/json"

	"github.com/lexcodex/quill/parse"
)

// Param documents one tool argument for prompt construction.
type Param struct {
	Name        string
	Type        string
	Description string
	Required    bool
	Default     interface{}
}

// Result is the outcome of one tool execution. Data is serialized back into
// the conversation, so keep entries small and JSON friendly.
type Result struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Encode renders the result as compact JSON for the model to read. Encoding
// failures collapse into an error payload rather than propagating.
func (r *Result) Encode() string {
	data, err := json.Marshal(r)
	if err != nil {
		return `{"success":false,"error":"unencodable tool result"}`
	}
	return string(data)
}

func failure(msg string) *Result {
	return &Result{Success: false, Error: msg}
}

// Tool is a capability the assistant may invoke through a directive.
// Execute receives the ordered argument object exactly as the model emitted
// it.
type Tool interface {
	Name() string
	Description() string
	Parameters() []Param
	Execute(ctx context.Context, args *parse.Object) (*Result, error)
}

// Argument accessors shared by the builtin tools. Missing or mistyped
// values fall back rather than erroring, since repaired model output is
// loosely typed.

func argString(args *parse.Object, key, fallback string) string {
	if args == nil {
		return fallback
	}
	v, ok := args.Get(key)
	if !ok || v.Kind() != parse.KindString {
		return fallback
	}
	return v.Str()
}

func argBool(args *parse.Object, key string, fallback bool) bool {
	if args == nil {
		return fallback
	}
	v, ok := args.Get(key)
	if !ok {
		return fallback
	}
	switch v.Kind() {
	case parse.KindBool:
		return v.Bool()
	case parse.KindString:
		return v.Str() == "true"
	default:
		return fallback
	}
}

func argInt(args *parse.Object, key string, fallback int64) int64 {
	if args == nil {
		return fallback
	}
	v, ok := args.Get(key)
	if !ok {
		return fallback
	}
	switch v.Kind() {
	case parse.KindInt:
		return v.Int64()
	case parse.KindFloat:
		return int64(v.Float64())
	default:
		return fallback
	}
}
