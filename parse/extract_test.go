package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSingleToolCall(t *testing.T) {
	e := NewExtractor(nil)
	raw := `Sure. {"tool_call":{"name":"list_files","arguments":{"path":".","recursive":true}}} Running it now.`

	calls := e.ExtractToolCalls(raw)
	require.Len(t, calls, 1)
	assert.Equal(t, "list_files", calls[0].Name)
	assert.NotEmpty(t, calls[0].ID)
	assert.Equal(t, []string{"path", "recursive"}, calls[0].Args.Keys())

	path, ok := calls[0].Args.Get("path")
	require.True(t, ok)
	assert.Equal(t, ".", path.Str())
	rec, ok := calls[0].Args.Get("recursive")
	require.True(t, ok)
	assert.True(t, rec.Bool())
}

func TestExtractDeduplicates(t *testing.T) {
	e := NewExtractor(nil)
	raw := `{"tool_call":{"name":"read_file","arguments":{"path":"a.go","limit":10}}}
and again
{"tool_call":{"name":"read_file","arguments":{"limit":10,"path":"a.go"}}}`

	calls := e.ExtractToolCalls(raw)
	require.Len(t, calls, 1, "same name and arguments must collapse regardless of key order")

	cands := e.ExtractCandidates(raw)
	require.Len(t, cands, 2)
	assert.NotNil(t, cands[0].Call)
	assert.Nil(t, cands[1].Call)
	assert.Equal(t, "duplicate invocation", cands[1].SkipReason)
}

func TestExtractKeepsDistinctCallsInOrder(t *testing.T) {
	e := NewExtractor(nil)
	raw := `{"tool_call":{"name":"read_file","arguments":{"path":"a.go"}}}
{"tool_call":{"name":"read_file","arguments":{"path":"b.go"}}}
{"tool_call":{"name":"search_text","arguments":{"pattern":"TODO"}}}`

	calls := e.ExtractToolCalls(raw)
	require.Len(t, calls, 3)
	assert.Equal(t, "read_file", calls[0].Name)
	assert.Equal(t, "read_file", calls[1].Name)
	assert.Equal(t, "search_text", calls[2].Name)
}

func TestExtractSkipsBadCandidates(t *testing.T) {
	e := NewExtractor(nil)

	t.Run("truncated directive", func(t *testing.T) {
		assert.Empty(t, e.ExtractToolCalls(`{"tool_call":{"name":"N","argum`))
	})

	t.Run("missing name", func(t *testing.T) {
		raw := `{"tool_call":{"arguments":{"path":"."}}}`
		assert.Empty(t, e.ExtractToolCalls(raw))
		cands := e.ExtractCandidates(raw)
		require.Len(t, cands, 1)
		assert.Equal(t, "missing tool name", cands[0].SkipReason)
	})

	t.Run("non-object arguments", func(t *testing.T) {
		raw := `{"tool_call":{"name":"x","arguments":[1,2]}}`
		cands := e.ExtractCandidates(raw)
		require.Len(t, cands, 1)
		assert.Equal(t, "arguments are not an object", cands[0].SkipReason)
	})

	t.Run("no wrapper key anywhere", func(t *testing.T) {
		assert.Nil(t, e.ExtractCandidates(`{"name":"x","arguments":{}}`))
	})
}

// TestExtractSurvivesMixedCandidates checks that one bad candidate never
// aborts the scan: the good directive beside it still comes out.
func TestExtractSurvivesMixedCandidates(t *testing.T) {
	e := NewExtractor(nil)
	raw := `{"tool_call":{"arguments":{}}}
{"tool_call":{"name":"search_text","arguments":{"pattern":"x"}}}`

	calls := e.ExtractToolCalls(raw)
	require.Len(t, calls, 1)
	assert.Equal(t, "search_text", calls[0].Name)
}

func TestExtractRepairsMalformedCandidate(t *testing.T) {
	e := NewExtractor(NopLogger())
	raw := `{"tool_call":{"name":"list_files","arguments":{"path":".",}}}`

	calls := e.ExtractToolCalls(raw)
	require.Len(t, calls, 1)
	assert.Equal(t, "list_files", calls[0].Name)
	path, ok := calls[0].Args.Get("path")
	require.True(t, ok)
	assert.Equal(t, ".", path.Str())
}

func TestExtractStringEncodedArguments(t *testing.T) {
	e := NewExtractor(nil)

	t.Run("decodable", func(t *testing.T) {
		raw := `{"tool_call":{"name":"x","arguments":"{\"a\":1}"}}`
		calls := e.ExtractToolCalls(raw)
		require.Len(t, calls, 1)
		a, ok := calls[0].Args.Get("a")
		require.True(t, ok)
		assert.Equal(t, int64(1), a.Int64())
	})

	t.Run("undecodable keeps payload", func(t *testing.T) {
		raw := `{"tool_call":{"name":"x","arguments":"not json at all"}}`
		calls := e.ExtractToolCalls(raw)
		require.Len(t, calls, 1)
		v, ok := calls[0].Args.Get("value")
		require.True(t, ok)
		assert.Equal(t, "not json at all", v.Str())
	})
}

func TestExtractMissingArgumentsMeansEmpty(t *testing.T) {
	e := NewExtractor(nil)
	for _, raw := range []string{
		`{"tool_call":{"name":"x"}}`,
		`{"tool_call":{"name":"x","arguments":null}}`,
		`{"tool_call":{"name":"x","arguments":{}}}`,
	} {
		calls := e.ExtractToolCalls(raw)
		require.Len(t, calls, 1, "input %q", raw)
		assert.Equal(t, 0, calls[0].Args.Len())
	}
}

// Arguments nested two levels deep defeat the directive regex on purpose;
// the brace counter still finds the exact object boundary.
func TestExtractNestingLimit(t *testing.T) {
	e := NewExtractor(nil)
	raw := `{"tool_call":{"name":"x","arguments":{"a":{"b":1}}}}`

	assert.Empty(t, e.ExtractToolCalls(raw))

	obj, found := ExtractFirstJSONObject(raw)
	require.True(t, found)
	assert.Equal(t, raw, obj)
}

func TestExtractFirstJSONObject(t *testing.T) {
	t.Run("nested object", func(t *testing.T) {
		obj, found := ExtractFirstJSONObject(`noise {"a":{"b":{"c":1}}} trailing`)
		require.True(t, found)
		assert.Equal(t, `{"a":{"b":{"c":1}}}`, obj)
	})

	t.Run("braces inside strings", func(t *testing.T) {
		obj, found := ExtractFirstJSONObject(`{"msg":"open { and close } and escaped \" quote"} rest`)
		require.True(t, found)
		assert.Equal(t, `{"msg":"open { and close } and escaped \" quote"}`, obj)
	})

	t.Run("unterminated returns remainder", func(t *testing.T) {
		obj, found := ExtractFirstJSONObject(`prefix {"a":{"b":1`)
		require.True(t, found)
		assert.Equal(t, `{"a":{"b":1`, obj)
	})

	t.Run("no opening brace", func(t *testing.T) {
		obj, found := ExtractFirstJSONObject("plain text only")
		assert.False(t, found)
		assert.Empty(t, obj)
	})
}
