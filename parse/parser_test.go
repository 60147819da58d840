package parse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBlankInput(t *testing.T) {
	p := NewResponseParser(nil)
	for _, raw := range []string{"", "   ", "\n\t\n"} {
		res := p.Parse(raw)
		require.NotNil(t, res)
		assert.Empty(t, res.ToolCalls)
		assert.Empty(t, res.Text)
		assert.True(t, res.Meta.Complete)
		assert.Equal(t, "empty", res.Meta.FinishReason)
	}
}

func TestParseEndToEnd(t *testing.T) {
	p := NewResponseParser(nil)
	raw := "Let me check that.\n{\"tool_call\":{\"name\":\"list_files\",\"arguments\":{\"path\":\".\"}}}\nDone."

	res := p.Parse(raw)
	require.Len(t, res.ToolCalls, 1)
	assert.Equal(t, "list_files", res.ToolCalls[0].Name)
	path, ok := res.ToolCalls[0].Args.Get("path")
	require.True(t, ok)
	assert.Equal(t, ".", path.Str())

	assert.Equal(t, "Done.", res.Text)
	assert.True(t, res.Meta.Complete)
	assert.Equal(t, "stop", res.Meta.FinishReason)
}

func TestParseProseOnly(t *testing.T) {
	p := NewResponseParser(nil)
	res := p.Parse("The build passed on the second attempt.")
	assert.Empty(t, res.ToolCalls)
	assert.Equal(t, "The build passed on the second attempt.", res.Text)
}

// A directive split across fragment boundaries must reassemble into exactly
// one invocation.
func TestParseStreamReassemblesFragments(t *testing.T) {
	p := NewResponseParser(nil)
	fragments := make(chan string, 2)
	fragments <- "{\"tool_cal"
	fragments <- "l\":{\"name\":\"x\",\"arguments\":{}}}"
	close(fragments)

	res, err := p.ParseStream(context.Background(), fragments)
	require.NoError(t, err)
	require.Len(t, res.ToolCalls, 1)
	assert.Equal(t, "x", res.ToolCalls[0].Name)
	assert.Equal(t, 0, res.ToolCalls[0].Args.Len())
	assert.Empty(t, res.Text)
}

func TestParseStreamEmptyStream(t *testing.T) {
	p := NewResponseParser(nil)
	fragments := make(chan string)
	close(fragments)

	res, err := p.ParseStream(context.Background(), fragments)
	require.NoError(t, err)
	assert.Equal(t, "empty", res.Meta.FinishReason)
}

func TestParseStreamCancellation(t *testing.T) {
	p := NewResponseParser(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fragments := make(chan string)
	res, err := p.ParseStream(ctx, fragments)
	assert.Nil(t, res, "cancellation must not surface a partial result")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParserCandidatesExposesSkips(t *testing.T) {
	p := NewResponseParser(nil)
	cands := p.Candidates(`{"tool_call":{"arguments":{}}} {"tool_call":{"name":"y","arguments":{}}}`)
	require.Len(t, cands, 2)
	assert.Equal(t, "missing tool name", cands[0].SkipReason)
	require.NotNil(t, cands[1].Call)
	assert.Equal(t, "y", cands[1].Call.Name)
}
