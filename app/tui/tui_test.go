package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/quill/session"
)

type stubAsker struct{}

func (stubAsker) Ask(context.Context, string) (*session.Turn, error) {
	return &session.Turn{Text: "done"}, nil
}

func TestRenderLog(t *testing.T) {
	out := renderLog([]entry{
		{role: "you", text: "list the files"},
		{role: "tool", text: "list_files -> {}"},
		{role: "quill", text: "Two files found."},
	}, "", 80)
	assert.Contains(t, out, "you:")
	assert.Contains(t, out, "tool:")
	assert.Contains(t, out, "Two files found.")
}

func TestRenderLogShowsPendingFragment(t *testing.T) {
	out := renderLog(nil, "partial answ", 80)
	assert.Contains(t, out, "partial answ")
}

func TestSummarizeTruncates(t *testing.T) {
	long := strings.Repeat("x", 200)
	got := summarize(long)
	assert.Len(t, got, 123)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestEnterStartsTurn(t *testing.T) {
	m := newModel(context.Background(), stubAsker{}, nil)
	m.input.SetValue("hello")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	got := updated.(model)
	require.NotNil(t, cmd)
	assert.True(t, got.sending)
	require.Len(t, got.entries, 1)
	assert.Equal(t, "you", got.entries[0].role)
	assert.Empty(t, got.input.Value())
}

// Update receivers are value copies of the previous model, so the pending
// buffer has to survive being copied between writes.
func TestFragmentsAccumulateAcrossModelCopies(t *testing.T) {
	m := newModel(context.Background(), stubAsker{}, nil)
	m.sending = true

	updated, _ := m.Update(fragmentMsg("par"))
	copied := updated.(model)
	updated, _ = copied.Update(fragmentMsg("tial"))
	got := updated.(model)

	assert.Equal(t, "partial", got.pending)
	assert.Contains(t, renderLog(got.entries, got.pending, 80), "partial")
}

func TestTurnMessageAppendsReply(t *testing.T) {
	m := newModel(context.Background(), stubAsker{}, nil)
	m.sending = true

	updated, _ := m.Update(turnMsg{turn: &session.Turn{Text: "all set"}})
	got := updated.(model)
	assert.False(t, got.sending)
	require.Len(t, got.entries, 1)
	assert.Equal(t, "all set", got.entries[0].text)
}
