package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lexcodex/quill/session"
)

// Asker is the slice of session behavior the chat pane needs.
type Asker interface {
	Ask(ctx context.Context, prompt string) (*session.Turn, error)
}

// Run launches the chat UI. Fragments streamed by the session arrive on
// frags and render incrementally while the turn is in flight.
func Run(ctx context.Context, asker Asker, frags <-chan string) error {
	m := newModel(ctx, asker, frags)
	program := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

type turnMsg struct {
	turn *session.Turn
	err  error
}

type fragmentMsg string

type model struct {
	ctx   context.Context
	asker Asker
	frags <-chan string

	input    textinput.Model
	viewport viewport.Model
	entries  []entry
	pending  string
	sending  bool
	err      error

	width  int
	height int
}

type entry struct {
	role string
	text string
}

func newModel(ctx context.Context, asker Asker, frags <-chan string) model {
	input := textinput.New()
	input.Placeholder = "Ask quill anything"
	input.CharLimit = 4000
	input.Prompt = "> "
	input.Focus()

	vp := viewport.New(0, 0)
	vp.SetContent("Session started. Esc or Ctrl+C quits.")

	return model{
		ctx:      ctx,
		asker:    asker,
		frags:    frags,
		input:    input,
		viewport: vp,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(3, msg.Height-4)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			prompt := strings.TrimSpace(m.input.Value())
			if prompt == "" || m.sending {
				return m, nil
			}
			m.entries = append(m.entries, entry{role: "you", text: prompt})
			m.input.Reset()
			m.sending = true
			m.pending = ""
			m.refresh()
			return m, tea.Batch(m.askCmd(prompt), m.listenCmd())
		}

	case fragmentMsg:
		m.pending += string(msg)
		m.refresh()
		return m, m.listenCmd()

	case turnMsg:
		m.sending = false
		m.pending = ""
		if msg.err != nil {
			m.err = msg.err
			m.entries = append(m.entries, entry{role: "error", text: msg.err.Error()})
		} else {
			for _, round := range msg.turn.ToolRounds {
				m.entries = append(m.entries, entry{
					role: "tool",
					text: fmt.Sprintf("%s -> %s", round.Call.Name, summarize(round.Result.Encode())),
				})
			}
			if msg.turn.Text != "" {
				m.entries = append(m.entries, entry{role: "quill", text: msg.turn.Text})
			}
		}
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	status := ""
	if m.sending {
		status = statusStyle.Render("thinking...")
	}
	return strings.Join([]string{
		m.viewport.View(),
		status,
		m.input.View(),
	}, "\n")
}

func (m *model) refresh() {
	m.viewport.SetContent(renderLog(m.entries, m.pending, m.width))
	m.viewport.GotoBottom()
}

func (m model) askCmd(prompt string) tea.Cmd {
	return func() tea.Msg {
		turn, err := m.asker.Ask(m.ctx, prompt)
		return turnMsg{turn: turn, err: err}
	}
}

// listenCmd waits for the next streamed fragment. A closed or missing
// channel simply stops the incremental rendering; the final turn message
// still lands.
func (m model) listenCmd() tea.Cmd {
	if m.frags == nil {
		return nil
	}
	return func() tea.Msg {
		frag, ok := <-m.frags
		if !ok {
			return nil
		}
		return fragmentMsg(frag)
	}
}

// renderLog renders finished entries plus the in-flight fragment buffer.
func renderLog(entries []entry, pending string, width int) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(styleFor(e.role).Render(labelFor(e.role)))
		b.WriteString(" ")
		b.WriteString(e.text)
		b.WriteString("\n\n")
	}
	if pending != "" {
		b.WriteString(pendingStyle.Render(pending))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func labelFor(role string) string {
	switch role {
	case "you":
		return "you:"
	case "tool":
		return "tool:"
	case "error":
		return "error:"
	default:
		return "quill:"
	}
}

func summarize(s string) string {
	if len(s) <= 120 {
		return s
	}
	return s[:120] + "..."
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
