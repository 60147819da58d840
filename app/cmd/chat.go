package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lexcodex/quill/app/tui"
	"github.com/lexcodex/quill/session"
)

// newChatCmd launches the interactive chat UI.
func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			frags, onFragment := fragmentSink(64)
			sess, closeSession, err := newSession(session.Options{
				OnFragment: onFragment,
			})
			if err != nil {
				return err
			}
			defer closeSession()
			return tui.Run(cmd.Context(), sess, frags)
		},
	}
}

// fragmentSink bridges streamed fragments to the UI: a buffered channel and
// a send that drops when the buffer is full. The channel is never closed;
// the UI can quit mid-stream while the session goroutine is still emitting,
// and a late send must stay a silent drop rather than a panic.
func fragmentSink(size int) (<-chan string, func(string)) {
	ch := make(chan string, size)
	send := func(f string) {
		select {
		case ch <- f:
		default:
		}
	}
	return ch, send
}
