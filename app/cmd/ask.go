package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexcodex/quill/session"
)

// newAskCmd answers a single prompt and exits.
func newAskCmd() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Ask a one-shot question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			sess, closeSession, err := newSession(session.Options{})
			if err != nil {
				return err
			}
			defer closeSession()

			turn, err := sess.Ask(cmd.Context(), prompt)
			if err != nil {
				return err
			}
			if !plain {
				for _, round := range turn.ToolRounds {
					fmt.Fprintf(cmd.ErrOrStderr(), "[tool] %s\n", round.Call.Name)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), turn.Text)
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Print only the final answer")
	return cmd
}
