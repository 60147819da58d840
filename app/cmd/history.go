package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexcodex/quill/persistence"
)

// newHistoryCmd groups recorded-session inspection.
func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded sessions",
	}
	cmd.AddCommand(newHistoryListCmd(), newHistoryShowCmd())
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := persistence.OpenHistory(cfg.HistoryPath)
			if err != nil {
				return err
			}
			defer store.Close()
			sessions, err := store.Sessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, s := range sessions {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n",
					s.ID, s.StartedAt.Format("2006-01-02 15:04"), s.Model)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum sessions to list")
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show [session-id]",
		Short: "Print the exchanges of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := persistence.OpenHistory(cfg.HistoryPath)
			if err != nil {
				return err
			}
			defer store.Close()
			exchanges, err := store.Exchanges(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, ex := range exchanges {
				if ex.Prompt != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "> %s\n", ex.Prompt)
				}
				for _, call := range ex.ToolCalls {
					fmt.Fprintf(cmd.OutOrStdout(), "[tool] %s\n", call.Name)
				}
				if raw {
					fmt.Fprintln(cmd.OutOrStdout(), ex.RawResponse)
				} else if ex.CleanText != "" {
					fmt.Fprintln(cmd.OutOrStdout(), ex.CleanText)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print raw model output instead of cleaned text")
	return cmd
}
