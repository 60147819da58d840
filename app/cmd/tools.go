package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexcodex/quill/server"
	"github.com/lexcodex/quill/tools"
)

// newToolsCmd groups tool inspection and serving.
func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect or serve the builtin tools",
	}
	cmd.AddCommand(newToolsListCmd(), newToolsServeCmd())
	return cmd
}

func newToolsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available tools and their parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := tools.Builtin(cfg.Workspace, log)
			for _, tool := range registry.List() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n    %s\n", tool.Name(), tool.Description())
				for _, p := range tool.Parameters() {
					required := ""
					if p.Required {
						required = " (required)"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "    - %s: %s%s\n", p.Name, p.Type, required)
				}
			}
			return nil
		},
	}
}

// newToolsServeCmd exposes the registry and parser over JSON-RPC on stdio,
// for editor integrations.
func newToolsServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve tools over JSON-RPC on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := tools.Builtin(cfg.Workspace, log)
			srv := server.New(registry, log)
			log.Infof("tool server listening on stdio, workspace %s", cfg.Workspace)
			return srv.ServeStdio(cmd.Context())
		},
	}
}
