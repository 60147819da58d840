package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lexcodex/quill/config"
)

// newConfigCmd registers subcommands that inspect or write configuration.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or initialize configuration",
	}
	cmd.AddCommand(newConfigShowCmd(), newConfigInitCmd())
	return cmd
}

// newConfigShowCmd prints the effective configuration after all overlays.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			shown := cfg
			if shown.APIKey != "" {
				shown.APIKey = "****"
			}
			data, err := yaml.Marshal(shown)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

// newConfigInitCmd writes the current effective configuration to disk as a
// starting point for editing.
func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default config file for this workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(cfgFile, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", cfgFile)
			return nil
		},
	}
}
