package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lexcodex/quill/config"
)

var (
	cfgFile   string
	workspace string
	verbose   bool

	cfg config.Config
	log = logrus.New()
)

// Execute is the entry point for the CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd wires the cobra tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "quill",
		Short:         "Command line LLM assistant with tool calling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if workspace == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				workspace = wd
			}
			if cfgFile == "" {
				cfgFile = config.DefaultPath(workspace)
			}
			loaded, err := config.Load(cfgFile, workspace)
			if err != nil {
				return err
			}
			cfg = loaded
			return setupLogging()
		},
	}
	root.PersistentFlags().StringVar(&workspace, "workspace", "", "Workspace directory")
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to quill config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug detail to stderr")

	root.AddCommand(
		newAskCmd(),
		newChatCmd(),
		newToolsCmd(),
		newConfigCmd(),
		newHistoryCmd(),
	)
	return root
}

// setupLogging routes logs to the configured file, mirroring to stderr only
// in verbose mode so TUI output stays clean.
func setupLogging() error {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	if verbose {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o755); err != nil {
		return err
	}
	file, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if verbose {
		log.SetOutput(io.MultiWriter(file, os.Stderr))
	} else {
		log.SetOutput(file)
	}
	return nil
}
