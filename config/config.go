package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config captures every knob shared across the quill CLI, TUI, and tool
// server entry points.
type Config struct {
	Workspace string `yaml:"workspace" envconfig:"QUILL_WORKSPACE"`

	Provider string `yaml:"provider" envconfig:"QUILL_PROVIDER"`
	Endpoint string `yaml:"endpoint" envconfig:"QUILL_ENDPOINT"`
	Model    string `yaml:"model" envconfig:"QUILL_MODEL"`
	APIKey   string `yaml:"api_key" envconfig:"QUILL_API_KEY"`

	HistoryPath string `yaml:"history_path" envconfig:"QUILL_HISTORY_PATH"`
	LogPath     string `yaml:"log_path" envconfig:"QUILL_LOG_PATH"`
	LogLevel    string `yaml:"log_level" envconfig:"QUILL_LOG_LEVEL"`

	MaxToolRounds  int           `yaml:"max_tool_rounds" envconfig:"QUILL_MAX_TOOL_ROUNDS"`
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"QUILL_REQUEST_TIMEOUT"`
}

// Default infers sensible defaults based on the current working directory.
// Errors from os.Getwd are ignored so callers can override manually.
func Default() Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return Config{
		Workspace:      cwd,
		Provider:       "ollama",
		Model:          "qwen2.5-coder:7b",
		HistoryPath:    filepath.Join(cwd, ".quill", "history.db"),
		LogPath:        filepath.Join(cwd, ".quill", "quill.log"),
		LogLevel:       "info",
		MaxToolRounds:  8,
		RequestTimeout: 3 * time.Minute,
	}
}

// Load resolves the effective configuration: defaults, then the YAML file at
// path if it exists, then a .env file in the workspace, then QUILL_*
// environment variables. Later layers win. A non-empty workspace overrides
// every layer, so relative paths anchor there.
func Load(path, workspace string) (Config, error) {
	cfg := Default()
	if workspace != "" {
		cfg.Workspace = workspace
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	// A missing .env is not an error, the file is optional.
	_ = godotenv.Load(filepath.Join(cfg.Workspace, ".env"))
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("apply environment overrides: %w", err)
	}
	if workspace != "" {
		cfg.Workspace = workspace
	}
	if err := cfg.Normalize(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Normalize ensures every filesystem path is absolute and fills missing
// defaults so later initialization never has to re-check the same
// invariants.
func (c *Config) Normalize() error {
	if c.Workspace == "" {
		return fmt.Errorf("workspace path required")
	}
	absWorkspace, err := filepath.Abs(c.Workspace)
	if err != nil {
		return fmt.Errorf("resolve workspace: %w", err)
	}
	c.Workspace = absWorkspace
	switch c.Provider {
	case "":
		c.Provider = "ollama"
	case "ollama", "openai":
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.Endpoint == "" {
		if c.Provider == "ollama" {
			c.Endpoint = "http://localhost:11434"
		} else {
			c.Endpoint = "https://api.openai.com"
		}
	}
	if c.Model == "" {
		c.Model = "qwen2.5-coder:7b"
	}
	if c.HistoryPath == "" {
		c.HistoryPath = filepath.Join(c.Workspace, ".quill", "history.db")
	}
	if !filepath.IsAbs(c.HistoryPath) {
		c.HistoryPath = filepath.Join(c.Workspace, c.HistoryPath)
	}
	if c.LogPath == "" {
		c.LogPath = filepath.Join(c.Workspace, ".quill", "quill.log")
	}
	if !filepath.IsAbs(c.LogPath) {
		c.LogPath = filepath.Join(c.Workspace, c.LogPath)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.MaxToolRounds <= 0 {
		c.MaxToolRounds = 8
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 3 * time.Minute
	}
	return nil
}

// Save persists the configuration for future sessions.
func Save(path string, cfg Config) error {
	if path == "" {
		return fmt.Errorf("config path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultPath returns the conventional config location inside a workspace.
func DefaultPath(workspace string) string {
	return filepath.Join(workspace, ".quill", "config.yaml")
}
