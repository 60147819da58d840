package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/lexcodex/quill/llm"
	"github.com/lexcodex/quill/persistence"
	"github.com/lexcodex/quill/session"
	"github.com/lexcodex/quill/tools"
)

// newClient builds the provider client selected by config. Debug logging
// wraps it with request instrumentation.
func newClient() (llm.Client, error) {
	var client llm.Client
	switch cfg.Provider {
	case "ollama":
		c := llm.NewOllama(cfg.Endpoint, cfg.Model, log)
		c.SetTimeout(cfg.RequestTimeout)
		client = c
	case "openai":
		c := llm.NewOpenAI(cfg.Endpoint, cfg.Model, cfg.APIKey, log)
		c.SetTimeout(cfg.RequestTimeout)
		client = c
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	if log.IsLevelEnabled(logrus.DebugLevel) {
		client = llm.NewInstrumented(client, log)
	}
	return client, nil
}

// newSession assembles a full session: provider client, builtin tools, and
// the history store. The returned closer releases the store.
func newSession(opts session.Options) (*session.Session, func(), error) {
	client, err := newClient()
	if err != nil {
		return nil, nil, err
	}
	registry := tools.Builtin(cfg.Workspace, log)
	history, err := persistence.OpenHistory(cfg.HistoryPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open history: %w", err)
	}
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = cfg.MaxToolRounds
	}
	sess := session.New(client, registry, history, log, opts)
	return sess, func() { history.Close() }, nil
}
