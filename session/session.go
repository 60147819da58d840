package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lexcodex/quill/llm"
	"github.com/lexcodex/quill/parse"
	"github.com/lexcodex/quill/persistence"
	"github.com/lexcodex/quill/tools"
)

// Options tune a session's behavior.
type Options struct {
	// MaxToolRounds caps how many times one Ask may loop through tool
	// execution before the last text wins.
	MaxToolRounds int
	Temperature   float64
	// OnFragment, when set, receives raw streamed fragments as they arrive.
	OnFragment func(string)
}

// ToolRound records one executed invocation within a turn.
type ToolRound struct {
	Call   parse.ToolCall
	Result *tools.Result
}

// Turn is the final outcome of one Ask.
type Turn struct {
	Text       string
	ToolRounds []ToolRound
}

// Session drives the conversation loop: prompt the model, recover and parse
// its response, execute any tool directives, feed results back, repeat.
type Session struct {
	client   llm.Client
	parser   *parse.ResponseParser
	registry *tools.Registry
	history  *persistence.HistoryStore
	log      logrus.FieldLogger
	opts     Options

	id       string
	messages []llm.Message
}

// New builds a session. The history store may be nil to disable persistence;
// a nil logger falls back to the logrus standard logger.
func New(client llm.Client, registry *tools.Registry, history *persistence.HistoryStore, log logrus.FieldLogger, opts Options) *Session {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = 8
	}
	s := &Session{
		client:   client,
		parser:   parse.NewResponseParser(log),
		registry: registry,
		history:  history,
		log:      log,
		opts:     opts,
	}
	s.messages = []llm.Message{{Role: "system", Content: SystemPrompt(registry)}}
	return s
}

// ID returns the persistent session identifier, empty when persistence is
// disabled or not yet started.
func (s *Session) ID() string { return s.id }

// Messages returns a copy of the conversation so far.
func (s *Session) Messages() []llm.Message {
	out := make([]llm.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Ask sends one user prompt and runs the loop until the model answers
// without requesting tools, or the round cap is reached.
func (s *Session) Ask(ctx context.Context, prompt string) (*Turn, error) {
	if err := s.ensureSession(ctx); err != nil {
		return nil, err
	}
	s.messages = append(s.messages, llm.Message{Role: "user", Content: prompt})
	turn := &Turn{}
	for round := 0; round < s.opts.MaxToolRounds; round++ {
		raw, result, err := s.exchange(ctx)
		if err != nil {
			return nil, err
		}
		s.messages = append(s.messages, llm.Message{Role: "assistant", Content: raw})
		s.record(ctx, prompt, raw, result)
		prompt = ""
		turn.Text = result.Text
		if len(result.ToolCalls) == 0 {
			return turn, nil
		}
		for _, call := range result.ToolCalls {
			res := s.registry.Dispatch(ctx, call)
			turn.ToolRounds = append(turn.ToolRounds, ToolRound{Call: call, Result: res})
			s.messages = append(s.messages, llm.Message{
				Role:       "tool",
				Name:       call.Name,
				ToolCallID: call.ID,
				Content:    res.Encode(),
			})
		}
	}
	s.log.Warnf("tool round cap reached, returning last text")
	return turn, nil
}

// exchange streams one completion and parses it, returning both the raw
// reassembled text and the structured result.
func (s *Session) exchange(ctx context.Context) (string, *parse.Result, error) {
	fragments, err := s.client.ChatStream(ctx, &llm.Request{
		Messages:    s.messages,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		return "", nil, fmt.Errorf("chat request: %w", err)
	}
	var raw strings.Builder
	tee := make(chan string)
	go func() {
		defer close(tee)
		for frag := range fragments {
			raw.WriteString(frag)
			if s.opts.OnFragment != nil {
				s.opts.OnFragment(frag)
			}
			select {
			case tee <- frag:
			case <-ctx.Done():
				return
			}
		}
	}()
	result, err := s.parser.ParseStream(ctx, tee)
	if err != nil {
		return "", nil, err
	}
	return raw.String(), result, nil
}

func (s *Session) ensureSession(ctx context.Context) error {
	if s.history == nil || s.id != "" {
		return nil
	}
	id, err := s.history.CreateSession(ctx, "")
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	s.id = id
	return nil
}

func (s *Session) record(ctx context.Context, prompt, raw string, result *parse.Result) {
	if s.history == nil {
		return
	}
	err := s.history.AppendExchange(ctx, persistence.Exchange{
		SessionID:    s.id,
		Prompt:       prompt,
		RawResponse:  raw,
		CleanText:    result.Text,
		ToolCalls:    result.ToolCalls,
		FinishReason: result.Meta.FinishReason,
	})
	if err != nil {
		s.log.Warnf("history write failed: %v", err)
	}
}

// SystemPrompt renders the instruction block advertising the available
// tools and the directive syntax the parser understands.
func SystemPrompt(registry *tools.Registry) string {
	var b strings.Builder
	b.WriteString("You are quill, a concise command line assistant.\n")
	b.WriteString("To use a tool, emit a single JSON object on its own line:\n")
	b.WriteString(`{"tool_call":{"name":"<tool>","arguments":{...}}}` + "\n")
	b.WriteString("Wait for the tool result before continuing. Never invent results.\n")
	if registry == nil {
		return b.String()
	}
	list := registry.List()
	if len(list) == 0 {
		return b.String()
	}
	b.WriteString("\nAvailable tools:\n")
	for _, tool := range list {
		fmt.Fprintf(&b, "- %s: %s\n", tool.Name(), tool.Description())
		for _, p := range tool.Parameters() {
			required := ""
			if p.Required {
				required = ", required"
			}
			fmt.Fprintf(&b, "    %s (%s%s): %s\n", p.Name, p.Type, required, p.Description)
		}
	}
	return b.String()
}
