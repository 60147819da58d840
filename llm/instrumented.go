package llm

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Instrumented wraps a Client and logs every request with timing and a
// response preview. Useful when diagnosing recovery behavior on flaky
// models.
type Instrumented struct {
	Inner Client
	log   logrus.FieldLogger
}

// NewInstrumented wraps inner. A nil logger falls back to the logrus
// standard logger.
func NewInstrumented(inner Client, log logrus.FieldLogger) *Instrumented {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Instrumented{Inner: inner, log: log}
}

// Chat delegates to the inner client, logging the outcome.
func (m *Instrumented) Chat(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	resp, err := m.Inner.Chat(ctx, req)
	fields := logrus.Fields{
		"kind":     "chat",
		"messages": len(req.Messages),
		"elapsed":  time.Since(start).Round(time.Millisecond),
	}
	if err != nil {
		m.log.WithFields(fields).Warnf("chat failed: %v", err)
		return nil, err
	}
	fields["finish_reason"] = resp.FinishReason
	fields["preview"] = clip(resp.Text, 256)
	m.log.WithFields(fields).Debug("chat completed")
	return resp, nil
}

// ChatStream delegates to the inner client and logs stream volume once the
// stream drains.
func (m *Instrumented) ChatStream(ctx context.Context, req *Request) (<-chan string, error) {
	start := time.Now()
	inner, err := m.Inner.ChatStream(ctx, req)
	if err != nil {
		m.log.Warnf("chat stream failed to start: %v", err)
		return nil, err
	}
	out := make(chan string)
	go func() {
		defer close(out)
		fragments := 0
		chars := 0
		for frag := range inner {
			fragments++
			chars += len(frag)
			select {
			case out <- frag:
			case <-ctx.Done():
				return
			}
		}
		m.log.WithFields(logrus.Fields{
			"kind":      "chat_stream",
			"fragments": fragments,
			"chars":     chars,
			"elapsed":   time.Since(start).Round(time.Millisecond),
		}).Debug("stream drained")
	}()
	return out, nil
}

func clip(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
