package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Ollama talks to a local Ollama server over its native /api/chat endpoint.
type Ollama struct {
	Endpoint string
	Model    string
	client   *http.Client
	log      logrus.FieldLogger
}

// NewOllama builds a client for the given endpoint and model. A nil logger
// falls back to the logrus standard logger.
func NewOllama(endpoint, model string, log logrus.FieldLogger) *Ollama {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Ollama{
		Endpoint: endpoint,
		Model:    model,
		client:   &http.Client{Timeout: 3 * time.Minute},
		log:      log.WithField("provider", "ollama"),
	}
}

// SetTimeout adjusts the HTTP client timeout, mostly for slow local models.
func (o *Ollama) SetTimeout(d time.Duration) {
	o.client.Timeout = d
}

type ollamaResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Response        string `json:"response"`
	DoneReason      string `json:"done_reason"`
	EvalCount       int    `json:"eval_count"`
	PromptEvalCount int    `json:"prompt_eval_count"`
}

// Chat performs a blocking chat completion.
func (o *Ollama) Chat(ctx context.Context, req *Request) (*Response, error) {
	body, err := o.do(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	var raw ollamaResponse
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}
	text := raw.Message.Content
	if text == "" {
		text = raw.Response
	}
	return &Response{
		Text:         text,
		FinishReason: raw.DoneReason,
		Usage:        usageCounts(raw.PromptEvalCount, raw.EvalCount),
	}, nil
}

// ChatStream performs a streaming chat completion. Ollama streams NDJSON,
// one object per line; the content field of each line becomes one fragment.
func (o *Ollama) ChatStream(ctx context.Context, req *Request) (<-chan string, error) {
	body, err := o.do(ctx, req, true)
	if err != nil {
		return nil, err
	}
	ch := make(chan string)
	go func() {
		defer body.Close()
		defer close(ch)
		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			if msg := gjson.GetBytes(line, "error"); msg.Exists() {
				o.log.Warnf("stream error from server: %s", msg.String())
				return
			}
			if frag := gjson.GetBytes(line, "message.content"); frag.Exists() && frag.String() != "" {
				select {
				case ch <- frag.String():
				case <-ctx.Done():
					return
				}
			}
			if gjson.GetBytes(line, "done").Bool() {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			o.log.Warnf("stream read failed: %v", err)
		}
	}()
	return ch, nil
}

func (o *Ollama) do(ctx context.Context, req *Request, stream bool) (io.ReadCloser, error) {
	payload := map[string]interface{}{
		"model":    o.Model,
		"messages": encodeMessages(req.Messages),
		"stream":   stream,
	}
	options := map[string]interface{}{}
	if req.Temperature != 0 {
		options["temperature"] = req.Temperature
	}
	if req.MaxTokens != 0 {
		options["num_predict"] = req.MaxTokens
	}
	if len(req.Stop) > 0 {
		options["stop"] = req.Stop
	}
	if len(options) > 0 {
		payload["options"] = options
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.Endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	o.log.Debugf("chat request: model=%s stream=%v messages=%d", o.Model, stream, len(req.Messages))
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		detail := strings.TrimSpace(string(msg))
		if detail != "" {
			return nil, fmt.Errorf("ollama error: %s: %s", resp.Status, detail)
		}
		return nil, fmt.Errorf("ollama error: %s", resp.Status)
	}
	return resp.Body, nil
}

func encodeMessages(messages []Message) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(messages))
	for _, msg := range messages {
		m := map[string]interface{}{
			"role":    msg.Role,
			"content": msg.Content,
		}
		if msg.Name != "" {
			m["name"] = msg.Name
		}
		if msg.ToolCallID != "" {
			m["tool_call_id"] = msg.ToolCallID
		}
		out = append(out, m)
	}
	return out
}

func usageCounts(prompt, completion int) map[string]int {
	usage := make(map[string]int)
	if prompt > 0 {
		usage["prompt_tokens"] = prompt
	}
	if completion > 0 {
		usage["completion_tokens"] = completion
	}
	if len(usage) == 0 {
		return nil
	}
	return usage
}
