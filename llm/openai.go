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

// OpenAI talks to any OpenAI-compatible /v1/chat/completions endpoint,
// including local gateways that front other providers.
type OpenAI struct {
	Endpoint string
	Model    string
	APIKey   string
	client   *http.Client
	log      logrus.FieldLogger
}

// NewOpenAI builds a client for the given endpoint and model. A nil logger
// falls back to the logrus standard logger.
func NewOpenAI(endpoint, model, apiKey string, log logrus.FieldLogger) *OpenAI {
	if endpoint == "" {
		endpoint = "https://api.openai.com"
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &OpenAI{
		Endpoint: strings.TrimRight(endpoint, "/"),
		Model:    model,
		APIKey:   apiKey,
		client:   &http.Client{Timeout: 3 * time.Minute},
		log:      log.WithField("provider", "openai"),
	}
}

// SetTimeout adjusts the HTTP client timeout.
func (o *OpenAI) SetTimeout(d time.Duration) {
	o.client.Timeout = d
}

// Chat performs a blocking chat completion.
func (o *OpenAI) Chat(ctx context.Context, req *Request) (*Response, error) {
	body, err := o.do(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	parsed := gjson.ParseBytes(raw)
	resp := &Response{
		Text:         parsed.Get("choices.0.message.content").String(),
		FinishReason: parsed.Get("choices.0.finish_reason").String(),
	}
	prompt := int(parsed.Get("usage.prompt_tokens").Int())
	completion := int(parsed.Get("usage.completion_tokens").Int())
	resp.Usage = usageCounts(prompt, completion)
	return resp, nil
}

// ChatStream performs a streaming chat completion over server-sent events.
// Each data: line carrying a content delta becomes one fragment.
func (o *OpenAI) ChatStream(ctx context.Context, req *Request) (<-chan string, error) {
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
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "" || data == "[DONE]" {
				if data == "[DONE]" {
					return
				}
				continue
			}
			if frag := gjson.Get(data, "choices.0.delta.content"); frag.Exists() && frag.String() != "" {
				select {
				case ch <- frag.String():
				case <-ctx.Done():
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			o.log.Warnf("stream read failed: %v", err)
		}
	}()
	return ch, nil
}

func (o *OpenAI) do(ctx context.Context, req *Request, stream bool) (io.ReadCloser, error) {
	payload := map[string]interface{}{
		"model":    o.Model,
		"messages": encodeMessages(req.Messages),
		"stream":   stream,
	}
	if req.Temperature != 0 {
		payload["temperature"] = req.Temperature
	}
	if req.MaxTokens != 0 {
		payload["max_tokens"] = req.MaxTokens
	}
	if len(req.Stop) > 0 {
		payload["stop"] = req.Stop
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.Endpoint+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.APIKey)
	}
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
			return nil, fmt.Errorf("openai error: %s: %s", resp.Status, detail)
		}
		return nil, fmt.Errorf("openai error: %s", resp.Status)
	}
	return resp.Body, nil
}
