package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) *http.Response

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: 200,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestOllamaChat(t *testing.T) {
	client := NewOllama("http://fake", "test-model", nil)
	client.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) *http.Response {
			assert.Equal(t, "/api/chat", req.URL.Path)
			var payload map[string]interface{}
			assert.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
			assert.Equal(t, "test-model", payload["model"])
			assert.Equal(t, false, payload["stream"])
			return jsonResponse(`{"message":{"role":"assistant","content":"pong"},"done_reason":"stop","eval_count":5}`)
		}),
	}

	resp, err := client.Chat(context.Background(), &Request{
		Messages: []Message{{Role: "user", Content: "ping"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "pong", resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, map[string]int{"completion_tokens": 5}, resp.Usage)
}

func TestOllamaChatStream(t *testing.T) {
	stream := `{"message":{"content":"Hel"},"done":false}
{"message":{"content":"lo"},"done":false}
{"message":{"content":""},"done":true,"done_reason":"stop"}
`
	client := NewOllama("http://fake", "m", nil)
	client.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) *http.Response {
			return jsonResponse(stream)
		}),
	}

	ch, err := client.ChatStream(context.Background(), &Request{})
	require.NoError(t, err)
	var got []string
	for frag := range ch {
		got = append(got, frag)
	}
	assert.Equal(t, []string{"Hel", "lo"}, got)
}

func TestOllamaChatStreamStopsOnServerError(t *testing.T) {
	stream := `{"message":{"content":"partial"},"done":false}
{"error":"model exploded"}
{"message":{"content":"never seen"},"done":false}
`
	client := NewOllama("http://fake", "m", nil)
	client.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) *http.Response {
			return jsonResponse(stream)
		}),
	}

	ch, err := client.ChatStream(context.Background(), &Request{})
	require.NoError(t, err)
	var got []string
	for frag := range ch {
		got = append(got, frag)
	}
	assert.Equal(t, []string{"partial"}, got)
}

func TestOllamaChatErrorStatus(t *testing.T) {
	client := NewOllama("http://fake", "m", nil)
	client.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) *http.Response {
			return &http.Response{
				StatusCode: 500,
				Status:     "500 Internal Server Error",
				Body:       io.NopCloser(strings.NewReader("model not found")),
				Header:     make(http.Header),
			}
		}),
	}

	_, err := client.Chat(context.Background(), &Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}
