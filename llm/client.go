package llm

import "context"

// Message is one chat turn sent to a provider. Role follows the usual
// user/assistant/system/tool convention.
type Message struct {
	Role       string `json:"role"`
	Content    string `json:"content"`
	Name       string `json:"name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// Request carries a chat request independent of the provider wire format.
type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
	Stop        []string
}

// Response is a completed, non-streamed provider reply. The text is raw
// model output; recovery and directive extraction happen downstream.
type Response struct {
	Text         string
	FinishReason string
	Usage        map[string]int
}

// Client abstracts a chat completion provider. ChatStream sends content
// fragments in arrival order and closes the channel when the reply is
// complete; callers reassemble the full text before parsing it.
type Client interface {
	Chat(ctx context.Context, req *Request) (*Response, error)
	ChatStream(ctx context.Context, req *Request) (<-chan string, error)
}
