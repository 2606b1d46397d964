package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MockReply is one scripted answer of a MockClient.
type MockReply struct {
	Content string
	Err     error
}

// MockClient is a scripted implementation of LLMClient for tests and local runs.
// Scripted replies are consumed in order. Once the script is exhausted it
// answers with an envelope echoing the last user message.
type MockClient struct {
	mu       sync.Mutex
	script   []MockReply
	requests []*ChatCompletionRequest
}

// NewMockClient creates a mock answering with the given contents in order.
func NewMockClient(contents ...string) *MockClient {
	m := &MockClient{}
	for _, c := range contents {
		m.script = append(m.script, MockReply{Content: c})
	}
	return m
}

// Enqueue appends replies to the script.
func (m *MockClient) Enqueue(replies ...MockReply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, replies...)
}

// Requests returns the requests received so far.
func (m *MockClient) Requests() []*ChatCompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*ChatCompletionRequest(nil), m.requests...)
}

// CreateChatCompletion returns the next scripted reply.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.requests = append(m.requests, req)
	var reply MockReply
	scripted := len(m.script) > 0
	if scripted {
		reply = m.script[0]
		m.script = m.script[1:]
	}
	m.mu.Unlock()

	if !scripted {
		reply.Content = echoEnvelope(req)
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return &ChatCompletionResponse{Model: "mock", Content: reply.Content}, nil
}

func echoEnvelope(req *ChatCompletionRequest) string {
	var last string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			last = req.Messages[i].Content
			break
		}
	}
	reply := "[MOCK] This is a mock response."
	if last != "" {
		reply = fmt.Sprintf("[MOCK] Received your message: %q.", truncate(last, 100))
	}
	data, _ := json.Marshal(map[string]any{
		"actions":              []any{},
		"response":             reply,
		"client_actions":       []any{},
		"pending_confirmation": nil,
	})
	return string(data)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
