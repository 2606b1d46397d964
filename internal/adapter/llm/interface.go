// Package llm provides an abstraction for the chat completion oracle.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrCircuitOpen is returned without calling upstream while the breaker is open.
	ErrCircuitOpen = errors.New("llm circuit breaker is open")
	// ErrRateLimited is returned when upstream kept answering 429.
	ErrRateLimited = errors.New("llm upstream rate limited")
	// ErrEmptyCompletion is returned when upstream answered without a choice.
	ErrEmptyCompletion = errors.New("llm returned no completion")
)

// ChatMessage is one message of a chat completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is a non-streaming completion request.
type ChatCompletionRequest struct {
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
	// JSONObject asks upstream for a single JSON object.
	JSONObject bool
}

// ChatCompletionResponse is the first choice of a completion.
type ChatCompletionResponse struct {
	Model   string
	Content string
	Usage   Usage
}

// Usage reports token accounting.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// LLMClient defines the interface for chat completion calls.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)
}

// Ensure the implementations satisfy LLMClient.
var (
	_ LLMClient = (*GroqClient)(nil)
	_ LLMClient = (*MockClient)(nil)
)
