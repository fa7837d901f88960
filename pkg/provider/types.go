package provider

import "context"

// Message roles accepted in a completion request.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Finish reasons reported in a completion response.
const (
	FinishReasonStop   = "stop"
	FinishReasonLength = "length"
)

// Message is a single turn in the conversation sent upstream.
type Message struct {
	// Role is the message author: "user" or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// CompletionRequest is a backend-agnostic completion request.
type CompletionRequest struct {
	// Model is the model identifier.
	Model string `json:"model"`

	// System is the system prompt sent with the conversation.
	System string `json:"system,omitempty"`

	// Messages is the conversation history, oldest first.
	Messages []Message `json:"messages"`

	// MaxTokens caps the completion length.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls sampling randomness.
	Temperature float64 `json:"temperature,omitempty"`
}

// CompletionResponse is a backend-agnostic completion response.
type CompletionResponse struct {
	// ID is the upstream response identifier.
	ID string `json:"id"`

	// Model is the model that produced the completion.
	Model string `json:"model"`

	// Text is the completion text.
	Text string `json:"text"`

	// FinishReason describes why generation stopped.
	FinishReason string `json:"finish_reason"`

	// Usage reports token consumption for the request.
	Usage TokenUsage `json:"usage"`
}

// TokenUsage reports token consumption.
type TokenUsage struct {
	// PromptTokens is the number of input tokens.
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of output tokens.
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is the sum of prompt and completion tokens.
	TotalTokens int `json:"total_tokens"`
}

// Completer sends a completion request to the upstream model.
// The HTTP handler depends on this interface so tests can substitute a fake.
type Completer interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}
