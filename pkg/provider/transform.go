package provider

// Wire types for the Messages API.

// messagesRequest is the request body for the messages endpoint.
type messagesRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	System      string        `json:"system,omitempty"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature,omitempty"`
}

// wireMessage is a message in wire format.
type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// contentBlock is a content block in a wire response.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// messagesResponse is the response body from the messages endpoint.
type messagesResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Content    []contentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
	Usage      wireUsage      `json:"usage"`
}

// wireUsage is token usage in wire format.
type wireUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// transformRequest converts a backend-agnostic request to wire format.
func transformRequest(req *CompletionRequest) *messagesRequest {
	wireReq := &messagesRequest{
		Model:       req.Model,
		Messages:    make([]wireMessage, 0, len(req.Messages)),
		System:      req.System,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	// max_tokens is mandatory on the wire
	if wireReq.MaxTokens == 0 {
		wireReq.MaxTokens = 1024
	}

	for _, msg := range req.Messages {
		wireReq.Messages = append(wireReq.Messages, wireMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	return wireReq
}

// transformResponse converts a wire response to the backend-agnostic format.
// Text blocks are concatenated; other block types are ignored.
func transformResponse(resp *messagesResponse) *CompletionResponse {
	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return &CompletionResponse{
		ID:           resp.ID,
		Model:        resp.Model,
		Text:         text,
		FinishReason: normalizeStopReason(resp.StopReason),
		Usage: TokenUsage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}
}

// normalizeStopReason maps wire stop reasons to backend-agnostic values.
func normalizeStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return FinishReasonStop
	case "max_tokens":
		return FinishReasonLength
	default:
		return reason
	}
}
