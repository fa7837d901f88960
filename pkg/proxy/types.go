package proxy

import (
	"github.com/parable-systems/shepherd/pkg/intent"
)

// ChatMessage is one prior turn supplied by the client.
type ChatMessage struct {
	// Role is "user" or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// ChatRequest is the body of POST /v1/chat.
type ChatRequest struct {
	// Message is the user's current message.
	Message string `json:"message"`

	// History is the optional prior conversation, oldest first.
	History []ChatMessage `json:"history,omitempty"`
}

// ChatResponse is the body of a successful POST /v1/chat.
type ChatResponse struct {
	// Reply is the model's answer.
	Reply string `json:"reply"`

	// Label is the intent label the message was classified as.
	Label intent.Label `json:"label"`

	// References lists scripture references found in the reply.
	References []string `json:"references"`

	// FallbackUsed is true when classification recovered from an internal
	// fault and fell back to the conversational label.
	FallbackUsed bool `json:"fallback_used"`
}

// QuotaStatusResponse is the body of GET /v1/quota/status.
type QuotaStatusResponse struct {
	CallerID string `json:"caller_id"`

	WindowRequests     int `json:"window_requests"`
	WindowMax          int `json:"window_max"`
	WindowResetSeconds int `json:"window_reset_seconds"`

	DailyRequests     int `json:"daily_requests"`
	DailyMax          int `json:"daily_max"`
	DailyResetSeconds int `json:"daily_reset_seconds"`

	DailyCostCents      int64 `json:"daily_cost_cents"`
	DailyCostLimitCents int64 `json:"daily_cost_limit_cents"`
}

// ErrorResponse is the error body for all non-2xx responses.
type ErrorResponse struct {
	// Error contains the error details.
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error.
	Type string `json:"type"`

	// Param is the name of the parameter that caused the error (if applicable).
	Param string `json:"param,omitempty"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`
}

// Error type constants.
const (
	// ErrorTypeInvalidRequest indicates a client-side error (400).
	ErrorTypeInvalidRequest = "invalid_request_error"

	// ErrorTypeRateLimitExceeded indicates the burst limit was hit (429).
	ErrorTypeRateLimitExceeded = "rate_limit_exceeded"

	// ErrorTypeDailyLimitReached indicates the daily request or cost
	// allowance is exhausted (403).
	ErrorTypeDailyLimitReached = "daily_limit_reached"

	// ErrorTypeServerError indicates an internal server error (500).
	ErrorTypeServerError = "server_error"

	// ErrorTypeBadGateway indicates an upstream model failure (502).
	ErrorTypeBadGateway = "bad_gateway"

	// ErrorTypeGatewayTimeout indicates an upstream timeout (504).
	ErrorTypeGatewayTimeout = "gateway_timeout"
)

// Error code constants for common error scenarios.
const (
	// CodeMissingField indicates a required field is missing.
	CodeMissingField = "missing_field"

	// CodeInvalidJSON indicates the request body is not valid JSON.
	CodeInvalidJSON = "invalid_json"

	// CodeMessageTooLong indicates the message exceeds the configured bound.
	CodeMessageTooLong = "message_too_long"

	// CodeBurstLimit indicates the short-window burst limit was hit.
	CodeBurstLimit = "burst_limit"

	// CodeDailyRequestLimit indicates the daily request allowance is exhausted.
	CodeDailyRequestLimit = "daily_request_limit"

	// CodeDailyCostLimit indicates the daily cost budget is exhausted.
	CodeDailyCostLimit = "daily_cost_limit"

	// CodeUpstreamError indicates an error from the completion API.
	CodeUpstreamError = "upstream_error"

	// CodeUpstreamTimeout indicates the completion API timed out.
	CodeUpstreamTimeout = "upstream_timeout"

	// CodeInternalError indicates an internal server error.
	CodeInternalError = "internal_error"
)

// NewErrorResponse creates a new error response with the given details.
func NewErrorResponse(message, errorType, param, code string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    errorType,
			Param:   param,
			Code:    code,
		},
	}
}

// NewInvalidRequestError creates an error response for invalid requests (400).
func NewInvalidRequestError(message, param, code string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeInvalidRequest, param, code)
}

// NewServerError creates an error response for internal server errors (500).
func NewServerError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeServerError, "", CodeInternalError)
}

// HTTPStatusCode returns the HTTP status code for the error type.
func (e *ErrorDetail) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeInvalidRequest:
		return 400
	case ErrorTypeDailyLimitReached:
		return 403
	case ErrorTypeRateLimitExceeded:
		return 429
	case ErrorTypeServerError:
		return 500
	case ErrorTypeBadGateway:
		return 502
	case ErrorTypeGatewayTimeout:
		return 504
	default:
		return 500
	}
}
