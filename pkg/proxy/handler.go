package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/parable-systems/shepherd/pkg/config"
	"github.com/parable-systems/shepherd/pkg/intent"
	"github.com/parable-systems/shepherd/pkg/prompts"
	"github.com/parable-systems/shepherd/pkg/provider"
	"github.com/parable-systems/shepherd/pkg/proxy/middleware"
	"github.com/parable-systems/shepherd/pkg/quota"
	"github.com/parable-systems/shepherd/pkg/scripture"
	"github.com/parable-systems/shepherd/pkg/storage"
)

// ChatHandler serves POST /v1/chat: quota check, intent classification,
// prompt selection, upstream completion, and scripture extraction.
type ChatHandler struct {
	tracker    *quota.Tracker
	classifier *intent.Classifier
	prompts    *prompts.Registry
	completer  provider.Completer
	extractor  *scripture.Extractor
	journal    storage.Journal
	metrics    *Metrics
	serverCfg  config.ServerConfig
	provCfg    config.ProviderConfig
	logger     *slog.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// ChatHandlerDeps bundles the collaborators a ChatHandler needs.
type ChatHandlerDeps struct {
	Tracker    *quota.Tracker
	Classifier *intent.Classifier
	Prompts    *prompts.Registry
	Completer  provider.Completer
	Extractor  *scripture.Extractor
	Journal    storage.Journal
	Metrics    *Metrics
	ServerCfg  config.ServerConfig
	ProvCfg    config.ProviderConfig
	Logger     *slog.Logger
}

// NewChatHandler creates the chat handler.
func NewChatHandler(deps ChatHandlerDeps) *ChatHandler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{
		tracker:    deps.Tracker,
		classifier: deps.Classifier,
		prompts:    deps.Prompts,
		completer:  deps.Completer,
		extractor:  deps.Extractor,
		journal:    deps.Journal,
		metrics:    deps.Metrics,
		serverCfg:  deps.ServerCfg,
		provCfg:    deps.ProvCfg,
		logger:     logger,
		now:        time.Now,
	}
}

// ServeHTTP implements http.Handler.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	startTime := h.now()

	if r.Method != http.MethodPost {
		errResp := NewInvalidRequestError(
			fmt.Sprintf("Method %s not allowed. Use POST instead.", r.Method),
			"method",
			"method_not_allowed",
		)
		h.writeError(ctx, w, errResp)
		return
	}

	chatReq, errResp := h.parseRequest(r)
	if errResp != nil {
		h.recordOutcome("client_error", startTime)
		h.writeError(ctx, w, errResp)
		return
	}

	callerID := middleware.GetCallerID(ctx)
	if callerID == "" {
		callerID = r.Header.Get(middleware.CallerIDHeader)
	}

	decision := h.tracker.Evaluate(callerID, h.now())
	if !decision.Allowed {
		h.recordOutcome("rejected", startTime)
		h.writeQuotaRejection(ctx, w, decision, requestID, callerID)
		return
	}

	result := h.classifier.Classify(chatReq.Message)
	if h.metrics != nil {
		h.metrics.RecordClassification(result.Label, result.FallbackUsed)
	}

	h.logger.InfoContext(ctx, "processing chat request",
		"request_id", requestID,
		"caller_id", callerID,
		"label", result.Label,
		"fallback_used", result.FallbackUsed,
		"history_turns", len(chatReq.History),
	)

	completionReq := h.buildCompletionRequest(chatReq, result.Label)

	upstreamStart := h.now()
	completion, err := h.completer.Complete(ctx, completionReq)
	upstreamLatency := h.now().Sub(upstreamStart)
	if h.metrics != nil {
		h.metrics.RecordUpstreamLatency(upstreamLatency)
	}

	if err != nil {
		h.logger.ErrorContext(ctx, "upstream completion failed",
			"request_id", requestID,
			"caller_id", callerID,
			"error", err,
			"upstream_latency_ms", upstreamLatency.Milliseconds(),
		)
		h.recordOutcome("upstream_error", startTime)
		h.writeError(ctx, w, upstreamErrorResponse(err))
		return
	}

	references := h.extractReferences(completion.Text)

	h.appendUsage(r, callerID, result.Label, completion)

	h.logger.InfoContext(ctx, "chat request completed",
		"request_id", requestID,
		"caller_id", callerID,
		"label", result.Label,
		"references", len(references),
		"prompt_tokens", completion.Usage.PromptTokens,
		"completion_tokens", completion.Usage.CompletionTokens,
		"upstream_latency_ms", upstreamLatency.Milliseconds(),
		"total_latency_ms", h.now().Sub(startTime).Milliseconds(),
	)

	h.recordOutcome("ok", startTime)
	resp := &ChatResponse{
		Reply:        completion.Text,
		Label:        result.Label,
		References:   references,
		FallbackUsed: result.FallbackUsed,
	}
	if err := WriteJSONResponse(w, http.StatusOK, resp); err != nil {
		h.logger.ErrorContext(ctx, "failed to write response",
			"request_id", requestID,
			"error", err,
		)
	}
}

// parseRequest decodes and validates the chat request body.
func (h *ChatHandler) parseRequest(r *http.Request) (*ChatRequest, *ErrorResponse) {
	var chatReq ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&chatReq); err != nil {
		return nil, NewInvalidRequestError("Request body is not valid JSON.", "", CodeInvalidJSON)
	}

	if chatReq.Message == "" {
		return nil, NewInvalidRequestError("The message field is required.", "message", CodeMissingField)
	}

	maxChars := h.serverCfg.MaxMessageChars
	if maxChars > 0 && len([]rune(chatReq.Message)) > maxChars {
		return nil, NewInvalidRequestError(
			fmt.Sprintf("Message exceeds the maximum length of %d characters.", maxChars),
			"message",
			CodeMessageTooLong,
		)
	}

	for i, msg := range chatReq.History {
		if msg.Role != provider.RoleUser && msg.Role != provider.RoleAssistant {
			return nil, NewInvalidRequestError(
				fmt.Sprintf("History message %d has invalid role %q.", i, msg.Role),
				"history",
				"invalid_value",
			)
		}
	}

	return &chatReq, nil
}

// buildCompletionRequest assembles the upstream request: the system prompt
// selected by intent label, the client-supplied history, and the current
// message as the final user turn.
func (h *ChatHandler) buildCompletionRequest(chatReq *ChatRequest, label intent.Label) *provider.CompletionRequest {
	messages := make([]provider.Message, 0, len(chatReq.History)+1)
	for _, msg := range chatReq.History {
		messages = append(messages, provider.Message{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, provider.Message{Role: provider.RoleUser, Content: chatReq.Message})

	return &provider.CompletionRequest{
		Model:     h.provCfg.Model,
		System:    h.prompts.Get(label),
		Messages:  messages,
		MaxTokens: h.provCfg.MaxTokens,
	}
}

// writeQuotaRejection maps a quota rejection to its HTTP response.
// Burst rejections get 429 with a Retry-After header; daily rejections get
// 403 with a daily-limit error body.
func (h *ChatHandler) writeQuotaRejection(ctx context.Context, w http.ResponseWriter, decision quota.Decision, requestID, callerID string) {
	var errResp *ErrorResponse

	switch decision.Reason {
	case quota.ReasonBurstLimit:
		w.Header().Set("Retry-After", strconv.Itoa(decision.RetryAfterSeconds()))
		errResp = NewErrorResponse(
			"Too many requests. Please slow down and try again shortly.",
			ErrorTypeRateLimitExceeded,
			"",
			CodeBurstLimit,
		)

	case quota.ReasonDailyRequestLimit:
		errResp = NewErrorResponse(
			"Daily request limit reached. Please try again tomorrow.",
			ErrorTypeDailyLimitReached,
			"",
			CodeDailyRequestLimit,
		)

	case quota.ReasonDailyCostLimit:
		errResp = NewErrorResponse(
			"Daily usage budget reached. Please try again tomorrow.",
			ErrorTypeDailyLimitReached,
			"",
			CodeDailyCostLimit,
		)

	default:
		errResp = NewServerError("Quota evaluation produced an unknown rejection.")
	}

	h.logger.WarnContext(ctx, "request rejected by quota",
		"request_id", requestID,
		"caller_id", callerID,
		"reason", decision.Reason,
		"retry_after_s", decision.RetryAfterSeconds(),
	)

	if err := WriteErrorResponse(w, errResp); err != nil {
		h.logger.Error("failed to write error response", "error", err)
	}
}

// extractReferences runs scripture extraction over the reply and formats
// each reference for the response body. Always returns a non-nil slice so
// the JSON field encodes as an array.
func (h *ChatHandler) extractReferences(text string) []string {
	refs := h.extractor.Extract(text)
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		out = append(out, ref.Display())
	}
	return out
}

// appendUsage records the accepted request in the usage journal.
// Journal failures are logged, never surfaced to the client.
func (h *ChatHandler) appendUsage(r *http.Request, callerID string, label intent.Label, completion *provider.CompletionResponse) {
	if h.journal == nil {
		return
	}

	if callerID == "" {
		callerID = quota.AnonymousCaller
	}
	event := &storage.UsageEvent{
		ID:               uuid.NewString(),
		CallerID:         callerID,
		Label:            label,
		CostCents:        h.tracker.Config().EstimatedCostCents,
		PromptTokens:     completion.Usage.PromptTokens,
		CompletionTokens: completion.Usage.CompletionTokens,
		CreatedAt:        h.now(),
	}

	if err := h.journal.Append(r.Context(), event); err != nil {
		h.logger.Error("failed to record usage event",
			"caller_id", callerID,
			"error", err,
		)
	}
}

// recordOutcome records the request outcome metric.
func (h *ChatHandler) recordOutcome(status string, startTime time.Time) {
	if h.metrics != nil {
		h.metrics.RecordRequest(status, h.now().Sub(startTime))
	}
}

// writeError writes an error response, logging write failures.
func (h *ChatHandler) writeError(ctx context.Context, w http.ResponseWriter, errResp *ErrorResponse) {
	if err := WriteErrorResponse(w, errResp); err != nil {
		h.logger.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}

// upstreamErrorResponse maps provider errors to proxy error responses.
func upstreamErrorResponse(err error) *ErrorResponse {
	var timeoutErr *provider.TimeoutError
	if errors.As(err, &timeoutErr) {
		return NewErrorResponse(
			"The model did not respond in time. Please try again.",
			ErrorTypeGatewayTimeout,
			"",
			CodeUpstreamTimeout,
		)
	}

	var valErr *provider.ValidationError
	if errors.As(err, &valErr) {
		return NewInvalidRequestError(valErr.Message, valErr.Field, "invalid_value")
	}

	return NewErrorResponse(
		"The model is currently unavailable. Please try again later.",
		ErrorTypeBadGateway,
		"",
		CodeUpstreamError,
	)
}
