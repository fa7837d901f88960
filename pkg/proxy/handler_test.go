package proxy

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/parable-systems/shepherd/pkg/config"
	"github.com/parable-systems/shepherd/pkg/intent"
	"github.com/parable-systems/shepherd/pkg/prompts"
	"github.com/parable-systems/shepherd/pkg/provider"
	"github.com/parable-systems/shepherd/pkg/proxy/middleware"
	"github.com/parable-systems/shepherd/pkg/quota"
	"github.com/parable-systems/shepherd/pkg/scripture"
	"github.com/parable-systems/shepherd/pkg/storage"
)

// fakeCompleter is a test double for the upstream client.
type fakeCompleter struct {
	resp    *provider.CompletionResponse
	err     error
	lastReq *provider.CompletionRequest
	calls   int
}

func (f *fakeCompleter) Complete(ctx context.Context, req *provider.CompletionRequest) (*provider.CompletionResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func generousQuota() quota.Config {
	return quota.Config{
		ShortWindow:         2 * time.Minute,
		ShortWindowMax:      100,
		DailyMax:            1000,
		DailyCostLimitCents: 1000,
		EstimatedCostCents:  1,
	}
}

func newTestHandler(t *testing.T, quotaCfg quota.Config, completer provider.Completer) (*ChatHandler, *storage.MemoryJournal) {
	t.Helper()

	journal := storage.NewMemoryJournal()
	h := NewChatHandler(ChatHandlerDeps{
		Tracker:    quota.NewTracker(quotaCfg, quota.NewStore(), nil, testLogger()),
		Classifier: intent.NewClassifier(intent.DefaultRules(), testLogger()),
		Prompts:    prompts.NewRegistry(),
		Completer:  completer,
		Extractor:  scripture.NewExtractor(),
		Journal:    journal,
		ServerCfg:  config.ServerConfig{MaxMessageChars: 2000},
		ProvCfg:    config.ProviderConfig{Model: "test-model", MaxTokens: 256},
		Logger:     testLogger(),
	})
	return h, journal
}

func postChat(h http.Handler, body string, callerID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(body))
	if callerID != "" {
		req.Header.Set(middleware.CallerIDHeader, callerID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body is not valid JSON: %v\n%s", err, rec.Body.String())
	}
	return resp.Error
}

// ============================================================================
// Happy path
// ============================================================================

func TestChat_Success(t *testing.T) {
	fake := &fakeCompleter{
		resp: &provider.CompletionResponse{
			Text:  "Forgiveness is central. See Matthew 6:14 and Colossians 3:13.",
			Usage: provider.TokenUsage{PromptTokens: 20, CompletionTokens: 15, TotalTokens: 35},
		},
	}
	h, journal := newTestHandler(t, generousQuota(), fake)

	rec := postChat(h, `{"message": "What does the Bible say about forgiveness?"}`, "alice")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var resp ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if resp.Reply != fake.resp.Text {
		t.Errorf("Reply = %q", resp.Reply)
	}
	if resp.Label != intent.LabelInformational {
		t.Errorf("Label = %q, want %q", resp.Label, intent.LabelInformational)
	}
	if resp.FallbackUsed {
		t.Error("FallbackUsed = true, want false")
	}
	want := []string{"Matthew 6:14", "Colossians 3:13"}
	if len(resp.References) != len(want) {
		t.Fatalf("References = %v, want %v", resp.References, want)
	}
	for i := range want {
		if resp.References[i] != want[i] {
			t.Errorf("References[%d] = %q, want %q", i, resp.References[i], want[i])
		}
	}

	events, err := journal.Recent(context.Background(), "alice", 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("journal has %d events, want 1", len(events))
	}
	if events[0].Label != intent.LabelInformational || events[0].CompletionTokens != 15 {
		t.Errorf("unexpected journal event: %+v", events[0])
	}
}

func TestChat_NoReferencesEncodesEmptyArray(t *testing.T) {
	fake := &fakeCompleter{resp: &provider.CompletionResponse{Text: "Hello there!"}}
	h, _ := newTestHandler(t, generousQuota(), fake)

	rec := postChat(h, `{"message": "hey"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"references":[]`) {
		t.Errorf("references not encoded as empty array: %s", rec.Body.String())
	}
}

func TestChat_SystemPromptFollowsLabel(t *testing.T) {
	fake := &fakeCompleter{resp: &provider.CompletionResponse{Text: "Amen."}}
	h, _ := newTestHandler(t, generousQuota(), fake)

	rec := postChat(h, `{"message": "Can you write me a prayer for peace?"}`, "alice")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	registry := prompts.NewRegistry()
	if fake.lastReq.System != registry.Get(intent.LabelPrayer) {
		t.Errorf("System = %q, want prayer template", fake.lastReq.System)
	}
	if fake.lastReq.Model != "test-model" || fake.lastReq.MaxTokens != 256 {
		t.Errorf("Model/MaxTokens = %q/%d", fake.lastReq.Model, fake.lastReq.MaxTokens)
	}
}

func TestChat_HistoryPrecedesMessage(t *testing.T) {
	fake := &fakeCompleter{resp: &provider.CompletionResponse{Text: "ok"}}
	h, _ := newTestHandler(t, generousQuota(), fake)

	body := `{"message": "and then?", "history": [
		{"role": "user", "content": "tell me a story"},
		{"role": "assistant", "content": "once upon a time"}
	]}`
	rec := postChat(h, body, "alice")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	msgs := fake.lastReq.Messages
	if len(msgs) != 3 {
		t.Fatalf("sent %d messages, want 3", len(msgs))
	}
	if msgs[0].Content != "tell me a story" || msgs[2].Content != "and then?" {
		t.Errorf("unexpected message order: %+v", msgs)
	}
	if msgs[2].Role != provider.RoleUser {
		t.Errorf("final message role = %q, want user", msgs[2].Role)
	}
}

// ============================================================================
// Request validation
// ============================================================================

func TestChat_MethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t, generousQuota(), &fakeCompleter{})

	req := httptest.NewRequest(http.MethodGet, "/v1/chat", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestChat_InvalidJSON(t *testing.T) {
	h, _ := newTestHandler(t, generousQuota(), &fakeCompleter{})

	rec := postChat(h, `{not json`, "alice")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if detail := decodeError(t, rec); detail.Code != CodeInvalidJSON {
		t.Errorf("Code = %q, want %q", detail.Code, CodeInvalidJSON)
	}
}

func TestChat_MissingMessage(t *testing.T) {
	h, _ := newTestHandler(t, generousQuota(), &fakeCompleter{})

	rec := postChat(h, `{"history": []}`, "alice")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if detail := decodeError(t, rec); detail.Code != CodeMissingField || detail.Param != "message" {
		t.Errorf("Code/Param = %q/%q", detail.Code, detail.Param)
	}
}

func TestChat_MessageTooLong(t *testing.T) {
	fake := &fakeCompleter{resp: &provider.CompletionResponse{Text: "ok"}}
	h, _ := newTestHandler(t, generousQuota(), fake)
	h.serverCfg.MaxMessageChars = 10

	rec := postChat(h, `{"message": "this message is much longer than ten characters"}`, "alice")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if detail := decodeError(t, rec); detail.Code != CodeMessageTooLong {
		t.Errorf("Code = %q, want %q", detail.Code, CodeMessageTooLong)
	}
	if fake.calls != 0 {
		t.Errorf("upstream called %d times for rejected message", fake.calls)
	}
}

func TestChat_InvalidHistoryRole(t *testing.T) {
	h, _ := newTestHandler(t, generousQuota(), &fakeCompleter{})

	rec := postChat(h, `{"message": "hi", "history": [{"role": "system", "content": "x"}]}`, "alice")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

// ============================================================================
// Quota rejections
// ============================================================================

func TestChat_BurstLimitReturns429WithRetryAfter(t *testing.T) {
	cfg := generousQuota()
	cfg.ShortWindowMax = 1
	fake := &fakeCompleter{resp: &provider.CompletionResponse{Text: "ok"}}
	h, _ := newTestHandler(t, cfg, fake)

	if rec := postChat(h, `{"message": "hey"}`, "alice"); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	rec := postChat(h, `{"message": "hey"}`, "alice")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header not set")
	}
	if detail := decodeError(t, rec); detail.Code != CodeBurstLimit {
		t.Errorf("Code = %q, want %q", detail.Code, CodeBurstLimit)
	}
	if fake.calls != 1 {
		t.Errorf("upstream called %d times, want 1", fake.calls)
	}
}

func TestChat_DailyRequestLimitReturns403(t *testing.T) {
	cfg := generousQuota()
	cfg.DailyMax = 1
	fake := &fakeCompleter{resp: &provider.CompletionResponse{Text: "ok"}}
	h, _ := newTestHandler(t, cfg, fake)

	if rec := postChat(h, `{"message": "hey"}`, "alice"); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	rec := postChat(h, `{"message": "hey"}`, "alice")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("second request status = %d, want 403", rec.Code)
	}
	if detail := decodeError(t, rec); detail.Code != CodeDailyRequestLimit {
		t.Errorf("Code = %q, want %q", detail.Code, CodeDailyRequestLimit)
	}
}

func TestChat_DailyCostLimitReturns403(t *testing.T) {
	cfg := generousQuota()
	cfg.DailyCostLimitCents = 1
	cfg.EstimatedCostCents = 1
	fake := &fakeCompleter{resp: &provider.CompletionResponse{Text: "ok"}}
	h, _ := newTestHandler(t, cfg, fake)

	if rec := postChat(h, `{"message": "hey"}`, "alice"); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	rec := postChat(h, `{"message": "hey"}`, "alice")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("second request status = %d, want 403", rec.Code)
	}
	if detail := decodeError(t, rec); detail.Code != CodeDailyCostLimit {
		t.Errorf("Code = %q, want %q", detail.Code, CodeDailyCostLimit)
	}
}

func TestChat_AnonymousCallersShareBucket(t *testing.T) {
	cfg := generousQuota()
	cfg.ShortWindowMax = 1
	fake := &fakeCompleter{resp: &provider.CompletionResponse{Text: "ok"}}
	h, _ := newTestHandler(t, cfg, fake)

	if rec := postChat(h, `{"message": "hey"}`, ""); rec.Code != http.StatusOK {
		t.Fatalf("first anonymous request status = %d, want 200", rec.Code)
	}
	if rec := postChat(h, `{"message": "hey"}`, ""); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second anonymous request status = %d, want 429", rec.Code)
	}
}

// ============================================================================
// Upstream failures
// ============================================================================

func TestChat_UpstreamErrorReturns502(t *testing.T) {
	fake := &fakeCompleter{err: &provider.APIError{StatusCode: 500, Message: "boom"}}
	h, journal := newTestHandler(t, generousQuota(), fake)

	rec := postChat(h, `{"message": "hey"}`, "alice")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if detail := decodeError(t, rec); detail.Code != CodeUpstreamError {
		t.Errorf("Code = %q, want %q", detail.Code, CodeUpstreamError)
	}

	events, _ := journal.Recent(context.Background(), "alice", 10)
	if len(events) != 0 {
		t.Errorf("journal has %d events for failed request, want 0", len(events))
	}
}

func TestChat_UpstreamTimeoutReturns504(t *testing.T) {
	fake := &fakeCompleter{err: &provider.TimeoutError{Timeout: time.Minute}}
	h, _ := newTestHandler(t, generousQuota(), fake)

	rec := postChat(h, `{"message": "hey"}`, "alice")
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", rec.Code)
	}
	if detail := decodeError(t, rec); detail.Code != CodeUpstreamTimeout {
		t.Errorf("Code = %q, want %q", detail.Code, CodeUpstreamTimeout)
	}
}

// ============================================================================
// Quota status endpoint
// ============================================================================

func TestStatus_ReportsCurrentUsage(t *testing.T) {
	fake := &fakeCompleter{resp: &provider.CompletionResponse{Text: "ok"}}
	h, _ := newTestHandler(t, generousQuota(), fake)

	for i := 0; i < 3; i++ {
		if rec := postChat(h, `{"message": "hey"}`, "alice"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}

	status := NewStatusHandler(h.tracker, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/v1/quota/status?caller_id=alice", nil)
	rec := httptest.NewRecorder()
	status.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp QuotaStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if resp.CallerID != "alice" {
		t.Errorf("CallerID = %q, want alice", resp.CallerID)
	}
	if resp.WindowRequests != 3 || resp.DailyRequests != 3 || resp.DailyCostCents != 3 {
		t.Errorf("usage = %d/%d/%d cents, want 3/3/3", resp.WindowRequests, resp.DailyRequests, resp.DailyCostCents)
	}
	if resp.WindowResetSeconds <= 0 {
		t.Errorf("WindowResetSeconds = %d, want positive", resp.WindowResetSeconds)
	}
}

func TestStatus_UnknownCallerReportsZeros(t *testing.T) {
	h, _ := newTestHandler(t, generousQuota(), &fakeCompleter{})
	status := NewStatusHandler(h.tracker, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/quota/status?caller_id=stranger", nil)
	rec := httptest.NewRecorder()
	status.ServeHTTP(rec, req)

	var resp QuotaStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if resp.WindowRequests != 0 || resp.DailyRequests != 0 || resp.DailyCostCents != 0 {
		t.Errorf("usage for unknown caller = %d/%d/%d, want zeros",
			resp.WindowRequests, resp.DailyRequests, resp.DailyCostCents)
	}
	if resp.WindowMax != 100 {
		t.Errorf("WindowMax = %d, want 100", resp.WindowMax)
	}
}

func TestStatus_MethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t, generousQuota(), &fakeCompleter{})
	status := NewStatusHandler(h.tracker, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/quota/status", nil)
	rec := httptest.NewRecorder()
	status.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
