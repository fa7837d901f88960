package proxy

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/parable-systems/shepherd/pkg/proxy/middleware"
	"github.com/parable-systems/shepherd/pkg/quota"
)

// StatusHandler serves GET /v1/quota/status, an operator-facing read-only
// view of a caller's current quota state. The caller is identified by the
// caller_id query parameter, falling back to the X-Caller-ID header; absent
// both, the anonymous bucket is reported.
type StatusHandler struct {
	tracker *quota.Tracker
	logger  *slog.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewStatusHandler creates the quota status handler.
func NewStatusHandler(tracker *quota.Tracker, logger *slog.Logger) *StatusHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusHandler{
		tracker: tracker,
		logger:  logger,
		now:     time.Now,
	}
}

// ServeHTTP implements http.Handler.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		errResp := NewInvalidRequestError(
			fmt.Sprintf("Method %s not allowed. Use GET instead.", r.Method),
			"method",
			"method_not_allowed",
		)
		if err := WriteErrorResponse(w, errResp); err != nil {
			h.logger.ErrorContext(r.Context(), "failed to write error response", "error", err)
		}
		return
	}

	callerID := r.URL.Query().Get("caller_id")
	if callerID == "" {
		callerID = middleware.GetCallerID(r.Context())
	}
	if callerID == "" {
		callerID = r.Header.Get(middleware.CallerIDHeader)
	}

	snap := h.tracker.Status(callerID, h.now())

	resp := &QuotaStatusResponse{
		CallerID:            snap.CallerID,
		WindowRequests:      snap.WindowRequests,
		WindowMax:           snap.WindowMax,
		WindowResetSeconds:  ceilSeconds(snap.WindowResets),
		DailyRequests:       snap.DailyRequests,
		DailyMax:            snap.DailyMax,
		DailyResetSeconds:   ceilSeconds(snap.DailyResets),
		DailyCostCents:      snap.DailyCostCents,
		DailyCostLimitCents: snap.DailyCostLimitCents,
	}

	if err := WriteJSONResponse(w, http.StatusOK, resp); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write response", "error", err)
	}
}

// ceilSeconds converts a duration to whole seconds, rounding up.
func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}
