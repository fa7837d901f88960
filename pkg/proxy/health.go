package proxy

import "net/http"

// HealthHandler serves GET /healthz.
// It reports liveness only; it performs no upstream checks.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
