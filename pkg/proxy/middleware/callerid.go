package middleware

import (
	"context"
	"net/http"
)

const (
	// CallerIDHeader is the HTTP header identifying the caller for quota
	// attribution. Requests without it share the anonymous bucket.
	CallerIDHeader = "X-Caller-ID"
)

// CallerIDMiddleware extracts the caller ID header and stores it in the
// request context. An absent header leaves the empty string, which the
// quota tracker maps to the shared anonymous bucket.
//
// Example usage:
//
//	handler = CallerIDMiddleware(handler)
func CallerIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), CallerIDKey, r.Header.Get(CallerIDHeader))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetCallerID extracts the caller ID from the context.
// Returns empty string if not found.
func GetCallerID(ctx context.Context) string {
	if callerID, ok := ctx.Value(CallerIDKey).(string); ok {
		return callerID
	}
	return ""
}
