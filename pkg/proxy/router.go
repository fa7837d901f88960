package proxy

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parable-systems/shepherd/pkg/config"
	"github.com/parable-systems/shepherd/pkg/proxy/middleware"
)

// NewRouter assembles the HTTP surface: the chat endpoint, the quota status
// endpoint, health, optional metrics, and the middleware chain.
func NewRouter(cfg *config.Config, chat *ChatHandler, status *StatusHandler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/v1/chat", chat)
	mux.Handle("/v1/quota/status", status)
	mux.Handle("/healthz", HealthHandler())

	if cfg.Telemetry.Metrics.Enabled {
		path := cfg.Telemetry.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, promhttp.Handler())
	}

	var handler http.Handler = mux
	handler = middleware.CORSMiddleware(cfg.Server.CORS)(handler)
	handler = middleware.CallerIDMiddleware(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.LoggingMiddleware(logger)(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)
	return handler
}
