// Package telemetry groups the observability concerns of Shepherd.
//
// # Components
//
//   - logging: structured slog-based logging with configurable level and format
//
// Prometheus metrics live next to the code they instrument (pkg/quota,
// pkg/proxy) and are exposed through the /metrics endpoint wired in
// pkg/proxy's router.
package telemetry
