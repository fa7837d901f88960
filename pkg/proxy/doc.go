// Package proxy implements the HTTP surface of the chat service.
//
// # Overview
//
// The chat endpoint (POST /v1/chat) runs each request through the quota
// tracker, classifies the message's intent, selects the matching system
// prompt, forwards the conversation to the completion API, and returns the
// reply with any scripture references extracted from it.
//
// Quota rejections map to HTTP errors: the burst limit returns 429 with a
// Retry-After header, and the daily request and cost limits return 403 with
// a daily-limit error body.
//
// The quota status endpoint (GET /v1/quota/status) is the operator-facing
// read-only view over the tracker; it never mutates quota state.
//
// # Endpoints
//
//	POST /v1/chat          chat proxy
//	GET  /v1/quota/status  quota introspection
//	GET  /healthz          liveness
//	GET  /metrics          Prometheus metrics (when enabled)
package proxy
