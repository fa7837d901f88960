// Package provider implements the HTTP client for the upstream completion
// API.
//
// # Overview
//
// The package exposes a backend-agnostic request/response pair
// (CompletionRequest, CompletionResponse) and a Client that speaks the
// Messages API wire format. Transient upstream failures are retried with
// exponential backoff; authentication failures, upstream rate limits, and
// bad requests fail immediately with typed errors the handler can inspect.
//
// # Usage
//
//	client, err := provider.NewClient(cfg.Provider, logger)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	resp, err := client.Complete(ctx, &provider.CompletionRequest{
//		Model:    cfg.Provider.Model,
//		System:   systemPrompt,
//		Messages: []provider.Message{{Role: provider.RoleUser, Content: text}},
//	})
package provider
