package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/parable-systems/shepherd/pkg/config"
)

// apiVersion is the Messages API version sent with every request.
const apiVersion = "2023-06-01"

// Client is the HTTP client for the upstream Messages API.
// It handles connection pooling, retries with exponential backoff, and
// translation between the wire format and the backend-agnostic types.
type Client struct {
	config config.ProviderConfig
	client *http.Client
	logger *slog.Logger
}

// NewClient creates a client from the provider configuration.
// The API key and model are required; everything else falls back to the
// configured defaults.
func NewClient(cfg config.ProviderConfig, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &ConfigError{
			Field:   "api_key",
			Message: "API key is required",
		}
	}
	if cfg.Model == "" {
		return nil, &ConfigError{
			Field:   "model",
			Message: "model is required",
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultProviderBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultProviderTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	c := &Client{
		config: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		logger: logger,
	}

	logger.Info("completion client initialized",
		"base_url", cfg.BaseURL,
		"model", cfg.Model,
	)

	return c, nil
}

// Complete sends a completion request and returns the completion.
// Transient failures (5xx, network errors) are retried with exponential
// backoff up to the configured retry count.
func (c *Client) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	wireReq := transformRequest(req)
	body, err := json.Marshal(wireReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/messages", c.config.BaseURL)

	respBody, err := c.doRequest(ctx, url, body)
	if err != nil {
		return nil, err
	}

	var wireResp messagesResponse
	if err := json.Unmarshal(respBody, &wireResp); err != nil {
		return nil, &ParseError{
			RawResponse: string(respBody),
			Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
		}
	}

	resp := transformResponse(&wireResp)

	c.logger.Debug("completion request succeeded",
		"model", resp.Model,
		"tokens", resp.Usage.TotalTokens,
		"finish_reason", resp.FinishReason,
	)

	return resp, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// doRequest performs the HTTP POST with retry logic and returns the raw
// response body of the first successful attempt.
func (c *Client) doRequest(ctx context.Context, url string, body []byte) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			c.logger.Debug("retrying upstream request",
				"attempt", attempt,
				"max_retries", c.config.MaxRetries,
				"backoff", backoff,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.config.APIKey)
		req.Header.Set("anthropic-version", apiVersion)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err

			if ctx.Err() != nil {
				// Context cancelled or timed out, don't retry
				return nil, &TimeoutError{Timeout: c.config.Timeout}
			}

			c.logger.Warn("upstream request failed, will retry",
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if readErr != nil {
				return nil, &ParseError{
					Cause: fmt.Errorf("failed to read response: %w", readErr),
				}
			}
			return respBody, nil
		}

		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			// Authentication error, don't retry
			return nil, &AuthError{Message: string(respBody)}

		case http.StatusTooManyRequests:
			// Upstream rate limit, don't retry (caller handles)
			return nil, &RateLimitError{
				RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
				Message:    string(respBody),
			}

		case http.StatusBadRequest:
			// Bad request, retrying would not help
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				Message:    string(respBody),
			}

		default:
			// Server error (5xx) or other status, retry
			lastErr = &APIError{
				StatusCode: resp.StatusCode,
				Message:    string(respBody),
			}
			c.logger.Warn("upstream returned error status, will retry",
				"status", resp.StatusCode,
				"attempt", attempt+1,
			)
		}
	}

	return nil, lastErr
}

// validateRequest validates the completion request.
func validateRequest(req *CompletionRequest) error {
	if req == nil {
		return &ValidationError{
			Field:   "request",
			Message: "request cannot be nil",
		}
	}
	if req.Model == "" {
		return &ValidationError{
			Field:   "model",
			Message: "model is required",
		}
	}
	if len(req.Messages) == 0 {
		return &ValidationError{
			Field:   "messages",
			Message: "at least one message is required",
		}
	}
	return nil
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}
