// Package adapters implements the external data- and execution-facing
// capabilities the orchestrator and temporal gateway consume: HTTP-backed
// news/social/on-chain/fundamentals sources, an LLM narration adapter, and
// the research planner's TaskFunc wiring that ties them together. Each
// HTTPSource runs its calls through a gobreaker circuit breaker (a
// passthrough that never trips unless HTTPSourceConfig.Breaker is set) and,
// when RequestsPerSecond > 0, a token bucket from golang.org/x/time/rate,
// following the resilience pattern ajitpratap0-cryptofunk applies around its
// exchange and LLM calls.
package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// HTTPSource is a minimal JSON-over-HTTP client shared by the news,
// social, on-chain, and fundamentals adapters. Grounded on
// internal/llm/client.go's Client, generalized beyond the LLM gateway.
type HTTPSource struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
}

// HTTPSourceConfig configures an HTTPSource.
type HTTPSourceConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// Breaker, when nil, gets a passthrough circuit breaker that never trips.
	Breaker *gobreaker.CircuitBreaker
	// RequestsPerSecond bounds outbound call rate; 0 disables limiting.
	RequestsPerSecond float64
	Burst             int
}

// NewHTTPSource constructs an HTTPSource with sane defaults.
func NewHTTPSource(cfg HTTPSourceConfig) *HTTPSource {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	breaker := cfg.Breaker
	if breaker == nil {
		breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "adapter_passthrough",
			ReadyToTrip: func(gobreaker.Counts) bool {
				return false
			},
		})
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return &HTTPSource{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		limiter:    limiter,
	}
}

// Get issues a GET request against path and decodes the JSON body into out.
// The call is rate-limited (if configured) and routed through the circuit
// breaker so repeated failures trip it open rather than piling up retries
// against a degraded upstream.
func (h *HTTPSource) Get(ctx context.Context, path string, out any) error {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("adapters: rate limiter: %w", err)
		}
	}

	_, err := h.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		if h.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+h.apiKey)
		}
		resp, err := h.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("adapters: %s returned %d: %s", path, resp.StatusCode, string(body))
		}
		if out == nil {
			return nil, nil
		}
		return nil, json.Unmarshal(body, out)
	})
	return err
}

// Post issues a JSON POST request and decodes the response into out.
func (h *HTTPSource) Post(ctx context.Context, path string, body, out any) error {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("adapters: rate limiter: %w", err)
		}
	}

	_, err := h.breaker.Execute(func() (any, error) {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if h.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+h.apiKey)
		}
		resp, err := h.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("adapters: %s returned %d: %s", path, resp.StatusCode, string(respBody))
		}
		if out == nil {
			return nil, nil
		}
		return nil, json.Unmarshal(respBody, out)
	})
	return err
}
