// Package llm provides the HTTP client used to call generation capabilities.
// It wraps a provider backend with retries, rate limiting, typed errors, and
// token-usage resolution.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/promptpilot/promptpilot/config"
	"github.com/promptpilot/promptpilot/internal/logging"
	"github.com/promptpilot/promptpilot/providers"
)

// Client is the generation capability consumed by the engine.
type Client interface {
	Generate(ctx context.Context, prompt string) (*Response, error)
	GenerateWithSchema(ctx context.Context, prompt string, schema any) (*Response, error)
	Model() string
	SetOption(key string, value any)
}

// ClientImpl is the HTTP-backed implementation of Client.
type ClientImpl struct {
	Provider   providers.Provider
	client     *http.Client
	logger     logging.Logger
	limiter    *rate.Limiter
	counter    *TokenCounter
	model      string
	options    map[string]any
	MaxRetries int
	RetryDelay time.Duration
}

// NewClient builds a Client for the named model on top of the configured
// provider. The rate limiter and timeout come from cfg.
func NewClient(cfg *config.Config, model string, logger logging.Logger, registry *providers.ProviderRegistry) (*ClientImpl, error) {
	provider, err := registry.Get(cfg.Provider, cfg.APIKeys[cfg.Provider], model, nil)
	if err != nil {
		return nil, err
	}
	provider.SetDefaultOptions(cfg)
	provider.SetLogger(logger)

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	return &ClientImpl{
		Provider:   provider,
		client:     &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm),
		counter:    NewTokenCounter(model),
		model:      model,
		options:    make(map[string]any),
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
	}, nil
}

func (c *ClientImpl) Model() string {
	return c.model
}

func (c *ClientImpl) SetOption(key string, value any) {
	c.options[key] = value
}

// Generate runs one generation call with retries. Quota, authentication, and
// invalid-input failures are not retried; transient failures are.
func (c *ClientImpl) Generate(ctx context.Context, prompt string) (*Response, error) {
	return c.generate(ctx, prompt, func() ([]byte, error) {
		return c.Provider.PrepareRequest(prompt, c.options)
	})
}

// GenerateWithSchema runs one generation call constrained to the given JSON
// schema. Providers without native schema support get the schema appended to
// the prompt instead.
func (c *ClientImpl) GenerateWithSchema(ctx context.Context, prompt string, schema any) (*Response, error) {
	if c.Provider.SupportsJSONSchema() {
		return c.generate(ctx, prompt, func() ([]byte, error) {
			return c.Provider.PrepareRequestWithSchema(prompt, c.options, schema)
		})
	}

	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return nil, NewLLMError(ErrorTypeRequest, "failed to marshal schema", err)
	}
	augmented := fmt.Sprintf("%s\n\nRespond ONLY with a JSON object conforming to this schema:\n%s", prompt, schemaJSON)
	return c.generate(ctx, augmented, func() ([]byte, error) {
		return c.Provider.PrepareRequest(augmented, c.options)
	})
}

func (c *ClientImpl) generate(ctx context.Context, prompt string, prepare func() ([]byte, error)) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		resp, err := c.attempt(ctx, prompt, prepare)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryable(err) {
			return nil, err
		}
		c.logger.Warn("Generation attempt failed", "provider", c.Provider.Name(), "attempt", attempt+1, "error", err)

		if attempt < c.MaxRetries {
			if err := c.wait(ctx); err != nil {
				return nil, NewLLMError(ErrorTypeTimeout, "canceled while waiting to retry", err)
			}
		}
	}
	return nil, lastErr
}

func retryable(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeQuotaExceeded, ErrorTypeAuthentication, ErrorTypeInvalidInput, ErrorTypeTimeout:
		return false
	default:
		return true
	}
}

func (c *ClientImpl) wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.RetryDelay):
		return nil
	}
}

func (c *ClientImpl) attempt(ctx context.Context, prompt string, prepare func() ([]byte, error)) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, NewLLMError(classifyTransport(err), "rate limiter wait interrupted", err)
	}

	reqBody, err := prepare()
	if err != nil {
		return nil, NewLLMError(ErrorTypeRequest, "failed to prepare request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Provider.Endpoint(), bytes.NewReader(reqBody))
	if err != nil {
		return nil, NewLLMError(ErrorTypeRequest, "failed to create request", err)
	}
	for k, v := range c.Provider.Headers() {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, NewLLMError(classifyTransport(err), "failed to send request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewLLMError(ErrorTypeMalformedResponse, "failed to read response body", err)
	}
	latency := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("API error", "provider", c.Provider.Name(), "status", resp.StatusCode, "body", string(body))
		return nil, NewLLMError(classifyStatus(resp.StatusCode), fmt.Sprintf("API error: status code %d", resp.StatusCode), nil)
	}

	parsed, err := c.Provider.ParseResponse(body)
	if err != nil {
		return nil, NewLLMError(ErrorTypeMalformedResponse, "failed to parse response", err)
	}

	return c.resolve(parsed, prompt, latency), nil
}

// resolve fills in token usage, estimating from text when the provider did
// not report usage metadata.
func (c *ClientImpl) resolve(parsed *providers.Response, prompt string, latency time.Duration) *Response {
	result := &Response{
		Text:      parsed.Text,
		LatencyMs: float64(latency) / float64(time.Millisecond),
	}
	if parsed.Usage != nil {
		result.InputTokens = parsed.Usage.InputTokens
		result.OutputTokens = parsed.Usage.OutputTokens
		result.TotalTokens = parsed.Usage.TotalTokens
	}
	if result.InputTokens == 0 {
		result.InputTokens = c.counter.Count(prompt)
	}
	if result.OutputTokens == 0 {
		result.OutputTokens = c.counter.Count(parsed.Text)
	}
	if result.TotalTokens == 0 {
		result.TotalTokens = result.InputTokens + result.OutputTokens
	}
	return result
}
