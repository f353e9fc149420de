// Package providers implements the generation-capability backends used by
// the analysis engine. It supports OpenAI-compatible and Gemini-style chat
// APIs behind a unified interface, plus a mock provider for tests.
package providers

import (
	"github.com/promptpilot/promptpilot/config"
	"github.com/promptpilot/promptpilot/internal/logging"
)

// Provider defines the interface that all generation backends implement.
type Provider interface {
	Name() string
	Endpoint() string
	Headers() map[string]string
	SetExtraHeaders(extraHeaders map[string]string)
	SetDefaultOptions(cfg *config.Config)
	SetOption(key string, value any)
	SetLogger(logger logging.Logger)

	// PrepareRequest builds the request body for a plain text completion.
	PrepareRequest(prompt string, options map[string]any) ([]byte, error)

	// PrepareRequestWithSchema builds a request that constrains the output
	// to the given JSON schema, for providers that support it.
	PrepareRequestWithSchema(prompt string, options map[string]any, schema any) ([]byte, error)

	// ParseResponse extracts the generated text and token usage.
	ParseResponse(body []byte) (*Response, error)

	SupportsJSONSchema() bool
}

// Response is a provider-level generation result.
type Response struct {
	Text  string
	Usage *Usage
}

// Usage reports token consumption for one call. A nil Usage means the
// provider did not include usage metadata.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// ProviderConstructor creates a provider instance for a given API key and model.
type ProviderConstructor func(apiKey, model string, extraHeaders map[string]string) Provider
