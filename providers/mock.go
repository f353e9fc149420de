package providers

import (
	"encoding/json"
	"errors"

	"github.com/promptpilot/promptpilot/config"
	"github.com/promptpilot/promptpilot/internal/logging"
)

// MockProvider implements the Provider interface for testing purposes.
// Responses are served from a configurable queue, and errors can be injected
// to exercise failure paths.
type MockProvider struct {
	endpoint      string
	model         string
	extraHeaders  map[string]string
	options       map[string]any
	logger        logging.Logger
	responseText  string
	usage         *Usage
	shouldError   bool
	errorMsg      string
	responses     []string
	currentIndex  int
	loopResponses bool
}

// NewMockProvider creates a new mock provider instance for testing.
func NewMockProvider(apiKey, model string, extraHeaders map[string]string) Provider {
	if extraHeaders == nil {
		extraHeaders = make(map[string]string)
	}
	return &MockProvider{
		endpoint:     "http://mock.local/v1/generate",
		model:        model,
		extraHeaders: extraHeaders,
		options:      make(map[string]any),
		logger:       logging.NewLogger(logging.LogLevelOff),
		responseText: "This is a mock response",
	}
}

// SetMockResponse configures the default response text.
func (p *MockProvider) SetMockResponse(response string) {
	p.responseText = response
}

// SetMockUsage configures the token usage attached to responses.
// A nil usage simulates a provider that omits usage metadata.
func (p *MockProvider) SetMockUsage(usage *Usage) {
	p.usage = usage
}

// SetMockError configures the mock to fail with the given message.
func (p *MockProvider) SetMockError(shouldError bool, errorMsg string) {
	p.shouldError = shouldError
	p.errorMsg = errorMsg
}

// SetResponses configures a queue of responses returned in sequence.
func (p *MockProvider) SetResponses(responses []string, loop bool) {
	p.responses = responses
	p.currentIndex = 0
	p.loopResponses = loop
}

func (p *MockProvider) Name() string                              { return "mock" }
func (p *MockProvider) Endpoint() string                          { return p.endpoint }
func (p *MockProvider) SetLogger(logger logging.Logger)           { p.logger = logger }
func (p *MockProvider) SetOption(key string, value any)           { p.options[key] = value }
func (p *MockProvider) SetExtraHeaders(headers map[string]string) { p.extraHeaders = headers }
func (p *MockProvider) SupportsJSONSchema() bool                  { return true }

func (p *MockProvider) SetDefaultOptions(cfg *config.Config) {
	p.SetOption("temperature", cfg.Temperature)
	p.SetOption("max_tokens", cfg.MaxTokens)
}

func (p *MockProvider) Headers() map[string]string {
	headers := map[string]string{
		"Content-Type": "application/json",
	}
	for k, v := range p.extraHeaders {
		headers[k] = v
	}
	return headers
}

func (p *MockProvider) PrepareRequest(prompt string, options map[string]any) ([]byte, error) {
	if p.shouldError {
		return nil, errors.New(p.errorMsg)
	}
	requestBody := map[string]any{
		"model":  p.model,
		"prompt": prompt,
	}
	for k, v := range options {
		requestBody[k] = v
	}
	return json.Marshal(requestBody)
}

func (p *MockProvider) PrepareRequestWithSchema(prompt string, options map[string]any, schema any) ([]byte, error) {
	return p.PrepareRequest(prompt, options)
}

func (p *MockProvider) getNextResponse() (string, error) {
	if len(p.responses) == 0 {
		return p.responseText, nil
	}
	if p.currentIndex >= len(p.responses) {
		if p.loopResponses {
			p.currentIndex = 0
		} else {
			return "", errors.New("mock responses exhausted")
		}
	}
	response := p.responses[p.currentIndex]
	p.currentIndex++
	return response, nil
}

func (p *MockProvider) ParseResponse(body []byte) (*Response, error) {
	if p.shouldError {
		return nil, errors.New(p.errorMsg)
	}
	text, err := p.getNextResponse()
	if err != nil {
		return nil, err
	}
	return &Response{Text: text, Usage: p.usage}, nil
}
