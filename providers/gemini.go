package providers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/promptpilot/promptpilot/config"
	"github.com/promptpilot/promptpilot/internal/logging"
)

// GeminiProvider implements the Provider interface for Google's Generative
// Language API (the hosted backend the original service ran against).
type GeminiProvider struct {
	apiKey       string
	model        string
	extraHeaders map[string]string
	options      map[string]any
	logger       logging.Logger
}

// NewGeminiProvider creates a new Gemini provider instance.
func NewGeminiProvider(apiKey, model string, extraHeaders map[string]string) Provider {
	if extraHeaders == nil {
		extraHeaders = make(map[string]string)
	}
	return &GeminiProvider{
		apiKey:       apiKey,
		model:        model,
		extraHeaders: extraHeaders,
		options:      make(map[string]any),
		logger:       logging.NewLogger(logging.LogLevelWarn),
	}
}

func (p *GeminiProvider) Name() string { return "gemini" }

// Endpoint builds the generateContent URL; the API wants the model in the path.
func (p *GeminiProvider) Endpoint() string {
	modelName := p.model
	if !strings.HasPrefix(modelName, "models/") {
		modelName = "models/" + modelName
	}
	return fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/%s:generateContent", modelName)
}

func (p *GeminiProvider) SetLogger(logger logging.Logger) { p.logger = logger }

func (p *GeminiProvider) SetExtraHeaders(extraHeaders map[string]string) {
	p.extraHeaders = extraHeaders
}

func (p *GeminiProvider) SetOption(key string, value any) {
	p.options[key] = value
	p.logger.Debug("Option set", "provider", p.Name(), "key", key)
}

func (p *GeminiProvider) SetDefaultOptions(cfg *config.Config) {
	p.SetOption("temperature", cfg.Temperature)
	p.SetOption("maxOutputTokens", cfg.MaxTokens)
}

// SupportsJSONSchema is false here: schema adherence is requested through
// prompt augmentation instead of a structured response_format field.
func (p *GeminiProvider) SupportsJSONSchema() bool { return false }

func (p *GeminiProvider) Headers() map[string]string {
	headers := map[string]string{
		"Content-Type":   "application/json",
		"x-goog-api-key": p.apiKey,
	}
	for key, value := range p.extraHeaders {
		headers[key] = value
	}
	return headers
}

func (p *GeminiProvider) PrepareRequest(prompt string, options map[string]any) ([]byte, error) {
	generationConfig := make(map[string]any)
	for k, v := range p.options {
		generationConfig[k] = v
	}
	for k, v := range options {
		generationConfig[k] = v
	}

	request := map[string]any{
		"contents": []map[string]any{
			{
				"parts": []map[string]string{
					{"text": prompt},
				},
			},
		},
		"generationConfig": generationConfig,
	}
	return json.Marshal(request)
}

func (p *GeminiProvider) PrepareRequestWithSchema(prompt string, options map[string]any, schema any) ([]byte, error) {
	// No native schema support; the caller appends schema instructions.
	return p.PrepareRequest(prompt, options)
}

func (p *GeminiProvider) ParseResponse(body []byte) (*Response, error) {
	var response struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
		UsageMetadata *struct {
			PromptTokenCount     int `json:"promptTokenCount"`
			CandidatesTokenCount int `json:"candidatesTokenCount"`
			TotalTokenCount      int `json:"totalTokenCount"`
		} `json:"usageMetadata"`
	}

	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}
	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}

	var text strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	result := &Response{Text: text.String()}
	if response.UsageMetadata != nil {
		result.Usage = &Usage{
			InputTokens:  response.UsageMetadata.PromptTokenCount,
			OutputTokens: response.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  response.UsageMetadata.TotalTokenCount,
		}
	}
	return result, nil
}
