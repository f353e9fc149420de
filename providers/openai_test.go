package providers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptpilot/promptpilot/config"
)

func TestOpenAIPrepareRequest(t *testing.T) {
	provider := NewOpenAIProvider("sk-test", "gpt-4o-mini", nil)
	provider.SetDefaultOptions(config.NewConfig())

	body, err := provider.PrepareRequest("say hello", nil)
	require.NoError(t, err)

	var request map[string]any
	require.NoError(t, json.Unmarshal(body, &request))
	assert.Equal(t, "gpt-4o-mini", request["model"])
	assert.Equal(t, 0.7, request["temperature"])
	assert.Equal(t, float64(2048), request["max_tokens"])

	messages, ok := request["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	message := messages[0].(map[string]any)
	assert.Equal(t, "user", message["role"])
	assert.Equal(t, "say hello", message["content"])
}

func TestOpenAIPrepareRequestWithSchema(t *testing.T) {
	provider := NewOpenAIProvider("sk-test", "gpt-4o-mini", nil)

	body, err := provider.PrepareRequestWithSchema("structured", nil, map[string]any{"type": "object"})
	require.NoError(t, err)

	var request map[string]any
	require.NoError(t, json.Unmarshal(body, &request))
	format, ok := request["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_schema", format["type"])
}

func TestOpenAIHeaders(t *testing.T) {
	provider := NewOpenAIProvider("sk-test", "gpt-4o-mini", map[string]string{"X-Custom": "yes"})

	headers := provider.Headers()
	assert.Equal(t, "Bearer sk-test", headers["Authorization"])
	assert.Equal(t, "application/json", headers["Content-Type"])
	assert.Equal(t, "yes", headers["X-Custom"])
}

func TestOpenAIParseResponse(t *testing.T) {
	provider := NewOpenAIProvider("sk-test", "gpt-4o-mini", nil)

	body := `{
		"choices": [{"message": {"content": "hello there"}}],
		"usage": {"prompt_tokens": 9, "completion_tokens": 3, "total_tokens": 12}
	}`
	parsed, err := provider.ParseResponse([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, "hello there", parsed.Text)
	require.NotNil(t, parsed.Usage)
	assert.Equal(t, 9, parsed.Usage.InputTokens)
	assert.Equal(t, 3, parsed.Usage.OutputTokens)
	assert.Equal(t, 12, parsed.Usage.TotalTokens)
}

func TestOpenAIParseResponseWithoutUsage(t *testing.T) {
	provider := NewOpenAIProvider("sk-test", "gpt-4o-mini", nil)

	parsed, err := provider.ParseResponse([]byte(`{"choices": [{"message": {"content": "ok"}}]}`))
	require.NoError(t, err)
	assert.Equal(t, "ok", parsed.Text)
	assert.Nil(t, parsed.Usage)
}

func TestOpenAIParseResponseEmptyChoices(t *testing.T) {
	provider := NewOpenAIProvider("sk-test", "gpt-4o-mini", nil)

	_, err := provider.ParseResponse([]byte(`{"choices": []}`))
	assert.Error(t, err)

	_, err = provider.ParseResponse([]byte(`not json`))
	assert.Error(t, err)
}

func TestOpenAISupportsJSONSchema(t *testing.T) {
	assert.True(t, NewOpenAIProvider("k", "m", nil).SupportsJSONSchema())
}
