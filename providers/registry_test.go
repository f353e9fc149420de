package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryKnownProviders(t *testing.T) {
	registry := NewProviderRegistry()

	for _, name := range []string{"openai", "gemini", "mock"} {
		provider, err := registry.Get(name, "key", "model", nil)
		require.NoError(t, err, name)
		assert.Equal(t, name, provider.Name())
	}
}

func TestRegistryUnknownProvider(t *testing.T) {
	registry := NewProviderRegistry()
	_, err := registry.Get("nope", "key", "model", nil)
	assert.Error(t, err)
}

func TestRegistrySubset(t *testing.T) {
	registry := NewProviderRegistry("openai")

	_, err := registry.Get("openai", "key", "model", nil)
	assert.NoError(t, err)
	_, err = registry.Get("gemini", "key", "model", nil)
	assert.Error(t, err)
}

func TestRegistryRegisterCustom(t *testing.T) {
	registry := NewProviderRegistry("openai")
	registry.Register("custom", NewMockProvider)

	provider, err := registry.Get("custom", "key", "model", nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", provider.Name())
}

func TestMockProviderResponseQueue(t *testing.T) {
	provider := NewMockProvider("", "mock-model", nil).(*MockProvider)
	provider.SetResponses([]string{"first", "second"}, false)

	first, err := provider.ParseResponse(nil)
	require.NoError(t, err)
	assert.Equal(t, "first", first.Text)

	second, err := provider.ParseResponse(nil)
	require.NoError(t, err)
	assert.Equal(t, "second", second.Text)

	_, err = provider.ParseResponse(nil)
	assert.Error(t, err, "non-looping queue is exhausted")
}

func TestMockProviderErrorInjection(t *testing.T) {
	provider := NewMockProvider("", "mock-model", nil).(*MockProvider)
	provider.SetMockError(true, "injected failure")

	_, err := provider.PrepareRequest("p", nil)
	assert.EqualError(t, err, "injected failure")
	_, err = provider.ParseResponse(nil)
	assert.EqualError(t, err, "injected failure")
}
