package llm

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// estimateFactor approximates tokens-per-word when no encoder is available.
const estimateFactor = 1.3

// TokenCounter estimates token counts for a model. Providers usually report
// exact usage; the counter covers the ones that do not.
type TokenCounter struct {
	once     sync.Once
	model    string
	encoding *tiktoken.Tiktoken
}

// NewTokenCounter creates a counter for the given model. Encoder setup is
// deferred to first use since it may hit the tiktoken cache.
func NewTokenCounter(model string) *TokenCounter {
	return &TokenCounter{model: model}
}

// Count returns the token count of text, falling back to a word-based
// estimate when no encoding is available for the model.
func (t *TokenCounter) Count(text string) int {
	t.once.Do(func() {
		encoding, err := tiktoken.EncodingForModel(t.model)
		if err != nil {
			encoding, err = tiktoken.EncodingForModel("gpt-4o")
		}
		if err == nil {
			t.encoding = encoding
		}
	})

	if t.encoding != nil {
		return len(t.encoding.Encode(text, nil, nil))
	}
	return int(float64(len(strings.Fields(text))) * estimateFactor)
}
