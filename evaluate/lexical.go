package evaluate

import (
	"context"
	"math"

	"github.com/promptpilot/promptpilot/extract"
)

// LexicalJudge is the default judgment backend: deterministic, offline, and
// cheap. Similarity is the cosine of term-frequency vectors; hallucination
// risk is the fraction of response vocabulary with no support in the source
// text. It is a coarse proxy for an embedding comparison, good enough for
// the accuracy blend where response quality carries little weight.
type LexicalJudge struct{}

// NewLexicalJudge creates the deterministic lexical judge.
func NewLexicalJudge() *LexicalJudge {
	return &LexicalJudge{}
}

func (j *LexicalJudge) Judge(_ context.Context, prompt, response, expected string) (Judgment, error) {
	// Judge against the expected response when the caller supplied one,
	// otherwise against prompt/response coherence.
	source := prompt
	if expected != "" {
		source = expected
	}

	sourceFreq := termFrequency(extract.Tokenize(source))
	responseFreq := termFrequency(extract.Tokenize(response))

	return Judgment{
		Similarity:    cosineSimilarity(sourceFreq, responseFreq),
		Hallucination: unsupportedFraction(sourceFreq, responseFreq),
	}, nil
}

func termFrequency(tokens []string) map[string]float64 {
	freq := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		freq[token]++
	}
	return freq
}

// cosineSimilarity computes the cosine of two sparse term-frequency
// vectors. Zero-magnitude vectors yield zero similarity.
func cosineSimilarity(a, b map[string]float64) float64 {
	var dot, magA, magB float64
	for term, av := range a {
		magA += av * av
		if bv, ok := b[term]; ok {
			dot += av * bv
		}
	}
	for _, bv := range b {
		magB += bv * bv
	}

	magA = math.Sqrt(magA)
	magB = math.Sqrt(magB)
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (magA * magB)
}

// unsupportedFraction returns the share of distinct response terms that do
// not occur in the source at all.
func unsupportedFraction(source, response map[string]float64) float64 {
	if len(response) == 0 {
		return 1
	}
	var unsupported int
	for term := range response {
		if _, ok := source[term]; !ok {
			unsupported++
		}
	}
	return float64(unsupported) / float64(len(response))
}
