// Package extract computes the five raw quality signals of a prompt. The
// extractor is pure and deterministic: the same text with the same vocabulary
// always yields the same dimensions, with no I/O and no randomness.
package extract

import (
	"regexp"
	"strings"
)

// Dimensions holds the five raw signal scores, each in [0,100].
type Dimensions struct {
	Specificity      float64 `json:"specificity"`
	MeaningfulLength float64 `json:"meaningful_length"`
	Context          float64 `json:"context"`
	Clarity          float64 `json:"clarity"`
	Structure        float64 `json:"structure"`
}

// Vocabulary bundles the immutable lookup tables the extractor scores
// against. Tests can substitute alternate tables without touching process
// state.
type Vocabulary struct {
	Stopwords      map[string]struct{}
	TechnicalTerms map[string]struct{}
	VagueWords     map[string]struct{}
}

// Extractor derives Dimensions from raw prompt text.
type Extractor struct {
	vocab Vocabulary
}

// NewExtractor creates an extractor scoring against the given vocabulary.
func NewExtractor(vocab Vocabulary) *Extractor {
	return &Extractor{vocab: vocab}
}

// Saturation points and penalties of the raw signals.
const (
	meaningfulSaturation = 30  // meaningful tokens at which length maxes out
	vaguePenalty         = 15  // clarity points lost per vague-word occurrence
	contextFloor         = 20  // context score without concrete artifacts
	structureFloor       = 30  // structure score without visible structure
	technicalWeight      = 20  // specificity points per technical term
	meaningfulWeight     = 2   // specificity points per meaningful token
)

var (
	tokenPattern    = regexp.MustCompile(`[a-z0-9]+`)
	digitPattern    = regexp.MustCompile(`[0-9]`)
	numberedPattern = regexp.MustCompile(`(?m)^\s*[0-9]+[.)]\s`)
	bulletPattern   = regexp.MustCompile(`(?m)^\s*[-*]\s`)
)

// Tokenize lowercases text and splits it into alphanumeric runs.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// Extract computes the five dimensions for the given prompt text. Empty or
// whitespace-only prompts must be rejected by the caller before this point.
func (e *Extractor) Extract(text string) Dimensions {
	tokens := Tokenize(text)

	var meaningful, technical, vague int
	for _, token := range tokens {
		if _, ok := e.vocab.VagueWords[token]; ok {
			vague++
		}
		if _, ok := e.vocab.Stopwords[token]; ok {
			continue
		}
		meaningful++
		if _, ok := e.vocab.TechnicalTerms[token]; ok {
			technical++
		}
	}

	return Dimensions{
		Specificity:      specificity(technical, meaningful),
		MeaningfulLength: meaningfulLength(meaningful),
		Context:          contextScore(text),
		Clarity:          clarity(vague),
		Structure:        structureScore(text),
	}
}

// specificity rewards both recognized technical vocabulary and raw
// meaningful density; technical hits dominate.
func specificity(technical, meaningful int) float64 {
	raw := float64(technical*technicalWeight+meaningful*meaningfulWeight) / 100
	if raw > 1 {
		raw = 1
	}
	return raw * 100
}

func meaningfulLength(meaningful int) float64 {
	raw := float64(meaningful) / meaningfulSaturation
	if raw > 1 {
		raw = 1
	}
	return raw * 100
}

// contextScore looks for concrete artifacts: a fenced code block, brace or
// bracket characters, or any digit.
func contextScore(text string) float64 {
	if strings.Contains(text, "```") ||
		strings.ContainsAny(text, "{}[]") ||
		digitPattern.MatchString(text) {
		return 100
	}
	return contextFloor
}

// clarity penalizes each vague-word occurrence independently.
func clarity(vague int) float64 {
	score := 100 - float64(vague*vaguePenalty)
	if score < 0 {
		return 0
	}
	return score
}

// structureScore looks for at least two line breaks, a numbered-list marker,
// or a bullet marker at the start of a line.
func structureScore(text string) float64 {
	if strings.Count(text, "\n") >= 2 ||
		numberedPattern.MatchString(text) ||
		bulletPattern.MatchString(text) {
		return 100
	}
	return structureFloor
}
