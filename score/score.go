// Package score turns raw quality signals into the scores reported to
// callers: the 0-98 prompt quality score and the final blended accuracy.
// Everything here is arithmetic; there are no side effects.
package score

import "github.com/promptpilot/promptpilot/extract"

// Dimension weights. They must sum to exactly 1.0.
const (
	WeightSpecificity      = 0.40
	WeightMeaningfulLength = 0.25
	WeightContext          = 0.15
	WeightClarity          = 0.10
	WeightStructure        = 0.10
)

// MaxPromptQuality is the hard ceiling on the prompt quality score; no
// prompt is perfect.
const MaxPromptQuality = 98.0

// Response quality sub-weights: hallucination risk is penalized more gently
// than the primary similarity signal.
const (
	weightSimilarity    = 0.7
	weightHallucination = 0.3
)

// Accuracy blend: prompt construction quality dominates over observed
// response quality, which is noisy and service-dependent.
const (
	weightPromptQuality   = 0.90
	weightResponseQuality = 0.10
)

// PromptQuality combines the five dimensions into one capped score.
// The ceiling is applied after weighting.
func PromptQuality(d extract.Dimensions) float64 {
	weighted := WeightSpecificity*d.Specificity +
		WeightMeaningfulLength*d.MeaningfulLength +
		WeightContext*d.Context +
		WeightClarity*d.Clarity +
		WeightStructure*d.Structure
	if weighted > MaxPromptQuality {
		return MaxPromptQuality
	}
	return weighted
}

// ResponseQuality blends semantic similarity and hallucination risk into a
// single [0,1] fraction.
func ResponseQuality(similarity, hallucination float64) float64 {
	return weightSimilarity*similarity + weightHallucination*(1-hallucination)
}

// Accuracy blends the prompt quality score (as a 0-1 fraction) with
// response quality, clamped to [0,1].
func Accuracy(promptQuality, responseQuality float64) float64 {
	accuracy := (promptQuality/100)*weightPromptQuality + responseQuality*weightResponseQuality
	return Clamp01(accuracy)
}

// Clamp01 clamps v to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
