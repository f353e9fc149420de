package score

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/promptpilot/promptpilot/extract"
)

func TestWeightsSumToOne(t *testing.T) {
	sum := WeightSpecificity + WeightMeaningfulLength + WeightContext +
		WeightClarity + WeightStructure
	assert.Equal(t, 1.0, sum)
}

func TestPromptQualityCeiling(t *testing.T) {
	perfect := extract.Dimensions{
		Specificity:      100,
		MeaningfulLength: 100,
		Context:          100,
		Clarity:          100,
		Structure:        100,
	}
	// The weighted sum is 100; the ceiling pulls it down to 98.
	assert.Equal(t, MaxPromptQuality, PromptQuality(perfect))

	zero := extract.Dimensions{}
	assert.Equal(t, 0.0, PromptQuality(zero))
}

func TestPromptQualityWeightedSum(t *testing.T) {
	d := extract.Dimensions{
		Specificity:      4,
		MeaningfulLength: 100.0 * 2 / 30,
		Context:          20,
		Clarity:          85,
		Structure:        30,
	}
	// 0.40*4 + 0.25*6.667 + 0.15*20 + 0.10*85 + 0.10*30 = 17.77
	assert.InDelta(t, 17.7667, PromptQuality(d), 1e-3)
	assert.Less(t, PromptQuality(d), 20.0)
}

func TestPromptQualityCeilingAppliesAfterWeighting(t *testing.T) {
	// One saturated dimension alone cannot reach the ceiling.
	d := extract.Dimensions{Specificity: 100}
	assert.Equal(t, 40.0, PromptQuality(d))
}

func TestResponseQuality(t *testing.T) {
	assert.Equal(t, 1.0, ResponseQuality(1, 0))
	assert.Equal(t, 0.0, ResponseQuality(0, 1))
	// Neutral judgment: no similarity, full hallucination risk.
	assert.InDelta(t, 0.0, ResponseQuality(0, 1), 1e-12)
	assert.InDelta(t, 0.7*0.5+0.3*0.5, ResponseQuality(0.5, 0.5), 1e-12)
}

func TestAccuracyBlend(t *testing.T) {
	// Perfect prompt, perfect response: 0.98*0.9 + 1*0.1.
	assert.InDelta(t, 0.982, Accuracy(98, 1), 1e-12)

	// Bottom-decile prompt with a flawless response stays low: the prompt
	// side dominates the blend.
	got := Accuracy(17.766666666666666, ResponseQuality(1, 0))
	assert.InDelta(t, 0.2599, got, 1e-3)
	assert.Less(t, got, 0.30)
}

func TestAccuracyClamped(t *testing.T) {
	assert.Equal(t, 1.0, Accuracy(200, 5))
	assert.Equal(t, 0.0, Accuracy(-50, -1))
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.1))
	assert.Equal(t, 1.0, Clamp01(1.1))
	assert.Equal(t, 0.42, Clamp01(0.42))
}
