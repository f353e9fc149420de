package engine

import (
	"fmt"

	"github.com/promptpilot/promptpilot/extract"
)

// Status marks the terminal outcome of one analysis.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// state tracks the analysis through the remediation state machine. Every
// analysis terminates in stateFinalized, success or not.
type state int

const (
	stateReceived state = iota
	stateScored
	stateOptimizationRequested
	stateOptimizationResolved
	stateFinalized
)

func (s state) String() string {
	switch s {
	case stateReceived:
		return "RECEIVED"
	case stateScored:
		return "SCORED"
	case stateOptimizationRequested:
		return "OPTIMIZATION_REQUESTED"
	case stateOptimizationResolved:
		return "OPTIMIZATION_RESOLVED"
	case stateFinalized:
		return "FINALIZED"
	default:
		return "UNKNOWN"
	}
}

// Submission is one incoming analysis request. It is immutable and owned by
// the processing lifetime of that request.
type Submission struct {
	Text             string
	AutoOptimize     bool
	Model            string
	ExpectedResponse string
}

// Metrics is the response-dependent measurement block. It exists only when
// the primary generation call succeeded.
type Metrics struct {
	AccuracyScore      float64
	SemanticSimilarity float64
	HallucinationScore float64
	InputTokens        int
	OutputTokens       int
	TotalTokens        int
	LatencyMs          float64
	EstimatedCostUSD   float64
}

// Optimization is the single bounded rewrite suggestion. Created at most
// once per analysis and never mutated afterwards.
type Optimization struct {
	OptimizedPrompt          string  `json:"optimized_prompt" validate:"required"`
	ImprovementExplanation   string  `json:"improvement_explanation" validate:"required"`
	ExpectedScoreImprovement float64 `json:"expected_score_improvement" validate:"min=0,max=1"`
}

// Result is the terminal, immutable artifact of one analysis. Results are
// built only through newSuccessResult and newErrorResult so callers cannot
// observe invalid field combinations (an error result never carries a
// response or an optimization).
type Result struct {
	TraceID        string
	OriginalPrompt string

	// Model is the model that actually served the request, which may be
	// the default when no per-model client factory is wired.
	Model string

	// Heuristic fields, derivable without any network access.
	PromptQuality float64
	Dimensions    extract.Dimensions

	// Response-dependent fields, present only on success.
	ResponseText string
	Metrics      *Metrics
	Optimization *Optimization

	Status       Status
	ErrorCode    string
	ErrorMessage string
}

func newSuccessResult(traceID, prompt, model string, quality float64, dims extract.Dimensions, responseText string, metrics Metrics, opt *Optimization) *Result {
	return &Result{
		TraceID:        traceID,
		OriginalPrompt: prompt,
		Model:          model,
		PromptQuality:  quality,
		Dimensions:     dims,
		ResponseText:   responseText,
		Metrics:        &metrics,
		Optimization:   opt,
		Status:         StatusSuccess,
	}
}

func newErrorResult(traceID, prompt, model string, quality float64, dims extract.Dimensions, code string, err error) *Result {
	return &Result{
		TraceID:        traceID,
		OriginalPrompt: prompt,
		Model:          model,
		PromptQuality:  quality,
		Dimensions:     dims,
		Status:         StatusError,
		ErrorCode:      code,
		ErrorMessage:   fmt.Sprintf("%v", err),
	}
}
