// Package evaluate derives response-quality signals from a prompt/response
// pair. The judgment mechanism is pluggable; the package owns the contract:
// both scores land in [0,1], and evaluation never fails: a judge that
// cannot be reached degrades to the lowest-confidence defaults.
package evaluate

import (
	"context"
	"strings"

	"github.com/promptpilot/promptpilot/internal/logging"
	"github.com/promptpilot/promptpilot/score"
)

// Judgment holds the two response-quality signals.
type Judgment struct {
	Similarity    float64
	Hallucination float64
}

// Neutral is the lowest-confidence judgment, used when a response cannot
// be evaluated at all.
func Neutral() Judgment {
	return Judgment{Similarity: 0, Hallucination: 1}
}

// Judge is the external judgment capability. Expected may be empty, in
// which case prompt/response coherence is judged instead.
type Judge interface {
	Judge(ctx context.Context, prompt, response, expected string) (Judgment, error)
}

// Evaluator wraps a Judge with the contract guarantees: no errors, outputs
// clamped to range, empty responses treated as unevaluable.
type Evaluator struct {
	judge  Judge
	logger logging.Logger
}

// NewEvaluator creates an evaluator delegating to the given judge.
func NewEvaluator(judge Judge, logger logging.Logger) *Evaluator {
	return &Evaluator{judge: judge, logger: logger}
}

// Evaluate produces a Judgment for the given pair. It never returns an
// error: malformed or empty responses and unreachable judges yield the
// neutral defaults.
func (e *Evaluator) Evaluate(ctx context.Context, prompt, response, expected string) Judgment {
	if strings.TrimSpace(response) == "" {
		return Neutral()
	}

	judgment, err := e.judge.Judge(ctx, prompt, response, expected)
	if err != nil {
		e.logger.Warn("Judgment unavailable, using neutral defaults", "error", err)
		return Neutral()
	}

	judgment.Similarity = score.Clamp01(judgment.Similarity)
	judgment.Hallucination = score.Clamp01(judgment.Hallucination)
	return judgment
}
