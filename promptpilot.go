// Package promptpilot scores free-text prompts along five deterministic
// quality dimensions, blends the score with the observed response quality,
// and issues at most one bounded rewrite for prompts that fall below an
// accuracy threshold.
//
// The facade in this package assembles the engine with sensible defaults;
// the subpackages expose the individual pieces for callers that need more
// control.
package promptpilot

import (
	"context"

	"github.com/promptpilot/promptpilot/config"
	"github.com/promptpilot/promptpilot/engine"
	"github.com/promptpilot/promptpilot/evaluate"
	"github.com/promptpilot/promptpilot/internal/logging"
	"github.com/promptpilot/promptpilot/llm"
	"github.com/promptpilot/promptpilot/providers"
)

// Analyzer wraps the analysis engine behind a minimal API.
type Analyzer struct {
	cfg    *config.Config
	engine *engine.Engine
}

// New builds an Analyzer from the default configuration overridden by opts.
// The deterministic lexical judge backs response evaluation; callers that
// want a model-graded judge assemble the engine package directly.
func New(opts ...config.ConfigOption) (*Analyzer, error) {
	cfg := config.NewConfig(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewLogger(cfg.LogLevel)
	registry := providers.NewProviderRegistry()

	generator, err := llm.NewClient(cfg, cfg.Model, logger, registry)
	if err != nil {
		return nil, err
	}
	optimizer, err := llm.NewClient(cfg, cfg.OptimizerModel, logger, registry)
	if err != nil {
		return nil, err
	}
	optimizer.SetOption("temperature", cfg.OptimizerTemperature)

	eng := engine.New(cfg, generator, optimizer, evaluate.NewLexicalJudge(),
		engine.WithLogger(logger))

	return &Analyzer{cfg: cfg, engine: eng}, nil
}

// AnalyzeOption adjusts a single analysis.
type AnalyzeOption func(*engine.Submission)

// WithoutOptimization disables the rewrite attempt for this analysis.
func WithoutOptimization() AnalyzeOption {
	return func(s *engine.Submission) {
		s.AutoOptimize = false
	}
}

// WithExpectedResponse supplies a reference answer for accuracy judgment.
func WithExpectedResponse(expected string) AnalyzeOption {
	return func(s *engine.Submission) {
		s.ExpectedResponse = expected
	}
}

// WithModel requests a specific model for this analysis.
func WithModel(model string) AnalyzeOption {
	return func(s *engine.Submission) {
		s.Model = model
	}
}

// Analyze runs one full analysis of prompt.
func (a *Analyzer) Analyze(ctx context.Context, prompt string, opts ...AnalyzeOption) (*engine.Result, error) {
	sub := engine.Submission{
		Text:         prompt,
		AutoOptimize: true,
	}
	for _, opt := range opts {
		opt(&sub)
	}
	return a.engine.Analyze(ctx, sub)
}
