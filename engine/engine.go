// Package engine runs the full prompt analysis pipeline: deterministic
// feature scoring, one generation call, response evaluation, accuracy
// blending, and at most one rewrite attempt for low-scoring prompts.
package engine

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/promptpilot/promptpilot/config"
	"github.com/promptpilot/promptpilot/evaluate"
	"github.com/promptpilot/promptpilot/extract"
	"github.com/promptpilot/promptpilot/history"
	"github.com/promptpilot/promptpilot/internal/logging"
	"github.com/promptpilot/promptpilot/llm"
	"github.com/promptpilot/promptpilot/score"
	"github.com/promptpilot/promptpilot/telemetry"
)

// Engine analyzes prompts. It holds no mutable per-request state: the
// vocabulary tables are immutable, so concurrent analyses proceed fully in
// parallel, each building its own Result.
type Engine struct {
	cfg       *config.Config
	extractor *extract.Extractor
	evaluator *evaluate.Evaluator
	generator llm.Client
	optimizer llm.Client
	factory   ClientFactory
	recorder  telemetry.Recorder
	store     *history.Store
	logger    logging.Logger
}

// ClientFactory builds a generation client for a non-default model that
// passed the allow-list check.
type ClientFactory func(model string) (llm.Client, error)

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder sets the metrics recorder. The recorder should already be
// asynchronous; the engine calls it inline.
func WithRecorder(recorder telemetry.Recorder) Option {
	return func(e *Engine) {
		e.recorder = recorder
	}
}

// WithHistory enables persistence of finished analyses.
func WithHistory(store *history.Store) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithVocabulary overrides the scoring vocabulary, mainly for tests.
func WithVocabulary(vocab extract.Vocabulary) Option {
	return func(e *Engine) {
		e.extractor = extract.NewExtractor(vocab)
	}
}

// WithClientFactory enables per-request model selection; without it, every
// request runs on the default generator.
func WithClientFactory(factory ClientFactory) Option {
	return func(e *Engine) {
		e.factory = factory
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New assembles an Engine. generator serves the primary call, optimizer the
// rewrite call (they may be the same client), judge backs the response
// evaluator.
func New(cfg *config.Config, generator, optimizer llm.Client, judge evaluate.Judge, opts ...Option) *Engine {
	e := &Engine{
		cfg:       cfg,
		extractor: extract.NewExtractor(extract.DefaultVocabulary()),
		generator: generator,
		optimizer: optimizer,
		recorder:  telemetry.NopRecorder{},
		logger:    logging.NewLogger(cfg.LogLevel),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.evaluator = evaluate.NewEvaluator(judge, e.logger)
	return e
}

// Analyze runs one complete analysis. It returns a ValidationError for
// empty prompts or disallowed models; any other failure is reported inside
// the Result, never as a Go error.
func (e *Engine) Analyze(ctx context.Context, sub Submission) (*Result, error) {
	if strings.TrimSpace(sub.Text) == "" {
		return nil, errEmptyPrompt
	}
	if !e.cfg.ModelAllowed(sub.Model) {
		return nil, errModelNotAllowed
	}

	traceID := uuid.NewString()
	st := stateReceived
	e.logger.Debug("Analysis started", "trace_id", traceID, "state", st.String())

	// Heuristic scoring is pure and never touches the network.
	dims := e.extractor.Extract(sub.Text)
	quality := score.PromptQuality(dims)

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	generator := e.generator
	if sub.Model != "" && sub.Model != e.cfg.Model && e.factory != nil {
		client, err := e.factory(sub.Model)
		if err != nil {
			return nil, &ValidationError{Reason: "unsupported model: " + sub.Model}
		}
		generator = client
	}
	// The generator's own model is the one that actually serves the
	// request; without a factory that is the default, whatever the caller
	// asked for.
	model := generator.Model()

	response, err := generator.Generate(ctx, sub.Text)
	if err != nil {
		// Primary generation failure short-circuits to FINALIZED; the
		// heuristic score needed no network access and is still reported.
		st = stateFinalized
		e.logger.Error("Primary generation failed", "trace_id", traceID, "error", err)
		e.count("prompt.errors", e.tags("error_type", errorCode(err)))
		result := newErrorResult(traceID, sub.Text, model, quality, dims, errorCode(err), err)
		e.record(result)
		return result, nil
	}

	judgment := e.evaluator.Evaluate(ctx, sub.Text, response.Text, sub.ExpectedResponse)
	responseQuality := score.ResponseQuality(judgment.Similarity, judgment.Hallucination)
	accuracy := score.Accuracy(quality, responseQuality)
	cost := e.estimateCost(response.InputTokens, response.OutputTokens)

	st = stateScored
	e.logger.Debug("Analysis scored", "trace_id", traceID, "state", st.String(),
		"prompt_quality", quality, "accuracy", accuracy)

	metrics := Metrics{
		AccuracyScore:      round(accuracy, 4),
		SemanticSimilarity: round(judgment.Similarity, 4),
		HallucinationScore: round(judgment.Hallucination, 4),
		InputTokens:        response.InputTokens,
		OutputTokens:       response.OutputTokens,
		TotalTokens:        response.TotalTokens,
		LatencyMs:          round(response.LatencyMs, 2),
		EstimatedCostUSD:   round(cost, 6),
	}
	e.emitMetrics(metrics)

	var optimization *Optimization
	if sub.AutoOptimize && accuracy < e.cfg.AccuracyThreshold {
		st = stateOptimizationRequested
		e.logger.Info("Score below threshold, requesting rewrite",
			"trace_id", traceID, "accuracy", accuracy, "threshold", e.cfg.AccuracyThreshold)
		e.recorder.Event("Low Accuracy Score Detected",
			"Prompt scored below threshold, auto-optimization triggered", e.tags())

		// Exactly one rewrite attempt; its failure degrades gracefully
		// since the primary analysis already succeeded.
		optimization, err = e.rewrite(ctx, sub.Text, accuracy, dims)
		st = stateOptimizationResolved
		if err != nil {
			e.logger.Warn("Rewrite failed, returning analysis without optimization",
				"trace_id", traceID, "error", err)
			optimization = nil
		} else {
			e.count("prompt.optimizations", e.tags())
			e.recorder.Gauge("prompt.expected_improvement", optimization.ExpectedScoreImprovement, e.tags())
		}
	}

	e.checkThresholds(response)

	st = stateFinalized
	e.logger.Debug("Analysis finalized", "trace_id", traceID, "state", st.String())

	result := newSuccessResult(traceID, sub.Text, model, quality, dims, response.Text, metrics, optimization)
	e.record(result)
	return result, nil
}

// estimateCost converts token usage to USD using the configured per-million
// pricing.
func (e *Engine) estimateCost(inputTokens, outputTokens int) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * e.cfg.InputPricePerMillion
	outputCost := float64(outputTokens) / 1_000_000 * e.cfg.OutputPricePerMillion
	return inputCost + outputCost
}

func (e *Engine) emitMetrics(m Metrics) {
	tags := e.tags()
	e.count("prompt.requests", tags)
	e.recorder.Gauge("prompt.accuracy", m.AccuracyScore, tags)
	e.recorder.Gauge("prompt.semantic_similarity", m.SemanticSimilarity, tags)
	e.recorder.Gauge("prompt.hallucination", m.HallucinationScore, tags)
	e.recorder.Gauge("prompt.cost_usd", m.EstimatedCostUSD, tags)
	e.recorder.Count("prompt.tokens", float64(m.TotalTokens), e.tags("type", "total"))
	e.recorder.Timing("prompt.latency", time.Duration(m.LatencyMs*float64(time.Millisecond)), e.tags("operation", "execute"))
}

func (e *Engine) checkThresholds(response *llm.Response) {
	if response.TotalTokens > e.cfg.TokenThreshold {
		e.recorder.Event("High Token Usage Detected",
			"Request exceeded the configured token threshold", e.tags())
	}
	if response.LatencyMs > e.cfg.LatencyThresholdMs {
		e.recorder.Event("High Latency Detected",
			"Request exceeded the configured latency threshold", e.tags())
	}
}

// record persists the result when history is enabled. Persistence failures
// never affect the caller.
func (e *Engine) record(r *Result) {
	if e.store == nil {
		return
	}
	entry := history.Entry{
		TraceID:       r.TraceID,
		Prompt:        r.OriginalPrompt,
		Status:        string(r.Status),
		PromptQuality: r.PromptQuality,
		Optimized:     r.Optimization != nil,
	}
	if r.Metrics != nil {
		entry.AccuracyScore = r.Metrics.AccuracyScore
		entry.TotalTokens = r.Metrics.TotalTokens
		entry.LatencyMs = r.Metrics.LatencyMs
		entry.CostUSD = r.Metrics.EstimatedCostUSD
	}
	if err := e.store.Record(entry); err != nil {
		e.logger.Warn("Failed to record analysis history", "trace_id", r.TraceID, "error", err)
	}
}

func (e *Engine) tags(extra ...string) telemetry.Tags {
	tags := telemetry.Tags{
		"service": e.cfg.Service,
		"env":     e.cfg.Environment,
	}
	for i := 0; i+1 < len(extra); i += 2 {
		tags[extra[i]] = extra[i+1]
	}
	return tags
}

func (e *Engine) count(name string, tags telemetry.Tags) {
	e.recorder.Count(name, 1, tags)
}

func errorCode(err error) string {
	var llmErr *llm.LLMError
	if errors.As(err, &llmErr) {
		return llmErr.TypeString()
	}
	return "UnknownError"
}

func round(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
