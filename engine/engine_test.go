package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptpilot/promptpilot/config"
	"github.com/promptpilot/promptpilot/evaluate"
	"github.com/promptpilot/promptpilot/extract"
	"github.com/promptpilot/promptpilot/history"
	"github.com/promptpilot/promptpilot/llm"
	"github.com/promptpilot/promptpilot/telemetry"
)

// stubClient is a canned llm.Client. Generate and GenerateWithSchema return
// the configured response or error and count their calls.
type stubClient struct {
	model         string
	response      *llm.Response
	err           error
	generateCalls int
	schemaCalls   int
}

func (s *stubClient) Generate(context.Context, string) (*llm.Response, error) {
	s.generateCalls++
	return s.response, s.err
}

func (s *stubClient) GenerateWithSchema(context.Context, string, any) (*llm.Response, error) {
	s.schemaCalls++
	return s.response, s.err
}

func (s *stubClient) Model() string {
	if s.model == "" {
		return "stub-model"
	}
	return s.model
}

func (s *stubClient) SetOption(string, any) {}

// fixedJudge always returns the same judgment.
type fixedJudge struct {
	judgment evaluate.Judgment
}

func (f *fixedJudge) Judge(context.Context, string, string, string) (evaluate.Judgment, error) {
	return f.judgment, nil
}

// captureRecorder collects every emitted point for assertions.
type captureRecorder struct {
	gauges map[string]float64
	counts map[string]float64
	events []string
}

func newCaptureRecorder() *captureRecorder {
	return &captureRecorder{
		gauges: make(map[string]float64),
		counts: make(map[string]float64),
	}
}

func (r *captureRecorder) Gauge(name string, value float64, _ telemetry.Tags) {
	r.gauges[name] = value
}

func (r *captureRecorder) Count(name string, delta float64, _ telemetry.Tags) {
	r.counts[name] += delta
}

func (r *captureRecorder) Timing(string, time.Duration, telemetry.Tags) {}

func (r *captureRecorder) Event(title, _ string, _ telemetry.Tags) {
	r.events = append(r.events, title)
}

const (
	weakPrompt   = "fix code"
	strongPrompt = "Write a Python function to parse JSON logs.\n" +
		"1. Group entries by status code\n" +
		"2. Count errors per service\n" +
		"3. Return a markdown table sorted by count"
)

const rewriteJSON = `{"optimized_prompt": "Fix the null pointer bug in parser.go and add a regression test.", "improvement_explanation": "Added a concrete target and acceptance criterion.", "expected_score_improvement": 0.3}`

func goodResponse() *llm.Response {
	return &llm.Response{
		Text:         "done",
		InputTokens:  10,
		OutputTokens: 20,
		TotalTokens:  30,
		LatencyMs:    120,
	}
}

func perfectJudge() *fixedJudge {
	return &fixedJudge{judgment: evaluate.Judgment{Similarity: 1, Hallucination: 0}}
}

func TestAnalyzeRejectsEmptyPrompt(t *testing.T) {
	e := New(config.NewConfig(), &stubClient{}, &stubClient{}, perfectJudge())

	for _, text := range []string{"", "   ", "\n\t"} {
		result, err := e.Analyze(context.Background(), Submission{Text: text})
		assert.Nil(t, result)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	}
}

func TestAnalyzeRejectsDisallowedModel(t *testing.T) {
	cfg := config.NewConfig(config.SetAllowedModels("gpt-4o-mini"))
	generator := &stubClient{response: goodResponse()}
	e := New(cfg, generator, &stubClient{}, perfectJudge())

	result, err := e.Analyze(context.Background(), Submission{Text: "hello world", Model: "gpt-77"})
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Zero(t, generator.generateCalls, "disallowed models must be rejected before any call")
}

func TestAnalyzeSuccessAboveThreshold(t *testing.T) {
	generator := &stubClient{response: goodResponse()}
	optimizer := &stubClient{response: &llm.Response{Text: rewriteJSON}}
	recorder := newCaptureRecorder()
	e := New(config.NewConfig(), generator, optimizer, perfectJudge(), WithRecorder(recorder))

	result, err := e.Analyze(context.Background(), Submission{Text: strongPrompt, AutoOptimize: true})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.NotEmpty(t, result.TraceID)
	assert.Equal(t, strongPrompt, result.OriginalPrompt)
	assert.Equal(t, "done", result.ResponseText)
	require.NotNil(t, result.Metrics)
	assert.GreaterOrEqual(t, result.Metrics.AccuracyScore, 0.80)
	assert.LessOrEqual(t, result.PromptQuality, 98.0)
	assert.GreaterOrEqual(t, result.PromptQuality, 80.0)

	// Above threshold: the rewrite path must not run.
	assert.Nil(t, result.Optimization)
	assert.Zero(t, optimizer.schemaCalls)
	assert.NotContains(t, recorder.events, "Low Accuracy Score Detected")
	assert.Equal(t, 1.0, recorder.counts["prompt.requests"])
}

func TestAnalyzeTriggersSingleRewriteBelowThreshold(t *testing.T) {
	generator := &stubClient{response: goodResponse()}
	optimizer := &stubClient{response: &llm.Response{Text: rewriteJSON}}
	recorder := newCaptureRecorder()
	e := New(config.NewConfig(), generator, optimizer, perfectJudge(), WithRecorder(recorder))

	result, err := e.Analyze(context.Background(), Submission{Text: weakPrompt, AutoOptimize: true})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Less(t, result.PromptQuality, 20.0)
	require.NotNil(t, result.Metrics)
	assert.Less(t, result.Metrics.AccuracyScore, 0.80)

	require.NotNil(t, result.Optimization)
	assert.NotEqual(t, weakPrompt, result.Optimization.OptimizedPrompt)
	assert.NotEmpty(t, result.Optimization.ImprovementExplanation)
	assert.Equal(t, 0.3, result.Optimization.ExpectedScoreImprovement)

	assert.Equal(t, 1, optimizer.schemaCalls, "exactly one rewrite attempt")
	assert.Contains(t, recorder.events, "Low Accuracy Score Detected")
	assert.Equal(t, 1.0, recorder.counts["prompt.optimizations"])
	assert.Equal(t, 0.3, recorder.gauges["prompt.expected_improvement"])
}

func TestAnalyzeHonorsAutoOptimizeOff(t *testing.T) {
	generator := &stubClient{response: goodResponse()}
	optimizer := &stubClient{response: &llm.Response{Text: rewriteJSON}}
	recorder := newCaptureRecorder()
	e := New(config.NewConfig(), generator, optimizer, perfectJudge(), WithRecorder(recorder))

	result, err := e.Analyze(context.Background(), Submission{Text: weakPrompt, AutoOptimize: false})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Less(t, result.Metrics.AccuracyScore, 0.80)
	assert.Nil(t, result.Optimization)
	assert.Zero(t, optimizer.schemaCalls)
	assert.NotContains(t, recorder.events, "Low Accuracy Score Detected")
}

func TestAnalyzePrimaryFailureIsErrorResult(t *testing.T) {
	generator := &stubClient{err: llm.NewLLMError(llm.ErrorTypeTimeout, "deadline exceeded", nil)}
	optimizer := &stubClient{response: &llm.Response{Text: rewriteJSON}}
	recorder := newCaptureRecorder()
	e := New(config.NewConfig(), generator, optimizer, perfectJudge(), WithRecorder(recorder))

	result, err := e.Analyze(context.Background(), Submission{Text: weakPrompt, AutoOptimize: true})
	require.NoError(t, err, "upstream failure is reported in the result, not as an error")

	assert.Equal(t, StatusError, result.Status)
	assert.Equal(t, "UpstreamTimeout", result.ErrorCode)
	assert.NotEmpty(t, result.ErrorMessage)

	// Heuristic fields survive the failure; response-dependent ones do not.
	assert.Less(t, result.PromptQuality, 20.0)
	assert.NotZero(t, result.Dimensions.Clarity)
	assert.Empty(t, result.ResponseText)
	assert.Nil(t, result.Metrics)
	assert.Nil(t, result.Optimization)

	// No rewrite after a failed primary call, even below threshold.
	assert.Zero(t, optimizer.schemaCalls)
	assert.Equal(t, 1.0, recorder.counts["prompt.errors"])
}

func TestAnalyzeRewriteFailureDegradesGracefully(t *testing.T) {
	generator := &stubClient{response: goodResponse()}
	optimizer := &stubClient{err: llm.NewLLMError(llm.ErrorTypeAPI, "boom", nil)}
	e := New(config.NewConfig(), generator, optimizer, perfectJudge())

	result, err := e.Analyze(context.Background(), Submission{Text: weakPrompt, AutoOptimize: true})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Nil(t, result.Optimization)
	assert.Equal(t, 1, optimizer.schemaCalls, "the single rewrite attempt is consumed even on failure")
	require.NotNil(t, result.Metrics)
}

func TestAnalyzeRejectsIdentityRewrite(t *testing.T) {
	identity := `{"optimized_prompt": "fix code", "improvement_explanation": "unchanged", "expected_score_improvement": 0.1}`
	generator := &stubClient{response: goodResponse()}
	optimizer := &stubClient{response: &llm.Response{Text: identity}}
	e := New(config.NewConfig(), generator, optimizer, perfectJudge())

	result, err := e.Analyze(context.Background(), Submission{Text: weakPrompt, AutoOptimize: true})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Nil(t, result.Optimization, "a rewrite equal to the original is discarded")
}

func TestAnalyzeRejectsMalformedRewrite(t *testing.T) {
	generator := &stubClient{response: goodResponse()}
	optimizer := &stubClient{response: &llm.Response{Text: "sorry, I cannot help with that"}}
	e := New(config.NewConfig(), generator, optimizer, perfectJudge())

	result, err := e.Analyze(context.Background(), Submission{Text: weakPrompt, AutoOptimize: true})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Nil(t, result.Optimization)
}

func TestAnalyzeCostEstimate(t *testing.T) {
	generator := &stubClient{response: &llm.Response{
		Text:         "done",
		InputTokens:  1_000_000,
		OutputTokens: 500_000,
		TotalTokens:  1_500_000,
		LatencyMs:    50,
	}}
	e := New(config.NewConfig(), generator, &stubClient{}, perfectJudge())

	result, err := e.Analyze(context.Background(), Submission{Text: strongPrompt})
	require.NoError(t, err)

	// 1M input at $0.10/M plus 0.5M output at $0.40/M.
	assert.InDelta(t, 0.30, result.Metrics.EstimatedCostUSD, 1e-9)
}

func TestAnalyzeThresholdEvents(t *testing.T) {
	generator := &stubClient{response: &llm.Response{
		Text:         "done",
		InputTokens:  900,
		OutputTokens: 600,
		TotalTokens:  1500,
		LatencyMs:    2500,
	}}
	recorder := newCaptureRecorder()
	e := New(config.NewConfig(), generator, &stubClient{}, perfectJudge(), WithRecorder(recorder))

	_, err := e.Analyze(context.Background(), Submission{Text: strongPrompt})
	require.NoError(t, err)

	assert.Contains(t, recorder.events, "High Token Usage Detected")
	assert.Contains(t, recorder.events, "High Latency Detected")
}

func TestAnalyzeRoutesThroughClientFactory(t *testing.T) {
	cfg := config.NewConfig(config.SetAllowedModels("gpt-4o-mini", "gpt-4o"))
	defaultGen := &stubClient{response: goodResponse()}
	altGen := &stubClient{response: goodResponse(), model: "gpt-4o"}

	e := New(cfg, defaultGen, &stubClient{}, perfectJudge(),
		WithClientFactory(func(model string) (llm.Client, error) {
			assert.Equal(t, "gpt-4o", model)
			return altGen, nil
		}))

	result, err := e.Analyze(context.Background(), Submission{Text: strongPrompt, Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Zero(t, defaultGen.generateCalls)
	assert.Equal(t, 1, altGen.generateCalls)
	assert.Equal(t, "gpt-4o", result.Model)
}

func TestAnalyzeWithoutFactoryReportsServingModel(t *testing.T) {
	cfg := config.NewConfig(config.SetAllowedModels("gpt-4o-mini", "gpt-4o"))
	defaultGen := &stubClient{response: goodResponse()}
	e := New(cfg, defaultGen, &stubClient{}, perfectJudge())

	// Without a client factory the request stays on the default generator;
	// the result must report the model that actually served it.
	result, err := e.Analyze(context.Background(), Submission{Text: strongPrompt, Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, 1, defaultGen.generateCalls)
	assert.Equal(t, "stub-model", result.Model)
}

func TestAnalyzeDefaultModelSkipsFactory(t *testing.T) {
	defaultGen := &stubClient{response: goodResponse()}
	e := New(config.NewConfig(), defaultGen, &stubClient{}, perfectJudge(),
		WithClientFactory(func(string) (llm.Client, error) {
			t.Fatal("factory must not run for the default model")
			return nil, nil
		}))

	_, err := e.Analyze(context.Background(), Submission{Text: strongPrompt, Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, 1, defaultGen.generateCalls)
}

func TestAnalyzeRecordsHistory(t *testing.T) {
	store, err := history.Open(t.TempDir() + "/history.db")
	require.NoError(t, err)
	defer store.Close()

	generator := &stubClient{response: goodResponse()}
	e := New(config.NewConfig(), generator, &stubClient{}, perfectJudge(), WithHistory(store))

	result, err := e.Analyze(context.Background(), Submission{Text: strongPrompt})
	require.NoError(t, err)

	entries, err := store.Recent(5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, result.TraceID, entries[0].TraceID)
	assert.Equal(t, string(StatusSuccess), entries[0].Status)
	assert.InDelta(t, result.Metrics.AccuracyScore, entries[0].AccuracyScore, 1e-9)
}

func TestAnalyzeMetricsRounding(t *testing.T) {
	generator := &stubClient{response: &llm.Response{Text: "done", LatencyMs: 123.456789, TotalTokens: 3}}
	judge := &fixedJudge{judgment: evaluate.Judgment{Similarity: 0.123456, Hallucination: 0.987654}}
	e := New(config.NewConfig(), generator, &stubClient{}, judge)

	result, err := e.Analyze(context.Background(), Submission{Text: strongPrompt})
	require.NoError(t, err)

	assert.Equal(t, 0.1235, result.Metrics.SemanticSimilarity)
	assert.Equal(t, 0.9877, result.Metrics.HallucinationScore)
	assert.Equal(t, 123.46, result.Metrics.LatencyMs)
}

func TestDiagnosticsNamesWorstDimensions(t *testing.T) {
	got := diagnostics(extract.Dimensions{
		Specificity:      10,
		MeaningfulLength: 90,
		Context:          20,
		Clarity:          100,
		Structure:        30,
	})
	assert.Equal(t, "specificity (10/100), context (20/100), structure (30/100)", got)
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "RECEIVED", stateReceived.String())
	assert.Equal(t, "SCORED", stateScored.String())
	assert.Equal(t, "OPTIMIZATION_REQUESTED", stateOptimizationRequested.String())
	assert.Equal(t, "OPTIMIZATION_RESOLVED", stateOptimizationResolved.String())
	assert.Equal(t, "FINALIZED", stateFinalized.String())
}
