package server

import (
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/segmentio/encoding/json"

	"github.com/promptpilot/promptpilot/engine"
	"github.com/promptpilot/promptpilot/extract"
)

var validate = validator.New()

// AnalyzeRequest is the wire shape of one analysis request. AutoOptimize
// defaults to true when omitted.
type AnalyzeRequest struct {
	Prompt           string `json:"prompt" validate:"required,max=10000"`
	ExpectedResponse string `json:"expected_response,omitempty"`
	AutoOptimize     *bool  `json:"auto_optimize,omitempty"`
	Model            string `json:"model,omitempty"`
}

// MetricsPayload carries both the response-dependent metrics and the
// heuristic prompt-quality figures, which survive generation failures.
type MetricsPayload struct {
	AccuracyScore      float64            `json:"accuracy_score"`
	SemanticSimilarity float64            `json:"semantic_similarity"`
	HallucinationScore float64            `json:"hallucination_score"`
	PromptQualityScore float64            `json:"prompt_quality_score"`
	Dimensions         extract.Dimensions `json:"dimensions"`
	InputTokens        int                `json:"input_tokens"`
	OutputTokens       int                `json:"output_tokens"`
	TotalTokens        int                `json:"total_tokens"`
	LatencyMs          float64            `json:"latency_ms"`
	EstimatedCostUSD   float64            `json:"estimated_cost_usd"`
}

// AnalyzeResponse is the wire shape of one analysis result.
type AnalyzeResponse struct {
	OriginalPrompt string               `json:"original_prompt"`
	Model          string               `json:"model"`
	LLMResponse    string               `json:"llm_response,omitempty"`
	Metrics        MetricsPayload       `json:"metrics"`
	Optimization   *engine.Optimization `json:"optimization,omitempty"`
	TraceID        string               `json:"trace_id"`
	Status         string               `json:"status"`
	Error          string               `json:"error,omitempty"`
}

// ErrorResponse is returned for requests rejected before analysis.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// HealthResponse reports component status.
type HealthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "failed to read request body"})
		return
	}

	var req AnalyzeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON", Detail: err.Error()})
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request", Detail: err.Error()})
		return
	}

	autoOptimize := true
	if req.AutoOptimize != nil {
		autoOptimize = *req.AutoOptimize
	}

	result, err := s.engine.Analyze(r.Context(), engine.Submission{
		Text:             req.Prompt,
		AutoOptimize:     autoOptimize,
		Model:            req.Model,
		ExpectedResponse: req.ExpectedResponse,
	})
	if err != nil {
		if engine.IsValidationError(err) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		s.logger.Error("Analysis failed unexpectedly", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "analysis failed"})
		return
	}

	writeJSON(w, http.StatusOK, toAnalyzeResponse(result))
}

func toAnalyzeResponse(result *engine.Result) AnalyzeResponse {
	resp := AnalyzeResponse{
		OriginalPrompt: result.OriginalPrompt,
		Model:          result.Model,
		LLMResponse:    result.ResponseText,
		Optimization:   result.Optimization,
		TraceID:        result.TraceID,
		Status:         string(result.Status),
		Metrics: MetricsPayload{
			PromptQualityScore: result.PromptQuality,
			Dimensions:         result.Dimensions,
		},
	}
	if result.Metrics != nil {
		resp.Metrics.AccuracyScore = result.Metrics.AccuracyScore
		resp.Metrics.SemanticSimilarity = result.Metrics.SemanticSimilarity
		resp.Metrics.HallucinationScore = result.Metrics.HallucinationScore
		resp.Metrics.InputTokens = result.Metrics.InputTokens
		resp.Metrics.OutputTokens = result.Metrics.OutputTokens
		resp.Metrics.TotalTokens = result.Metrics.TotalTokens
		resp.Metrics.LatencyMs = result.Metrics.LatencyMs
		resp.Metrics.EstimatedCostUSD = result.Metrics.EstimatedCostUSD
	}
	if result.Status == engine.StatusError {
		resp.Error = result.ErrorCode + ": " + result.ErrorMessage
	}
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "healthy",
		Service:  s.cfg.Service,
		Provider: s.cfg.Provider,
		Model:    s.cfg.Model,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are already out; nothing sensible left to do.
		return
	}
}
