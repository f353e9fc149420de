package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/segmentio/encoding/json"

	"github.com/promptpilot/promptpilot/extract"
	"github.com/promptpilot/promptpilot/internal/jsonutil"
)

const rewriteTemplate = `You are an expert prompt engineer. Your task is to optimize prompts for better clarity, specificity, and effectiveness.

When optimizing a prompt:
1. Add specific context and constraints
2. Clarify ambiguous language
3. Structure the request clearly
4. Reduce verbosity while maintaining meaning
5. Add output format specifications if helpful

Original prompt: %s

Current accuracy score: %.2f

Weakest scoring dimensions: %s

Rewrite this prompt to achieve a higher accuracy score. Respond with a JSON object containing:
- "optimized_prompt": the improved prompt (it must differ from the original)
- "improvement_explanation": a brief explanation of what you changed and why
- "expected_score_improvement": a number from 0.0 to 1.0 indicating expected score improvement`

var rewriteValidate = validator.New()

// rewriteSchema is generated once from the Optimization struct and sent to
// providers with native schema support.
var rewriteSchema = func() *jsonschema.Schema {
	reflector := jsonschema.Reflector{DoNotReference: true}
	return reflector.Reflect(&Optimization{})
}()

// rewrite issues the single bounded rewrite call. The result is an
// estimate: it is deliberately not re-scored within the same analysis, so
// one analysis can never trigger a second rewrite.
func (e *Engine) rewrite(ctx context.Context, original string, accuracy float64, dims extract.Dimensions) (*Optimization, error) {
	prompt := fmt.Sprintf(rewriteTemplate, original, accuracy, diagnostics(dims))

	response, err := e.optimizer.GenerateWithSchema(ctx, prompt, rewriteSchema)
	if err != nil {
		return nil, fmt.Errorf("rewrite call failed: %w", err)
	}

	var opt Optimization
	if err := json.Unmarshal([]byte(jsonutil.CleanResponse(response.Text)), &opt); err != nil {
		return nil, fmt.Errorf("rewrite response is not valid JSON: %w", err)
	}
	if err := rewriteValidate.Struct(&opt); err != nil {
		return nil, fmt.Errorf("rewrite payload invalid: %w", err)
	}
	if opt.OptimizedPrompt == original {
		return nil, fmt.Errorf("rewrite returned the original prompt unchanged")
	}
	return &opt, nil
}

// diagnostics names the dimensions most responsible for the low score,
// worst first, to steer the rewrite.
func diagnostics(dims extract.Dimensions) string {
	type signal struct {
		name  string
		score float64
	}
	signals := []signal{
		{"specificity", dims.Specificity},
		{"meaningful_length", dims.MeaningfulLength},
		{"context", dims.Context},
		{"clarity", dims.Clarity},
		{"structure", dims.Structure},
	}
	sort.Slice(signals, func(i, j int) bool { return signals[i].score < signals[j].score })

	parts := make([]string, 0, 3)
	for _, s := range signals[:3] {
		parts = append(parts, fmt.Sprintf("%s (%.0f/100)", s.name, s.score))
	}
	return strings.Join(parts, ", ")
}
