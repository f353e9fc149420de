package evaluate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/promptpilot/promptpilot/internal/jsonutil"
	"github.com/promptpilot/promptpilot/llm"
)

const judgeTemplate = `Analyze this response for relevance and potential hallucinations or unsupported claims.

Original question/prompt: %s

Response to analyze: %s
%s
Rate two things:
- "similarity": how semantically close the response is to what was asked, from 0.0 (unrelated) to 1.0 (directly on target)
- "hallucination": the hallucination risk, from 0.0 (factually grounded) to 1.0 (likely fabricated)

Respond ONLY with a JSON object of the form {"similarity": <number>, "hallucination": <number>}.`

// uncertainScore is reported for a signal the judge model answered with
// something unparseable.
const uncertainScore = 0.5

// ModelJudge grades responses by asking a generation capability to rate
// them. Unparseable verdicts degrade to moderate uncertainty rather than
// failing the evaluation.
type ModelJudge struct {
	client llm.Client
}

// NewModelJudge creates a judge backed by the given client.
func NewModelJudge(client llm.Client) *ModelJudge {
	return &ModelJudge{client: client}
}

func (j *ModelJudge) Judge(ctx context.Context, prompt, response, expected string) (Judgment, error) {
	var expectedSection string
	if expected != "" {
		expectedSection = fmt.Sprintf("\nExpected response for reference: %s\n", expected)
	}

	verdict, err := j.client.Generate(ctx, fmt.Sprintf(judgeTemplate, prompt, response, expectedSection))
	if err != nil {
		return Judgment{}, fmt.Errorf("judge call failed: %w", err)
	}

	var parsed struct {
		Similarity    *float64 `json:"similarity"`
		Hallucination *float64 `json:"hallucination"`
	}
	if err := json.Unmarshal([]byte(jsonutil.CleanResponse(verdict.Text)), &parsed); err != nil {
		return Judgment{Similarity: uncertainScore, Hallucination: uncertainScore}, nil
	}

	judgment := Judgment{Similarity: uncertainScore, Hallucination: uncertainScore}
	if parsed.Similarity != nil {
		judgment.Similarity = *parsed.Similarity
	}
	if parsed.Hallucination != nil {
		judgment.Hallucination = *parsed.Hallucination
	}
	return judgment, nil
}
