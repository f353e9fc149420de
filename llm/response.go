package llm

// Response is the result of one generation call, with token usage resolved
// (reported by the provider, or estimated when the provider omits usage
// metadata) and wall-clock latency attached.
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	LatencyMs    float64
}
