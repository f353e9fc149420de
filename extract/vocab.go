package extract

// DefaultVocabulary returns the authoritative lookup tables used in
// production. The tables are the contract: scenario expectations in the
// tests are derived from these exact word lists.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Stopwords:      newSet(stopwords...),
		TechnicalTerms: newSet(technicalTerms...),
		VagueWords:     newSet(vagueWords...),
	}
}

func newSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// stopwords are articles, pronouns, auxiliaries, common prepositions and
// conjunctions, and politeness markers. They carry no signal and are removed
// before any counting.
var stopwords = []string{
	// articles and demonstratives
	"a", "an", "the", "this", "that", "these", "those",
	// pronouns
	"i", "me", "my", "mine", "you", "your", "yours", "he", "him", "his",
	"she", "her", "hers", "it", "its", "we", "us", "our", "ours",
	"they", "them", "their", "theirs",
	// auxiliaries and modals
	"am", "is", "are", "was", "were", "be", "been", "being",
	"can", "could", "will", "would", "shall", "should", "may", "might", "must",
	// prepositions and conjunctions
	"to", "of", "in", "on", "at", "for", "with", "from", "by", "about",
	"into", "and", "or", "but", "so", "if", "then", "as",
	// politeness markers
	"please", "thanks", "thank", "kindly", "hey", "hi", "hello",
}

// technicalTerms is the curated vocabulary of domain keywords, named
// technologies, and action verbs that count toward specificity. Deliberately
// absent: generic words like "code" or "program" that appear in even the
// vaguest prompts.
var technicalTerms = []string{
	// data formats and query languages
	"json", "xml", "yaml", "csv", "markdown", "sql", "regex", "regexp",
	"schema", "query", "dataframe",
	// languages and platforms
	"python", "golang", "go", "javascript", "typescript", "java", "rust",
	"ruby", "kotlin", "swift", "bash", "html", "css",
	// protocols and web
	"http", "https", "rest", "grpc", "graphql", "api", "endpoint", "url",
	"websocket", "oauth", "jwt",
	// programming constructs
	"function", "method", "class", "struct", "interface", "module",
	"array", "list", "map", "string", "integer", "boolean", "enum",
	"variable", "parameter", "argument", "recursion", "loop", "pointer",
	// systems and infrastructure
	"database", "postgres", "mysql", "sqlite", "redis", "docker",
	"kubernetes", "linux", "server", "client", "cache", "queue", "kafka",
	"thread", "goroutine", "mutex", "async", "concurrency",
	"latency", "throughput", "pipeline",
	// ML and LLM
	"model", "llm", "embedding", "vector", "token", "prompt", "dataset",
	"classifier", "regression", "neural", "transformer",
	// action verbs
	"implement", "refactor", "optimize", "debug", "compile", "deploy",
	"parse", "validate", "serialize", "normalize", "annotate", "benchmark",
	"summarize", "translate", "classify", "generate", "calculate",
	"convert", "sort", "filter", "merge", "migrate",
}

// vagueWords are non-actionable filler terms; every occurrence costs
// clarity points.
var vagueWords = []string{
	"fix", "help", "thing", "things", "do", "stuff", "something",
	"anything", "whatever", "somehow", "etc",
}
