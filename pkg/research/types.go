package research

// Config holds runtime configuration for the engine
type Config struct {
	// MaxResults caps how many candidates one search round requests
	// from the search provider.
	MaxResults int
}

// SearchResult is one document returned by the web search capability.
// Its URL is its identity for deduplication; results are immutable
// once created.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Learning is a distilled fact extracted from one relevant result,
// together with the follow-up questions it raises.
type Learning struct {
	Learning          string   `json:"learning"`
	FollowUpQuestions []string `json:"followUpQuestions"`
}

// Budget bounds one recursion frame. Depth is the number of remaining
// expansion levels; Breadth is how many sub-queries the next
// expansion may request.
type Budget struct {
	Depth   int `json:"depth"`
	Breadth int `json:"breadth"`
}

// Next returns the budget for child frames: one less level of depth,
// half the breadth rounded up. Breadth never drops below one so an
// expansion is never asked for zero queries.
func (b Budget) Next() Budget {
	breadth := (b.Breadth + 1) / 2
	if breadth < 1 {
		breadth = 1
	}
	return Budget{Depth: b.Depth - 1, Breadth: breadth}
}

// Verdict is the binary relevance classification of one candidate.
type Verdict string

const (
	VerdictRelevant   Verdict = "relevant"
	VerdictIrrelevant Verdict = "irrelevant"
)
