package research

import (
	"context"
	"fmt"
)

// ProcessSearch runs one search round: fetch candidates for query and
// keep those judged relevant, in the order received. Each accepted
// candidate joins the dedup context for the later candidates of the
// same round, so a round never accepts the same URL twice. A provider
// returning zero candidates is not an error; the round just yields an
// empty subset.
func (e *Engine) ProcessSearch(ctx context.Context, query string, accumulated []SearchResult) ([]SearchResult, error) {
	candidates, err := e.Searcher.Search(ctx, query, e.Config.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("%w for %q: %v", ErrSearch, query, err)
	}

	e.Logger.Info("Search round", "query", query, "candidates", len(candidates))

	evalContext := append([]SearchResult(nil), accumulated...)
	var accepted []SearchResult

	for _, candidate := range candidates {
		verdict, err := e.Evaluate(ctx, query, candidate, evalContext)
		if err != nil {
			return nil, err
		}
		if verdict != VerdictRelevant {
			e.Logger.Info("Dropping result", "url", candidate.URL, "verdict", verdict)
			continue
		}
		accepted = append(accepted, candidate)
		evalContext = append(evalContext, candidate)
	}

	return accepted, nil
}
