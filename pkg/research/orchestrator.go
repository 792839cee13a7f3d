package research

import (
	"context"
	"fmt"
	"strings"
)

// Run executes the full recursive research tree for query under the
// given budget and returns the accumulated record. On error the
// returned record holds whatever state had accumulated when the
// failure surfaced; callers should treat it as diagnostic only, there
// is no partial-report path.
func (e *Engine) Run(ctx context.Context, query string, budget Budget) (*Record, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query must not be empty", ErrValidation)
	}
	if budget.Depth < 0 {
		return nil, fmt.Errorf("%w: depth must not be negative", ErrValidation)
	}
	if budget.Breadth < 1 {
		return nil, fmt.Errorf("%w: breadth must be at least 1", ErrValidation)
	}

	e.Logger.Info("Starting research", "query", query, "depth", budget.Depth, "breadth", budget.Breadth)

	rec := NewRecord()
	if err := e.research(ctx, rec, query, budget); err != nil {
		return rec, err
	}

	e.Logger.Info("Research complete",
		"results", len(rec.SearchResults()),
		"learnings", len(rec.Learnings()))
	return rec, nil
}

// research is one recursion frame over (query, budget), mutating the
// shared record. Termination: depth strictly decreases every level
// and the depth-zero base case returns without expanding.
func (e *Engine) research(ctx context.Context, rec *Record, query string, budget Budget) error {
	rec.setQueryOnce(query)

	if budget.Depth == 0 {
		return nil
	}

	subQueries, err := e.expandQueries(ctx, query, budget.Breadth)
	if err != nil {
		return err
	}
	rec.SetQueries(subQueries)

	for _, subQuery := range subQueries {
		accepted, err := e.Rounds.ProcessSearch(ctx, subQuery, rec.SearchResults())
		if err != nil {
			return err
		}

		for _, res := range accepted {
			// Re-check against the now-current set: the round judged
			// the candidate against a snapshot, and the record may
			// have grown since.
			if !rec.AddResult(res) {
				e.Logger.Info("Dropping duplicate result", "url", res.URL)
				continue
			}

			e.archive(ctx, res)

			learning, err := e.extractLearning(ctx, subQuery, res)
			if err != nil {
				return err
			}
			rec.AddLearning(subQuery, learning)

			if e.OnUpdate != nil {
				e.OnUpdate(rec)
			}

			next := reflectionQuery(rec, learning)
			if err := e.research(ctx, rec, next, budget.Next()); err != nil {
				return err
			}
		}
	}

	return nil
}

// reflectionQuery builds the query for the child frame from the
// original goal, the full completed-query log, and the follow-up
// questions of the learning being pursued.
func reflectionQuery(rec *Record, learning Learning) string {
	return fmt.Sprintf(
		"Original research goal: %s\nQueries already completed: %s\nFollow-up questions to investigate: %s",
		rec.Query(),
		strings.Join(rec.CompletedQueries(), "; "),
		strings.Join(learning.FollowUpQuestions, "; "),
	)
}

// archive stores an accepted source if an archiver is configured.
// Archiving is supplemental; a failed archive never aborts the
// research request.
func (e *Engine) archive(ctx context.Context, res SearchResult) {
	if e.Archiver == nil {
		return
	}
	if err := e.Archiver.Archive(ctx, res); err != nil {
		e.Logger.Error("Failed to archive source", "url", res.URL, "error", err)
	}
}
