package research

import (
	"encoding/json"
	"sync"
)

// Record is the single shared research aggregate for one top-level
// request. It is created once, threaded through every recursive
// frame, and never copied. All mutation happens under its mutex, so
// the record stays consistent even if a caller runs sibling branches
// concurrently.
type Record struct {
	mu               sync.Mutex
	query            string
	queries          []string
	searchResults    []SearchResult
	learnings        []Learning
	completedQueries []string
	seen             map[string]bool
}

func NewRecord() *Record {
	return &Record{seen: make(map[string]bool)}
}

// setQueryOnce records the top-level query. Only the first call in
// the recursion tree takes effect; reflection queries from deeper
// frames never overwrite it.
func (r *Record) setQueryOnce(query string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.query == "" {
		r.query = query
	}
}

func (r *Record) Query() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.query
}

// SetQueries overwrites the sub-query batch. The field holds only the
// most recent expansion; earlier levels' batches are discarded.
func (r *Record) SetQueries(queries []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append([]string(nil), queries...)
}

func (r *Record) Queries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

// SearchResults returns a snapshot of the accumulated results.
func (r *Record) SearchResults() []SearchResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SearchResult(nil), r.searchResults...)
}

func (r *Record) Learnings() []Learning {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Learning(nil), r.learnings...)
}

func (r *Record) CompletedQueries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.completedQueries...)
}

// HasURL reports whether a result with the given URL has already been
// accumulated.
func (r *Record) HasURL(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen[url]
}

// AddResult appends res unless its URL is already present, and
// reports whether the result was appended. The check and the append
// happen under one lock acquisition: a candidate that passed
// evaluation against a stale snapshot still cannot produce a
// duplicate entry.
func (r *Record) AddResult(res SearchResult) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[res.URL] {
		return false
	}
	r.seen[res.URL] = true
	r.searchResults = append(r.searchResults, res)
	return true
}

// AddLearning appends the learning and logs the sub-query that
// produced it, keeping learnings[i] and completedQueries[i] aligned.
func (r *Record) AddLearning(subQuery string, learning Learning) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.learnings = append(r.learnings, learning)
	r.completedQueries = append(r.completedQueries, subQuery)
}

type recordJSON struct {
	Query            string         `json:"query"`
	Queries          []string       `json:"queries"`
	SearchResults    []SearchResult `json:"searchResults"`
	Learnings        []Learning     `json:"learnings"`
	CompletedQueries []string       `json:"completedQueries"`
}

func (r *Record) MarshalJSON() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return json.Marshal(recordJSON{
		Query:            r.query,
		Queries:          r.queries,
		SearchResults:    r.searchResults,
		Learnings:        r.learnings,
		CompletedQueries: r.completedQueries,
	})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var rec recordJSON
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.query = rec.Query
	r.queries = rec.Queries
	r.searchResults = rec.SearchResults
	r.learnings = rec.Learnings
	r.completedQueries = rec.CompletedQueries
	r.seen = make(map[string]bool, len(rec.SearchResults))
	for _, res := range rec.SearchResults {
		r.seen[res.URL] = true
	}
	return nil
}

// isDuplicate reports whether candidate's URL already appears in
// existing.
func isDuplicate(candidate SearchResult, existing []SearchResult) bool {
	for _, res := range existing {
		if res.URL == candidate.URL {
			return true
		}
	}
	return false
}
