package research

import (
	"encoding/json"
	"testing"
)

func TestIsDuplicate(t *testing.T) {
	existing := []SearchResult{
		{Title: "A", URL: "https://example.com/a"},
		{Title: "B", URL: "https://example.com/b"},
	}

	tests := []struct {
		name      string
		candidate SearchResult
		want      bool
	}{
		{"Known URL", SearchResult{URL: "https://example.com/a"}, true},
		{"Known URL different title", SearchResult{Title: "Other", URL: "https://example.com/b"}, true},
		{"Unknown URL", SearchResult{URL: "https://example.com/c"}, false},
		{"Empty existing handled by caller", SearchResult{URL: ""}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDuplicate(tt.candidate, existing); got != tt.want {
				t.Errorf("isDuplicate(%q) = %v, want %v", tt.candidate.URL, got, tt.want)
			}
		})
	}

	if isDuplicate(SearchResult{URL: "https://example.com/a"}, nil) {
		t.Error("isDuplicate against empty set = true, want false")
	}
}

func TestRecordAddResult(t *testing.T) {
	rec := NewRecord()

	first := SearchResult{Title: "First", URL: "https://example.com/1"}
	dup := SearchResult{Title: "Other title, same URL", URL: "https://example.com/1"}
	second := SearchResult{Title: "Second", URL: "https://example.com/2"}

	if !rec.AddResult(first) {
		t.Error("AddResult(first) = false, want true")
	}
	if rec.AddResult(dup) {
		t.Error("AddResult(dup) = true, want false")
	}
	if !rec.AddResult(second) {
		t.Error("AddResult(second) = false, want true")
	}

	results := rec.SearchResults()
	if len(results) != 2 {
		t.Fatalf("SearchResults length = %d, want 2", len(results))
	}
	if results[0].URL != first.URL || results[1].URL != second.URL {
		t.Errorf("append order broken: got %q, %q", results[0].URL, results[1].URL)
	}

	if !rec.HasURL("https://example.com/1") {
		t.Error("HasURL(known) = false, want true")
	}
	if rec.HasURL("https://example.com/3") {
		t.Error("HasURL(unknown) = true, want false")
	}
}

func TestRecordQuerySetOnce(t *testing.T) {
	rec := NewRecord()
	rec.setQueryOnce("first")
	rec.setQueryOnce("second")

	if got := rec.Query(); got != "first" {
		t.Errorf("Query() = %q, want %q", got, "first")
	}
}

func TestRecordQueriesOverwrite(t *testing.T) {
	rec := NewRecord()
	rec.SetQueries([]string{"a", "b"})
	rec.SetQueries([]string{"c"})

	got := rec.Queries()
	if len(got) != 1 || got[0] != "c" {
		t.Errorf("Queries() = %v, want [c]", got)
	}
}

func TestRecordJSONRoundTrip(t *testing.T) {
	rec := NewRecord()
	rec.setQueryOnce("topic")
	rec.SetQueries([]string{"sub"})
	rec.AddResult(SearchResult{Title: "T", URL: "https://example.com/t", Content: "c"})
	rec.AddLearning("sub", Learning{Learning: "fact", FollowUpQuestions: []string{"q"}})

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	// Wire field names are part of the payload contract
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal raw: %v", err)
	}
	for _, field := range []string{"query", "queries", "searchResults", "learnings", "completedQueries"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("serialized record missing field %q", field)
		}
	}

	var back Record
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal record: %v", err)
	}
	if back.Query() != "topic" {
		t.Errorf("round-trip Query() = %q, want %q", back.Query(), "topic")
	}
	if len(back.SearchResults()) != 1 || len(back.Learnings()) != 1 {
		t.Errorf("round-trip lost entries")
	}

	// The seen-URL index must be rebuilt on unmarshal
	if back.AddResult(SearchResult{URL: "https://example.com/t"}) {
		t.Error("AddResult(existing URL) after round-trip = true, want false")
	}
}
