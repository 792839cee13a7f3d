package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestEvaluateSuppressesDuplicates(t *testing.T) {
	llm := &fakeLLM{respond: func(prompt string) (string, error) {
		return "", fmt.Errorf("LLM must not be consulted for a duplicate URL")
	}}
	engine := NewEngine(Config{}, llm, &stubSearcher{})

	candidate := SearchResult{Title: "Doc", URL: "https://example.com/doc"}
	accumulated := []SearchResult{{Title: "Earlier copy", URL: "https://example.com/doc"}}

	// Idempotent: the same duplicate evaluates to irrelevant every
	// time.
	for i := 0; i < 2; i++ {
		verdict, err := engine.Evaluate(context.Background(), "query", candidate, accumulated)
		if err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}
		if verdict != VerdictIrrelevant {
			t.Errorf("Evaluate() pass %d = %q, want irrelevant", i+1, verdict)
		}
	}

	if llm.calls != 0 {
		t.Errorf("LLM called %d times for duplicate, want 0", llm.calls)
	}
}

func TestEvaluateParsesVerdict(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   Verdict
	}{
		{"Relevant", `{"evaluation": "relevant"}`, VerdictRelevant},
		{"Irrelevant", `{"evaluation": "irrelevant"}`, VerdictIrrelevant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLLM{respond: func(string) (string, error) { return tt.answer, nil }}
			engine := NewEngine(Config{}, llm, &stubSearcher{})

			verdict, err := engine.Evaluate(context.Background(), "query",
				SearchResult{URL: "https://example.com/new"}, nil)
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if verdict != tt.want {
				t.Errorf("Evaluate() = %q, want %q", verdict, tt.want)
			}
		})
	}
}

func TestEvaluateRejectsUnknownLabel(t *testing.T) {
	llm := &fakeLLM{respond: func(string) (string, error) {
		return `{"evaluation": "maybe"}`, nil
	}}
	engine := NewEngine(Config{}, llm, &stubSearcher{})

	_, err := engine.Evaluate(context.Background(), "query",
		SearchResult{URL: "https://example.com/new"}, nil)
	if !errors.Is(err, ErrGeneration) {
		t.Errorf("Evaluate() error = %v, want ErrGeneration", err)
	}
}

func TestProcessSearchKeepsRelevantInOrder(t *testing.T) {
	candidates := []SearchResult{
		{Title: "Keep 1", URL: "https://example.com/1"},
		{Title: "Drop", URL: "https://example.com/2"},
		{Title: "Keep 2", URL: "https://example.com/3"},
	}
	searcher := &stubSearcher{results: map[string][]SearchResult{"q": candidates}}

	llm := &fakeLLM{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "https://example.com/2") {
			return `{"evaluation": "irrelevant"}`, nil
		}
		return `{"evaluation": "relevant"}`, nil
	}}

	engine := NewEngine(Config{MaxResults: 3}, llm, searcher)
	accepted, err := engine.ProcessSearch(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("ProcessSearch() error = %v", err)
	}

	if len(accepted) != 2 {
		t.Fatalf("accepted length = %d, want 2", len(accepted))
	}
	if accepted[0].URL != "https://example.com/1" || accepted[1].URL != "https://example.com/3" {
		t.Errorf("accepted order = %q, %q", accepted[0].URL, accepted[1].URL)
	}
}

func TestProcessSearchDeduplicatesWithinRound(t *testing.T) {
	// The provider returns the same URL twice in one round; the
	// second occurrence must be suppressed because the first
	// acceptance joins the evaluation context.
	candidates := []SearchResult{
		{Title: "Doc", URL: "https://example.com/doc"},
		{Title: "Doc again", URL: "https://example.com/doc"},
	}
	searcher := &stubSearcher{results: map[string][]SearchResult{"q": candidates}}
	llm := &fakeLLM{respond: func(string) (string, error) {
		return `{"evaluation": "relevant"}`, nil
	}}

	engine := NewEngine(Config{}, llm, searcher)
	accepted, err := engine.ProcessSearch(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("ProcessSearch() error = %v", err)
	}

	if len(accepted) != 1 {
		t.Errorf("accepted length = %d, want 1", len(accepted))
	}
}

func TestProcessSearchEmptyRoundIsNotAnError(t *testing.T) {
	searcher := &stubSearcher{}
	llm := &fakeLLM{respond: func(string) (string, error) {
		return "", fmt.Errorf("no candidates means no evaluations")
	}}

	engine := NewEngine(Config{}, llm, searcher)
	accepted, err := engine.ProcessSearch(context.Background(), "nothing", nil)
	if err != nil {
		t.Fatalf("ProcessSearch() error = %v", err)
	}
	if len(accepted) != 0 {
		t.Errorf("accepted length = %d, want 0", len(accepted))
	}
	if llm.calls != 0 {
		t.Errorf("LLM called %d times with zero candidates, want 0", llm.calls)
	}
}

func TestProcessSearchWrapsSearchError(t *testing.T) {
	searcher := &stubSearcher{err: fmt.Errorf("connection refused")}
	engine := NewEngine(Config{}, &fakeLLM{respond: func(string) (string, error) { return "", nil }}, searcher)

	_, err := engine.ProcessSearch(context.Background(), "q", nil)
	if !errors.Is(err, ErrSearch) {
		t.Errorf("ProcessSearch() error = %v, want ErrSearch", err)
	}
}
