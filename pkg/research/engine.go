package research

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/llms"
)

// Searcher is the web search capability consumed by the engine.
type Searcher interface {
	Search(ctx context.Context, query string, max int) ([]SearchResult, error)
}

// RoundProcessor runs the search-and-evaluate half of the pipeline.
// The engine itself is the in-process implementation; peer.Client
// forwards both calls to a remote worker. The orchestrator never
// cares which one it holds.
type RoundProcessor interface {
	ProcessSearch(ctx context.Context, query string, accumulated []SearchResult) ([]SearchResult, error)
	Evaluate(ctx context.Context, query string, pending SearchResult, accumulated []SearchResult) (Verdict, error)
}

// Archiver stores an accepted source for later retrieval. A nil
// archiver disables archiving.
type Archiver interface {
	Archive(ctx context.Context, res SearchResult) error
}

// Engine drives the recursive research pipeline.
type Engine struct {
	Config   Config
	LLM      llms.Model
	Searcher Searcher
	Rounds   RoundProcessor
	Archiver Archiver
	Logger   *slog.Logger
	OnUpdate func(rec *Record)
}

func NewEngine(cfg Config, llm llms.Model, searcher Searcher) *Engine {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 3
	}
	e := &Engine{
		Config:   cfg,
		LLM:      llm,
		Searcher: searcher,
		Logger:   slog.Default(),
	}
	e.Rounds = e
	return e
}

// generateWithRetry attempts to generate content and validates it
// using the provided function. It retries up to 3 times if the LLM
// fails or the validator rejects the output. This is the only retry
// site in the pipeline; the orchestrator itself never retries.
func (e *Engine) generateWithRetry(ctx context.Context, prompts []llms.MessageContent, validator func(string) error) (string, error) {
	maxRetries := 3
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			e.Logger.Warn("Retrying LLM generation", "attempt", i+1, "last_error", lastErr)
			time.Sleep(time.Second * time.Duration(i)) // Linear backoff
		}

		resp, err := e.LLM.GenerateContent(ctx, prompts, llms.WithJSONMode())
		if err != nil {
			lastErr = fmt.Errorf("llm generation failed: %w", err)
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("llm returned no choices")
			continue
		}

		content := resp.Choices[0].Content
		if err := validator(content); err != nil {
			lastErr = fmt.Errorf("validation failed: %w", err)
			continue
		}

		return content, nil
	}

	return "", fmt.Errorf("%w after %d attempts: %v", ErrGeneration, maxRetries, lastErr)
}
