package research

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// RenderReport produces the final markdown report from a fully
// accumulated record. One generation call, no recursion, no shared
// state.
func (e *Engine) RenderReport(ctx context.Context, rec *Record) (string, error) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize record: %w", err)
	}

	prompt := fmt.Sprintf(`Write a comprehensive research report answering "%s".
Use the accumulated research record below. Cite the collected sources by URL.

%s

Format as Markdown with these sections: Summary, Key Findings, Recommendations, Next Steps, References.`,
		rec.Query(), data)

	resp, err := e.LLM.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty report response", ErrGeneration)
	}

	report := resp.Choices[0].Content
	e.Logger.Info("Final report generated", "length", len(report))
	return report, nil
}
