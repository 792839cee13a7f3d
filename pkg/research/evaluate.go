package research

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// Evaluate classifies one candidate result as relevant or irrelevant
// to the query. A candidate whose URL already appears in accumulated
// is always irrelevant: duplicate suppression is a correctness rule
// and is never left to the model. Evaluate does not mutate shared
// state; the caller decides what to do with the verdict.
func (e *Engine) Evaluate(ctx context.Context, query string, pending SearchResult, accumulated []SearchResult) (Verdict, error) {
	if isDuplicate(pending, accumulated) {
		return VerdictIrrelevant, nil
	}

	systemPrompt := `You are a research filter.
Decide whether the candidate search result helps answer the research query.
Answer "relevant" or "irrelevant".`

	input := fmt.Sprintf("Query: %s\n\nCandidate:\nTitle: %s\nURL: %s\nContent: %s",
		query, pending.Title, pending.URL, pending.Content)

	type evalResponse struct {
		Evaluation string `json:"evaluation"`
	}
	var evalResp evalResponse

	_, err := e.generateWithRetry(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt+"\n\n# Response Format: \n\n"+evaluationSchema()),
		llms.TextParts(llms.ChatMessageTypeHuman, input),
	}, func(content string) error {
		evalResp = evalResponse{}
		if err := json.Unmarshal([]byte(content), &evalResp); err != nil {
			return fmt.Errorf("json parse error: %w (content: %s)", err, content)
		}
		if evalResp.Evaluation != string(VerdictRelevant) && evalResp.Evaluation != string(VerdictIrrelevant) {
			return fmt.Errorf("unexpected evaluation %q", evalResp.Evaluation)
		}
		return nil
	})

	if err != nil {
		return "", err
	}

	return Verdict(evalResp.Evaluation), nil
}

func evaluationSchema() string {
	return `Return the JSON object directly without any formatting or additional text. The JSON object should have the following structure as defined in the schema. Make sure to answer in valid json and include all necessary properties:{
  "type": "object",
  "properties": {
    "evaluation": {
      "type": "string",
      "enum": ["relevant", "irrelevant"],
      "description": "Whether the candidate helps answer the query"
    }
  },
  "required": ["evaluation"]
}`
}
