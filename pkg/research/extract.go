package research

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// extractLearning distills one relevant result, in the context of the
// query that found it, into a structured learning plus the follow-up
// questions it raises. Zero follow-up questions is fine; an empty
// learning is not.
func (e *Engine) extractLearning(ctx context.Context, query string, res SearchResult) (Learning, error) {
	systemPrompt := `You are a research analyst.
Extract the single most important fact the source contributes to the research query, then list follow-up questions the fact raises.`

	input := fmt.Sprintf("Query: %s\n\nSource:\nTitle: %s\nURL: %s\nContent: %s",
		query, res.Title, res.URL, res.Content)

	var learning Learning

	_, err := e.generateWithRetry(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt+"\n\n# Response Format: \n\n"+learningSchema()),
		llms.TextParts(llms.ChatMessageTypeHuman, input),
	}, func(content string) error {
		learning = Learning{}
		if err := json.Unmarshal([]byte(content), &learning); err != nil {
			return fmt.Errorf("json parse error: %w (content: %s)", err, content)
		}
		if learning.Learning == "" {
			return fmt.Errorf("empty learning")
		}
		return nil
	})

	if err != nil {
		return Learning{}, err
	}

	return learning, nil
}

func learningSchema() string {
	return `Return the JSON object directly without any formatting or additional text. The JSON object should have the following structure as defined in the schema. Make sure to answer in valid json and include all necessary properties:{
  "type": "object",
  "properties": {
    "learning": {
      "type": "string",
      "description": "The distilled fact this source contributes"
    },
    "followUpQuestions": {
      "type": "array",
      "items": {
        "type": "string"
      },
      "description": "Follow-up questions the fact raises"
    }
  },
  "required": ["learning", "followUpQuestions"]
}`
}
