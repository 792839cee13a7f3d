package research

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// expandQueries asks the model for up to breadth sibling sub-queries
// broadening coverage of the research goal. It returns between 1 and
// breadth queries; an empty expansion would silently truncate the
// whole research tree, so zero queries is a generation error.
func (e *Engine) expandQueries(ctx context.Context, query string, breadth int) ([]string, error) {
	systemPrompt := fmt.Sprintf(`You are a research planner.
Generate up to %d distinct web search queries that together broaden coverage of the research goal.`, breadth)

	input := fmt.Sprintf("Research goal: %s", query)

	type queryResponse struct {
		Queries []string `json:"queries"`
	}
	var queryResp queryResponse

	_, err := e.generateWithRetry(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt+"\n\n# Response Format: \n\n"+searchQueriesSchema()),
		llms.TextParts(llms.ChatMessageTypeHuman, input),
	}, func(content string) error {
		// Reset for retry
		queryResp = queryResponse{}

		if err := json.Unmarshal([]byte(content), &queryResp); err != nil {
			return fmt.Errorf("json parse error: %w (content: %s)", err, content)
		}
		if len(queryResp.Queries) == 0 {
			return fmt.Errorf("empty queries list")
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	queries := queryResp.Queries
	if len(queries) > breadth {
		queries = queries[:breadth]
	}

	e.Logger.Info("Generated sub-queries", "query", query, "queries", queries)
	return queries, nil
}

func searchQueriesSchema() string {
	return `Return the JSON object directly without any formatting or additional text. The JSON object should have the following structure as defined in the schema. Make sure to answer in valid json and include all necessary properties:{
  "type": "object",
  "properties": {
    "queries": {
      "type": "array",
      "items": {
        "type": "string"
      },
      "description": "List of specific web search queries"
    }
  },
  "required": ["queries"]
}`
}
