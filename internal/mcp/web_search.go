package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/batpad/ll-html/internal/search"
)

// --------------------- web_search ---------------------

type webSearchTool struct{ provider search.Provider }

func newWebSearchTool(p search.Provider) *webSearchTool { return &webSearchTool{provider: p} }

func (t *webSearchTool) Spec() ToolSpec {
	return ToolSpec{
		Name:        ToolWebSearch,
		Description: "Search the web for current information, data sources and API documentation. Returns ranked snippets.",
		InputSchema: json.RawMessage(`{
  "type": "object",
  "properties": {
    "query": {"type": "string", "minLength": 1},
    "limit": {"type": "integer", "minimum": 1, "maximum": 10}
  },
  "required": ["query"],
  "additionalProperties": false
}`),
	}
}

type webSearchInput struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// WebSearchObservation is the web_search result payload.
type WebSearchObservation struct {
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
}

func (t *webSearchTool) Call(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var in webSearchInput
	if err := json.Unmarshal(params, &in); err != nil {
		return nil, err
	}
	in.Query = strings.TrimSpace(in.Query)
	if in.Query == "" {
		return nil, errors.New("web_search: query required")
	}
	if in.Limit <= 0 {
		in.Limit = 5
	}
	if in.Limit > 10 {
		in.Limit = 10
	}
	results, err := t.provider.Search(ctx, in.Query, in.Limit)
	if err != nil {
		return nil, fmt.Errorf("web_search: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("web_search: no results for %q", in.Query)
	}
	return json.Marshal(WebSearchObservation{Query: in.Query, Results: results})
}
