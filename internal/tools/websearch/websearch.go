package websearch

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"graham/internal/adapters/ai"
	"graham/internal/adapters/config"
	"graham/internal/tools"
	"graham/internal/tools/shared"
	"graham/pkg/errors"
)

// Ensure SearchTool implements tools.Tool
var _ tools.Tool = (*SearchTool)(nil)

// SearchTool exposes web search to the model for qualitative research
// (management changes, litigation, competitive landscape).
type SearchTool struct {
	http   *resty.Client
	deps   shared.Deps
	apiKey string
}

// New creates the web search tool.
func New(cfg config.DataSourcesConfig, deps shared.Deps) *SearchTool {
	return &SearchTool{
		http: resty.New().
			SetBaseURL(cfg.SearchBaseURL).
			SetTimeout(30 * time.Second),
		deps:   deps,
		apiKey: cfg.SearchAPIKey,
	}
}

// Definition describes the tool for the tool-calling API.
func (t *SearchTool) Definition() ai.ToolDefinition {
	return ai.ToolDefinition{
		Name: "web_search",
		Description: "Search the web for recent qualitative information: news, management " +
			"changes, litigation, industry trends. Returns titles, URLs and snippets.",
		Properties: map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Search query",
			},
			"max_results": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum results to return (default 5)",
			},
		},
		Required: []string{"query"},
	}
}

type searchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type searchResponse struct {
	Answer  string         `json:"answer"`
	Results []searchResult `json:"results"`
}

// Execute runs one search query.
func (t *SearchTool) Execute(ctx context.Context, input map[string]interface{}) (*tools.Result, error) {
	query, _ := input["query"].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		return tools.Fail("query is required"), nil
	}

	maxResults := 5
	if n, ok := input["max_results"].(float64); ok && n > 0 {
		maxResults = int(n)
	}

	if t.apiKey == "" {
		return tools.Fail("web search is not configured"), nil
	}

	resp, err := t.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"api_key":     t.apiKey,
			"query":       query,
			"max_results": maxResults,
		}).
		Post("/search")
	if err != nil {
		return tools.Fail(errors.Wrap(err, "search request").Error()), nil
	}
	if resp.StatusCode() != 200 {
		return tools.Fail(errors.Newf("search API error %d", resp.StatusCode()).Error()), nil
	}

	var parsed searchResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return tools.Fail(errors.Wrap(err, "parse search response").Error()), nil
	}

	t.deps.Log.Debugw("Web search completed", "query", query, "results", len(parsed.Results))

	return tools.Ok(map[string]interface{}{
		"query":   query,
		"answer":  parsed.Answer,
		"results": parsed.Results,
	}), nil
}
