package filings

import (
	"context"
	"strings"
	"time"

	"graham/internal/adapters/ai"
	"graham/internal/tools"
)

// Ensure FilingTool implements tools.Tool
var _ tools.Tool = (*FilingTool)(nil)

// FilingTool exposes SEC filing retrieval to the model. The deep-dive
// controller also calls the client directly so historical years are always
// fetched as MD&A-only regardless of what the model asks for.
type FilingTool struct {
	client *Client
}

// NewTool wraps a client as a model-callable tool.
func NewTool(client *Client) *FilingTool {
	return &FilingTool{client: client}
}

// Definition describes the tool for the tool-calling API.
func (t *FilingTool) Definition() ai.ToolDefinition {
	return ai.ToolDefinition{
		Name: "fetch_filing",
		Description: "Fetch an SEC filing for a ticker. filing_type is the EDGAR form " +
			"(10-K, 10-Q, DEF 14A). section is 'full' for the whole document or 'mda' " +
			"for Management's Discussion & Analysis only. year is the fiscal year.",
		Properties: map[string]interface{}{
			"ticker": map[string]interface{}{
				"type":        "string",
				"description": "Stock ticker symbol",
			},
			"filing_type": map[string]interface{}{
				"type": "string",
				"enum": []string{"10-K", "10-Q", "DEF 14A"},
			},
			"section": map[string]interface{}{
				"type": "string",
				"enum": []string{"full", "mda"},
			},
			"year": map[string]interface{}{
				"type":        "integer",
				"description": "Fiscal year, defaults to the most recent",
			},
		},
		Required: []string{"ticker", "filing_type"},
	}
}

// Execute fetches one filing.
func (t *FilingTool) Execute(ctx context.Context, input map[string]interface{}) (*tools.Result, error) {
	ticker, _ := input["ticker"].(string)
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return tools.Fail("ticker is required"), nil
	}

	filingType, _ := input["filing_type"].(string)
	if filingType == "" {
		return tools.Fail("filing_type is required"), nil
	}

	section, _ := input["section"].(string)
	if section == "" {
		section = "full"
	}
	if section != "full" && section != "mda" {
		return tools.Fail("section must be 'full' or 'mda'"), nil
	}

	year := time.Now().Year() - 1
	if y, ok := input["year"].(float64); ok && y > 0 {
		year = int(y)
	}

	filing, err := t.client.FetchFiling(ctx, ticker, filingType, section, year)
	if err != nil {
		return tools.Fail(err.Error()), nil
	}
	return tools.Ok(filing), nil
}
