package fundata

import (
	"context"
	"strings"

	"graham/internal/adapters/ai"
	"graham/internal/tools"
)

// Ensure FinancialDataTool implements tools.Tool
var _ tools.Tool = (*FinancialDataTool)(nil)

// FinancialDataTool exposes the fundamentals API to the model.
type FinancialDataTool struct {
	client *Client
}

// NewTool wraps a client as a model-callable tool.
func NewTool(client *Client) *FinancialDataTool {
	return &FinancialDataTool{client: client}
}

// Definition describes the tool for the tool-calling API.
func (t *FinancialDataTool) Definition() ai.ToolDefinition {
	return ai.ToolDefinition{
		Name: "get_financial_data",
		Description: "Fetch fundamental financial data for a stock ticker. " +
			"data_type selects: profile (company overview), key_metrics (per-year ROIC, " +
			"debt/equity, P/E, market cap), income_statement, balance_sheet, cash_flow.",
		Properties: map[string]interface{}{
			"ticker": map[string]interface{}{
				"type":        "string",
				"description": "Stock ticker symbol, e.g. AAPL",
			},
			"data_type": map[string]interface{}{
				"type": "string",
				"enum": []string{"profile", "key_metrics", "income_statement", "balance_sheet", "cash_flow"},
			},
			"years": map[string]interface{}{
				"type":        "integer",
				"description": "How many fiscal years of history (default 10)",
			},
		},
		Required: []string{"ticker", "data_type"},
	}
}

// Execute dispatches on data_type.
func (t *FinancialDataTool) Execute(ctx context.Context, input map[string]interface{}) (*tools.Result, error) {
	ticker, _ := input["ticker"].(string)
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return tools.Fail("ticker is required"), nil
	}

	dataType, _ := input["data_type"].(string)

	years := 10
	if y, ok := input["years"].(float64); ok && y > 0 {
		years = int(y)
	}

	switch dataType {
	case "profile":
		profile, err := t.client.GetProfile(ctx, ticker)
		if err != nil {
			return tools.Fail(err.Error()), nil
		}
		return tools.Ok(profile), nil

	case "key_metrics":
		metrics, err := t.client.GetKeyMetrics(ctx, ticker, years)
		if err != nil {
			return tools.Fail(err.Error()), nil
		}
		return tools.Ok(map[string]interface{}{
			"ticker":  ticker,
			"metrics": metrics,
		}), nil

	case "income_statement", "balance_sheet", "cash_flow":
		endpoint := map[string]string{
			"income_statement": "income-statement",
			"balance_sheet":    "balance-sheet-statement",
			"cash_flow":        "cash-flow-statement",
		}[dataType]

		rows, err := t.client.GetStatements(ctx, endpoint, ticker, years)
		if err != nil {
			return tools.Fail(err.Error()), nil
		}
		return tools.Ok(map[string]interface{}{
			"ticker":     ticker,
			"statements": rows,
		}), nil

	default:
		return tools.Fail("unknown data_type: " + dataType), nil
	}
}
