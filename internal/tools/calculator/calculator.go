package calculator

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"graham/internal/adapters/ai"
	"graham/internal/tools"
)

// Ensure Calculator implements tools.Tool
var _ tools.Tool = (*Calculator)(nil)

// Calculator is the deterministic financial math tool. The model supplies
// inputs; all arithmetic happens here so tool-sourced numbers stay
// authoritative over model prose.
type Calculator struct{}

// New returns the calculator tool.
func New() *Calculator {
	return &Calculator{}
}

// Definition describes the calculator for the tool-calling API.
func (c *Calculator) Definition() ai.ToolDefinition {
	return ai.ToolDefinition{
		Name: "calculator",
		Description: "Deterministic financial calculations: owner_earnings, roic, dcf, " +
			"margin_of_safety, sharia_check. All rates are decimals (0.10 = 10%). " +
			"Use this for every valuation number instead of computing in prose.",
		Properties: map[string]interface{}{
			"calculation": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"owner_earnings", "roic", "dcf", "margin_of_safety", "sharia_check"},
				"description": "Which calculation to perform",
			},
			"net_income":              map[string]interface{}{"type": "number"},
			"depreciation":            map[string]interface{}{"type": "number"},
			"capex":                   map[string]interface{}{"type": "number"},
			"maintenance_capex_ratio": map[string]interface{}{"type": "number", "description": "Portion of capex that is maintenance; defaults to 0.7"},
			"operating_income":        map[string]interface{}{"type": "number"},
			"tax_rate":                map[string]interface{}{"type": "number"},
			"invested_capital":        map[string]interface{}{"type": "number"},
			"owner_earnings":          map[string]interface{}{"type": "number"},
			"growth_rate":             map[string]interface{}{"type": "number"},
			"discount_rate":           map[string]interface{}{"type": "number"},
			"terminal_growth":         map[string]interface{}{"type": "number"},
			"intrinsic_value":         map[string]interface{}{"type": "number"},
			"price":                   map[string]interface{}{"type": "number"},
			"market_cap":              map[string]interface{}{"type": "number"},
			"total_debt":              map[string]interface{}{"type": "number"},
			"cash_and_securities":     map[string]interface{}{"type": "number"},
			"receivables":             map[string]interface{}{"type": "number"},
			"total_revenue":           map[string]interface{}{"type": "number"},
			"non_compliant_revenue":   map[string]interface{}{"type": "number"},
		},
		Required: []string{"calculation"},
	}
}

// Execute dispatches on the calculation parameter. Bad input is reported
// through the failure envelope so the model can correct itself.
func (c *Calculator) Execute(_ context.Context, input map[string]interface{}) (*tools.Result, error) {
	calculation, _ := input["calculation"].(string)

	switch calculation {
	case "owner_earnings":
		return c.ownerEarnings(input), nil
	case "roic":
		return c.roic(input), nil
	case "dcf":
		return c.dcf(input), nil
	case "margin_of_safety":
		return c.marginOfSafety(input), nil
	case "sharia_check":
		return c.shariaCheck(input), nil
	default:
		return tools.Fail(fmt.Sprintf("unknown calculation: %q", calculation)), nil
	}
}

func (c *Calculator) ownerEarnings(input map[string]interface{}) *tools.Result {
	netIncome, ok := num(input, "net_income")
	if !ok {
		return tools.Fail("net_income is required")
	}
	depreciation, ok := num(input, "depreciation")
	if !ok {
		return tools.Fail("depreciation is required")
	}
	capex, ok := num(input, "capex")
	if !ok {
		return tools.Fail("capex is required")
	}

	ratio := decimal.NewFromFloat(DefaultMaintenanceCapexRatio)
	if r, ok := num(input, "maintenance_capex_ratio"); ok {
		ratio = r
	}

	result := OwnerEarnings(netIncome, depreciation, capex, ratio)
	return tools.Ok(map[string]interface{}{
		"calculation":             "owner_earnings",
		"result":                  result.InexactFloat64(),
		"maintenance_capex_ratio": ratio.InexactFloat64(),
	})
}

func (c *Calculator) roic(input map[string]interface{}) *tools.Result {
	operatingIncome, ok := num(input, "operating_income")
	if !ok {
		return tools.Fail("operating_income is required")
	}
	taxRate, ok := num(input, "tax_rate")
	if !ok {
		return tools.Fail("tax_rate is required")
	}
	investedCapital, ok := num(input, "invested_capital")
	if !ok {
		return tools.Fail("invested_capital is required")
	}

	result, err := ROIC(operatingIncome, taxRate, investedCapital)
	if err != nil {
		return tools.Fail(err.Error())
	}
	return tools.Ok(map[string]interface{}{
		"calculation": "roic",
		"result":      result.InexactFloat64(),
		"result_pct":  result.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%",
	})
}

func (c *Calculator) dcf(input map[string]interface{}) *tools.Result {
	ownerEarnings, ok := num(input, "owner_earnings")
	if !ok {
		return tools.Fail("owner_earnings is required")
	}
	growthRate, ok := num(input, "growth_rate")
	if !ok {
		return tools.Fail("growth_rate is required")
	}
	discountRate, ok := num(input, "discount_rate")
	if !ok {
		return tools.Fail("discount_rate is required")
	}
	terminalGrowth, ok := num(input, "terminal_growth")
	if !ok {
		return tools.Fail("terminal_growth is required")
	}

	result, warnings, err := DCF(ownerEarnings, growthRate, discountRate, terminalGrowth)
	if err != nil {
		return tools.Fail(err.Error())
	}
	return tools.Ok(map[string]interface{}{
		"calculation": "dcf",
		"result":      result.InexactFloat64(),
		"warnings":    warnings,
	})
}

func (c *Calculator) marginOfSafety(input map[string]interface{}) *tools.Result {
	intrinsic, ok := num(input, "intrinsic_value")
	if !ok {
		return tools.Fail("intrinsic_value is required")
	}
	price, ok := num(input, "price")
	if !ok {
		return tools.Fail("price is required")
	}

	result, err := MarginOfSafety(intrinsic, price)
	if err != nil {
		return tools.Fail(err.Error())
	}
	return tools.Ok(map[string]interface{}{
		"calculation": "margin_of_safety",
		"result":      result.InexactFloat64(),
	})
}

func (c *Calculator) shariaCheck(input map[string]interface{}) *tools.Result {
	marketCap, ok := num(input, "market_cap")
	if !ok {
		return tools.Fail("market_cap is required")
	}

	in := ShariaInput{MarketCap: marketCap}
	in.TotalDebt, _ = num(input, "total_debt")
	in.CashAndSecurities, _ = num(input, "cash_and_securities")
	in.Receivables, _ = num(input, "receivables")
	in.TotalRevenue, _ = num(input, "total_revenue")
	in.NonCompliantRevenue, _ = num(input, "non_compliant_revenue")

	verdict, ratios, err := ShariaScreen(in)
	if err != nil {
		return tools.Fail(err.Error())
	}
	return tools.Ok(map[string]interface{}{
		"calculation": "sharia_check",
		"verdict":     verdict,
		"ratios":      ratios,
	})
}

// num reads a numeric parameter. JSON numbers decode as float64; integers
// sent as json.Number-ish strings are rejected rather than guessed.
func num(input map[string]interface{}, key string) (decimal.Decimal, bool) {
	v, exists := input[key]
	if !exists {
		return decimal.Zero, false
	}
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	default:
		return decimal.Zero, false
	}
}
