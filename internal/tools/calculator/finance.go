package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"graham/pkg/errors"
)

// DefaultMaintenanceCapexRatio is applied when the caller cannot split
// maintenance from growth capex. Financial APIs rarely report the split.
const DefaultMaintenanceCapexRatio = 0.70

// AggressiveGrowthThreshold marks the growth assumption above which a DCF
// result carries a warning.
const AggressiveGrowthThreshold = 0.20

const dcfExplicitYears = 10

// OwnerEarnings computes Buffett-style owner earnings: net income plus
// depreciation and amortization minus maintenance capex. maintenanceRatio
// scales reported capex when the maintenance portion is not known.
func OwnerEarnings(netIncome, depreciation, capex, maintenanceRatio decimal.Decimal) decimal.Decimal {
	maintenance := capex.Abs().Mul(maintenanceRatio)
	return netIncome.Add(depreciation).Sub(maintenance)
}

// ROIC computes return on invested capital as NOPAT / invested capital,
// NOPAT being operating income after tax.
func ROIC(operatingIncome, taxRate, investedCapital decimal.Decimal) (decimal.Decimal, error) {
	if investedCapital.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, errors.NewValidationError("invested_capital", "must be positive", investedCapital.InexactFloat64())
	}
	if taxRate.IsNegative() || taxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, errors.NewValidationError("tax_rate", "must be in [0, 1)", taxRate.InexactFloat64())
	}

	nopat := operatingIncome.Mul(decimal.NewFromInt(1).Sub(taxRate))
	return nopat.Div(investedCapital), nil
}

// DCF computes a two-stage discounted cash flow intrinsic value: ten explicit
// years of growth at growthRate, then a Gordon terminal value grown at
// terminalGrowth. Returns the intrinsic value and any assumption warnings.
func DCF(ownerEarnings, growthRate, discountRate, terminalGrowth decimal.Decimal) (decimal.Decimal, []string, error) {
	if discountRate.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, nil, errors.NewValidationError("discount_rate", "must be positive", discountRate.InexactFloat64())
	}
	if terminalGrowth.GreaterThanOrEqual(discountRate) {
		return decimal.Zero, nil, errors.NewValidationError(
			"terminal_growth",
			fmt.Sprintf("terminal growth rate (%s) must be below discount rate (%s)", terminalGrowth.String(), discountRate.String()),
			terminalGrowth.InexactFloat64(),
		)
	}

	var warnings []string
	if growthRate.GreaterThan(decimal.NewFromFloat(AggressiveGrowthThreshold)) {
		warnings = append(warnings, fmt.Sprintf(
			"aggressive growth rate %s%% assumed; intrinsic value is highly sensitive to this input",
			growthRate.Mul(decimal.NewFromInt(100)).StringFixed(1),
		))
	}

	one := decimal.NewFromInt(1)
	growthFactor := one.Add(growthRate)
	discountFactor := one.Add(discountRate)

	cashFlow := ownerEarnings
	discount := one
	total := decimal.Zero

	for year := 1; year <= dcfExplicitYears; year++ {
		cashFlow = cashFlow.Mul(growthFactor)
		discount = discount.Mul(discountFactor)
		total = total.Add(cashFlow.Div(discount))
	}

	terminalCashFlow := cashFlow.Mul(one.Add(terminalGrowth))
	terminalValue := terminalCashFlow.Div(discountRate.Sub(terminalGrowth))
	total = total.Add(terminalValue.Div(discount))

	return total, warnings, nil
}

// MarginOfSafety returns the discount of price to intrinsic value as a
// percentage. Negative when price exceeds intrinsic value.
func MarginOfSafety(intrinsicValue, price decimal.Decimal) (decimal.Decimal, error) {
	if intrinsicValue.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, errors.NewValidationError("intrinsic_value", "must be positive", intrinsicValue.InexactFloat64())
	}
	return intrinsicValue.Sub(price).Div(intrinsicValue).Mul(decimal.NewFromInt(100)), nil
}

// Sharia screen thresholds (AAOIFI-style).
var (
	shariaRatioLimit   = decimal.NewFromFloat(0.33)
	shariaRevenueLimit = decimal.NewFromFloat(0.05)
	// A ratio inside 10% of its limit is flagged doubtful rather than clean.
	doubtfulBand = decimal.NewFromFloat(0.90)
)

// ShariaInput holds the balance-sheet figures the compliance screen needs.
type ShariaInput struct {
	MarketCap           decimal.Decimal
	TotalDebt           decimal.Decimal
	CashAndSecurities   decimal.Decimal
	Receivables         decimal.Decimal
	TotalRevenue        decimal.Decimal
	NonCompliantRevenue decimal.Decimal
}

// ShariaRatio is one evaluated screen ratio.
type ShariaRatio struct {
	Name    string          `json:"name"`
	Value   decimal.Decimal `json:"value"`
	Limit   decimal.Decimal `json:"limit"`
	Verdict string          `json:"verdict"`
}

// ShariaScreen evaluates the compliance ratios. The overall verdict is the
// worst of the individual verdicts: any breach is NON_COMPLIANT, any ratio
// within 10% of its limit is DOUBTFUL, otherwise COMPLIANT.
func ShariaScreen(in ShariaInput) (string, []ShariaRatio, error) {
	if in.MarketCap.LessThanOrEqual(decimal.Zero) {
		return "", nil, errors.NewValidationError("market_cap", "must be positive", in.MarketCap.InexactFloat64())
	}

	ratios := []ShariaRatio{
		screenRatio("debt_to_market_cap", in.TotalDebt.Div(in.MarketCap), shariaRatioLimit),
		screenRatio("cash_securities_to_market_cap", in.CashAndSecurities.Div(in.MarketCap), shariaRatioLimit),
		screenRatio("receivables_to_market_cap", in.Receivables.Div(in.MarketCap), shariaRatioLimit),
	}

	if in.TotalRevenue.GreaterThan(decimal.Zero) {
		ratios = append(ratios, screenRatio(
			"non_compliant_revenue_share",
			in.NonCompliantRevenue.Div(in.TotalRevenue),
			shariaRevenueLimit,
		))
	}

	verdict := "COMPLIANT"
	for _, r := range ratios {
		switch r.Verdict {
		case "NON_COMPLIANT":
			return "NON_COMPLIANT", ratios, nil
		case "DOUBTFUL":
			verdict = "DOUBTFUL"
		}
	}
	return verdict, ratios, nil
}

func screenRatio(name string, value, limit decimal.Decimal) ShariaRatio {
	verdict := "COMPLIANT"
	switch {
	case value.GreaterThanOrEqual(limit):
		verdict = "NON_COMPLIANT"
	case value.GreaterThanOrEqual(limit.Mul(doubtfulBand)):
		verdict = "DOUBTFUL"
	}
	return ShariaRatio{Name: name, Value: value, Limit: limit, Verdict: verdict}
}
