package calculator

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDCFAggressiveGrowthWarnsButComputes(t *testing.T) {
	calc := New()

	res, err := calc.Execute(context.Background(), map[string]interface{}{
		"calculation":     "dcf",
		"owner_earnings":  100000000.0,
		"growth_rate":     0.3,
		"discount_rate":   0.10,
		"terminal_growth": 0.03,
	})
	require.NoError(t, err)
	require.True(t, res.Success)

	data := res.Data.(map[string]interface{})
	warnings := data["warnings"].([]string)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "aggressive growth")
	assert.Greater(t, data["result"].(float64), 0.0)
}

func TestDCFRejectsTerminalGrowthAboveDiscountRate(t *testing.T) {
	calc := New()

	res, err := calc.Execute(context.Background(), map[string]interface{}{
		"calculation":     "dcf",
		"owner_earnings":  50000000.0,
		"growth_rate":     0.05,
		"discount_rate":   0.08,
		"terminal_growth": 0.09,
	})
	require.NoError(t, err)
	require.False(t, res.Success)
	assert.Contains(t, res.Error, "terminal growth")
	assert.Contains(t, res.Error, "discount rate")
}

func TestDCFModestGrowthHasNoWarnings(t *testing.T) {
	value, warnings, err := DCF(
		decimal.NewFromInt(100000000),
		decimal.NewFromFloat(0.08),
		decimal.NewFromFloat(0.10),
		decimal.NewFromFloat(0.02),
	)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.True(t, value.GreaterThan(decimal.Zero))
}

func TestOwnerEarningsDefaultsMaintenanceRatio(t *testing.T) {
	calc := New()

	res, err := calc.Execute(context.Background(), map[string]interface{}{
		"calculation":  "owner_earnings",
		"net_income":   1000.0,
		"depreciation": 200.0,
		"capex":        300.0,
	})
	require.NoError(t, err)
	require.True(t, res.Success)

	data := res.Data.(map[string]interface{})
	// 1000 + 200 - 0.7*300
	assert.InDelta(t, 990.0, data["result"].(float64), 1e-9)
	assert.InDelta(t, 0.70, data["maintenance_capex_ratio"].(float64), 1e-9)
}

func TestROIC(t *testing.T) {
	roic, err := ROIC(
		decimal.NewFromInt(200),
		decimal.NewFromFloat(0.25),
		decimal.NewFromInt(1000),
	)
	require.NoError(t, err)
	assert.True(t, roic.Equal(decimal.NewFromFloat(0.15)))

	_, err = ROIC(decimal.NewFromInt(200), decimal.NewFromFloat(0.25), decimal.Zero)
	require.Error(t, err)
}

func TestMarginOfSafety(t *testing.T) {
	mos, err := MarginOfSafety(decimal.NewFromInt(100), decimal.NewFromInt(70))
	require.NoError(t, err)
	assert.True(t, mos.Equal(decimal.NewFromInt(30)))

	mos, err = MarginOfSafety(decimal.NewFromInt(100), decimal.NewFromInt(120))
	require.NoError(t, err)
	assert.True(t, mos.IsNegative())

	_, err = MarginOfSafety(decimal.Zero, decimal.NewFromInt(10))
	require.Error(t, err)
}

func TestShariaScreenVerdicts(t *testing.T) {
	base := ShariaInput{
		MarketCap:         decimal.NewFromInt(1000),
		TotalDebt:         decimal.NewFromInt(100),
		CashAndSecurities: decimal.NewFromInt(100),
		Receivables:       decimal.NewFromInt(100),
		TotalRevenue:      decimal.NewFromInt(500),
	}

	verdict, ratios, err := ShariaScreen(base)
	require.NoError(t, err)
	assert.Equal(t, "COMPLIANT", verdict)
	assert.Len(t, ratios, 4)

	// Debt at 31% of market cap sits inside the doubtful band below 33%.
	doubtful := base
	doubtful.TotalDebt = decimal.NewFromInt(310)
	verdict, _, err = ShariaScreen(doubtful)
	require.NoError(t, err)
	assert.Equal(t, "DOUBTFUL", verdict)

	breach := base
	breach.TotalDebt = decimal.NewFromInt(400)
	verdict, _, err = ShariaScreen(breach)
	require.NoError(t, err)
	assert.Equal(t, "NON_COMPLIANT", verdict)

	revenue := base
	revenue.NonCompliantRevenue = decimal.NewFromInt(50) // 10% of revenue
	verdict, _, err = ShariaScreen(revenue)
	require.NoError(t, err)
	assert.Equal(t, "NON_COMPLIANT", verdict)

	_, _, err = ShariaScreen(ShariaInput{MarketCap: decimal.Zero})
	require.Error(t, err)
}

func TestCalculatorRejectsUnknownCalculation(t *testing.T) {
	calc := New()

	res, err := calc.Execute(context.Background(), map[string]interface{}{
		"calculation": "black_scholes",
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "unknown calculation")
}

func TestCalculatorReportsMissingParams(t *testing.T) {
	calc := New()

	res, err := calc.Execute(context.Background(), map[string]interface{}{
		"calculation": "roic",
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "operating_income")
}
