package fundata

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"graham/internal/adapters/config"
	"graham/internal/tools/shared"
	"graham/pkg/errors"
)

// Client fetches fundamentals from the financial data API. Responses are
// cached in Redis keyed by endpoint and ticker; fundamentals change at most
// quarterly so the cache TTL does the right thing.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	deps    shared.Deps
	apiKey  string
}

// NewClient creates a financial data client.
func NewClient(cfg config.DataSourcesConfig, deps shared.Deps) *Client {
	http := resty.New().
		SetBaseURL(cfg.FinancialDataBaseURL).
		SetTimeout(30 * time.Second)

	rpm := cfg.RequestsPerMin
	if rpm <= 0 {
		rpm = 30
	}

	return &Client{
		http:    http,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		deps:    deps,
		apiKey:  cfg.FinancialDataAPIKey,
	}
}

// KeyMetrics is the per-fiscal-year metrics row used for verified numbers.
type KeyMetrics struct {
	Date            string  `json:"date"`
	ROIC            float64 `json:"roic"`
	DebtToEquity    float64 `json:"debtToEquity"`
	FreeCashFlow    float64 `json:"freeCashFlowPerShare"`
	PERatio         float64 `json:"peRatio"`
	MarketCap       float64 `json:"marketCap"`
	RevenuePerShare float64 `json:"revenuePerShare"`
}

// Profile is the company overview row.
type Profile struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"companyName"`
	Industry    string  `json:"industry"`
	Sector      string  `json:"sector"`
	Price       float64 `json:"price"`
	MarketCap   float64 `json:"mktCap"`
	Description string  `json:"description"`
}

// GetProfile fetches the company profile.
func (c *Client) GetProfile(ctx context.Context, ticker string) (*Profile, error) {
	var profiles []Profile
	if err := c.fetch(ctx, "/profile/"+ticker, nil, "profile:"+ticker, &profiles); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "profile for %s", ticker)
	}
	return &profiles[0], nil
}

// GetKeyMetrics fetches up to limit annual key-metrics rows, newest first.
func (c *Client) GetKeyMetrics(ctx context.Context, ticker string, limit int) ([]KeyMetrics, error) {
	var metrics []KeyMetrics
	params := map[string]string{"limit": strconv.Itoa(limit), "period": "annual"}
	cacheKey := fmt.Sprintf("key_metrics:%s:%d", ticker, limit)
	if err := c.fetch(ctx, "/key-metrics/"+ticker, params, cacheKey, &metrics); err != nil {
		return nil, err
	}
	return metrics, nil
}

// GetStatements fetches raw statement rows for an endpoint
// (income-statement, balance-sheet-statement, cash-flow-statement).
func (c *Client) GetStatements(ctx context.Context, endpoint, ticker string, limit int) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	params := map[string]string{"limit": strconv.Itoa(limit), "period": "annual"}
	cacheKey := fmt.Sprintf("%s:%s:%d", endpoint, ticker, limit)
	if err := c.fetch(ctx, "/"+endpoint+"/"+ticker, params, cacheKey, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// AverageROIC computes the average ROIC over up to ten fiscal years of
// tool-sourced data. Returns the average and the number of years it covers.
// This is the verified metric the decision gate trusts over model prose.
func (c *Client) AverageROIC(ctx context.Context, ticker string) (float64, int, error) {
	metrics, err := c.GetKeyMetrics(ctx, ticker, 10)
	if err != nil {
		return 0, 0, err
	}

	var sum float64
	var years int
	for _, m := range metrics {
		if m.ROIC == 0 {
			continue
		}
		sum += m.ROIC
		years++
	}
	if years == 0 {
		return 0, 0, errors.Wrapf(errors.ErrNotFound, "no ROIC history for %s", ticker)
	}
	return sum / float64(years), years, nil
}

func (c *Client) fetch(ctx context.Context, path string, params map[string]string, cacheKey string, dest interface{}) error {
	fullKey := "fundata:" + cacheKey

	if c.deps.HasCache() {
		if err := c.deps.Cache.Get(ctx, fullKey, dest); err == nil {
			c.deps.Log.Debugw("Financial data cache hit", "key", fullKey)
			return nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "financial data rate limit")
	}

	req := c.http.R().SetContext(ctx).SetQueryParam("apikey", c.apiKey)
	for k, v := range params {
		req.SetQueryParam(k, v)
	}

	resp, err := req.Get(path)
	if err != nil {
		return errors.Wrapf(err, "fetch %s", path)
	}
	if resp.StatusCode() != 200 {
		return errors.Newf("financial data API error %d: %s", resp.StatusCode(), resp.String())
	}

	if err := json.Unmarshal(resp.Body(), dest); err != nil {
		return errors.Wrapf(err, "parse %s response", path)
	}

	if c.deps.HasCache() {
		if err := c.deps.Cache.Set(ctx, fullKey, dest, c.deps.CacheTTL); err != nil {
			c.deps.Log.Warnw("Financial data cache write failed", "key", fullKey, "error", err)
		}
	}
	return nil
}
