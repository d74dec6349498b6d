package filings

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"graham/internal/adapters/config"
	"graham/internal/tools/shared"
	"graham/pkg/errors"
)

// SEC asks automated clients to stay under 10 requests per second; we stay
// well below since each filing is large anyway.
const secRequestsPerSecond = 5

// Filing is one retrieved filing document, possibly reduced to a section.
type Filing struct {
	Ticker     string `json:"ticker"`
	FilingType string `json:"filing_type"`
	Section    string `json:"section"`
	FiscalYear int    `json:"fiscal_year"`
	FiledAt    string `json:"filed_at"`
	SourceURL  string `json:"source_url"`
	Content    string `json:"content"`
}

// Client retrieves filings from SEC EDGAR. Filings are immutable once
// published, so cache hits are always safe.
type Client struct {
	http    *resty.Client
	archive *resty.Client
	limiter *rate.Limiter
	deps    shared.Deps
}

// NewClient creates an EDGAR client. The SEC requires a descriptive
// User-Agent with contact details on every request.
func NewClient(cfg config.DataSourcesConfig, deps shared.Deps) *Client {
	http := resty.New().
		SetBaseURL(cfg.FilingsBaseURL).
		SetHeader("User-Agent", cfg.FilingsUserAgent).
		SetTimeout(60 * time.Second)

	archive := resty.New().
		SetBaseURL("https://www.sec.gov").
		SetHeader("User-Agent", cfg.FilingsUserAgent).
		SetTimeout(60 * time.Second)

	return &Client{
		http:    http,
		archive: archive,
		limiter: rate.NewLimiter(rate.Limit(secRequestsPerSecond), 1),
		deps:    deps,
	}
}

// FetchFiling retrieves one filing for a ticker and fiscal year, reduced to
// the requested section ("full" or "mda").
func (c *Client) FetchFiling(ctx context.Context, ticker, filingType, section string, year int) (*Filing, error) {
	cacheKey := fmt.Sprintf("filings:%s:%s:%s:%d", ticker, filingType, section, year)
	if c.deps.HasCache() {
		var cached Filing
		if err := c.deps.Cache.Get(ctx, cacheKey, &cached); err == nil {
			c.deps.Log.Debugw("Filing cache hit", "key", cacheKey)
			return &cached, nil
		}
	}

	cik, err := c.lookupCIK(ctx, ticker)
	if err != nil {
		return nil, err
	}

	docURL, filedAt, err := c.findFiling(ctx, cik, filingType, year)
	if err != nil {
		return nil, err
	}

	raw, err := c.fetchDocument(ctx, docURL)
	if err != nil {
		return nil, err
	}

	content := stripHTML(raw)
	if section == "mda" {
		mda, err := extractMDA(content)
		if err != nil {
			return nil, errors.Wrapf(err, "%s %s %d", ticker, filingType, year)
		}
		content = mda
	}

	filing := &Filing{
		Ticker:     ticker,
		FilingType: filingType,
		Section:    section,
		FiscalYear: year,
		FiledAt:    filedAt,
		SourceURL:  docURL,
		Content:    content,
	}

	if c.deps.HasCache() {
		if err := c.deps.Cache.Set(ctx, cacheKey, filing, c.deps.CacheTTL); err != nil {
			c.deps.Log.Warnw("Filing cache write failed", "key", cacheKey, "error", err)
		}
	}
	return filing, nil
}

type tickerEntry struct {
	CIK    int    `json:"cik_str"`
	Ticker string `json:"ticker"`
}

func (c *Client) lookupCIK(ctx context.Context, ticker string) (string, error) {
	var entries map[string]tickerEntry

	cacheKey := "filings:cik_map"
	cached := false
	if c.deps.HasCache() {
		if err := c.deps.Cache.Get(ctx, cacheKey, &entries); err == nil {
			cached = true
		}
	}

	if !cached {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
		resp, err := c.archive.R().SetContext(ctx).Get("/files/company_tickers.json")
		if err != nil {
			return "", errors.Wrap(err, "fetch ticker map")
		}
		if resp.StatusCode() != 200 {
			return "", errors.Newf("EDGAR ticker map error %d", resp.StatusCode())
		}
		if err := json.Unmarshal(resp.Body(), &entries); err != nil {
			return "", errors.Wrap(err, "parse ticker map")
		}
		if c.deps.HasCache() {
			_ = c.deps.Cache.Set(ctx, cacheKey, entries, c.deps.CacheTTL)
		}
	}

	upper := strings.ToUpper(ticker)
	for _, e := range entries {
		if strings.ToUpper(e.Ticker) == upper {
			return fmt.Sprintf("%010d", e.CIK), nil
		}
	}
	return "", errors.Wrapf(errors.ErrNotFound, "CIK for ticker %s", ticker)
}

type submissions struct {
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			FilingDate      []string `json:"filingDate"`
			Form            []string `json:"form"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
	CIK string `json:"cik"`
}

// findFiling locates the filing of the requested form type filed during the
// requested year (or the following spring for fiscal-year 10-Ks).
func (c *Client) findFiling(ctx context.Context, cik, filingType string, year int) (docURL, filedAt string, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", "", err
	}

	resp, err := c.http.R().SetContext(ctx).Get("/submissions/CIK" + cik + ".json")
	if err != nil {
		return "", "", errors.Wrap(err, "fetch submissions")
	}
	if resp.StatusCode() != 200 {
		return "", "", errors.Newf("EDGAR submissions error %d", resp.StatusCode())
	}

	var subs submissions
	if err := json.Unmarshal(resp.Body(), &subs); err != nil {
		return "", "", errors.Wrap(err, "parse submissions")
	}

	recent := subs.Filings.Recent
	for i, form := range recent.Form {
		if form != filingType {
			continue
		}
		filed := recent.FilingDate[i]
		// A 10-K for fiscal year Y is filed during Y or early Y+1.
		if !strings.HasPrefix(filed, fmt.Sprint(year)) && !strings.HasPrefix(filed, fmt.Sprint(year+1)) {
			continue
		}
		accession := strings.ReplaceAll(recent.AccessionNumber[i], "-", "")
		doc := recent.PrimaryDocument[i]
		url := fmt.Sprintf("/Archives/edgar/data/%s/%s/%s", strings.TrimLeft(cik, "0"), accession, doc)
		return url, filed, nil
	}

	return "", "", errors.Wrapf(errors.ErrNotFound, "%s filing for CIK %s year %d", filingType, cik, year)
}

func (c *Client) fetchDocument(ctx context.Context, url string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := c.archive.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", errors.Wrapf(err, "fetch document %s", url)
	}
	if resp.StatusCode() != 200 {
		return "", errors.Newf("EDGAR document error %d for %s", resp.StatusCode(), url)
	}
	return resp.String(), nil
}

var (
	tagPattern    = regexp.MustCompile(`(?s)<[^>]*>`)
	scriptPattern = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	spacePattern  = regexp.MustCompile(`[ \t]+`)
	blankPattern  = regexp.MustCompile(`\n{3,}`)
)

// stripHTML reduces a filing document to plain text.
func stripHTML(raw string) string {
	text := scriptPattern.ReplaceAllString(raw, " ")
	text = tagPattern.ReplaceAllString(text, " ")
	text = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&#8217;", "'",
		"&#8220;", `"`,
		"&#8221;", `"`,
	).Replace(text)
	text = spacePattern.ReplaceAllString(text, " ")
	text = blankPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

var (
	mdaStartPattern = regexp.MustCompile(`(?i)item\s+7\.?\s+management[’']?s?\s+discussion`)
	mdaEndPattern   = regexp.MustCompile(`(?i)item\s+(7A|8)\.?\s`)
)

// extractMDA cuts the Management's Discussion & Analysis section out of a
// plain-text 10-K. Filings repeat the item heading in the table of contents,
// so the last start match before the end marker wins. The end marker is
// searched after the heading itself so the heading's own "Discussion" text
// can never terminate the section.
func extractMDA(text string) (string, error) {
	starts := mdaStartPattern.FindAllStringIndex(text, -1)
	if len(starts) == 0 {
		return "", errors.Wrap(errors.ErrParse, "MD&A section not found")
	}

	last := starts[len(starts)-1]
	rest := text[last[0]:]
	headingLen := last[1] - last[0]

	if end := mdaEndPattern.FindStringIndex(rest[headingLen:]); end != nil {
		rest = rest[:headingLen+end[0]]
	}
	return strings.TrimSpace(rest), nil
}
