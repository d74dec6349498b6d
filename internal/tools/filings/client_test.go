package filings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripHTML(t *testing.T) {
	raw := `<html><head><style>body { color: red; }</style></head>
<body><p>Net&nbsp;revenue increased <b>12%</b> year over year.</p>
<script>track();</script></body></html>`

	text := stripHTML(raw)
	assert.Contains(t, text, "Net revenue increased 12% year over year.")
	assert.NotContains(t, text, "<p>")
	assert.NotContains(t, text, "track()")
	assert.NotContains(t, text, "color: red")
}

func TestExtractMDATakesLastHeading(t *testing.T) {
	// The table of contents repeats the item heading; the real section body
	// is the last occurrence before Item 7A.
	text := `Table of Contents
Item 7. Management's Discussion and Analysis of Financial Condition ..... 41
Item 7A. Quantitative and Qualitative Disclosures ..... 68

Item 7. Management's Discussion and Analysis of Financial Condition and Results of Operations
Revenue grew due to strong demand across all segments. Operating margin expanded.
Item 7A. Quantitative and Qualitative Disclosures About Market Risk
Interest rate risk discussion here.`

	mda, err := extractMDA(text)
	require.NoError(t, err)
	assert.Contains(t, mda, "Revenue grew due to strong demand")
	assert.NotContains(t, mda, "Interest rate risk")
	assert.NotContains(t, mda, "Table of Contents")
}

func TestExtractMDAHeadingNearEndOfDocument(t *testing.T) {
	// A truncated document can end right after the heading. The section is
	// degenerate but the extraction must not fail.
	mda, err := extractMDA("Item 7. Management's Discussion and Analysis")
	require.NoError(t, err)
	assert.Contains(t, mda, "Management's Discussion")

	short := "Item 7. Management's Discussion and Analysis\nRevenue fell.\nItem 7A. Market Risk"
	mda, err = extractMDA(short)
	require.NoError(t, err)
	assert.Contains(t, mda, "Revenue fell.")
	assert.NotContains(t, mda, "Market Risk")
}

func TestExtractMDAMissingSection(t *testing.T) {
	_, err := extractMDA("Item 1. Business\nWe make widgets.\nItem 8. Financial Statements")
	require.Error(t, err)
}
