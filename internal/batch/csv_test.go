package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTickerFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tickers.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTickers(t *testing.T) {
	path := writeTickerFile(t, "ticker\naapl\nMSFT\nAAPL\nBRK.B.TOOLONG\ngoog\n")

	tickers, err := LoadTickers(path)
	require.NoError(t, err)

	// Header skipped, case normalized, duplicate dropped preserving first
	// occurrence, oversized symbol rejected.
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOG"}, tickers)
}

func TestLoadTickersNoHeader(t *testing.T) {
	path := writeTickerFile(t, "NVDA\nAMD\n")

	tickers, err := LoadTickers(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA", "AMD"}, tickers)
}

func TestLoadTickersEmptyFileFails(t *testing.T) {
	path := writeTickerFile(t, "ticker\n")
	_, err := LoadTickers(path)
	require.Error(t, err)
}

func TestLoadTickersMissingFileFails(t *testing.T) {
	_, err := LoadTickers(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
}
