package batch

import (
	"encoding/csv"
	"os"
	"strings"

	"graham/pkg/errors"
	"graham/pkg/logger"
)

const maxTickerLen = 5

// LoadTickers reads a one-column ticker list from a CSV file. A leading
// "ticker" header row is optional. Symbols are uppercased and deduplicated
// preserving first-seen order; symbols longer than five characters are
// rejected and skipped with a warning rather than aborting the batch.
func LoadTickers(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open ticker file %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "parse ticker file %s", path)
	}

	log := logger.Get()
	seen := make(map[string]struct{})
	tickers := make([]string, 0, len(rows))

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		symbol := strings.ToUpper(strings.TrimSpace(row[0]))
		if symbol == "" {
			continue
		}
		if i == 0 && symbol == "TICKER" {
			continue
		}
		if len(symbol) > maxTickerLen {
			log.Warnw("Rejecting invalid ticker symbol", "symbol", symbol, "line", i+1)
			continue
		}
		if _, dup := seen[symbol]; dup {
			continue
		}
		seen[symbol] = struct{}{}
		tickers = append(tickers, symbol)
	}

	if len(tickers) == 0 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "no valid tickers in %s", path)
	}
	return tickers, nil
}
