package portfolio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"StockLens/internal/domain/models"
)

// ErrMissingColumns is returned when the header lacks ticker, shares or buy_price.
var ErrMissingColumns = errors.New("portfolio csv: missing required columns")

var requiredColumns = []string{"ticker", "shares", "buy_price"}

// LoadCSV opens path and parses it with ParseCSV.
func LoadCSV(path string) (models.Portfolio, []models.RowResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open portfolio: %w", err)
	}
	defer f.Close()
	return ParseCSV(f)
}

// ParseCSV reads a ticker,shares,buy_price table. Header names are matched
// case-insensitively in any order. Bad rows are skipped and reported; a
// repeated ticker overwrites the earlier row.
func ParseCSV(r io.Reader) (models.Portfolio, []models.RowResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("%w: empty file", ErrMissingColumns)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	portfolio := models.Portfolio{}
	var results []models.RowResult
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, nil, fmt.Errorf("read CSV: %w", err)
			}
			results = append(results, models.RowResult{Line: perr.StartLine, Skipped: true, Reason: perr.Err.Error()})
			continue
		}
		line, _ := reader.FieldPos(0)
		if isBlank(record) {
			continue
		}

		res := models.RowResult{Line: line}
		pos, reason := parseRow(record, cols)
		res.Ticker = pos.Ticker
		if reason != "" {
			res.Skipped = true
			res.Reason = reason
			results = append(results, res)
			continue
		}
		if _, dup := portfolio[pos.Ticker]; dup {
			res.Reason = "duplicate ticker; overrides earlier row"
		}
		portfolio[pos.Ticker] = pos
		results = append(results, res)
	}
	return portfolio, results, nil
}

func parseRow(record []string, cols map[string]int) (models.Position, string) {
	get := func(name string) (string, bool) {
		i := cols[name]
		if i >= len(record) {
			return "", false
		}
		v := strings.TrimSpace(record[i])
		return v, v != ""
	}

	rawTicker, ok := get("ticker")
	if !ok {
		return models.Position{}, "missing ticker"
	}
	ticker, err := models.NormalizeTicker(rawTicker)
	if err != nil {
		return models.Position{Ticker: strings.ToUpper(rawTicker)}, err.Error()
	}
	pos := models.Position{Ticker: ticker}

	rawShares, ok := get("shares")
	if !ok {
		return pos, "missing shares"
	}
	rawBuy, ok := get("buy_price")
	if !ok {
		return pos, "missing buy_price"
	}
	if pos.Shares, err = parseAmount(rawShares); err != nil {
		return pos, "shares: " + err.Error()
	}
	if pos.BuyPrice, err = parseAmount(rawBuy); err != nil {
		return pos, "buy_price: " + err.Error()
	}
	return pos, ""
}

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimPrefix(strings.ReplaceAll(s, ",", ""), "$"), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative value: %q", s)
	}
	return v, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
