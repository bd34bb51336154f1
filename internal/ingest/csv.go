// Package ingest parses uploaded OHLCV files into daily and monthly records
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"go.uber.org/zap"

	"github.com/yourorg/market-dashboard/internal/model"
)

// ErrInvalidCSV marks problems with the uploaded file itself
var ErrInvalidCSV = errors.New("invalid csv")

// RequiredColumns are the columns every upload must carry
var RequiredColumns = []string{"time", "open", "high", "low", "close", "volume"}

var timeLayouts = []string{
	model.DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Row is one parsed CSV line. Time and prices are always present; volume may be null.
type Row struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume null.Float
}

// Date renders the row time as a UTC calendar date
func (r Row) Date() string {
	return r.Time.UTC().Format(model.DateLayout)
}

// ParseCSV reads an OHLCV file. Rows without a time or any of the four prices
// are dropped; the rest come back ordered by time.
func ParseCSV(r io.Reader, logger *zap.Logger) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: file is empty", ErrInvalidCSV)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns: %v", ErrInvalidCSV, missing)
	}

	var (
		rows  []Row
		total int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
		}
		total++

		cell := func(col string) string {
			i := index[col]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		ts, ok := parseTime(cell("time"))
		if !ok {
			continue
		}
		open, high, low, closePrice := parseFloat(cell("open")), parseFloat(cell("high")), parseFloat(cell("low")), parseFloat(cell("close"))
		if !open.Valid || !high.Valid || !low.Valid || !closePrice.Valid {
			continue
		}

		rows = append(rows, Row{
			Time:   ts,
			Open:   open.Float64,
			High:   high.Float64,
			Low:    low.Float64,
			Close:  closePrice.Float64,
			Volume: parseFloat(cell("volume")),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Time.Before(rows[j].Time)
	})

	if removed := total - len(rows); removed > 0 {
		logger.Info("Removed rows with missing values", zap.Int("removed", removed))
	}

	rows, collapsed := lastPerDate(rows)
	if collapsed > 0 {
		logger.Info("Kept the last row of each date", zap.Int("collapsed", collapsed))
	}
	logger.Debug("Parsed CSV", zap.Int("rows", len(rows)), zap.Strings("columns", header))

	return rows, nil
}

// lastPerDate keeps the latest row of each calendar date. Bars are stored one
// per date, so intraday rows collapse onto the final one of the day.
func lastPerDate(rows []Row) ([]Row, int) {
	out := rows[:0]
	for _, row := range rows {
		if n := len(out); n > 0 && out[n-1].Date() == row.Date() {
			out[n-1] = row
			continue
		}
		out = append(out, row)
	}
	return out, len(rows) - len(out)
}

// Range returns the first and last date of time-ordered rows
func Range(rows []Row) model.DateRange {
	if len(rows) == 0 {
		return model.DateRange{}
	}
	return model.DateRange{
		Start: null.StringFrom(rows[0].Date()),
		End:   null.StringFrom(rows[len(rows)-1].Date()),
	}
}

// parseTime accepts epoch seconds or one of the supported date layouts
func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(secs) || math.IsInf(secs, 0) {
			return time.Time{}, false
		}
		whole, frac := math.Modf(secs)
		return time.Unix(int64(whole), int64(frac*1e9)).UTC(), true
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseFloat(s string) null.Float {
	if s == "" {
		return null.Float{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return null.Float{}
	}
	return null.FloatFrom(v)
}
