package dashboard

import (
	"fmt"
	"math"
	"strconv"

	"github.com/guregu/null/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/yourorg/market-dashboard/internal/model"
)

// Class is a presentation hint attached to a cell
type Class string

const (
	ClassNone       Class = ""
	ClassOverbought Class = "rsi-overbought"
	ClassOversold   Class = "rsi-oversold"
	ClassNegative   Class = "diff-negative"
)

// RSI thresholds
const (
	RSIOverbought = 75.0
	RSIOversold   = 25.0
)

const placeholder = "-"

// FormatNumber renders a value with two decimals
func FormatNumber(v null.Float) string {
	if !v.Valid {
		return placeholder
	}
	return strconv.FormatFloat(v.Float64, 'f', 2, 64)
}

// FormatPercent renders a percentage with two decimals
func FormatPercent(v null.Float) string {
	if !v.Valid || math.IsNaN(v.Float64) {
		return placeholder
	}
	return strconv.FormatFloat(v.Float64, 'f', 2, 64) + "%"
}

// FormatVolume renders a volume with thousands separators
func FormatVolume(v null.Int) string {
	if !v.Valid {
		return placeholder
	}
	return message.NewPrinter(language.English).Sprintf("%d", v.Int64)
}

// RSIClass classifies an RSI reading against the overbought/oversold thresholds
func RSIClass(rsi null.Float) Class {
	switch {
	case !rsi.Valid:
		return ClassNone
	case rsi.Float64 > RSIOverbought:
		return ClassOverbought
	case rsi.Float64 < RSIOversold:
		return ClassOversold
	default:
		return ClassNone
	}
}

// DiffClass flags negative differences
func DiffClass(v null.Float) Class {
	if v.Valid && v.Float64 < 0 {
		return ClassNegative
	}
	return ClassNone
}

// PeriodYears renders the span of a date range in years, or N/A
func PeriodYears(dateRange model.DateRange) string {
	if !dateRange.Start.Valid || !dateRange.End.Valid {
		return "N/A"
	}
	start, ok := model.ParseDate(dateRange.Start.String)
	if !ok {
		return "N/A"
	}
	end, ok := model.ParseDate(dateRange.End.String)
	if !ok {
		return "N/A"
	}
	years := end.Sub(start).Hours() / 24 / 365
	return fmt.Sprintf("%.1f years", years)
}

var fileSizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders a byte count using binary units
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	i = min(i, len(fileSizeUnits)-1)
	size := math.Round(float64(bytes)/math.Pow(1024, float64(i))*100) / 100
	return strconv.FormatFloat(size, 'f', -1, 64) + " " + fileSizeUnits[i]
}

func orDefault(s null.String, fallback string) string {
	if !s.Valid || s.String == "" {
		return fallback
	}
	return s.String
}

func intValue(n int) null.Int {
	return null.IntFrom(int64(n))
}
