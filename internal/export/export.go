// Package export writes a dashboard projection to csv, json or parquet
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/guregu/null/v6"
	"github.com/parquet-go/parquet-go"

	"github.com/yourorg/market-dashboard/internal/dashboard"
	"github.com/yourorg/market-dashboard/internal/model"
)

// Format is an output file format
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatCSV, FormatJSON, FormatParquet:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want csv, json or parquet)", s)
	}
}

// Write encodes bars in order. CSV output carries the view's columns, json
// and parquet carry every bar field.
func Write(w io.Writer, format Format, view dashboard.View, bars []model.Bar) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, view, bars)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if bars == nil {
			bars = []model.Bar{}
		}
		return enc.Encode(bars)
	case FormatParquet:
		return writeParquet(w, bars)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

func writeCSV(w io.Writer, view dashboard.View, bars []model.Bar) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(view.Columns))
	for i, column := range view.Columns {
		header[i] = column.Key
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, bar := range bars {
		record := make([]string, len(view.Columns))
		for i, column := range view.Columns {
			record[i] = rawValue(bar, column.Key)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// rawValue renders the unformatted value of a column, empty for null
func rawValue(bar model.Bar, key string) string {
	var macd model.MACD
	if bar.MACD != nil {
		macd = *bar.MACD
	}

	switch key {
	case dashboard.ColumnDate:
		return bar.Date.String
	case dashboard.ColumnOpen:
		return floatText(bar.Open)
	case dashboard.ColumnHigh:
		return floatText(bar.High)
	case dashboard.ColumnLow:
		return floatText(bar.Low)
	case dashboard.ColumnClose:
		return floatText(bar.Close)
	case dashboard.ColumnVolume:
		if !bar.Volume.Valid {
			return ""
		}
		return strconv.FormatInt(bar.Volume.Int64, 10)
	case dashboard.ColumnRSI:
		return floatText(bar.RSI)
	case dashboard.ColumnHighPrevCloseDiff:
		return floatText(bar.HighPrevCloseDiff)
	case dashboard.ColumnHighPrevClosePct:
		return floatText(bar.HighPrevClosePct)
	case dashboard.ColumnMACDLine:
		return floatText(macd.Line)
	case dashboard.ColumnMACDSignal:
		return floatText(macd.Signal)
	case dashboard.ColumnMACDHist:
		return floatText(macd.Hist)
	default:
		return ""
	}
}

func floatText(v null.Float) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float64, 'f', -1, 64)
}

// parquetRow is the parquet schema of an exported bar
type parquetRow struct {
	Date              string   `parquet:"date"`
	Open              *float64 `parquet:"open,optional"`
	High              *float64 `parquet:"high,optional"`
	Low               *float64 `parquet:"low,optional"`
	Close             *float64 `parquet:"close,optional"`
	Volume            *int64   `parquet:"volume,optional"`
	RSI               *float64 `parquet:"rsi,optional"`
	MACDLine          *float64 `parquet:"macd_line,optional"`
	MACDSignal        *float64 `parquet:"macd_signal,optional"`
	MACDHist          *float64 `parquet:"macd_hist,optional"`
	HighPrevCloseDiff *float64 `parquet:"high_prev_close_diff,optional"`
	HighPrevClosePct  *float64 `parquet:"high_prev_close_pct,optional"`
}

func writeParquet(w io.Writer, bars []model.Bar) error {
	rows := make([]parquetRow, len(bars))
	for i, bar := range bars {
		var macd model.MACD
		if bar.MACD != nil {
			macd = *bar.MACD
		}
		rows[i] = parquetRow{
			Date:              bar.Date.String,
			Open:              bar.Open.Ptr(),
			High:              bar.High.Ptr(),
			Low:               bar.Low.Ptr(),
			Close:             bar.Close.Ptr(),
			Volume:            bar.Volume.Ptr(),
			RSI:               bar.RSI.Ptr(),
			MACDLine:          macd.Line.Ptr(),
			MACDSignal:        macd.Signal.Ptr(),
			MACDHist:          macd.Hist.Ptr(),
			HighPrevCloseDiff: bar.HighPrevCloseDiff.Ptr(),
			HighPrevClosePct:  bar.HighPrevClosePct.Ptr(),
		}
	}
	return parquet.Write(w, rows)
}
