package ingest

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestParseCSVNormalisesHeadersAndSorts(t *testing.T) {
	input := " Time ,OPEN,High,low,Close,Volume\n" +
		"2024-01-03,3,4,2,3.5,300\n" +
		"2024-01-01,1,2,0.5,1.5,100\n" +
		"2024-01-02,2,3,1,2.5,\n"

	rows, err := ParseCSV(strings.NewReader(input), zap.NewNop())
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}

	want := []string{"2024-01-01", "2024-01-02", "2024-01-03"}
	for i, row := range rows {
		if row.Date() != want[i] {
			t.Errorf("rows[%d].Date() = %s, want %s", i, row.Date(), want[i])
		}
	}
	if rows[1].Volume.Valid {
		t.Errorf("empty volume parsed as %v", rows[1].Volume.Float64)
	}
	if rows[0].Close != 1.5 {
		t.Errorf("rows[0].Close = %v", rows[0].Close)
	}
}

func TestParseCSVEpochSeconds(t *testing.T) {
	input := "time,open,high,low,close,volume\n" +
		"1704153600,1,2,0.5,1.5,100\n" +
		"1704067200.0,1,2,0.5,1.5,100\n"

	rows, err := ParseCSV(strings.NewReader(input), zap.NewNop())
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	if len(rows) != 2 || rows[0].Date() != "2024-01-01" || rows[1].Date() != "2024-01-02" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestParseCSVKeepsLastRowPerDate(t *testing.T) {
	input := "time,open,high,low,close,volume\n" +
		"2024-01-02 16:00:00,2,3,1,2.8,200\n" +
		"2024-01-02 09:30:00,2,2.5,1.5,2.1,100\n" +
		"2024-01-03 09:30:00,3,4,2,3.5,300\n" +
		"1704240000,3.5,4.5,3,4,50\n"

	rows, err := ParseCSV(strings.NewReader(input), zap.NewNop())
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].Date() != "2024-01-02" || rows[0].Close != 2.8 {
		t.Errorf("rows[0] = %+v, want the 16:00 row", rows[0])
	}
	if rows[1].Date() != "2024-01-03" || rows[1].Close != 3.5 {
		t.Errorf("rows[1] = %+v, want the 09:30 row", rows[1])
	}
}

func TestParseCSVDropsIncompleteRows(t *testing.T) {
	input := "time,open,high,low,close,volume\n" +
		"2024-01-01,1,2,0.5,1.5,100\n" +
		",1,2,0.5,1.5,100\n" +
		"2024-01-02,1,n/a,0.5,1.5,100\n" +
		"not a date,1,2,0.5,1.5,100\n" +
		"2024-01-03,1,2,0.5\n" +
		"2024-01-04,1,2,0.5,1.5,abc\n"

	rows, err := ParseCSV(strings.NewReader(input), zap.NewNop())
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[1].Date() != "2024-01-04" || rows[1].Volume.Valid {
		t.Errorf("rows[1] = %+v", rows[1])
	}
}

func TestParseCSVInvalidFiles(t *testing.T) {
	tests := map[string]string{
		"empty":           "",
		"missing columns": "time,open,high\n2024-01-01,1,2\n",
		"bad quoting":     "time,open,high,low,close,volume\n\"2024-01-01,1,2,3,4,5\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(input), zap.NewNop())
			if !errors.Is(err, ErrInvalidCSV) {
				t.Errorf("error = %v, want ErrInvalidCSV", err)
			}
		})
	}
}

func TestParseCSVNamesMissingColumns(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("time,open,high,low\n"), zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "close") || !strings.Contains(err.Error(), "volume") {
		t.Errorf("error = %v, want missing close and volume", err)
	}
}

func TestBuildDaily(t *testing.T) {
	input := "time,open,high,low,close,volume\n" +
		"2024-01-01,1,12,0.5,10,100.7\n" +
		"2024-01-02,1,13,0.5,11,200\n" +
		"2024-01-03,1,9,0.5,8,\n"

	rows, err := ParseCSV(strings.NewReader(input), zap.NewNop())
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	records := BuildDaily(rows)

	if len(records) != 3 {
		t.Fatalf("len(records) = %d", len(records))
	}
	if records[0].HighPrevCloseDiff.Valid {
		t.Error("first record has a previous close difference")
	}
	if records[1].HighPrevCloseDiff.Float64 != 3 || records[2].HighPrevCloseDiff.Float64 != -2 {
		t.Errorf("diffs = %v, %v", records[1].HighPrevCloseDiff, records[2].HighPrevCloseDiff)
	}
	if records[0].Volume.Int64 != 100 || records[2].Volume.Valid {
		t.Errorf("volumes = %+v, %+v", records[0].Volume, records[2].Volume)
	}
	for i, r := range records {
		if r.RSI.Valid {
			t.Errorf("records[%d].RSI set during warmup", i)
		}
		if !r.MACD.Line.Valid || !r.MACD.Signal.Valid || !r.MACD.Hist.Valid {
			t.Errorf("records[%d].MACD incomplete", i)
		}
	}
	if records[0].MACD.Line.Float64 != 0 {
		t.Errorf("records[0].MACD.Line = %v, want 0", records[0].MACD.Line.Float64)
	}

	dateRange := Range(rows)
	if dateRange.Start.String != "2024-01-01" || dateRange.End.String != "2024-01-03" {
		t.Errorf("Range() = %+v", dateRange)
	}
}

func TestBuildMonthly(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader("time,open,high,low,close,volume\n2024-02-01T00:00:00Z,1,2,0.5,1.5,42\n"), zap.NewNop())
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}
	records := BuildMonthly(rows)
	if len(records) != 1 || records[0].Date != "2024-02-01" || records[0].Volume.Int64 != 42 {
		t.Errorf("records = %+v", records)
	}
}

func TestRangeEmpty(t *testing.T) {
	if r := Range(nil); r.Start.Valid || r.End.Valid {
		t.Errorf("Range(nil) = %+v", r)
	}
}
