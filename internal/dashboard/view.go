package dashboard

import (
	"fmt"
	"strconv"

	"github.com/yourorg/market-dashboard/internal/model"
)

// Cell is one rendered table cell
type Cell struct {
	Text  string
	Class Class
}

// Column describes one table column of a view
type Column struct {
	Key   string
	Title string
	Cell  func(bar model.Bar) Cell
}

// StatCard is one labelled value shown above the table
type StatCard struct {
	Label string
	Value string
}

// View configures a dashboard page: where its data lives, which columns it
// shows and whether the enricher and the cache fallback apply.
type View struct {
	Name        string
	StatsPath   string
	RecordsPath string
	Columns     []Column
	Enrich      bool
	UseCache    bool
	Cards       func(summary *model.Summary, shown int) []StatCard
}

// DefaultDailyLimit is the number of daily bars requested when none is given
const DefaultDailyLimit = 60

// DailyView is the daily bars page with indicators and derived columns
func DailyView(limit int) View {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	return View{
		Name:        string(model.DatasetDaily),
		StatsPath:   "/api/stats",
		RecordsPath: "/api/daily-data?limit=" + strconv.Itoa(limit),
		Enrich:      true,
		Columns: []Column{
			dateColumn(),
			numberColumn(ColumnOpen, "Open", func(b model.Bar) Cell { return Cell{Text: FormatNumber(b.Open)} }),
			numberColumn(ColumnHigh, "High", func(b model.Bar) Cell { return Cell{Text: FormatNumber(b.High)} }),
			numberColumn(ColumnHighPrevCloseDiff, "High-PrevClose", func(b model.Bar) Cell {
				return Cell{Text: FormatNumber(b.HighPrevCloseDiff), Class: DiffClass(b.HighPrevCloseDiff)}
			}),
			numberColumn(ColumnHighPrevClosePct, "High-PrevClose %", func(b model.Bar) Cell {
				return Cell{Text: FormatPercent(b.HighPrevClosePct), Class: DiffClass(b.HighPrevClosePct)}
			}),
			numberColumn(ColumnLow, "Low", func(b model.Bar) Cell { return Cell{Text: FormatNumber(b.Low)} }),
			numberColumn(ColumnClose, "Close", func(b model.Bar) Cell { return Cell{Text: FormatNumber(b.Close)} }),
			volumeColumn(),
			numberColumn(ColumnRSI, "RSI", func(b model.Bar) Cell {
				return Cell{Text: FormatNumber(b.RSI), Class: RSIClass(b.RSI)}
			}),
			numberColumn(ColumnMACDLine, "MACD", func(b model.Bar) Cell { return Cell{Text: FormatNumber(macdOf(b).Line)} }),
			numberColumn(ColumnMACDSignal, "Signal", func(b model.Bar) Cell { return Cell{Text: FormatNumber(macdOf(b).Signal)} }),
			numberColumn(ColumnMACDHist, "Histogram", func(b model.Bar) Cell { return Cell{Text: FormatNumber(macdOf(b).Hist)} }),
		},
		Cards: func(summary *model.Summary, shown int) []StatCard {
			if summary == nil {
				return nil
			}
			return []StatCard{
				{Label: "Total Records", Value: FormatVolume(intValue(summary.TotalRecords))},
				{Label: "First Date", Value: orDefault(summary.DateRange.Start, "")},
				{Label: "Last Date", Value: orDefault(summary.DateRange.End, "")},
				{Label: "Records Shown", Value: strconv.Itoa(shown)},
			}
		},
	}
}

// MonthlyView is the monthly bars page. It has no indicators and falls back to
// the last cached dataset when the API returns nothing.
func MonthlyView(limit int) View {
	recordsPath := "/api/monthly-data"
	if limit > 0 {
		recordsPath += "?limit=" + strconv.Itoa(limit)
	}
	return View{
		Name:        string(model.DatasetMonthly),
		StatsPath:   "/api/monthly-stats",
		RecordsPath: recordsPath,
		UseCache:    true,
		Columns: []Column{
			dateColumn(),
			numberColumn(ColumnOpen, "Open", func(b model.Bar) Cell { return Cell{Text: FormatNumber(b.Open)} }),
			numberColumn(ColumnHigh, "High", func(b model.Bar) Cell { return Cell{Text: FormatNumber(b.High)} }),
			numberColumn(ColumnLow, "Low", func(b model.Bar) Cell { return Cell{Text: FormatNumber(b.Low)} }),
			numberColumn(ColumnClose, "Close", func(b model.Bar) Cell { return Cell{Text: FormatNumber(b.Close)} }),
			volumeColumn(),
		},
		Cards: func(summary *model.Summary, _ int) []StatCard {
			if summary == nil {
				return nil
			}
			return []StatCard{
				{Label: "Total Months", Value: FormatVolume(intValue(summary.TotalRecords))},
				{Label: "First Month", Value: orDefault(summary.DateRange.Start, "N/A")},
				{Label: "Last Month", Value: orDefault(summary.DateRange.End, "N/A")},
				{Label: "Period", Value: PeriodYears(summary.DateRange)},
			}
		},
	}
}

// ViewByName returns the daily or monthly view
func ViewByName(name string, limit int) (View, error) {
	switch model.DatasetKind(name) {
	case model.DatasetDaily:
		return DailyView(limit), nil
	case model.DatasetMonthly:
		return MonthlyView(limit), nil
	default:
		return View{}, fmt.Errorf("unknown view %q", name)
	}
}

// HasColumn reports whether key is one of the view's columns
func (v View) HasColumn(key string) bool {
	for _, c := range v.Columns {
		if c.Key == key {
			return true
		}
	}
	return false
}

// Project renders bars into table rows, one cell per column
func (v View) Project(bars []model.Bar) [][]Cell {
	rows := make([][]Cell, len(bars))
	for i, bar := range bars {
		row := make([]Cell, len(v.Columns))
		for j, column := range v.Columns {
			row[j] = column.Cell(bar)
		}
		rows[i] = row
	}
	return rows
}

func dateColumn() Column {
	return Column{
		Key:   ColumnDate,
		Title: "Date",
		Cell: func(b model.Bar) Cell {
			return Cell{Text: orDefault(b.Date, placeholder)}
		},
	}
}

func volumeColumn() Column {
	return Column{
		Key:   ColumnVolume,
		Title: "Volume",
		Cell:  func(b model.Bar) Cell { return Cell{Text: FormatVolume(b.Volume)} },
	}
}

func numberColumn(key, title string, cell func(model.Bar) Cell) Column {
	return Column{Key: key, Title: title, Cell: cell}
}

func macdOf(b model.Bar) model.MACD {
	if b.MACD == nil {
		return model.MACD{}
	}
	return *b.MACD
}
