package dashboard

import (
	"slices"
	"strings"

	"github.com/guregu/null/v6"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/yourorg/market-dashboard/internal/model"
)

// Sortable column keys
const (
	ColumnDate              = "date"
	ColumnOpen              = "open"
	ColumnHigh              = "high"
	ColumnLow               = "low"
	ColumnClose             = "close"
	ColumnVolume            = "volume"
	ColumnRSI               = "rsi"
	ColumnHighPrevCloseDiff = "high_prev_close_diff"
	ColumnHighPrevClosePct  = "high_prev_close_pct"
	ColumnMACDLine          = "macd_line"
	ColumnMACDSignal        = "macd_signal"
	ColumnMACDHist          = "macd_hist"
)

// macdColumnPrefix addresses a field inside the MACD sub-structure
const macdColumnPrefix = "macd_"

// sortKey is the resolved comparison value of one bar for one column
type sortKey struct {
	text   string
	number float64
	isText bool
	valid  bool
}

func floatKey(v null.Float) sortKey {
	if !v.Valid {
		return sortKey{}
	}
	return sortKey{number: v.Float64, valid: true}
}

func resolveKey(bar model.Bar, column string) sortKey {
	if field, ok := strings.CutPrefix(column, macdColumnPrefix); ok {
		if bar.MACD == nil {
			return sortKey{}
		}
		switch field {
		case "line":
			return floatKey(bar.MACD.Line)
		case "signal":
			return floatKey(bar.MACD.Signal)
		case "hist":
			return floatKey(bar.MACD.Hist)
		}
		return sortKey{}
	}

	switch column {
	case ColumnDate:
		if !bar.Date.Valid {
			return sortKey{}
		}
		if _, ok := model.ParseDate(bar.Date.String); !ok {
			return sortKey{}
		}
		return sortKey{text: bar.Date.String, isText: true, valid: true}
	case ColumnOpen:
		return floatKey(bar.Open)
	case ColumnHigh:
		return floatKey(bar.High)
	case ColumnLow:
		return floatKey(bar.Low)
	case ColumnClose:
		return floatKey(bar.Close)
	case ColumnVolume:
		if !bar.Volume.Valid {
			return sortKey{}
		}
		return sortKey{number: float64(bar.Volume.Int64), valid: true}
	case ColumnRSI:
		return floatKey(bar.RSI)
	case ColumnHighPrevCloseDiff:
		return floatKey(bar.HighPrevCloseDiff)
	case ColumnHighPrevClosePct:
		return floatKey(bar.HighPrevClosePct)
	}
	return sortKey{}
}

// compareKeys orders two keys. Null keys sink below non-null keys whatever the
// direction; only the comparison of two present keys is reversed by descending.
func compareKeys(a, b sortKey, direction model.Direction, collator *collate.Collator) int {
	switch {
	case !a.valid && !b.valid:
		return 0
	case !a.valid:
		return 1
	case !b.valid:
		return -1
	}

	if direction == model.Descending {
		a, b = b, a
	}

	if a.isText {
		return collator.CompareString(a.text, b.text)
	}

	switch diff := a.number - b.number; {
	case diff < 0:
		return -1
	case diff > 0:
		return 1
	default:
		return 0
	}
}

type keyedBar struct {
	bar model.Bar
	key sortKey
}

// SortBars returns a stably sorted copy of bars ordered by column.
// The input slice is left untouched.
func SortBars(bars []model.Bar, column string, direction model.Direction) []model.Bar {
	keyed := make([]keyedBar, len(bars))
	for i, bar := range bars {
		keyed[i] = keyedBar{bar: bar, key: resolveKey(bar, column)}
	}

	collator := collate.New(language.Und)
	slices.SortStableFunc(keyed, func(a, b keyedBar) int {
		return compareKeys(a.key, b.key, direction, collator)
	})

	sorted := make([]model.Bar, len(keyed))
	for i, k := range keyed {
		sorted[i] = k.bar
	}
	return sorted
}

// Toggle applies a column selection to a sort state. Selecting the active column
// flips its direction; selecting another column makes it active, descending.
func Toggle(state model.SortState, column string) model.SortState {
	if column == state.Column {
		return model.SortState{Column: column, Direction: state.Direction.Flip()}
	}
	return model.SortState{Column: column, Direction: model.Descending}
}
