package dashboard

import (
	"slices"
	"time"

	"github.com/guregu/null/v6"

	"github.com/yourorg/market-dashboard/internal/model"
)

// SummaryResult is the settled outcome of a summary fetch
type SummaryResult struct {
	Summary *model.Summary
	Err     error
}

// RecordsResult is the settled outcome of a records fetch
type RecordsResult struct {
	Bars []model.Bar
	Err  error
}

// Reconciliation is the authoritative summary and working record set of one load
type Reconciliation struct {
	Summary   *model.Summary
	Bars      []model.Bar
	FromCache bool
}

// Reconcile turns two independently settled fetches into one summary and one
// working record set. It never fails: a failed records fetch counts as empty, an
// empty record set falls back to the cache when one is given, and a missing or
// zero-record summary is derived from the working set.
func Reconcile(summary SummaryResult, records RecordsResult, cache BarCache) Reconciliation {
	var result Reconciliation

	if records.Err == nil {
		result.Bars = records.Bars
	}

	if len(result.Bars) == 0 && cache != nil {
		if cached, ok := cache.Get(); ok && len(cached) > 0 {
			result.Bars = cached
			result.FromCache = true
		}
	}
	if result.Bars == nil {
		result.Bars = []model.Bar{}
	}

	result.Summary = summary.Summary
	if summary.Err != nil || result.Summary == nil || result.Summary.TotalRecords == 0 {
		result.Summary = DeriveSummary(result.Bars)
	}

	return result
}

type datedBar struct {
	at  time.Time
	raw string
}

// DeriveSummary builds a summary from the records themselves. Records without a
// parseable date are counted but left out of the date range. It returns nil for
// an empty collection.
func DeriveSummary(bars []model.Bar) *model.Summary {
	if len(bars) == 0 {
		return nil
	}

	dated := make([]datedBar, 0, len(bars))
	for _, bar := range bars {
		if !bar.Date.Valid {
			continue
		}
		at, ok := model.ParseDate(bar.Date.String)
		if !ok {
			continue
		}
		dated = append(dated, datedBar{at: at, raw: bar.Date.String})
	}
	slices.SortStableFunc(dated, func(a, b datedBar) int {
		return a.at.Compare(b.at)
	})

	summary := &model.Summary{TotalRecords: len(bars)}
	if len(dated) > 0 {
		summary.DateRange.Start = null.StringFrom(dated[0].raw)
		summary.DateRange.End = null.StringFrom(dated[len(dated)-1].raw)
	}
	return summary
}
