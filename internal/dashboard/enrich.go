package dashboard

import (
	"github.com/guregu/null/v6"

	"github.com/yourorg/market-dashboard/internal/model"
)

// Enrich computes the derived fields of a bar from its own values.
// The previous close is rebuilt as high - diff; the percentage is only defined
// when that previous close is known and non-zero.
func Enrich(bar model.Bar) model.Bar {
	enriched := bar
	enriched.HighPrevClosePct = null.Float{}

	if bar.High.Valid && bar.HighPrevCloseDiff.Valid {
		diff := bar.HighPrevCloseDiff.Float64
		prevClose := bar.High.Float64 - diff
		if prevClose != 0 {
			enriched.HighPrevClosePct = null.FloatFrom(diff / prevClose * 100)
		}
	}

	return enriched
}

// EnrichAll returns an enriched copy of bars
func EnrichAll(bars []model.Bar) []model.Bar {
	enriched := make([]model.Bar, len(bars))
	for i, bar := range bars {
		enriched[i] = Enrich(bar)
	}
	return enriched
}
