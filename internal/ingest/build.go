package ingest

import (
	"github.com/guregu/null/v6"

	"github.com/yourorg/market-dashboard/internal/indicator"
	"github.com/yourorg/market-dashboard/internal/model"
)

// Indicator periods used for daily records
const (
	RSIPeriod  = 14
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
)

// BuildDaily turns time-ordered rows into daily records with the previous
// close difference, RSI and MACD attached.
func BuildDaily(rows []Row) []model.DailyRecord {
	closes := make([]float64, len(rows))
	for i, row := range rows {
		closes[i] = row.Close
	}
	rsi := indicator.RSI(closes, RSIPeriod)
	macd := indicator.MACD(closes, MACDFast, MACDSlow, MACDSignal)

	records := make([]model.DailyRecord, len(rows))
	for i, row := range rows {
		var diff null.Float
		if i > 0 {
			diff = null.FloatFrom(row.High - rows[i-1].Close)
		}
		records[i] = model.DailyRecord{
			Date:              row.Date(),
			Open:              null.FloatFrom(row.Open),
			High:              null.FloatFrom(row.High),
			Low:               null.FloatFrom(row.Low),
			Close:             null.FloatFrom(row.Close),
			Volume:            volume(row.Volume),
			HighPrevCloseDiff: diff,
			RSI:               rsi[i],
			MACD: model.MACD{
				Line:   null.FloatFrom(macd.Line[i]),
				Signal: null.FloatFrom(macd.Signal[i]),
				Hist:   null.FloatFrom(macd.Hist[i]),
			},
		}
	}
	return records
}

// BuildMonthly turns time-ordered rows into monthly records
func BuildMonthly(rows []Row) []model.MonthlyRecord {
	records := make([]model.MonthlyRecord, len(rows))
	for i, row := range rows {
		records[i] = model.MonthlyRecord{
			Date:   row.Date(),
			Open:   null.FloatFrom(row.Open),
			High:   null.FloatFrom(row.High),
			Low:    null.FloatFrom(row.Low),
			Close:  null.FloatFrom(row.Close),
			Volume: volume(row.Volume),
		}
	}
	return records
}

func volume(v null.Float) null.Int {
	if !v.Valid {
		return null.Int{}
	}
	return null.IntFrom(int64(v.Float64))
}
