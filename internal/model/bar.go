package model

import (
	"github.com/guregu/null/v6"
)

// Bar represents one time-bucketed price record as the dashboard sees it.
// Every field is optional; a record fetched from a partial endpoint may carry
// only a date and a close.
type Bar struct {
	Date              null.String `json:"date"`
	Open              null.Float  `json:"open"`
	High              null.Float  `json:"high"`
	Low               null.Float  `json:"low"`
	Close             null.Float  `json:"close"`
	Volume            null.Int    `json:"volume"`
	RSI               null.Float  `json:"rsi"`
	MACD              *MACD       `json:"macd,omitempty"`
	HighPrevCloseDiff null.Float  `json:"high_prev_close_diff"`

	// HighPrevClosePct is derived on the client and never read from the API.
	HighPrevClosePct null.Float `json:"high_prev_close_pct"`
}

// MACD holds the three MACD sub-values of a bar
type MACD struct {
	Line   null.Float `json:"line"`
	Signal null.Float `json:"signal"`
	Hist   null.Float `json:"hist"`
}

// DailyRecord is the wire shape of a daily bar served by the API
type DailyRecord struct {
	Date              string     `json:"date"`
	Open              null.Float `json:"open"`
	High              null.Float `json:"high"`
	Low               null.Float `json:"low"`
	Close             null.Float `json:"close"`
	Volume            null.Int   `json:"volume"`
	HighPrevCloseDiff null.Float `json:"high_prev_close_diff"`
	RSI               null.Float `json:"rsi"`
	MACD              MACD       `json:"macd"`
}

// MonthlyRecord is the wire shape of a monthly bar served by the API
type MonthlyRecord struct {
	Date   string     `json:"date"`
	Open   null.Float `json:"open"`
	High   null.Float `json:"high"`
	Low    null.Float `json:"low"`
	Close  null.Float `json:"close"`
	Volume null.Int   `json:"volume"`
}
