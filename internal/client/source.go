package client

import (
	"context"
	"fmt"

	"github.com/guregu/null/v6"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/yourorg/market-dashboard/internal/dashboard"
	"github.com/yourorg/market-dashboard/internal/model"
)

// Source fetches the summary and records of one dashboard view
type Source struct {
	client *APIClient
	view   dashboard.View
}

// NewSource binds client to the endpoints of view
func NewSource(client *APIClient, view dashboard.View) *Source {
	return &Source{client: client, view: view}
}

// Endpoint returns the API root
func (s *Source) Endpoint() string {
	return s.client.BaseURL()
}

// FetchSummary returns the server-side summary. A body that is not an object
// carrying total_records yields a nil summary without error.
func (s *Source) FetchSummary(ctx context.Context) (*model.Summary, error) {
	body, err := s.client.get(ctx, s.view.StatsPath)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decode %s: invalid json: %w", s.view.StatsPath, dashboard.ErrDecode)
	}

	doc := gjson.ParseBytes(body)
	total := doc.Get("total_records")
	if !doc.IsObject() || total.Type != gjson.Number {
		return nil, nil
	}

	return &model.Summary{
		TotalRecords: int(total.Int()),
		DateRange: model.DateRange{
			Start: stringField(doc.Get("date_range.start")),
			End:   stringField(doc.Get("date_range.end")),
		},
	}, nil
}

// FetchBars returns the record list. A null body yields no bars. Rows are read
// field by field: a field of the wrong type becomes null and a row that is not
// an object is dropped, so one odd row never hides the others.
func (s *Source) FetchBars(ctx context.Context) ([]model.Bar, error) {
	body, err := s.client.get(ctx, s.view.RecordsPath)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decode %s: invalid json: %w", s.view.RecordsPath, dashboard.ErrDecode)
	}

	doc := gjson.ParseBytes(body)
	if doc.Type == gjson.Null {
		return nil, nil
	}
	if !doc.IsArray() {
		return nil, fmt.Errorf("decode %s: expected a list of records: %w", s.view.RecordsPath, dashboard.ErrDecode)
	}

	bars := make([]model.Bar, 0)
	dropped := 0
	doc.ForEach(func(_, row gjson.Result) bool {
		if !row.IsObject() {
			dropped++
			return true
		}
		bars = append(bars, barFromJSON(row))
		return true
	})

	if dropped > 0 {
		s.client.logger.Warn("Dropped malformed records",
			zap.String("path", s.view.RecordsPath),
			zap.Int("dropped", dropped),
			zap.Int("kept", len(bars)))
	}
	return bars, nil
}

// barFromJSON reads the wire fields of one record. high_prev_close_pct is
// derived on the client and is not read.
func barFromJSON(row gjson.Result) model.Bar {
	bar := model.Bar{
		Date:              stringField(row.Get("date")),
		Open:              floatField(row.Get("open")),
		High:              floatField(row.Get("high")),
		Low:               floatField(row.Get("low")),
		Close:             floatField(row.Get("close")),
		Volume:            intField(row.Get("volume")),
		RSI:               floatField(row.Get("rsi")),
		HighPrevCloseDiff: floatField(row.Get("high_prev_close_diff")),
	}
	if macd := row.Get("macd"); macd.IsObject() {
		bar.MACD = &model.MACD{
			Line:   floatField(macd.Get("line")),
			Signal: floatField(macd.Get("signal")),
			Hist:   floatField(macd.Get("hist")),
		}
	}
	return bar
}

func stringField(r gjson.Result) null.String {
	if r.Type != gjson.String {
		return null.String{}
	}
	return null.StringFrom(r.String())
}

func floatField(r gjson.Result) null.Float {
	if r.Type != gjson.Number {
		return null.Float{}
	}
	return null.FloatFrom(r.Float())
}

// intField truncates fractional numbers such as 1234.0
func intField(r gjson.Result) null.Int {
	if r.Type != gjson.Number {
		return null.Int{}
	}
	return null.IntFrom(r.Int())
}
