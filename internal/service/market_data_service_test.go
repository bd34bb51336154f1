package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/market-dashboard/internal/config"
	"github.com/yourorg/market-dashboard/internal/events"
	"github.com/yourorg/market-dashboard/internal/ingest"
	"github.com/yourorg/market-dashboard/internal/model"
	"github.com/yourorg/market-dashboard/internal/repository"
)

type fakeArchive struct {
	stored []string
	err    error
}

func (a *fakeArchive) Store(_ context.Context, kind model.DatasetKind, filename string, _ []byte) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	key := string(kind) + "/" + filename
	a.stored = append(a.stored, key)
	return key, nil
}

type fakePublisher struct {
	events []events.DatasetImported
	err    error
}

func (p *fakePublisher) DatasetImported(_ context.Context, e events.DatasetImported) error {
	p.events = append(p.events, e)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

type fakeFlusher struct {
	flushes int
	err     error
}

func (f *fakeFlusher) Flush(context.Context) error {
	f.flushes++
	return f.err
}

func newTestService(t *testing.T, archive *fakeArchive, publisher *fakePublisher, flusher CacheFlusher) *MarketDataService {
	t.Helper()

	ctx := context.Background()
	db, err := repository.Connect(ctx, config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", ConnectTimeout: time.Second}, zap.NewNop())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := repository.InitSchema(ctx, db); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}

	return NewMarketDataService(repository.NewBarRepository(db, zap.NewNop()), archive, publisher, flusher, zap.NewNop())
}

func dailyCSV(days int) []byte {
	var b strings.Builder
	b.WriteString("Time,Open,High,Low,Close,Volume\n")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < days; i++ {
		c := 100 + float64(i%7) + float64(i)/3
		fmt.Fprintf(&b, "%d,%.4f,%.4f,%.4f,%.4f,%d\n", start.AddDate(0, 0, i).Unix(), c-1, c+1.2345, c-2, c, 1000+i)
	}
	return []byte(b.String())
}

func TestImportDailyCSV(t *testing.T) {
	archive, publisher, flusher := &fakeArchive{}, &fakePublisher{}, &fakeFlusher{}
	svc := newTestService(t, archive, publisher, flusher)
	ctx := context.Background()

	result, err := svc.ImportDailyCSV(ctx, "spx.csv", dailyCSV(40))
	if err != nil {
		t.Fatalf("ImportDailyCSV() error = %v", err)
	}
	if result.RecordsProcessed != 40 || result.Status != "success" {
		t.Errorf("result = %+v", result)
	}
	if result.DateRange.Start.String != "2024-01-01" || result.DateRange.End.String != "2024-02-09" {
		t.Errorf("date range = %+v", result.DateRange)
	}

	if len(archive.stored) != 1 || len(publisher.events) != 1 || flusher.flushes != 1 {
		t.Errorf("side effects: archive=%d events=%d flushes=%d", len(archive.stored), len(publisher.events), flusher.flushes)
	}
	if e := publisher.events[0]; e.Kind != model.DatasetDaily || e.ArchivedAs != "daily/spx.csv" || e.RecordsProcessed != 40 {
		t.Errorf("event = %+v", e)
	}

	records, err := svc.GetDaily(ctx, 60)
	if err != nil {
		t.Fatalf("GetDaily() error = %v", err)
	}
	if len(records) != 40 {
		t.Fatalf("len(GetDaily) = %d", len(records))
	}
	if records[0].RSI.Valid || !records[39].RSI.Valid {
		t.Errorf("RSI warmup not respected: first=%+v last=%+v", records[0].RSI, records[39].RSI)
	}
	for _, r := range records {
		for _, v := range []float64{r.High.Float64, r.MACD.Line.Float64, r.RSI.Float64} {
			if s := fmt.Sprint(v); strings.Contains(s, ".") && len(s[strings.Index(s, ".")+1:]) > 2 {
				t.Fatalf("value %v not rounded to two decimals", v)
			}
		}
	}

	stats, err := svc.GetDailyStats(ctx)
	if err != nil {
		t.Fatalf("GetDailyStats() error = %v", err)
	}
	if stats.TotalRecords != 40 || stats.LatestClose != records[39].Close {
		t.Errorf("stats = %+v", stats)
	}
}

func TestImportIntradayCSVStoresOneBarPerDate(t *testing.T) {
	svc := newTestService(t, &fakeArchive{}, &fakePublisher{}, nil)
	ctx := context.Background()

	csv := "time,open,high,low,close,volume\n" +
		"2024-01-02 09:30:00,10,11,9,10.5,100\n" +
		"2024-01-02 16:00:00,10.5,12,10,11.5,200\n" +
		"2024-01-03 09:30:00,11.5,13,11,12.5,300\n"

	result, err := svc.ImportDailyCSV(ctx, "intraday.csv", []byte(csv))
	if err != nil {
		t.Fatalf("ImportDailyCSV() error = %v", err)
	}
	if result.RecordsProcessed != 2 {
		t.Errorf("RecordsProcessed = %d, want 2", result.RecordsProcessed)
	}

	records, err := svc.GetDaily(ctx, 10)
	if err != nil {
		t.Fatalf("GetDaily() error = %v", err)
	}
	if len(records) != 2 || records[0].Date != "2024-01-02" || records[0].Close.Float64 != 11.5 {
		t.Errorf("records = %+v", records)
	}
}

func TestImportRejectsInvalidCSV(t *testing.T) {
	publisher := &fakePublisher{}
	svc := newTestService(t, &fakeArchive{}, publisher, nil)

	tests := map[string]string{
		"missing columns": "time,open\n1,2\n",
		"no usable rows":  "time,open,high,low,close,volume\n,1,2,3,4,5\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ImportMonthlyCSV(context.Background(), "m.csv", []byte(body))
			if !errors.Is(err, ingest.ErrInvalidCSV) {
				t.Errorf("error = %v, want ErrInvalidCSV", err)
			}
		})
	}
	if len(publisher.events) != 0 {
		t.Errorf("failed imports published %d events", len(publisher.events))
	}
}

func TestImportSurvivesSideEffectFailures(t *testing.T) {
	archive := &fakeArchive{err: errors.New("disk full")}
	publisher := &fakePublisher{err: errors.New("broker down")}
	flusher := &fakeFlusher{err: errors.New("redis down")}
	svc := newTestService(t, archive, publisher, flusher)

	body := "time,open,high,low,close,volume\n2024-01-01,1.005,2,0.5,1.234,10\n2024-02-01,1,2,0.5,1.5,20\n"
	result, err := svc.ImportMonthlyCSV(context.Background(), "m.csv", []byte(body))
	if err != nil {
		t.Fatalf("ImportMonthlyCSV() error = %v", err)
	}
	if result.RecordsProcessed != 2 {
		t.Errorf("RecordsProcessed = %d", result.RecordsProcessed)
	}
	if publisher.events[0].ArchivedAs != "" {
		t.Errorf("ArchivedAs = %q after failed archive", publisher.events[0].ArchivedAs)
	}

	monthly, err := svc.GetMonthly(context.Background(), 0)
	if err != nil {
		t.Fatalf("GetMonthly() error = %v", err)
	}
	if len(monthly) != 2 || monthly[0].Close.Float64 != 1.23 {
		t.Errorf("monthly = %+v", monthly)
	}

	stats, err := svc.GetMonthlyStats(context.Background())
	if err != nil || stats.TotalRecords != 2 {
		t.Errorf("GetMonthlyStats() = %+v, %v", stats, err)
	}
}

func TestDailyStatsEmpty(t *testing.T) {
	svc := newTestService(t, &fakeArchive{}, &fakePublisher{}, nil)

	stats, err := svc.GetDailyStats(context.Background())
	if err != nil {
		t.Fatalf("GetDailyStats() error = %v", err)
	}
	if stats.TotalRecords != 0 || stats.LatestClose.Valid || stats.DateRange.Start.Valid {
		t.Errorf("stats = %+v", stats)
	}
}
