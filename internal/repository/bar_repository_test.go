package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"go.uber.org/zap"

	"github.com/yourorg/market-dashboard/internal/config"
	"github.com/yourorg/market-dashboard/internal/model"
)

func newTestRepository(t *testing.T) *BarRepository {
	t.Helper()

	ctx := context.Background()
	db, err := Connect(ctx, config.DatabaseConfig{
		Driver:         "sqlite",
		Path:           ":memory:",
		ConnectTimeout: time.Second,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := InitSchema(ctx, db); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}
	return NewBarRepository(db, zap.NewNop())
}

func dailyRecords(n int) []model.DailyRecord {
	records := make([]model.DailyRecord, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range records {
		records[i] = model.DailyRecord{
			Date:   start.AddDate(0, 0, i).Format(model.DateLayout),
			Open:   null.FloatFrom(float64(i)),
			High:   null.FloatFrom(float64(i) + 1.5),
			Low:    null.FloatFrom(float64(i) - 0.5),
			Close:  null.FloatFrom(float64(i) + 0.25),
			Volume: null.IntFrom(int64(1000 * i)),
			MACD:   model.MACD{Line: null.FloatFrom(0.1), Signal: null.FloatFrom(0.05), Hist: null.FloatFrom(0.05)},
		}
		if i > 0 {
			records[i].HighPrevCloseDiff = null.FloatFrom(1.25)
		}
	}
	return records
}

func TestReplaceAndListDaily(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.ReplaceDaily(ctx, dailyRecords(10)); err != nil {
		t.Fatalf("ReplaceDaily() error = %v", err)
	}

	got, err := repo.ListDaily(ctx, 3)
	if err != nil {
		t.Fatalf("ListDaily() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(ListDaily) = %d, want 3", len(got))
	}
	want := []string{"2024-01-08", "2024-01-09", "2024-01-10"}
	for i, rec := range got {
		if rec.Date != want[i] {
			t.Errorf("got[%d].Date = %s, want %s", i, rec.Date, want[i])
		}
	}
	if got[2].Volume.Int64 != 9000 || got[2].MACD.Line.Float64 != 0.1 {
		t.Errorf("got[2] = %+v", got[2])
	}
	if got[0].RSI.Valid {
		t.Error("null RSI read back as a value")
	}
}

func TestReplaceDailyOverwrites(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.ReplaceDaily(ctx, dailyRecords(10)); err != nil {
		t.Fatal(err)
	}
	if err := repo.ReplaceDaily(ctx, dailyRecords(2)); err != nil {
		t.Fatal(err)
	}

	stats, err := repo.DailyStats(ctx)
	if err != nil {
		t.Fatalf("DailyStats() error = %v", err)
	}
	if stats.TotalRecords != 2 || stats.DateRange.Start.String != "2024-01-01" || stats.DateRange.End.String != "2024-01-02" {
		t.Errorf("stats = %+v", stats)
	}
}

func TestReplaceDailyRollsBackOnDuplicate(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if err := repo.ReplaceDaily(ctx, dailyRecords(3)); err != nil {
		t.Fatal(err)
	}

	dup := dailyRecords(2)
	dup[1].Date = dup[0].Date
	if err := repo.ReplaceDaily(ctx, dup); err == nil {
		t.Fatal("ReplaceDaily() accepted duplicate dates")
	}

	stats, err := repo.DailyStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalRecords != 3 {
		t.Errorf("TotalRecords = %d after failed replace, want 3", stats.TotalRecords)
	}
}

func TestEmptyTables(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	stats, err := repo.MonthlyStats(ctx)
	if err != nil {
		t.Fatalf("MonthlyStats() error = %v", err)
	}
	if stats.TotalRecords != 0 || stats.DateRange.Start.Valid || stats.DateRange.End.Valid {
		t.Errorf("stats = %+v", stats)
	}

	latest, err := repo.LatestDaily(ctx)
	if err != nil || latest != nil {
		t.Errorf("LatestDaily() = %+v, %v", latest, err)
	}

	daily, err := repo.ListDaily(ctx, 60)
	if err != nil || daily == nil || len(daily) != 0 {
		t.Errorf("ListDaily() = %v, %v", daily, err)
	}
	monthly, err := repo.ListMonthly(ctx, 0)
	if err != nil || monthly == nil || len(monthly) != 0 {
		t.Errorf("ListMonthly() = %v, %v", monthly, err)
	}
}

func TestMonthly(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	records := make([]model.MonthlyRecord, 12)
	for i := range records {
		records[i] = model.MonthlyRecord{
			Date:   fmt.Sprintf("2023-%02d-01", i+1),
			Close:  null.FloatFrom(float64(100 + i)),
			Volume: null.IntFrom(int64(i)),
		}
	}
	if err := repo.ReplaceMonthly(ctx, records); err != nil {
		t.Fatalf("ReplaceMonthly() error = %v", err)
	}

	all, err := repo.ListMonthly(ctx, 0)
	if err != nil {
		t.Fatalf("ListMonthly() error = %v", err)
	}
	if len(all) != 12 || all[0].Date != "2023-01-01" || all[11].Date != "2023-12-01" {
		t.Errorf("ListMonthly(0) = %d records from %s", len(all), all[0].Date)
	}
	if all[0].Open.Valid || all[0].Close.Float64 != 100 {
		t.Errorf("all[0] = %+v", all[0])
	}

	last, err := repo.ListMonthly(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(last) != 2 || last[0].Date != "2023-11-01" || last[1].Date != "2023-12-01" {
		t.Errorf("ListMonthly(2) = %+v", last)
	}

	stats, err := repo.MonthlyStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalRecords != 12 {
		t.Errorf("TotalRecords = %d", stats.TotalRecords)
	}
}

func TestLatestDaily(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	records := dailyRecords(5)
	records[4].RSI = null.FloatFrom(61.5)
	if err := repo.ReplaceDaily(ctx, records); err != nil {
		t.Fatal(err)
	}

	latest, err := repo.LatestDaily(ctx)
	if err != nil {
		t.Fatalf("LatestDaily() error = %v", err)
	}
	if latest == nil || latest.Date != "2024-01-05" || latest.RSI.Float64 != 61.5 {
		t.Errorf("LatestDaily() = %+v", latest)
	}
}

func TestConnectUnknownDriverFails(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := Connect(ctx, config.DatabaseConfig{Driver: "nope", ConnectTimeout: 100 * time.Millisecond}, zap.NewNop())
	if err == nil {
		t.Error("Connect() succeeded with an unknown driver")
	}
}
