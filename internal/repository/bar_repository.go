package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/guregu/null/v6"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yourorg/market-dashboard/internal/model"
)

// BarRepository handles database operations for daily and monthly bars
type BarRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewBarRepository creates a new bar repository
func NewBarRepository(db *sqlx.DB, logger *zap.Logger) *BarRepository {
	return &BarRepository{
		db:     db,
		logger: logger,
	}
}

type dailyRow struct {
	Date              string     `db:"date"`
	Open              null.Float `db:"open"`
	High              null.Float `db:"high"`
	Low               null.Float `db:"low"`
	Close             null.Float `db:"close"`
	Volume            null.Int   `db:"volume"`
	HighPrevCloseDiff null.Float `db:"high_prev_close_diff"`
	RSI               null.Float `db:"rsi"`
	MACDLine          null.Float `db:"macd_line"`
	MACDSignal        null.Float `db:"macd_signal"`
	MACDHist          null.Float `db:"macd_hist"`
}

func (r dailyRow) record() model.DailyRecord {
	return model.DailyRecord{
		Date:              r.Date,
		Open:              r.Open,
		High:              r.High,
		Low:               r.Low,
		Close:             r.Close,
		Volume:            r.Volume,
		HighPrevCloseDiff: r.HighPrevCloseDiff,
		RSI:               r.RSI,
		MACD: model.MACD{
			Line:   r.MACDLine,
			Signal: r.MACDSignal,
			Hist:   r.MACDHist,
		},
	}
}

type statsRow struct {
	Total int         `db:"total"`
	Start null.String `db:"start_date"`
	End   null.String `db:"end_date"`
}

func (r statsRow) summary() model.Summary {
	return model.Summary{
		TotalRecords: r.Total,
		DateRange:    model.DateRange{Start: r.Start, End: r.End},
	}
}

const dailyColumns = `date, open, high, low, close, volume, high_prev_close_diff, rsi, macd_line, macd_signal, macd_hist`

const monthlyColumns = `date, open, high, low, close, volume`

// ReplaceDaily swaps the whole daily table for records in one transaction
func (r *BarRepository) ReplaceDaily(ctx context.Context, records []model.DailyRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_bars`); err != nil {
		r.logger.Error("Failed to clear daily bars", zap.Error(err))
		return err
	}

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`
		INSERT INTO daily_bars (`+dailyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		r.logger.Error("Failed to prepare statement", zap.Error(err))
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err = stmt.ExecContext(
			ctx,
			rec.Date,
			rec.Open,
			rec.High,
			rec.Low,
			rec.Close,
			rec.Volume,
			rec.HighPrevCloseDiff,
			rec.RSI,
			rec.MACD.Line,
			rec.MACD.Signal,
			rec.MACD.Hist,
		)
		if err != nil {
			r.logger.Error("Failed to insert daily bar",
				zap.Error(err),
				zap.String("date", rec.Date))
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit transaction", zap.Error(err))
		return err
	}

	r.logger.Info("Saved daily bars", zap.Int("count", len(records)))
	return nil
}

// ReplaceMonthly swaps the whole monthly table for records in one transaction
func (r *BarRepository) ReplaceMonthly(ctx context.Context, records []model.MonthlyRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM monthly_bars`); err != nil {
		r.logger.Error("Failed to clear monthly bars", zap.Error(err))
		return err
	}

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`
		INSERT INTO monthly_bars (`+monthlyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		r.logger.Error("Failed to prepare statement", zap.Error(err))
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err = stmt.ExecContext(ctx, rec.Date, rec.Open, rec.High, rec.Low, rec.Close, rec.Volume)
		if err != nil {
			r.logger.Error("Failed to insert monthly bar",
				zap.Error(err),
				zap.String("date", rec.Date))
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit transaction", zap.Error(err))
		return err
	}

	r.logger.Info("Saved monthly bars", zap.Int("count", len(records)))
	return nil
}

// ListDaily returns the newest limit daily bars in ascending date order
func (r *BarRepository) ListDaily(ctx context.Context, limit int) ([]model.DailyRecord, error) {
	query := r.db.Rebind(`
		SELECT ` + dailyColumns + `
		FROM daily_bars
		ORDER BY date DESC
		LIMIT ?
	`)

	var rows []dailyRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		r.logger.Error("Failed to list daily bars", zap.Error(err), zap.Int("limit", limit))
		return nil, err
	}

	records := make([]model.DailyRecord, len(rows))
	for i, row := range rows {
		records[len(rows)-1-i] = row.record()
	}
	return records, nil
}

// ListMonthly returns monthly bars in ascending date order. A positive limit
// keeps only the newest limit bars.
func (r *BarRepository) ListMonthly(ctx context.Context, limit int) ([]model.MonthlyRecord, error) {
	query := `
		SELECT ` + monthlyColumns + `
		FROM monthly_bars
		ORDER BY date DESC
	`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []model.MonthlyRecord
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		r.logger.Error("Failed to list monthly bars", zap.Error(err), zap.Int("limit", limit))
		return nil, err
	}

	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	if rows == nil {
		rows = []model.MonthlyRecord{}
	}
	return rows, nil
}

// DailyStats returns the count and date range of the daily table
func (r *BarRepository) DailyStats(ctx context.Context) (model.Summary, error) {
	return r.stats(ctx, "daily_bars")
}

// MonthlyStats returns the count and date range of the monthly table
func (r *BarRepository) MonthlyStats(ctx context.Context) (model.Summary, error) {
	return r.stats(ctx, "monthly_bars")
}

func (r *BarRepository) stats(ctx context.Context, table string) (model.Summary, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			MIN(date) AS start_date,
			MAX(date) AS end_date
		FROM ` + table

	var row statsRow
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		r.logger.Error("Failed to get stats", zap.Error(err), zap.String("table", table))
		return model.Summary{}, err
	}
	return row.summary(), nil
}

// LatestDaily returns the most recent daily bar, or nil when the table is empty
func (r *BarRepository) LatestDaily(ctx context.Context) (*model.DailyRecord, error) {
	query := `
		SELECT ` + dailyColumns + `
		FROM daily_bars
		ORDER BY date DESC
		LIMIT 1
	`

	var row dailyRow
	err := r.db.GetContext(ctx, &row, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get latest daily bar", zap.Error(err))
		return nil, err
	}

	record := row.record()
	return &record, nil
}
