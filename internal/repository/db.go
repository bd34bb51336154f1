package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/yourorg/market-dashboard/internal/config"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

var schema = []string{`
CREATE TABLE IF NOT EXISTS daily_bars (
	date TEXT PRIMARY KEY,
	open DOUBLE PRECISION,
	high DOUBLE PRECISION,
	low DOUBLE PRECISION,
	close DOUBLE PRECISION,
	volume BIGINT,
	high_prev_close_diff DOUBLE PRECISION,
	rsi DOUBLE PRECISION,
	macd_line DOUBLE PRECISION,
	macd_signal DOUBLE PRECISION,
	macd_hist DOUBLE PRECISION
)`, `
CREATE TABLE IF NOT EXISTS monthly_bars (
	date TEXT PRIMARY KEY,
	open DOUBLE PRECISION,
	high DOUBLE PRECISION,
	low DOUBLE PRECISION,
	close DOUBLE PRECISION,
	volume BIGINT
)`,
}

// Connect opens the configured database, retrying with exponential backoff
// until cfg.ConnectTimeout has elapsed.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*sqlx.DB, error) {
	var db *sqlx.DB

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = cfg.ConnectTimeout

	operation := func() error {
		conn, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN())
		if err != nil {
			return err
		}
		db = conn
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("Database not ready, retrying",
			zap.String("driver", cfg.Driver),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, fmt.Errorf("connect to %s database: %w", cfg.Driver, err)
	}

	if cfg.Driver == "sqlite" {
		// one long-lived connection: a single writer, and :memory: data lives
		// only as long as its connection
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return db, nil
}

// InitSchema creates the bar tables if they do not exist
func InitSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
