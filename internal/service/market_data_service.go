package service

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yourorg/market-dashboard/internal/events"
	"github.com/yourorg/market-dashboard/internal/ingest"
	"github.com/yourorg/market-dashboard/internal/model"
	"github.com/yourorg/market-dashboard/internal/repository"
	"github.com/yourorg/market-dashboard/internal/storage"
)

// CacheFlusher drops cached API responses
type CacheFlusher interface {
	Flush(ctx context.Context) error
}

// MarketDataService handles dataset imports and reads
type MarketDataService struct {
	barRepo   *repository.BarRepository
	archive   storage.Archive
	publisher events.Publisher
	cache     CacheFlusher
	logger    *zap.Logger
}

// NewMarketDataService creates a new market data service. cache may be nil.
func NewMarketDataService(
	barRepo *repository.BarRepository,
	archive storage.Archive,
	publisher events.Publisher,
	cache CacheFlusher,
	logger *zap.Logger,
) *MarketDataService {
	return &MarketDataService{
		barRepo:   barRepo,
		archive:   archive,
		publisher: publisher,
		cache:     cache,
		logger:    logger,
	}
}

// ImportDailyCSV replaces the daily dataset with the bars in body
func (s *MarketDataService) ImportDailyCSV(ctx context.Context, filename string, body []byte) (*model.UploadResult, error) {
	rows, err := s.parse(body)
	if err != nil {
		return nil, err
	}

	records := ingest.BuildDaily(rows)
	if err := s.barRepo.ReplaceDaily(ctx, records); err != nil {
		return nil, fmt.Errorf("save daily bars: %w", err)
	}

	result := &model.UploadResult{
		Status:           "success",
		Message:          "CSV uploaded and processed successfully",
		RecordsProcessed: len(records),
		DateRange:        ingest.Range(rows),
	}
	s.afterImport(ctx, model.DatasetDaily, filename, body, result)

	return result, nil
}

// ImportMonthlyCSV replaces the monthly dataset with the bars in body
func (s *MarketDataService) ImportMonthlyCSV(ctx context.Context, filename string, body []byte) (*model.UploadResult, error) {
	rows, err := s.parse(body)
	if err != nil {
		return nil, err
	}

	records := ingest.BuildMonthly(rows)
	if err := s.barRepo.ReplaceMonthly(ctx, records); err != nil {
		return nil, fmt.Errorf("save monthly bars: %w", err)
	}

	result := &model.UploadResult{
		Status:           "success",
		Message:          "Monthly CSV uploaded successfully",
		RecordsProcessed: len(records),
		DateRange:        ingest.Range(rows),
	}
	s.afterImport(ctx, model.DatasetMonthly, filename, body, result)

	return result, nil
}

func (s *MarketDataService) parse(body []byte) ([]ingest.Row, error) {
	rows, err := ingest.ParseCSV(bytes.NewReader(body), s.logger)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows with a time and prices", ingest.ErrInvalidCSV)
	}
	return rows, nil
}

// afterImport archives the upload, announces it and drops stale cached
// responses. None of these steps can fail the import.
func (s *MarketDataService) afterImport(ctx context.Context, kind model.DatasetKind, filename string, body []byte, result *model.UploadResult) {
	key, err := s.archive.Store(ctx, kind, filename, body)
	if err != nil {
		s.logger.Warn("Failed to archive upload",
			zap.String("kind", string(kind)),
			zap.String("filename", filename),
			zap.Error(err))
	}

	event := events.DatasetImported{
		Kind:             kind,
		RecordsProcessed: result.RecordsProcessed,
		DateRange:        result.DateRange,
		ArchivedAs:       key,
		ImportedAt:       time.Now().UTC(),
	}
	if err := s.publisher.DatasetImported(ctx, event); err != nil {
		s.logger.Warn("Failed to publish import event",
			zap.String("kind", string(kind)),
			zap.Error(err))
	}

	if s.cache != nil {
		if err := s.cache.Flush(ctx); err != nil {
			s.logger.Warn("Failed to flush response cache", zap.Error(err))
		}
	}

	s.logger.Info("Dataset imported",
		zap.String("kind", string(kind)),
		zap.String("filename", filename),
		zap.Int("records", result.RecordsProcessed),
		zap.String("archived_as", key))
}

// GetDaily returns the newest limit daily bars, oldest first
func (s *MarketDataService) GetDaily(ctx context.Context, limit int) ([]model.DailyRecord, error) {
	records, err := s.barRepo.ListDaily(ctx, limit)
	if err != nil {
		return nil, err
	}
	for i := range records {
		r := &records[i]
		r.Open, r.High, r.Low, r.Close = round2(r.Open), round2(r.High), round2(r.Low), round2(r.Close)
		r.HighPrevCloseDiff = round2(r.HighPrevCloseDiff)
		r.RSI = round2(r.RSI)
		r.MACD = model.MACD{
			Line:   round2(r.MACD.Line),
			Signal: round2(r.MACD.Signal),
			Hist:   round2(r.MACD.Hist),
		}
	}
	s.logger.Debug("Returned daily bars", zap.Int("count", len(records)))
	return records, nil
}

// GetMonthly returns monthly bars oldest first; limit <= 0 returns all of them
func (s *MarketDataService) GetMonthly(ctx context.Context, limit int) ([]model.MonthlyRecord, error) {
	records, err := s.barRepo.ListMonthly(ctx, limit)
	if err != nil {
		return nil, err
	}
	for i := range records {
		r := &records[i]
		r.Open, r.High, r.Low, r.Close = round2(r.Open), round2(r.High), round2(r.Low), round2(r.Close)
	}
	s.logger.Debug("Returned monthly bars", zap.Int("count", len(records)))
	return records, nil
}

// GetDailyStats summarizes the daily dataset and its latest close and RSI
func (s *MarketDataService) GetDailyStats(ctx context.Context) (*model.DailyStats, error) {
	summary, err := s.barRepo.DailyStats(ctx)
	if err != nil {
		return nil, err
	}

	stats := &model.DailyStats{Summary: summary}

	latest, err := s.barRepo.LatestDaily(ctx)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		stats.LatestClose = round2(latest.Close)
		stats.LatestRSI = round2(latest.RSI)
	}
	return stats, nil
}

// GetMonthlyStats summarizes the monthly dataset
func (s *MarketDataService) GetMonthlyStats(ctx context.Context) (*model.Summary, error) {
	summary, err := s.barRepo.MonthlyStats(ctx)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// round2 rounds half away from zero to two decimals
func round2(v null.Float) null.Float {
	if !v.Valid || math.IsNaN(v.Float64) || math.IsInf(v.Float64, 0) {
		return null.Float{}
	}
	rounded, _ := decimal.NewFromFloat(v.Float64).Round(2).Float64()
	return null.FloatFrom(rounded)
}
