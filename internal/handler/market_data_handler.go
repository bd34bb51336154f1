package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourorg/market-dashboard/internal/ingest"
	"github.com/yourorg/market-dashboard/internal/model"
	"github.com/yourorg/market-dashboard/internal/service"
	"github.com/yourorg/market-dashboard/internal/utils"
)

// Limits bounds the limit query parameter
type Limits struct {
	DefaultDaily  int
	Max           int
	MaxUploadSize int64
}

// MarketDataHandler handles dataset HTTP requests
type MarketDataHandler struct {
	marketDataService *service.MarketDataService
	limits            Limits
	logger            *zap.Logger
}

// NewMarketDataHandler creates a new market data handler
func NewMarketDataHandler(marketDataService *service.MarketDataService, limits Limits, logger *zap.Logger) *MarketDataHandler {
	return &MarketDataHandler{
		marketDataService: marketDataService,
		limits:            limits,
		logger:            logger,
	}
}

// Root reports that the API is up
// GET /
func (h *MarketDataHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Market Dashboard API"})
}

// Health handles health checks
// GET /api/health
func (h *MarketDataHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// UploadDaily replaces the daily dataset
// POST /api/upload
func (h *MarketDataHandler) UploadDaily(c *gin.Context) {
	h.upload(c, model.DatasetDaily, h.marketDataService.ImportDailyCSV)
}

// UploadMonthly replaces the monthly dataset
// POST /api/upload-monthly
func (h *MarketDataHandler) UploadMonthly(c *gin.Context) {
	h.upload(c, model.DatasetMonthly, h.marketDataService.ImportMonthlyCSV)
}

type importFunc func(ctx context.Context, filename string, body []byte) (*model.UploadResult, error)

func (h *MarketDataHandler) upload(c *gin.Context, kind model.DatasetKind, importCSV importFunc) {
	if h.limits.MaxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.limits.MaxUploadSize)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.logger.Warn("Failed to get file from form", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		utils.SendErrorResponse(c, http.StatusBadRequest, "File must be a CSV")
		return
	}

	body, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Failed to read uploaded file", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	result, err := importCSV(c.Request.Context(), header.Filename, body)
	if err != nil {
		if errors.Is(err, ingest.ErrInvalidCSV) {
			h.logger.Warn("Rejected upload",
				zap.String("kind", string(kind)),
				zap.String("filename", header.Filename),
				zap.Error(err))
			utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Upload failed",
			zap.String("kind", string(kind)),
			zap.String("filename", header.Filename),
			zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Error processing file: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetDailyData returns the newest daily bars
// GET /api/daily-data?limit=60
func (h *MarketDataHandler) GetDailyData(c *gin.Context) {
	limit, err := utils.ParseLimit(c, h.limits.DefaultDaily, h.limits.Max)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.marketDataService.GetDaily(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to get daily data", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve daily data")
		return
	}

	c.JSON(http.StatusOK, records)
}

// GetDailyStats returns the daily summary
// GET /api/stats
func (h *MarketDataHandler) GetDailyStats(c *gin.Context) {
	stats, err := h.marketDataService.GetDailyStats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get daily stats", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetMonthlyData returns monthly bars, all of them unless limit is given
// GET /api/monthly-data?limit=
func (h *MarketDataHandler) GetMonthlyData(c *gin.Context) {
	limit, err := utils.ParseLimit(c, 0, h.limits.Max)
	if err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.marketDataService.GetMonthly(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to get monthly data", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve monthly data")
		return
	}

	c.JSON(http.StatusOK, records)
}

// GetMonthlyStats returns the monthly summary
// GET /api/monthly-stats
func (h *MarketDataHandler) GetMonthlyStats(c *gin.Context) {
	stats, err := h.marketDataService.GetMonthlyStats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get monthly stats", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve monthly stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}
