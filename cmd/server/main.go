package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/yourorg/market-dashboard/internal/config"
	"github.com/yourorg/market-dashboard/internal/events"
	"github.com/yourorg/market-dashboard/internal/handler"
	"github.com/yourorg/market-dashboard/internal/middleware"
	"github.com/yourorg/market-dashboard/internal/repository"
	"github.com/yourorg/market-dashboard/internal/service"
	"github.com/yourorg/market-dashboard/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := createLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Connect to database
	ctx := context.Background()
	db, err := repository.Connect(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := repository.InitSchema(ctx, db); err != nil {
		logger.Fatal("Failed to initialize schema", zap.Error(err))
	}
	logger.Info("Database initialized", zap.String("driver", cfg.Database.Driver))

	archive, err := storage.NewArchive(cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to initialize upload archive", zap.Error(err))
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ClientID, logger)
		publisher = events.NewKafkaPublisher(producer, cfg.Kafka.Topic)
	}
	defer publisher.Close()

	var responseCache *middleware.ResponseCache
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unavailable, responses will not be cached until it is", zap.Error(err))
		}
		responseCache = middleware.NewResponseCache(redisClient, middleware.CacheConfig{
			Duration:      cfg.Redis.TTL,
			PrefixKey:     cfg.Redis.Prefix,
			ExcludedPaths: []string{"/api/health"},
		}, logger)
	}

	// Initialize repositories, services and handlers
	barRepo := repository.NewBarRepository(db, logger)

	var flusher service.CacheFlusher
	if responseCache != nil {
		flusher = responseCache
	}
	marketDataService := service.NewMarketDataService(barRepo, archive, publisher, flusher, logger)

	marketDataHandler := handler.NewMarketDataHandler(marketDataService, handler.Limits{
		DefaultDaily:  cfg.API.DefaultDailyLimit,
		Max:           cfg.API.MaxLimit,
		MaxUploadSize: cfg.API.MaxUploadSize,
	}, logger)

	router := setupRouter(marketDataHandler, responseCache, logger, cfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited properly")
}

func createLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	return loggerConfig(cfg).Build()
}

// loggerConfig maps the logging section onto a production zap config
func loggerConfig(cfg config.LoggingConfig) zap.Config {
	var zapLevel zap.AtomicLevel
	switch cfg.Level {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
	}

	return zap.Config{
		Level:            zapLevel,
		Development:      false,
		Encoding:         encoding,
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
}

func setupRouter(
	marketDataHandler *handler.MarketDataHandler,
	responseCache *middleware.ResponseCache,
	logger *zap.Logger,
	cfg *config.Config,
) *gin.Engine {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())

	router.GET("/", marketDataHandler.Root)

	api := router.Group("/api")
	{
		api.GET("/health", marketDataHandler.Health)

		uploads := api.Group("")
		if cfg.RateLimit.Enabled {
			uploads.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize)))
		}
		uploads.POST("/upload", marketDataHandler.UploadDaily)
		uploads.POST("/upload-monthly", marketDataHandler.UploadMonthly)

		reads := api.Group("")
		if responseCache != nil {
			reads.Use(responseCache.Handler())
		}
		reads.GET("/daily-data", marketDataHandler.GetDailyData)
		reads.GET("/stats", marketDataHandler.GetDailyStats)
		reads.GET("/monthly-data", marketDataHandler.GetMonthlyData)
		reads.GET("/monthly-stats", marketDataHandler.GetMonthlyStats)
	}

	return router
}
