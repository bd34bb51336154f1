package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CacheConfig holds configuration for the response cache
type CacheConfig struct {
	Duration      time.Duration
	PrefixKey     string
	ExcludedPaths []string
}

// ResponseCache stores successful GET responses in Redis
type ResponseCache struct {
	client *redis.Client
	config CacheConfig
	logger *zap.Logger
}

// NewResponseCache creates a new response cache
func NewResponseCache(client *redis.Client, config CacheConfig, logger *zap.Logger) *ResponseCache {
	return &ResponseCache{
		client: client,
		config: config,
		logger: logger,
	}
}

// Handler serves cached responses and caches fresh 200 responses. Redis
// failures fall through to the handler.
func (rc *ResponseCache) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		for _, path := range rc.config.ExcludedPaths {
			if c.Request.URL.Path == path {
				c.Next()
				return
			}
		}

		ctx := c.Request.Context()
		cacheKey := generateCacheKey(rc.config.PrefixKey, c.Request.URL.Path, c.Request.URL.RawQuery)

		cached, err := rc.client.Get(ctx, cacheKey).Bytes()
		if err == nil {
			rc.logger.Debug("Cache hit",
				zap.String("path", c.Request.URL.Path),
				zap.String("cache_key", cacheKey))

			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
			c.Abort()
			return
		}
		if err != redis.Nil {
			rc.logger.Warn("Cache lookup failed", zap.Error(err))
		}

		writer := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer
		c.Header("X-Cache", "MISS")

		c.Next()

		if writer.Status() != http.StatusOK {
			return
		}
		if err := rc.client.Set(ctx, cacheKey, writer.body.Bytes(), rc.config.Duration).Err(); err != nil {
			rc.logger.Warn("Failed to set cache",
				zap.Error(err),
				zap.String("cache_key", cacheKey))
			return
		}
		rc.logger.Debug("Cache set",
			zap.String("path", c.Request.URL.Path),
			zap.String("cache_key", cacheKey),
			zap.Duration("duration", rc.config.Duration))
	}
}

// Flush removes every cached response under the configured prefix
func (rc *ResponseCache) Flush(ctx context.Context) error {
	return FlushCache(ctx, rc.client, rc.config.PrefixKey)
}

// responseWriter captures the response body for caching
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

// Write captures the response for caching
func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// generateCacheKey hashes the path and query of a request under prefix
func generateCacheKey(prefix, path, query string) string {
	if query != "" {
		path += "?" + query
	}
	sum := sha256.Sum256([]byte(path))
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// FlushCache deletes all keys under prefix
func FlushCache(ctx context.Context, client *redis.Client, prefix string) error {
	iter := client.Scan(ctx, 0, prefix+":*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return client.Del(ctx, keys...).Err()
}
