// Package cache keeps the last good record set of a dashboard view between runs
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/yourorg/market-dashboard/internal/model"
)

// FileCache stores bars as a JSON file
type FileCache struct {
	path   string
	logger *zap.Logger
}

// NewFileCache creates a cache backed by the file at path
func NewFileCache(path string, logger *zap.Logger) *FileCache {
	return &FileCache{path: path, logger: logger}
}

// Has reports whether a readable entry exists
func (c *FileCache) Has() bool {
	_, ok := c.load()
	return ok
}

// Get returns the cached bars and whether a readable entry exists
func (c *FileCache) Get() ([]model.Bar, bool) {
	return c.load()
}

// Put replaces the cached bars. Failures are logged only.
func (c *FileCache) Put(bars []model.Bar) {
	data, err := json.Marshal(bars)
	if err != nil {
		c.logger.Warn("Failed to encode cache entry", zap.Error(err))
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		c.logger.Warn("Failed to create cache directory", zap.String("path", c.path), zap.Error(err))
		return
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		c.logger.Warn("Failed to write cache file", zap.String("path", c.path), zap.Error(err))
		return
	}
	if err := os.Rename(tmp, c.path); err != nil {
		c.logger.Warn("Failed to replace cache file", zap.String("path", c.path), zap.Error(err))
	}
}

func (c *FileCache) load() ([]model.Bar, bool) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("Failed to read cache file", zap.String("path", c.path), zap.Error(err))
		}
		return nil, false
	}

	var bars []model.Bar
	if err := json.Unmarshal(data, &bars); err != nil {
		c.logger.Warn("Ignoring corrupt cache file", zap.String("path", c.path), zap.Error(err))
		return nil, false
	}
	return bars, true
}

// RedisCache stores bars under a single Redis key
type RedisCache struct {
	client  *redis.Client
	key     string
	ttl     time.Duration
	timeout time.Duration
	logger  *zap.Logger
}

// NewRedisCache creates a cache stored at key with the given expiry
func NewRedisCache(client *redis.Client, key string, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{
		client:  client,
		key:     key,
		ttl:     ttl,
		timeout: 2 * time.Second,
		logger:  logger,
	}
}

// Has reports whether a readable entry exists
func (c *RedisCache) Has() bool {
	_, ok := c.load()
	return ok
}

// Get returns the cached bars and whether a readable entry exists
func (c *RedisCache) Get() ([]model.Bar, bool) {
	return c.load()
}

// Put replaces the cached bars. Failures are logged only.
func (c *RedisCache) Put(bars []model.Bar) {
	data, err := json.Marshal(bars)
	if err != nil {
		c.logger.Warn("Failed to encode cache entry", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to write cache entry", zap.String("key", c.key), zap.Error(err))
	}
}

func (c *RedisCache) load() ([]model.Bar, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	data, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Failed to read cache entry", zap.String("key", c.key), zap.Error(err))
		}
		return nil, false
	}

	var bars []model.Bar
	if err := json.Unmarshal(data, &bars); err != nil {
		c.logger.Warn("Ignoring corrupt cache entry", zap.String("key", c.key), zap.Error(err))
		return nil, false
	}
	return bars, true
}
