package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiterBucket(t *testing.T) {
	limiter := NewRateLimiter(60, 2)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	if !limiter.Allow("a") || !limiter.Allow("a") {
		t.Fatal("burst not allowed")
	}
	if limiter.Allow("a") {
		t.Error("request over burst allowed")
	}
	if !limiter.Allow("b") {
		t.Error("clients share a bucket")
	}

	now = now.Add(time.Second)
	if !limiter.Allow("a") {
		t.Error("bucket not refilled after one second")
	}
	if limiter.Allow("a") {
		t.Error("refill exceeded one token per second")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	router := gin.New()
	router.POST("/upload", RateLimit(NewRateLimiter(1, 1)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 2)
	for i := range codes {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload", nil))
		codes[i] = w.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS())
	router.GET("/api/stats", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/stats", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing allow-origin header")
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if w.Code != http.StatusOK || w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("GET status = %d headers = %v", w.Code, w.Header())
	}
}

func TestLoggerPassesThrough(t *testing.T) {
	router := gin.New()
	router.Use(Logger(zap.NewNop()))
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom?x=1", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", w.Code)
	}
}

func TestGenerateCacheKey(t *testing.T) {
	a := generateCacheKey("p", "/api/daily-data", "limit=60")
	b := generateCacheKey("p", "/api/daily-data", "limit=30")
	c := generateCacheKey("p", "/api/daily-data", "")

	if a == b || a == c {
		t.Error("distinct requests share a cache key")
	}
	if a != generateCacheKey("p", "/api/daily-data", "limit=60") {
		t.Error("cache key not deterministic")
	}
	if a[:2] != "p:" {
		t.Errorf("key %q lacks prefix", a)
	}
}

func TestResponseCacheDegradesWithoutRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	cache := NewResponseCache(client, CacheConfig{Duration: time.Minute, PrefixKey: "test"}, zap.NewNop())

	calls := 0
	router := gin.New()
	router.Use(cache.Handler())
	router.GET("/api/stats", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"total_records": 1})
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
		if w.Code != http.StatusOK || w.Body.String() != `{"total_records":1}` {
			t.Errorf("response %d = %d %s", i, w.Code, w.Body.String())
		}
	}
	if calls != 2 {
		t.Errorf("handler calls = %d, want 2", calls)
	}
}
