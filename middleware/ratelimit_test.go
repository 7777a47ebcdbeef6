package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ariebrainware/rental-unit-registry/config"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisMock(t *testing.T) redismock.ClientMock {
	t.Helper()
	rdb, mock := redismock.NewClientMock()
	config.SetRedisClientForTest(rdb)
	t.Cleanup(func() {
		config.ResetRedisClientForTest()
	})
	return mock
}

func newRateLimitedRouter(cfg RateLimitConfig) *gin.Engine {
	setGinTestMode()
	r := gin.New()
	r.Use(RateLimiter(cfg))
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})
	return r
}

func hit(r *gin.Engine, ip string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = ip + ":1234"
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_LocalFallback(t *testing.T) {
	config.ResetRedisClientForTest()
	captureAuditLog(t)

	r := newRateLimitedRouter(RateLimitConfig{Limit: 3, Window: time.Minute})

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(r, "192.168.1.1"), "request %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "192.168.1.1"))
	// other clients have their own bucket
	assert.Equal(t, http.StatusOK, hit(r, "192.168.1.2"))
}

func TestRateLimiter_DefaultConfig(t *testing.T) {
	config.ResetRedisClientForTest()

	r := newRateLimitedRouter(RateLimitConfig{})
	assert.Equal(t, http.StatusOK, hit(r, "192.168.1.1"))
}

func TestRateLimiter_Redis(t *testing.T) {
	mock := setupRedisMock(t)
	captureAuditLog(t)
	key := rateLimitKey("/test", "10.0.0.1")

	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, time.Minute).SetVal(true)
	mock.ExpectIncr(key).SetVal(2)
	mock.ExpectIncr(key).SetVal(3)

	r := newRateLimitedRouter(RateLimitConfig{Limit: 2, Window: time.Minute})
	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.0.1"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_RedisErrorFallsBack(t *testing.T) {
	mock := setupRedisMock(t)
	key := rateLimitKey("/test", "10.0.0.2")

	mock.ExpectIncr(key).SetErr(errors.New("redis connection error"))

	r := newRateLimitedRouter(RateLimitConfig{Limit: 2, Window: time.Minute})
	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.2"))
}

func TestResetRateLimit(t *testing.T) {
	config.ResetRedisClientForTest()
	require.Error(t, ResetRateLimit(context.Background(), "192.168.1.1", "/test"))

	mock := setupRedisMock(t)
	mock.ExpectDel(rateLimitKey("/test", "192.168.1.1")).SetVal(1)
	require.NoError(t, ResetRateLimit(context.Background(), "192.168.1.1", "/test"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
