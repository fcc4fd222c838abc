package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/deppfellow/vacq/internal/errs"
	"github.com/deppfellow/vacq/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitAllowsRequestWithoutClientAddress(t *testing.T) {
	cfg := testutil.NewConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.MaxRequests = 1
	limit := NewRateLimitMiddleware(testutil.NewServer(cfg)).Limit()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ""
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, limit(ok)(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// The empty address is still one client with its own allowance.
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)

	err := limit(ok)(c)
	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.Status)
}

func TestRedisRateLimiterStoreCountsPerWindow(t *testing.T) {
	client := testutil.NewRedis(t)
	logger := zerolog.Nop()

	store := NewRedisRateLimiterStore(client, 3, time.Minute, &logger)
	base := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	for i := range 3 {
		allowed, err := store.Allow("10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d", i+1)
	}

	allowed, err := store.Allow("10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)

	// Other clients keep their own counter.
	allowed, err = store.Allow("10.0.0.2")
	require.NoError(t, err)
	assert.True(t, allowed)

	ttl, err := client.PTTL(context.Background(), store.key("10.0.0.1")).Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)
	assert.LessOrEqual(t, ttl, time.Minute)

	// The next window starts from zero.
	store.now = func() time.Time { return base.Add(time.Minute) }
	allowed, err = store.Allow("10.0.0.1")
	require.NoError(t, err)
	assert.True(t, allowed)

	count, err := client.Get(context.Background(), store.key("10.0.0.1")).Int()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRedisRateLimiterStoreFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	logger := zerolog.Nop()
	store := NewRedisRateLimiterStore(client, 1, time.Minute, &logger)

	for range 3 {
		allowed, err := store.Allow("10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed)
	}
}
