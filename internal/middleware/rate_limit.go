package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/deppfellow/vacq/internal/errs"
	"github.com/deppfellow/vacq/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	rateLimitKeyPrefix = "vacq:ratelimit:"
	rateLimitTimeout   = 200 * time.Millisecond
)

// RateLimitMiddleware bounds how many requests one client IP can make per
// window. Counters live in Redis when the server has a client, and in
// process memory otherwise.
type RateLimitMiddleware struct {
	server *server.Server
}

func NewRateLimitMiddleware(s *server.Server) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		server: s,
	}
}

// Limit returns the rate limiting middleware, or a pass-through when rate
// limiting is disabled.
func (r *RateLimitMiddleware) Limit() echo.MiddlewareFunc {
	cfg := r.server.Config.RateLimit
	if !cfg.Enabled {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: r.store(),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			r.RecordRateLimitHit(c.Path())
			GetLogger(c).Warn().
				Str("identifier", identifier).
				Msg("rate limit exceeded")
			return errs.NewTooManyRequestsError("Too many requests, please try again later")
		},
	})
}

func (r *RateLimitMiddleware) store() middleware.RateLimiterStore {
	cfg := r.server.Config.RateLimit

	if r.server.Redis != nil {
		return NewRedisRateLimiterStore(r.server.Redis, cfg.MaxRequests, cfg.Window, r.server.Logger)
	}

	// The token bucket refills MaxRequests tokens per window and allows the
	// whole allowance as a burst, which matches a fixed window on average.
	return middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(cfg.MaxRequests) / cfg.Window.Seconds()),
		Burst:     cfg.MaxRequests,
		ExpiresIn: cfg.Window,
	})
}

// RecordRateLimitHit records a RateLimitHit custom event in New Relic.
func (r *RateLimitMiddleware) RecordRateLimitHit(endpoint string) {
	if r.server.LoggerService != nil && r.server.LoggerService.GetApplication() != nil {
		r.server.LoggerService.GetApplication().RecordCustomEvent("RateLimitHit", map[string]any{
			"endpoint": endpoint,
		})
	}
}

// RedisRateLimiterStore is a fixed-window counter shared by every API
// instance. It implements echo's middleware.RateLimiterStore.
type RedisRateLimiterStore struct {
	client *redis.Client
	limit  int
	window time.Duration
	logger *zerolog.Logger
	now    func() time.Time
}

func NewRedisRateLimiterStore(client *redis.Client, limit int, window time.Duration, logger *zerolog.Logger) *RedisRateLimiterStore {
	return &RedisRateLimiterStore{
		client: client,
		limit:  limit,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

// Allow counts the request in the identifier's current window. When Redis
// cannot be reached the request is let through and the failure is logged.
func (s *RedisRateLimiterStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), rateLimitTimeout)
	defer cancel()

	key := s.key(identifier)

	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.PExpire(ctx, key, s.window)
		return nil
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("identifier", identifier).
			Msg("rate limit store unavailable, allowing request")
		return true, nil
	}

	return incr.Val() <= int64(s.limit), nil
}

func (s *RedisRateLimiterStore) key(identifier string) string {
	windowStart := s.now().UnixMilli() / s.window.Milliseconds()
	return fmt.Sprintf("%s%s:%s", rateLimitKeyPrefix, identifier, strconv.FormatInt(windowStart, 10))
}
