package middleware

import (
	"github.com/deppfellow/vacq/internal/server"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// Middlewares groups every middleware component used by the HTTP server so
// the router builds them once and reuses them.
type Middlewares struct {
	// Global: CORS, body limit, request logging, recovery, secure headers
	// and the global error handler.
	Global *GlobalMiddlewares

	// Auth: Clerk authentication and role checks.
	Auth *AuthMiddleware

	// ContextEnhancer: request-scoped logger.
	ContextEnhancer *ContextEnhancer

	// Tracing: New Relic transactions and attributes.
	Tracing *TracingMiddleware

	// RateLimit: per-IP request limiting.
	RateLimit *RateLimitMiddleware
}

// NewMiddlewares constructs all middleware components. The New Relic
// application comes from the server's LoggerService and is nil when APM is
// not configured.
func NewMiddlewares(s *server.Server) *Middlewares {
	var nrApp *newrelic.Application
	if s.LoggerService != nil {
		nrApp = s.LoggerService.GetApplication()
	}

	return &Middlewares{
		Global:          NewGlobalMiddlewares(s),
		Auth:            NewAuthMiddleware(s),
		ContextEnhancer: NewContextEnhancer(s),
		Tracing:         NewTracingMiddleware(s, nrApp),
		RateLimit:       NewRateLimitMiddleware(s),
	}
}
