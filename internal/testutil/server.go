package testutil

import (
	"time"

	"github.com/deppfellow/vacq/internal/config"
	"github.com/deppfellow/vacq/internal/server"
	"github.com/rs/zerolog"

	loggerPkg "github.com/deppfellow/vacq/internal/logger"
)

// NewConfig returns a valid local configuration with authentication and
// rate limiting switched off.
func NewConfig() *config.Config {
	obs := config.DefaultObservabilityConfig()
	obs.ServiceName = config.ServiceName
	obs.Environment = "local"

	return &config.Config{
		Primary: config.Primary{Env: "local"},
		Server: config.ServerConfig{
			Port:               "0",
			ReadTimeout:        5,
			WriteTimeout:       5,
			IdleTimeout:        5,
			CORSAllowedOrigins: []string{"http://localhost:3000"},
			BodyLimit:          "1M",
		},
		Auth: config.AuthConfig{AdminRole: "admin"},
		Integration: config.IntegrationConfig{
			MailFrom: "VacQ <noreply@example.com>",
		},
		RateLimit: config.RateLimitConfig{
			Enabled:     false,
			Window:      time.Minute,
			MaxRequests: 100,
		},
		Observability: obs,
	}
}

// NewServer builds a server container without database, Redis or jobs.
func NewServer(cfg *config.Config) *server.Server {
	if cfg == nil {
		cfg = NewConfig()
	}

	logger := zerolog.Nop()

	return &server.Server{
		Config:        cfg,
		Logger:        &logger,
		LoggerService: &loggerPkg.LoggerService{},
	}
}
