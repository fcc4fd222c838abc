package service

import (
	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/deppfellow/vacq/internal/server"
)

// AuthService initializes Clerk with the backend secret key.
type AuthService struct {
	server *server.Server
}

// NewAuthService registers the Clerk key when authentication is configured.
func NewAuthService(s *server.Server) *AuthService {
	if s.Config.Auth.Enabled() {
		clerk.SetKey(s.Config.Auth.SecretKey)
	} else {
		s.Logger.Warn().Msg("auth secret key not configured, every request runs as a local admin")
	}

	return &AuthService{
		server: s,
	}
}
