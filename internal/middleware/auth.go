package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkhttp "github.com/clerk/clerk-sdk-go/v2/http"
	"github.com/deppfellow/vacq/internal/errs"
	"github.com/deppfellow/vacq/internal/model"
	"github.com/deppfellow/vacq/internal/server"
	"github.com/labstack/echo/v4"
)

// LocalUserID is the identity every request runs as when Clerk is not
// configured.
const LocalUserID = "local-admin"

// AuthMiddleware holds the app Server so middleware can access shared deps
// like Logger and Config.
type AuthMiddleware struct {
	server *server.Server
}

// NewAuthMiddleware constructs an AuthMiddleware.
func NewAuthMiddleware(s *server.Server) *AuthMiddleware {
	return &AuthMiddleware{
		server: s,
	}
}

// RequireAuth is an Echo middleware that enforces authentication using Clerk.
//
//  1. Clerk's middleware parses and verifies the Authorization bearer token.
//  2. A missing or invalid token is answered with a JSON 401.
//  3. On success the session claims are copied into the Echo context
//     (user_id, user_role, permissions) and the next handler runs.
//
// Without a Clerk secret key the request runs as LocalUserID with the
// admin role instead.
func (auth *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	if !auth.server.Config.Auth.Enabled() {
		return auth.localIdentity(next)
	}

	return echo.WrapMiddleware(
		clerkhttp.WithHeaderAuthorization(
			clerkhttp.AuthorizationFailureHandler(http.HandlerFunc(auth.unauthorized))))(
		func(c echo.Context) error {
			start := time.Now()

			claims, ok := clerk.SessionClaimsFromContext(c.Request().Context())
			if !ok {
				auth.server.Logger.Error().
					Str("function", "RequireAuth").
					Str("request_id", GetRequestID(c)).
					Dur("duration", time.Since(start)).
					Msg("could not get session claims from context")

				return errs.NewUnauthorizedError("Not authorized to access this route", false)
			}

			c.Set(UserIDKey, claims.Subject)
			c.Set(UserRoleKey, claims.ActiveOrganizationRole)
			c.Set("permissions", claims.Claims.ActiveOrganizationPermissions)

			auth.server.Logger.Debug().
				Str("function", "RequireAuth").
				Str("user_id", claims.Subject).
				Str("request_id", GetRequestID(c)).
				Dur("duration", time.Since(start)).
				Msg("user authenticated successfully")

			return next(c)
		})
}

func (auth *AuthMiddleware) localIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set(UserIDKey, LocalUserID)
		c.Set(UserRoleKey, auth.server.Config.Auth.AdminRole)
		return next(c)
	}
}

// unauthorized runs outside Echo, so it writes the error envelope itself.
func (auth *AuthMiddleware) unauthorized(w http.ResponseWriter, r *http.Request) {
	body := errs.NewUnauthorizedError("Not authorized to access this route", false)

	w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	w.WriteHeader(http.StatusUnauthorized)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		auth.server.Logger.Error().
			Err(err).
			Str("function", "RequireAuth").
			Msg("failed to write JSON response")
		return
	}

	auth.server.Logger.Warn().
		Str("function", "RequireAuth").
		Str("request_id", r.Header.Get(RequestIDHeader)).
		Str("path", r.URL.Path).
		Msg("request rejected: missing or invalid bearer token")
}

// RequireRole only lets callers whose role is one of roles through. It must
// run after RequireAuth.
func (auth *AuthMiddleware) RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := GetUserRole(c)
			for _, allowed := range roles {
				if sameRole(role, allowed) {
					return next(c)
				}
			}

			return errs.NewForbiddenError(
				fmt.Sprintf("User role %s is not authorized to access this route", displayRole(role)),
				true,
			)
		}
	}
}

// RequireAdmin is RequireRole with the configured admin role.
func (auth *AuthMiddleware) RequireAdmin() echo.MiddlewareFunc {
	return auth.RequireRole(auth.server.Config.Auth.AdminRole)
}

// GetActor returns the authenticated caller as a model.Actor. The caller
// is an admin when its role matches adminRole.
func GetActor(c echo.Context, adminRole string) model.Actor {
	return model.Actor{
		UserID: GetUserID(c),
		Admin:  sameRole(GetUserRole(c), adminRole),
	}
}

// sameRole compares roles, accepting Clerk's "org:" prefixed form.
func sameRole(role, want string) bool {
	if role == "" || want == "" {
		return false
	}
	return strings.TrimPrefix(role, "org:") == strings.TrimPrefix(want, "org:")
}

func displayRole(role string) string {
	if role == "" {
		return "(none)"
	}
	return role
}
