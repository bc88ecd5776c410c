package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/techchallenge/usuarios-api/internal/api/metrics"
	"github.com/techchallenge/usuarios-api/internal/core/domain"
	"github.com/techchallenge/usuarios-api/internal/core/ports"
)

// Request attribute keys set on success.
const (
	KeyEmail     = "email"
	KeyRole      = "role"
	KeyPrincipal = "principal"
)

const (
	msgExpiredToken = "Token expirado. Faça login novamente."
	msgInvalidToken = "Token inválido."
)

var msgMissingToken = domain.ErrTokenMissing.Error()

// PublicPrefixes are reachable without a token.
var PublicPrefixes = []string{
	"/v1/api/auth/login",
	"/swagger-ui",
	"/v3/api-docs",
	"/swagger-resources",
	"/webjars/",
	"/v1/api/usuarios/registrar",
}

// RoleResolver looks up the current role of a token subject.
type RoleResolver interface {
	CurrentRole(ctx context.Context, email string) (domain.Role, error)
}

// AuthConfig configures the Auth middleware.
type AuthConfig struct {
	Codec ports.TokenCodec
	// Public lists path prefixes that skip authentication. Defaults to PublicPrefixes.
	Public []string
	// Roles, when set, replaces the role claim with the subject's stored role.
	Roles RoleResolver
	// Now defaults to time.Now.
	Now func() time.Time
}

// Auth validates the bearer token on every non-public path and binds the
// caller's identity into the request.
func Auth(cfg AuthConfig) echo.MiddlewareFunc {
	public := cfg.Public
	if public == nil {
		public = PublicPrefixes
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}
			if isPublic(req.URL.Path, public) {
				return next(c)
			}

			raw, ok := strings.CutPrefix(req.Header.Get(echo.HeaderAuthorization), "Bearer ")
			raw = strings.TrimSpace(raw)
			if !ok || raw == "" {
				return reject(metrics.RejectMissingToken, msgMissingToken)
			}

			claims, err := cfg.Codec.Parse(raw, now())
			if err != nil {
				if errors.Is(err, domain.ErrTokenExpired) {
					return reject(metrics.RejectExpired, msgExpiredToken)
				}
				return reject(metrics.RejectInvalid, msgInvalidToken)
			}

			role := domain.Role(claims.Role)
			if cfg.Roles != nil {
				current, err := cfg.Roles.CurrentRole(req.Context(), claims.Subject)
				if err != nil {
					if errors.Is(err, domain.ErrUserNotFound) {
						return reject(metrics.RejectUnknownUser, msgInvalidToken)
					}
					return err
				}
				role = current
			}

			principal := domain.NewPrincipal(claims.Subject, role)
			c.Set(KeyEmail, claims.Subject)
			c.Set(KeyRole, role.String())
			c.Set(KeyPrincipal, principal)
			c.SetRequest(req.WithContext(domain.WithPrincipal(req.Context(), principal)))

			return next(c)
		}
	}
}

func isPublic(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func reject(reason, msg string) error {
	metrics.FilterRejectionsTotal.WithLabelValues(reason).Inc()
	return echo.NewHTTPError(http.StatusUnauthorized, msg)
}
