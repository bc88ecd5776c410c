package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/techchallenge/usuarios-api/internal/api/metrics"
	"github.com/techchallenge/usuarios-api/internal/core/domain"
	"github.com/techchallenge/usuarios-api/internal/core/policy"
)

// RBAC requires the bound principal to hold one of allowedRoles.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, _ := c.Get(KeyPrincipal).(domain.Principal)
			if err := policy.RequireAnyRole(p, allowedRoles...); err != nil {
				metrics.AccessDeniedTotal.WithLabelValues(metrics.GateRole).Inc()
				return err
			}
			return next(c)
		}
	}
}
