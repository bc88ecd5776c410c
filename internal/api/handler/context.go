package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/techchallenge/usuarios-api/internal/core/domain"
)

// principalFrom returns the principal bound by the Auth middleware. Its
// absence means the route was reached without authentication.
func principalFrom(c echo.Context) (domain.Principal, error) {
	p, ok := domain.PrincipalFrom(c.Request().Context())
	if !ok || p.Email == "" {
		return domain.Principal{}, domain.ErrTokenMissing
	}
	return p, nil
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidUserID
	}
	return id, nil
}
