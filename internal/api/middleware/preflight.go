package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Preflight answers every OPTIONS request with 200 and no authentication.
// It sits in front of the CORS middleware so the CORS headers are still
// written; the 204 CORS would send is replaced before the header goes out.
func Preflight() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodOptions {
				return next(c)
			}

			res := c.Response()
			res.Before(func() { res.Status = http.StatusOK })
			if err := next(c); err != nil && !res.Committed {
				return c.NoContent(http.StatusOK)
			}
			return nil
		}
	}
}
