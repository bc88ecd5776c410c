package api

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/techchallenge/usuarios-api/internal/core/domain"
)

const msgInternal = "Erro interno no servidor"

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

type errorMapping struct {
	target  error
	code    int
	message string
}

// errorMappings is checked in order; the first match wins.
var errorMappings = []errorMapping{
	{domain.ErrEmailNotFound, http.StatusNotFound, domain.ErrEmailNotFound.Error()},
	{domain.ErrUserNotFound, http.StatusNotFound, domain.ErrUserNotFound.Error()},

	{domain.ErrInvalidPassword, http.StatusUnauthorized, domain.ErrInvalidPassword.Error()},
	{domain.ErrTokenMissing, http.StatusUnauthorized, domain.ErrTokenMissing.Error()},
	{domain.ErrTokenExpired, http.StatusUnauthorized, domain.ErrTokenExpired.Error()},
	{domain.ErrInvalidToken, http.StatusUnauthorized, domain.ErrInvalidToken.Error()},
	{domain.ErrTokenMalformed, http.StatusUnauthorized, domain.ErrInvalidToken.Error()},
	{domain.ErrTokenBadSignature, http.StatusUnauthorized, domain.ErrInvalidToken.Error()},

	{domain.ErrConflict, http.StatusBadRequest, domain.ErrEmailInUse.Error()},
	{domain.ErrEmailInUse, http.StatusBadRequest, domain.ErrEmailInUse.Error()},
	{domain.ErrInvalidUserID, http.StatusBadRequest, domain.ErrInvalidUserID.Error()},
	{domain.ErrNameRequired, http.StatusBadRequest, domain.ErrNameRequired.Error()},
	{domain.ErrWrongCurrentPassword, http.StatusBadRequest, domain.ErrWrongCurrentPassword.Error()},
	{domain.ErrInvalidRole, http.StatusBadRequest, domain.ErrInvalidRole.Error()},

	{domain.ErrAccessDenied, http.StatusForbidden, domain.ErrAccessDenied.Error()},
	{domain.ErrForbidden, http.StatusForbidden, domain.ErrForbidden.Error()},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps domain
// errors to status codes, logs unexpected ones, and renders
// {"status": <code>, "message": "<text>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Status: code, Message: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (filter rejections, bind and validation failures, routing).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			log.Debug().Err(he.Internal).Msg("http error")
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.code, m.message
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Str("stack", strings.TrimSpace(string(debug.Stack()))).
		Msg("unhandled error")

	return http.StatusInternalServerError, msgInternal
}
