package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/techchallenge/usuarios-api/internal/api/metrics"
	"github.com/techchallenge/usuarios-api/internal/core/domain"
	"github.com/techchallenge/usuarios-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login authenticates a user and returns a signed token.
//
// @Summary      Autenticar usuário
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credenciais"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Requisição inválida")
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	metrics.LoginAttemptsTotal.WithLabelValues(loginResult(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{
		Status:  res.Status,
		Message: res.Message,
		Token:   res.Token,
	})
}

// Me returns the identity behind the bearer token.
//
// @Summary      Dados do usuário autenticado
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	identity, err := h.authService.IdentityFromAuthHeader(
		c.Request().Context(),
		c.Request().Header.Get(echo.HeaderAuthorization),
	)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMeResponse(identity))
}

func loginResult(err error) string {
	switch {
	case err == nil:
		return metrics.LoginSuccess
	case errors.Is(err, domain.ErrEmailNotFound):
		return metrics.LoginEmailNotFound
	case errors.Is(err, domain.ErrInvalidPassword):
		return metrics.LoginInvalidPassword
	default:
		return metrics.LoginError
	}
}
