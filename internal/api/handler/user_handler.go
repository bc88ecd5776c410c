package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/techchallenge/usuarios-api/internal/api/metrics"
	"github.com/techchallenge/usuarios-api/internal/core/domain"
	"github.com/techchallenge/usuarios-api/internal/core/policy"
	"github.com/techchallenge/usuarios-api/internal/core/ports"
)

// UserHandler serves /v1/api/usuarios. Role preconditions are applied by the
// RBAC middleware on each route; ownership is checked here after the target
// user is loaded.
type UserHandler struct {
	service ports.UserService
	guard   *policy.Guard
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service, guard: policy.NewGuard(service)}
}

// Register creates a CLIENT account.
//
// @Summary      Cadastrar usuário
// @Tags         usuarios
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "Dados do usuário"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/api/usuarios/registrar [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.Create(c.Request().Context(), ports.CreateUserInput{
		Name:     req.Nome,
		Email:    req.Email,
		Password: req.Senha,
		Address:  req.Endereco,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// ListAll returns every user.
//
// @Summary      Listar usuários
// @Tags         usuarios
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   userResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/api/usuarios/todos [get]
func (h *UserHandler) ListAll(c echo.Context) error {
	users, err := h.service.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponses(users))
}

// Search finds users whose name contains the nome query parameter.
//
// @Summary      Buscar usuários por nome
// @Tags         usuarios
// @Produce      json
// @Security     BearerAuth
// @Param        nome  query     string  true  "Trecho do nome"
// @Success      200   {array}   userResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/api/usuarios/buscar [get]
func (h *UserHandler) Search(c echo.Context) error {
	users, err := h.service.FindByNameContaining(c.Request().Context(), c.QueryParam("nome"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponses(users))
}

// Get returns one user. Non-admins may only read themselves.
//
// @Summary      Buscar usuário por id
// @Tags         usuarios
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "ID do usuário"
// @Success      200  {object}  userResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/api/usuarios/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user, err := h.loadOwned(c, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Update replaces name, email and address.
//
// @Summary      Atualizar usuário
// @Tags         usuarios
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "ID do usuário"
// @Param        body  body      updateUserRequest  true  "Novos dados"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/api/usuarios/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if _, err := h.loadOwned(c, id); err != nil {
		return err
	}

	user, err := h.service.Update(c.Request().Context(), id, ports.UpdateUserInput{
		Name:    req.Nome,
		Email:   req.Email,
		Address: req.Endereco,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// UpdatePassword changes the password after checking the current one.
//
// @Summary      Alterar senha
// @Tags         usuarios
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  int                    true  "ID do usuário"
// @Param        body  body  updatePasswordRequest  true  "Senhas"
// @Success      200
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/api/usuarios/{id}/senha [patch]
func (h *UserHandler) UpdatePassword(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updatePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if _, err := h.loadOwned(c, id); err != nil {
		return err
	}

	if err := h.service.UpdatePassword(c.Request().Context(), id, ports.UpdatePasswordInput{
		Current: req.SenhaAtual,
		New:     req.NovaSenha,
	}); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

// UpdateRole sets the role of any user.
//
// @Summary      Alterar role
// @Tags         usuarios
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateRoleRequest  true  "Usuário e nova role"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/api/usuarios/role [patch]
func (h *UserHandler) UpdateRole(c echo.Context) error {
	var req updateRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.UpdateRole(c.Request().Context(), req.IDUser, req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Delete removes a user.
//
// @Summary      Excluir usuário
// @Tags         usuarios
// @Security     BearerAuth
// @Param        id   path  int  true  "ID do usuário"
// @Success      200
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/api/usuarios/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if _, err := h.loadOwned(c, id); err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

func (h *UserHandler) loadOwned(c echo.Context, id int64) (*domain.User, error) {
	p, err := principalFrom(c)
	if err != nil {
		return nil, err
	}
	user, err := h.guard.LoadOwned(c.Request().Context(), p, id)
	if errors.Is(err, domain.ErrForbidden) {
		metrics.AccessDeniedTotal.WithLabelValues(metrics.GateOwnership).Inc()
	}
	return user, err
}
