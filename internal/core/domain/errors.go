package domain

import "errors"

// Authentication failures.
var (
	ErrEmailNotFound   = errors.New("Usuário não encontrado")
	ErrInvalidPassword = errors.New("Senha inválida")
	ErrTokenMissing    = errors.New("Token ausente ou mal formatado. Use: Authorization: Bearer <token>")
	ErrInvalidToken    = errors.New("Token inválido")
)

// Token codec failure kinds. ErrTokenExpired is kept distinct from the
// integrity failures so callers can ask the user to log in again.
var (
	ErrTokenMalformed    = errors.New("token malformed")
	ErrTokenBadSignature = errors.New("token signature invalid")
	ErrTokenExpired      = errors.New("Token expirado")
)

// User management failures.
var (
	ErrUserNotFound         = errors.New("Usuário não encontrado")
	ErrConflict             = errors.New("unique constraint violated")
	ErrEmailInUse           = errors.New("Email já está em uso.")
	ErrInvalidRole          = errors.New("Role inválida.")
	ErrInvalidUserID        = errors.New("id do usuário inválido")
	ErrNameRequired         = errors.New("O parâmetro 'nome' é obrigatório.")
	ErrWrongCurrentPassword = errors.New("Senha atual incorreta")
)

// Authorization failures.
var (
	ErrAccessDenied = errors.New("Acesso negado")
	ErrForbidden    = errors.New("Você não tem permissão para acessar ou alterar este usuário")
)
