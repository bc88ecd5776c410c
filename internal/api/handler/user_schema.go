package handler

import "time"

// errorResponse is the error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// --- Auth ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

type meResponse struct {
	Email     string `json:"email"`
	IssuedAt  string `json:"issuedAt"`
	ExpiresAt string `json:"expiresAt"`
	Role      string `json:"role"`
	IDUser    int64  `json:"idUser"`
	Nome      string `json:"nome"`
	Endereco  string `json:"endereco"`
}

// --- Users ---

type createUserRequest struct {
	Nome     string `json:"nome"     validate:"notblank"`
	Email    string `json:"email"    validate:"notblank,email"`
	Senha    string `json:"senha"    validate:"notblank"`
	Endereco string `json:"endereco" validate:"notblank"`
}

type updateUserRequest struct {
	Nome     string `json:"nome"     validate:"notblank"`
	Email    string `json:"email"    validate:"notblank,email"`
	Endereco string `json:"endereco" validate:"notblank"`
}

type updatePasswordRequest struct {
	SenhaAtual string `json:"senhaAtual" validate:"notblank"`
	NovaSenha  string `json:"novaSenha"  validate:"notblank"`
}

type updateRoleRequest struct {
	IDUser string `json:"idUser" validate:"notblank"`
	Role   string `json:"role"   validate:"notblank"`
}

type userResponse struct {
	ID                int64  `json:"id"`
	Nome              string `json:"nome"`
	Email             string `json:"email"`
	Endereco          string `json:"endereco"`
	Role              string `json:"role"`
	UltimaAtualizacao string `json:"ultimaAtualizacao"`
}

const timeLayout = time.RFC3339
