package handler

import (
	"time"

	"github.com/techchallenge/usuarios-api/internal/core/domain"
)

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:                u.ID,
		Nome:              u.Name,
		Email:             u.Email,
		Endereco:          u.Address,
		Role:              u.Role.String(),
		UltimaAtualizacao: formatTime(u.LastUpdatedAt),
	}
}

func toUserResponses(users []*domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

func toMeResponse(id *domain.Identity) meResponse {
	return meResponse{
		Email:     id.Email,
		IssuedAt:  formatTime(id.IssuedAt),
		ExpiresAt: formatTime(id.ExpiresAt),
		Role:      id.Role,
		IDUser:    id.ID,
		Nome:      id.Name,
		Endereco:  id.Address,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}
