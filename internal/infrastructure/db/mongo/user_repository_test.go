package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/techchallenge/usuarios-api/internal/core/domain"
)

func TestDocumentMapping(t *testing.T) {
	u := &domain.User{
		ID:            7,
		Name:          "Ana",
		Email:         "Ana@X.com",
		PasswordHash:  "hash",
		Address:       "Rua 1",
		Role:          domain.RoleDono,
		LastUpdatedAt: time.Date(2024, 3, 1, 12, 0, 0, 123_000_000, time.UTC),
	}

	doc := toDocument(u)
	assert.Equal(t, "ana@x.com", doc.EmailLower)
	assert.Equal(t, "Ana@X.com", doc.Email)
	assert.Equal(t, "DONO", doc.Role)

	back := toDomain(doc)
	assert.Equal(t, u, back)
}

func TestMillisToTime_Zero(t *testing.T) {
	assert.True(t, millisToTime(0).IsZero())
}
