package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/techchallenge/usuarios-api/internal/core/domain"
	"github.com/techchallenge/usuarios-api/internal/core/ports"
)

const seedAddress = "Sistema interno"

type seedAccount struct {
	name      string
	email     string
	preHashed bool
}

var seedAccounts = []seedAccount{
	{name: "Administrador", email: "admin2@tech.com", preHashed: true},
	{name: "Administrador (Legacy)", email: "admin@tech.com"},
}

// SeedAdministrators creates the default administrator accounts that do not
// exist yet. One is stored from the SHA-256 digest of password and the other
// from password itself; both log in with password.
func SeedAdministrators(ctx context.Context, users ports.UserRepository, hasher ports.PasswordHasher, digest func(string) string, password string, log zerolog.Logger) error {
	for _, acc := range seedAccounts {
		exists, err := users.ExistsByEmail(ctx, acc.email)
		if err != nil {
			return fmt.Errorf("seed %s: %w", acc.email, err)
		}
		if exists {
			log.Debug().Str("email", acc.email).Msg("seed administrator already present")
			continue
		}

		secret := password
		if acc.preHashed {
			secret = digest(password)
		}
		hash, err := hasher.Hash(secret)
		if err != nil {
			return fmt.Errorf("seed %s: %w", acc.email, err)
		}

		if _, err := users.Save(ctx, &domain.User{
			Name:          acc.name,
			Email:         acc.email,
			PasswordHash:  hash,
			Address:       seedAddress,
			Role:          domain.RoleAdmin,
			LastUpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
		}); err != nil {
			return fmt.Errorf("seed %s: %w", acc.email, err)
		}
		log.Info().Str("email", acc.email).Msg("seeded administrator")
	}
	return nil
}
