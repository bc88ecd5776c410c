package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/techchallenge/usuarios-api/internal/core/domain"
	"github.com/techchallenge/usuarios-api/internal/core/ports"
)

var _ ports.UserRepository = (*UserRepository)(nil)

const uniqueViolation = "23505"

const userColumns = `id, nome, email, senha_hash, endereco, role, ultima_atualizacao`

// UserRepository is the Postgres-backed user store.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository connects to databaseURL and applies migrations.
func NewUserRepository(ctx context.Context, databaseURL string) (*UserRepository, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	r := &UserRepository{pool: pool}
	if err := r.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

// Close releases database resources.
func (r *UserRepository) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *UserRepository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS usuario (
			id BIGSERIAL PRIMARY KEY,
			nome TEXT NOT NULL,
			email TEXT NOT NULL,
			senha_hash TEXT NOT NULL,
			endereco TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'CLIENT',
			ultima_atualizacao TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS usuario_email_lower_idx ON usuario (lower(email));`,
		`CREATE INDEX IF NOT EXISTS usuario_nome_idx ON usuario (nome);`,
	}
	for _, stmt := range stmts {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM usuario WHERE lower(email) = lower($1))`, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists by email: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM usuario WHERE lower(email) = lower($1)`, email)
	return scanUser(row)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM usuario WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) FindByNameContaining(ctx context.Context, substring string, ignoreCase bool) ([]*domain.User, error) {
	op := "LIKE"
	if ignoreCase {
		op = "ILIKE"
	}
	query := `SELECT ` + userColumns + ` FROM usuario
		WHERE nome ` + op + ` '%' || $1 || '%' ESCAPE '\'
		ORDER BY id`
	return r.queryUsers(ctx, query, escapeLike(substring))
}

func (r *UserRepository) ListAll(ctx context.Context) ([]*domain.User, error) {
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM usuario ORDER BY id`)
}

func (r *UserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	var row pgx.Row
	if user.IsNew() {
		row = r.pool.QueryRow(ctx, `
			INSERT INTO usuario (nome, email, senha_hash, endereco, role, ultima_atualizacao)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+userColumns,
			user.Name, user.Email, user.PasswordHash, user.Address, string(user.Role), user.LastUpdatedAt)
	} else {
		row = r.pool.QueryRow(ctx, `
			UPDATE usuario
			SET nome = $2, email = $3, senha_hash = $4, endereco = $5, role = $6, ultima_atualizacao = $7
			WHERE id = $1
			RETURNING `+userColumns,
			user.ID, user.Name, user.Email, user.PasswordHash, user.Address, string(user.Role), user.LastUpdatedAt)
	}

	saved, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	return saved, nil
}

func (r *UserRepository) DeleteByID(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM usuario WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...any) ([]*domain.User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u       domain.User
		role    string
		updated time.Time
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Address, &role, &updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	u.Role = domain.Role(role)
	u.LastUpdatedAt = updated.UTC()
	return &u, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
