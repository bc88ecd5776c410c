// Package sqlite implements the user store on an embedded SQLite database.
// Timestamps are stored as unix milliseconds.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/techchallenge/usuarios-api/internal/core/domain"
	"github.com/techchallenge/usuarios-api/internal/core/ports"
)

var _ ports.UserRepository = (*UserRepository)(nil)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const userColumns = `id, nome, email, senha_hash, endereco, role, ultima_atualizacao`

type UserRepository struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies migrations.
func Open(ctx context.Context, path string) (*UserRepository, error) {
	dsn := path
	if path != MemoryPath {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == MemoryPath {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	r := &UserRepository{db: db}
	if err := r.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *UserRepository) Close() error {
	return r.db.Close()
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *UserRepository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS usuario (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			nome TEXT NOT NULL,
			email TEXT NOT NULL,
			senha_hash TEXT NOT NULL,
			endereco TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'CLIENT',
			ultima_atualizacao INTEGER NOT NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS usuario_email_lower_idx ON usuario (lower(email));`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM usuario WHERE lower(email) = lower(?)`, email,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("exists by email: %w", err)
	}
	return n > 0, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM usuario WHERE lower(email) = lower(?)`, email)
	return scanUser(row)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM usuario WHERE id = ?`, id)
	return scanUser(row)
}

// FindByNameContaining uses LIKE when ignoring case, which folds ASCII
// letters only, and instr otherwise.
func (r *UserRepository) FindByNameContaining(ctx context.Context, substring string, ignoreCase bool) ([]*domain.User, error) {
	if ignoreCase {
		return r.queryUsers(ctx, `SELECT `+userColumns+` FROM usuario
			WHERE nome LIKE '%' || ? || '%' ESCAPE '\'
			ORDER BY id`, escapeLike(substring))
	}
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM usuario
		WHERE instr(nome, ?) > 0
		ORDER BY id`, substring)
}

func (r *UserRepository) ListAll(ctx context.Context) ([]*domain.User, error) {
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM usuario ORDER BY id`)
}

func (r *UserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user.IsNew() {
		res, err := r.db.ExecContext(ctx, `
			INSERT INTO usuario (nome, email, senha_hash, endereco, role, ultima_atualizacao)
			VALUES (?, ?, ?, ?, ?, ?)`,
			user.Name, user.Email, user.PasswordHash, user.Address, string(user.Role), user.LastUpdatedAt.UnixMilli())
		if err != nil {
			return nil, mapWriteError(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
		return r.FindByID(ctx, id)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE usuario
		SET nome = ?, email = ?, senha_hash = ?, endereco = ?, role = ?, ultima_atualizacao = ?
		WHERE id = ?`,
		user.Name, user.Email, user.PasswordHash, user.Address, string(user.Role), user.LastUpdatedAt.UnixMilli(), user.ID)
	if err != nil {
		return nil, mapWriteError(err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return nil, domain.ErrUserNotFound
	}
	return r.FindByID(ctx, user.ID)
}

func (r *UserRepository) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM usuario WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...any) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*domain.User, error) {
	var (
		u       domain.User
		role    string
		updated int64
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Address, &role, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Role = domain.Role(role)
	u.LastUpdatedAt = time.UnixMilli(updated).UTC()
	return &u, nil
}

func mapWriteError(err error) error {
	var se *msqlite.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return domain.ErrConflict
	}
	if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
		return domain.ErrConflict
	}
	return fmt.Errorf("write user: %w", err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
