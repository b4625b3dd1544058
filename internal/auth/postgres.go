package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orbitlearn/orbit-server/internal/models"
)

const uniqueViolationCode = "23505"

// PostgresStore persists users in the users table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	const query = `
		INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)`

	_, err := p.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		strings.TrimSpace(user.Email),
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			if strings.Contains(pgErr.ConstraintName, "email") {
				return ErrEmailExists
			}
			return ErrUserExists
		}
		return err
	}

	return nil
}

func (p *PostgresStore) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	const query = `
		SELECT id, username, COALESCE(email, ''), password_hash, created_at, updated_at
		FROM users
		WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($1)
		LIMIT 1`

	var user models.User
	err := p.pool.QueryRow(ctx, query, strings.TrimSpace(identifier)).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

func (p *PostgresStore) TouchUpdatedAt(ctx context.Context, id string, at time.Time) error {
	_, err := p.pool.Exec(ctx, "UPDATE users SET updated_at = $2 WHERE id = $1", id, at)
	return err
}
