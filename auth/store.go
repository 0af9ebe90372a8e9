package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/skynote-go/apperror"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint
// violations.
const pgUniqueViolation = "23505"

// CredentialStore persists and looks up users.
type CredentialStore interface {
	Create(ctx context.Context, user *User) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
}

// PgxCredentialStore is the PostgreSQL-backed CredentialStore.
type PgxCredentialStore struct {
	db *pgxpool.Pool
}

// NewCredentialStore creates a CredentialStore over the given pool.
func NewCredentialStore(db *pgxpool.Pool) *PgxCredentialStore {
	return &PgxCredentialStore{db: db}
}

// Create inserts a new user and fills in the generated ID. A duplicate
// email surfaces as a ConflictError.
func (s *PgxCredentialStore) Create(ctx context.Context, user *User) (*User, error) {
	query := `INSERT INTO users (email, password, city)
	          VALUES ($1, $2, $3)
	          RETURNING id, created_at`
	err := s.db.QueryRow(ctx, query, user.Email, user.HashedPassword, user.City).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && strings.Contains(pgErr.ConstraintName, "email") {
			return nil, apperror.NewConflictError("email already exists", nil)
		}
		return nil, apperror.NewDatabaseError("failed to create user", err)
	}
	return user, nil
}

// ByEmail retrieves a user by email address. Emails are opaque keys here;
// the service normalizes case before every store call.
func (s *PgxCredentialStore) ByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	query := `SELECT id, email, password, city, created_at FROM users WHERE email = $1`
	err := s.db.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.HashedPassword,
		&user.City,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("user with email '%s' not found", email), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user by email", err)
	}
	return &user, nil
}
