package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/skynote-go/apperror"
)

// AuthService verifies credentials and creates accounts. Session identity
// itself is handled by Sessions; the service only decides whether a user
// exists and whether a password matches.
type AuthService struct {
	store CredentialStore
	log   zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(store CredentialStore, log zerolog.Logger) *AuthService {
	return &AuthService{store: store, log: log}
}

// Register creates a new user. Registering an email that already exists
// returns a ConflictError and never creates a second row.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if req.Email == "" || req.Password == "" {
		return nil, apperror.NewValidationError("email and password are required", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		// Hashing failures count as failed registration, never as a
		// silently unhashed credential.
		s.log.Error().Err(err).Msg("password hashing failed")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		Email:          strings.ToLower(req.Email),
		HashedPassword: string(hashedPassword),
		City:           strings.TrimSpace(req.City),
	}

	createdUser, err := s.store.Create(ctx, user)
	if err != nil {
		if apperror.IsConflict(err) {
			return nil, err
		}
		return nil, apperror.NewDatabaseError("failed to create user", err)
	}
	return createdUser, nil
}

// Login authenticates a user by email and password. Unknown emails and
// wrong passwords both yield an AuthError so the response does not reveal
// which part was wrong. Store failures are logged and reported as a failed
// login attempt rather than crashing the request.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*User, error) {
	email := strings.ToLower(req.Email)
	user, err := s.store.ByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewAuthError("invalid credentials", nil)
		}
		s.log.Error().Err(err).Str("email", email).Msg("credential lookup failed")
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		return nil, apperror.NewAuthError("invalid credentials", nil)
	}

	return user, nil
}
