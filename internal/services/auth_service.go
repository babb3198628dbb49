// Package services – AuthService
//
// This file implements registration, login, refresh-token rotation, and
// logout. Passwords are bcrypt-hashed, access tokens are short-lived HS256
// JWTs, and refresh tokens are opaque values persisted only as SHA-256
// hashes. Duplicate registrations fall through to the unique indexes on
// username and email.
package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-game-backend/internal/auth"
	"github.com/tbourn/go-game-backend/internal/domain"
	"github.com/tbourn/go-game-backend/internal/repo"
)

// ErrInvalidRegistration is returned when registration input is malformed
// (short username or password, bad email).
var ErrInvalidRegistration = errors.New("invalid registration input")

// TokenPair is what a successful login or refresh hands back.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthService implements the account lifecycle over a GORM handle.
type AuthService struct {
	// DB is the database handle used for all auth operations.
	DB *gorm.DB

	// Tokens signs and verifies tokens; TTLs come from config.
	Tokens *auth.Manager
}

// Register creates a new account starting at xp=0, level=1.
//
// Errors: ErrInvalidRegistration for malformed input; ErrUsernameTaken or
// ErrEmailTaken when the unique indexes reject the insert.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Register",
		trace.WithAttributes(attribute.String("user.name", username)),
	)
	defer span.End()

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if len(username) < 3 || len(password) < 8 {
		return nil, ErrInvalidRegistration
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidRegistration
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := repo.CreateUser(ctx, s.DB, username, email, hash)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			byU, _, cerr := repo.CountUsersByUsernameOrEmail(ctx, s.DB, username, email)
			if cerr == nil && byU > 0 {
				return nil, ErrUsernameTaken
			}
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues a token pair. Wrong username and
// wrong password are indistinguishable to the caller; a disabled account is
// ErrInactiveAccount.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, *TokenPair, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Login",
		trace.WithAttributes(attribute.String("user.name", username)),
	)
	defer span.End()

	user, err := repo.GetUserByUsername(ctx, s.DB, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, ErrInactiveAccount
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued. Unknown, expired, or revoked tokens are
// ErrInvalidRefreshToken. Expired rows are swept opportunistically.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Refresh")
	defer span.End()

	now := time.Now().UTC()
	hash := auth.HashRefreshToken(refreshToken)

	var pair *TokenPair
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rt, err := repo.GetRefreshToken(ctx, tx, hash, now)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrInvalidRefreshToken
			}
			return err
		}
		user, err := repo.GetUser(ctx, tx, rt.UserID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrInvalidRefreshToken
			}
			return err
		}
		if !user.IsActive {
			return ErrInactiveAccount
		}
		if err := repo.RevokeRefreshToken(ctx, tx, hash, now); err != nil {
			return err
		}
		p, err := s.issueTokensTx(ctx, tx, user, now)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Sweep; losing this costs nothing but disk.
	_, _ = repo.DeleteExpiredRefreshTokens(ctx, s.DB, now)
	return pair, nil
}

// Logout revokes the presented refresh token. Revoking an unknown token is
// ErrInvalidRefreshToken.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	err := repo.RevokeRefreshToken(ctx, s.DB, auth.HashRefreshToken(refreshToken), time.Now().UTC())
	if errors.Is(err, repo.ErrNotFound) {
		return ErrInvalidRefreshToken
	}
	return err
}

func (s *AuthService) issueTokens(ctx context.Context, user *domain.User) (*TokenPair, error) {
	return s.issueTokensTx(ctx, s.DB, user, time.Now().UTC())
}

func (s *AuthService) issueTokensTx(ctx context.Context, db *gorm.DB, user *domain.User, now time.Time) (*TokenPair, error) {
	access, err := s.Tokens.NewAccessToken(user.ID, user.Role, now)
	if err != nil {
		return nil, err
	}
	refresh, hash, err := s.Tokens.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	if _, err := repo.CreateRefreshToken(ctx, db, user.ID, hash, now.Add(s.Tokens.RefreshTTL)); err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(s.Tokens.AccessTTL),
	}, nil
}
