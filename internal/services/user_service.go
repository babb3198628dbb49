// Package services – UserService
//
// Profile reads and the small set of self-service profile edits.
package services

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-game-backend/internal/domain"
	"github.com/tbourn/go-game-backend/internal/repo"
)

// ErrInvalidAvatarURL is returned when a profile update carries a URL that
// does not parse as http(s).
var ErrInvalidAvatarURL = errors.New("invalid avatar url")

// UserService implements profile use-cases.
type UserService struct {
	// DB is the database handle used for all profile operations.
	DB *gorm.DB
}

// Profile fetches the user's account row, or ErrUserNotFound.
func (s *UserService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateAvatar sets the user's avatar URL and returns the refreshed profile.
// An empty URL clears the avatar.
func (s *UserService) UpdateAvatar(ctx context.Context, userID, avatarURL string) (*domain.User, error) {
	avatarURL = strings.TrimSpace(avatarURL)
	if avatarURL != "" {
		u, err := url.Parse(avatarURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, ErrInvalidAvatarURL
		}
	}
	if err := repo.UpdateUserAvatar(ctx, s.DB, userID, avatarURL); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.Profile(ctx, userID)
}
