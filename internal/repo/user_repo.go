// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a user is not found, functions return ErrNotFound.
//   - CreateUser returns ErrDuplicate when username or email is taken.
//   - On other DB errors, the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-game-backend/internal/domain"
)

// CreateUser inserts a new account row. Username and email must be unique;
// a violation of either index is returned as ErrDuplicate, and the service
// layer decides which field collided.
func CreateUser(ctx context.Context, db *gorm.DB, username, email, passwordHash string) (*domain.User, error) {
	u := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         "user",
		IsActive:     true,
		XP:           0,
		Level:        1,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return u, nil
}

// GetUser fetches a user by ID, or ErrNotFound if missing.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByUsername fetches a user by username, or ErrNotFound if missing.
func GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// CountUsersByUsernameOrEmail returns how many accounts already use the given
// username or email. Used to pick the right conflict message at registration.
func CountUsersByUsernameOrEmail(ctx context.Context, db *gorm.DB, username, email string) (byUsername, byEmail int64, err error) {
	if err = db.WithContext(ctx).Model(&domain.User{}).Where("username = ?", username).Count(&byUsername).Error; err != nil {
		return 0, 0, err
	}
	err = db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Count(&byEmail).Error
	return byUsername, byEmail, err
}

// UpdateUserXP sets the denormalized xp/level pair. Callers run this inside
// the same transaction that appends the ledger row. Returns ErrNotFound when
// no row matches.
func UpdateUserXP(ctx context.Context, db *gorm.DB, id string, xp, level int) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"xp": xp, "level": level})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateUserStreaks sets both streak counters. Returns ErrNotFound when no
// row matches.
func UpdateUserStreaks(ctx context.Context, db *gorm.DB, id string, current, longest int) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"current_streak": current, "longest_streak": longest})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateUserAvatar sets the avatar URL. Returns ErrNotFound when no row
// matches.
func UpdateUserAvatar(ctx context.Context, db *gorm.DB, id, avatarURL string) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("avatar_url", avatarURL)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
