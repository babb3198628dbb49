// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for persisted
// refresh tokens. Tokens are stored as SHA-256 hashes only.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-game-backend/internal/domain"
)

// CreateRefreshToken inserts a token row keyed by its hash.
func CreateRefreshToken(ctx context.Context, db *gorm.DB, userID, tokenHash string, expiresAt time.Time) (*domain.RefreshToken, error) {
	rt := &domain.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(rt).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rt, nil
}

// GetRefreshToken fetches a live (unrevoked, unexpired) token by hash, or
// ErrNotFound.
func GetRefreshToken(ctx context.Context, db *gorm.DB, tokenHash string, now time.Time) (*domain.RefreshToken, error) {
	var rt domain.RefreshToken
	err := db.WithContext(ctx).
		Where("token_hash = ? AND revoked_at IS NULL AND expires_at > ?", tokenHash, now).
		First(&rt).Error
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// RevokeRefreshToken marks a token revoked. Revoking a token that is already
// gone or revoked returns ErrNotFound.
func RevokeRefreshToken(ctx context.Context, db *gorm.DB, tokenHash string, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.RefreshToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", tokenHash).
		Update("revoked_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteExpiredRefreshTokens removes rows whose expiry has passed. Called
// opportunistically on refresh; losing the sweep costs nothing but disk.
func DeleteExpiredRefreshTokens(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&domain.RefreshToken{})
	return res.RowsAffected, res.Error
}
