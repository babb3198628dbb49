// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// PostProgress model.
//
// Error semantics:
//   - MarkPostRead and UnlockPost return ErrDuplicate when the row already
//     records the read/unlock, whether that is detected by the guarded
//     update or by the (user_id, post_slug) unique index under concurrency.
//   - On other DB errors, the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-game-backend/internal/domain"
)

// GetPostProgress fetches the (user, slug) progress row, or ErrNotFound.
func GetPostProgress(ctx context.Context, db *gorm.DB, userID, slug string) (*domain.PostProgress, error) {
	var pp domain.PostProgress
	err := db.WithContext(ctx).
		Where("user_id = ? AND post_slug = ?", userID, slug).
		First(&pp).Error
	if err != nil {
		return nil, err
	}
	return &pp, nil
}

// MarkPostRead records that userID has read slug. If no progress row exists
// one is created; if one exists with has_read still false it is flipped.
// A row that already says has_read, or a concurrent insert losing the race
// on the unique index, comes back as ErrDuplicate.
func MarkPostRead(ctx context.Context, db *gorm.DB, userID, slug string, at time.Time) (*domain.PostProgress, error) {
	var pp domain.PostProgress
	err := db.WithContext(ctx).
		Where("user_id = ? AND post_slug = ?", userID, slug).
		First(&pp).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		pp = domain.PostProgress{
			ID:        uuid.NewString(),
			UserID:    userID,
			PostSlug:  slug,
			HasRead:   true,
			ReadAt:    &at,
			CreatedAt: at,
		}
		if err := db.WithContext(ctx).Create(&pp).Error; err != nil {
			if isUniqueViolation(err) {
				return nil, ErrDuplicate
			}
			return nil, err
		}
		return &pp, nil
	case err != nil:
		return nil, err
	}

	if pp.HasRead {
		return nil, ErrDuplicate
	}
	res := db.WithContext(ctx).
		Model(&domain.PostProgress{}).
		Where("id = ? AND has_read = ?", pp.ID, false).
		Updates(map[string]any{"has_read": true, "read_at": at})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrDuplicate
	}
	pp.HasRead = true
	pp.ReadAt = &at
	return &pp, nil
}

// UnlockPost records that userID unlocked slug with itemID. Same shape as
// MarkPostRead: create the row or flip is_unlocked, with ErrDuplicate when
// the post was already unlocked.
func UnlockPost(ctx context.Context, db *gorm.DB, userID, slug, itemID string, at time.Time) (*domain.PostProgress, error) {
	var pp domain.PostProgress
	err := db.WithContext(ctx).
		Where("user_id = ? AND post_slug = ?", userID, slug).
		First(&pp).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		pp = domain.PostProgress{
			ID:               uuid.NewString(),
			UserID:           userID,
			PostSlug:         slug,
			IsUnlocked:       true,
			UnlockedAt:       &at,
			UnlockedWithItem: itemID,
			CreatedAt:        at,
		}
		if err := db.WithContext(ctx).Create(&pp).Error; err != nil {
			if isUniqueViolation(err) {
				return nil, ErrDuplicate
			}
			return nil, err
		}
		return &pp, nil
	case err != nil:
		return nil, err
	}

	if pp.IsUnlocked {
		return nil, ErrDuplicate
	}
	res := db.WithContext(ctx).
		Model(&domain.PostProgress{}).
		Where("id = ? AND is_unlocked = ?", pp.ID, false).
		Updates(map[string]any{"is_unlocked": true, "unlocked_at": at, "unlocked_with_item": itemID})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrDuplicate
	}
	pp.IsUnlocked = true
	pp.UnlockedAt = &at
	pp.UnlockedWithItem = itemID
	return &pp, nil
}
