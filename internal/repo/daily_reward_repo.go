// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// DailyReward model.
//
// Error semantics:
//   - GetLastDailyReward returns ErrNotFound for a user who has never claimed.
//   - CreateDailyReward returns ErrDuplicate when a claim already exists for
//     the (user_id, claim_day) pair; the unique index is the single source of
//     truth for "one claim per UTC day".
package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-game-backend/internal/domain"
)

// GetLastDailyReward fetches the user's most recent claim by calendar day,
// or ErrNotFound.
func GetLastDailyReward(ctx context.Context, db *gorm.DB, userID string) (*domain.DailyReward, error) {
	var dr domain.DailyReward
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("claim_day desc").
		First(&dr).Error
	if err != nil {
		return nil, err
	}
	return &dr, nil
}

// CreateDailyReward inserts a claim row and returns ErrDuplicate on a
// (user_id, claim_day) unique violation.
func CreateDailyReward(ctx context.Context, db *gorm.DB, dr *domain.DailyReward) (*domain.DailyReward, error) {
	if dr.ID == "" {
		dr.ID = uuid.NewString()
	}
	if err := db.WithContext(ctx).Create(dr).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return dr, nil
}
