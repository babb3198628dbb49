// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the append-only
// XP ledger. There is deliberately no update or delete here.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-game-backend/internal/domain"
)

// CreateXPTransaction appends one ledger row. Callers run this inside the
// transaction that also updates the user's denormalized xp/level.
func CreateXPTransaction(ctx context.Context, db *gorm.DB, tx *domain.XPTransaction) (*domain.XPTransaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(tx).Error; err != nil {
		return nil, err
	}
	return tx, nil
}

// CountXPTransactions returns the total ledger rows for userID.
func CountXPTransactions(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.XPTransaction{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListXPTransactionsPage returns a paginated slice of ledger rows for
// userID, newest first. The caller computes offset and limit.
func ListXPTransactionsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.XPTransaction, error) {
	var out []domain.XPTransaction
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
