// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// InventoryItem model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-game-backend/internal/domain"
)

// GrantItem inserts one copy of itemID for userID and reports whether a row
// was actually created. Holding the item already is not an error: the unique
// (user_id, item_id) index absorbs the duplicate and created comes back
// false, which is what makes reward-item grants safely repeatable.
func GrantItem(ctx context.Context, db *gorm.DB, userID, itemID, source string) (created bool, err error) {
	it := &domain.InventoryItem{
		ID:         uuid.NewString(),
		UserID:     userID,
		ItemID:     itemID,
		Source:     source,
		AcquiredAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(it).Error; err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// HasItem reports whether userID holds itemID.
func HasItem(ctx context.Context, db *gorm.DB, userID, itemID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.InventoryItem{}).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Count(&n).Error
	return n > 0, err
}

// ListInventory returns all items held by userID, most recently acquired
// first.
func ListInventory(ctx context.Context, db *gorm.DB, userID string) ([]domain.InventoryItem, error) {
	var out []domain.InventoryItem
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("acquired_at desc").
		Find(&out).Error
	return out, err
}
