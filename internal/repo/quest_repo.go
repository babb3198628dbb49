// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for Quest content
// and QuestProgress rows.
//
// Error semantics:
//   - FindQuest and GetQuestProgress return ErrNotFound when missing.
//   - CreateQuest returns ErrDuplicate when the slug is taken.
//   - CompleteQuestProgress returns ErrDuplicate when the progress row was
//     already COMPLETED; the guarded update is what makes completion
//     happen at most once even under concurrent submissions.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-game-backend/internal/domain"
)

// CreateQuest inserts a quest definition. Slug must be unique.
func CreateQuest(ctx context.Context, db *gorm.DB, q *domain.Quest) (*domain.Quest, error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	q.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(q).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return q, nil
}

// FindQuest fetches an active quest by ID or slug, or ErrNotFound.
func FindQuest(ctx context.Context, db *gorm.DB, ref string) (*domain.Quest, error) {
	var q domain.Quest
	err := db.WithContext(ctx).
		Where("(id = ? OR slug = ?) AND is_active = ?", ref, ref, true).
		First(&q).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ListQuests returns all active quests, oldest first.
func ListQuests(ctx context.Context, db *gorm.DB) ([]domain.Quest, error) {
	var out []domain.Quest
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// GetQuestProgress fetches the (user, quest) progress row, or ErrNotFound.
func GetQuestProgress(ctx context.Context, db *gorm.DB, userID, questID string) (*domain.QuestProgress, error) {
	var qp domain.QuestProgress
	err := db.WithContext(ctx).
		Where("user_id = ? AND quest_id = ?", userID, questID).
		First(&qp).Error
	if err != nil {
		return nil, err
	}
	return &qp, nil
}

// CreateQuestProgress inserts a fresh IN_PROGRESS row with zero attempts.
// ErrDuplicate when a row already exists for the pair.
func CreateQuestProgress(ctx context.Context, db *gorm.DB, userID, questID string) (*domain.QuestProgress, error) {
	qp := &domain.QuestProgress{
		ID:        uuid.NewString(),
		UserID:    userID,
		QuestID:   questID,
		Status:    domain.QuestInProgress,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(qp).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return qp, nil
}

// RecordQuestAttempt increments the attempt counter and stores the latest
// answer. Returns the new attempt count. ErrNotFound when the row is gone.
func RecordQuestAttempt(ctx context.Context, db *gorm.DB, id, answer string) (int, error) {
	res := db.WithContext(ctx).
		Model(&domain.QuestProgress{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":     gorm.Expr("attempts + 1"),
			"answer_given": answer,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	var qp domain.QuestProgress
	if err := db.WithContext(ctx).Select("attempts").Where("id = ?", id).First(&qp).Error; err != nil {
		return 0, err
	}
	return qp.Attempts, nil
}

// CompleteQuestProgress flips the row to COMPLETED. The status guard means a
// row that is already COMPLETED affects zero rows and comes back as
// ErrDuplicate, so quest XP can never be paid twice.
func CompleteQuestProgress(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.QuestProgress{}).
		Where("id = ? AND status <> ?", id, domain.QuestCompleted).
		Updates(map[string]any{"status": domain.QuestCompleted, "completed_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}

// ListQuestProgress returns all of a user's progress rows, newest first.
func ListQuestProgress(ctx context.Context, db *gorm.DB, userID string) ([]domain.QuestProgress, error) {
	var out []domain.QuestProgress
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		Find(&out).Error
	return out, err
}
