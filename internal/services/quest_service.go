// Package services – QuestService
//
// This file implements the QuestService: answer submission with the quest's
// configured match policy, attempt counting, hints after repeated failures,
// and the one-time completion payout. A quest moves NOT_STARTED (no row) →
// IN_PROGRESS → COMPLETED, and COMPLETED is terminal: the guarded status
// update plus the unique (user, quest) index make a second payout impossible.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-game-backend/internal/domain"
	"github.com/tbourn/go-game-backend/internal/match"
	"github.com/tbourn/go-game-backend/internal/repo"
)

// hintThreshold is the attempt count at which the quest's hint is revealed.
const hintThreshold = 3

// SubmitResult reports one answer submission. Hint is only set on failed
// submissions once the user has made hintThreshold attempts.
type SubmitResult struct {
	Correct   bool         `json:"correct"`
	Attempts  int          `json:"attempts"`
	Status    string       `json:"status"`
	Hint      string       `json:"hint,omitempty"`
	Award     *AwardResult `json:"award,omitempty"`
	ItemGiven string       `json:"item_given,omitempty"`
}

// QuestProgressView is the per-quest progress a user may see. The reference
// answer never leaves the service.
type QuestProgressView struct {
	QuestID     string     `json:"quest_id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	XPReward    int        `json:"xp_reward"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// QuestService implements quest submission and progress reads.
type QuestService struct {
	// DB is the database handle used for all quest operations.
	DB *gorm.DB

	// Game pays out the completion reward inside the submission transaction.
	Game *GameService
}

// Submit validates answer against the quest identified by ref (ID or slug).
//
// Every submission, right or wrong, increments the persisted attempt counter
// and records the answer given. A correct answer completes the quest, pays
// its XP, and grants its reward item (if any) in the same transaction. A
// wrong answer returns correct=false with the current attempt count, plus
// the hint once attempts >= 3. Submitting to a completed quest is
// ErrQuestCompleted.
func (s *QuestService) Submit(ctx context.Context, userID, ref, answer string) (*SubmitResult, error) {
	tr := otel.Tracer("services/QuestService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("quest.ref", ref),
		),
	)
	defer span.End()

	if strings.TrimSpace(answer) == "" {
		return nil, ErrEmptyAnswer
	}

	var res *SubmitResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quest, err := repo.FindQuest(ctx, tx, ref)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrQuestNotFound
			}
			return err
		}
		if _, err := repo.GetUser(ctx, tx, userID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		qp, err := repo.GetQuestProgress(ctx, tx, userID, quest.ID)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			qp, err = repo.CreateQuestProgress(ctx, tx, userID, quest.ID)
			if err != nil && !errors.Is(err, repo.ErrDuplicate) {
				return err
			}
			if errors.Is(err, repo.ErrDuplicate) {
				// Lost a race with another submission; reload.
				qp, err = repo.GetQuestProgress(ctx, tx, userID, quest.ID)
				if err != nil {
					return err
				}
			}
		case err != nil:
			return err
		}
		if qp.Status == domain.QuestCompleted {
			return ErrQuestCompleted
		}

		attempts, err := repo.RecordQuestAttempt(ctx, tx, qp.ID, answer)
		if err != nil {
			return err
		}

		if !match.Answer(match.Policy(quest.MatchPolicy), answer, quest.CorrectAnswer) {
			res = &SubmitResult{
				Correct:  false,
				Attempts: attempts,
				Status:   domain.QuestInProgress,
			}
			if attempts >= hintThreshold {
				res.Hint = quest.Hint
			}
			return nil
		}

		// CreateQuest bounds XPReward, but quest rows can arrive by other
		// routes (seeds, migrations); the cap holds at payout time too.
		if err := s.Game.checkAmount(quest.XPReward, SourceQuest); err != nil {
			return err
		}

		if err := repo.CompleteQuestProgress(ctx, tx, qp.ID, time.Now().UTC()); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return ErrQuestCompleted
			}
			return err
		}
		award, err := awardXPTx(ctx, tx, userID, quest.XPReward, SourceQuest, quest.ID,
			"Completed quest "+quest.Slug)
		if err != nil {
			return err
		}
		itemGiven := ""
		if quest.RewardItemID != "" {
			if _, err := repo.GrantItem(ctx, tx, userID, quest.RewardItemID, SourceQuest); err != nil {
				return err
			}
			itemGiven = quest.RewardItemID
		}

		res = &SubmitResult{
			Correct:   true,
			Attempts:  attempts,
			Status:    domain.QuestCompleted,
			Award:     award,
			ItemGiven: itemGiven,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Correct {
		recordAward(SourceQuest, res.Award)
		questCompletions.Inc()
	}
	return res, nil
}

// Progress returns the user's standing on one quest. A quest never attempted
// reports NOT_STARTED with zero attempts rather than an error.
func (s *QuestService) Progress(ctx context.Context, userID, ref string) (*QuestProgressView, error) {
	quest, err := repo.FindQuest(ctx, s.DB, ref)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrQuestNotFound
		}
		return nil, err
	}

	view := &QuestProgressView{
		QuestID:  quest.ID,
		Slug:     quest.Slug,
		Title:    quest.Title,
		Status:   domain.QuestNotStarted,
		XPReward: quest.XPReward,
	}
	qp, err := repo.GetQuestProgress(ctx, s.DB, userID, quest.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return view, nil
		}
		return nil, err
	}
	view.Status = qp.Status
	view.Attempts = qp.Attempts
	view.CompletedAt = qp.CompletedAt
	return view, nil
}

// ListProgress returns the user's standing on every active quest, including
// the ones they have not started.
func (s *QuestService) ListProgress(ctx context.Context, userID string) ([]QuestProgressView, error) {
	quests, err := repo.ListQuests(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	rows, err := repo.ListQuestProgress(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	byQuest := make(map[string]*domain.QuestProgress, len(rows))
	for i := range rows {
		byQuest[rows[i].QuestID] = &rows[i]
	}

	out := make([]QuestProgressView, 0, len(quests))
	for _, q := range quests {
		v := QuestProgressView{
			QuestID:  q.ID,
			Slug:     q.Slug,
			Title:    q.Title,
			Status:   domain.QuestNotStarted,
			XPReward: q.XPReward,
		}
		if qp, ok := byQuest[q.ID]; ok {
			v.Status = qp.Status
			v.Attempts = qp.Attempts
			v.CompletedAt = qp.CompletedAt
		}
		out = append(out, v)
	}
	return out, nil
}

// CreateQuest stores admin-authored quest content after validating the match
// policy and reward. ErrInvalidQuest for malformed input, repo.ErrDuplicate
// surfaces as-is for a taken slug.
func (s *QuestService) CreateQuest(ctx context.Context, q *domain.Quest) (*domain.Quest, error) {
	if strings.TrimSpace(q.Slug) == "" || strings.TrimSpace(q.Title) == "" ||
		strings.TrimSpace(q.CorrectAnswer) == "" {
		return nil, ErrInvalidQuest
	}
	if !match.Policy(q.MatchPolicy).Valid() {
		return nil, ErrInvalidQuest
	}
	if q.XPReward <= 0 || (s.Game != nil && q.XPReward > s.Game.Caps.Quest) {
		return nil, ErrInvalidQuest
	}
	q.IsActive = true
	return repo.CreateQuest(ctx, s.DB, q)
}
