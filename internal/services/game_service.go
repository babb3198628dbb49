// Package services – GameService
//
// This file implements the GameService, the heart of the progression system:
// awarding XP, paying out post-read rewards, daily rewards with streaks,
// item-based content unlocking, and access checks. Every mutating operation
// runs in a single database transaction, and each "at most once" rule is
// ultimately enforced by a unique index rather than a read-then-write check,
// so concurrent duplicates lose cleanly.
//
// Observability: public methods are OpenTelemetry-instrumented; successful
// awards also feed the Prometheus counters in metrics.go.
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-game-backend/internal/domain"
	"github.com/tbourn/go-game-backend/internal/leveling"
	"github.com/tbourn/go-game-backend/internal/repo"
)

// XP award sources. SourceID carries the post slug, quest ID, or claim day.
const (
	SourceReadPost    = "read_post"
	SourceQuest       = "quest"
	SourceDailyReward = "daily_reward"
	SourceAdmin       = "admin"
)

// dailyRewardXP is the seven-day reward table, indexed by streakDay-1.
// Day 7 is the bonus day: the largest XP payout plus a trophy item.
var dailyRewardXP = [7]int{10, 15, 20, 25, 30, 35, 70}

// dailyTrophyItem is granted (idempotently) on every completed seven-day
// streak.
const dailyTrophyItem = "weekly-streak-trophy"

// XPCaps bounds a single award per source. Requests above the cap are
// rejected before any write happens.
type XPCaps struct {
	ReadPost int
	Quest    int
	Admin    int
}

// AwardResult reports the outcome of one XP award.
type AwardResult struct {
	Amount        int    `json:"amount"`
	XP            int    `json:"xp"`
	Level         int    `json:"level"`
	LeveledUp     bool   `json:"leveled_up"`
	TransactionID string `json:"transaction_id"`
}

// ReadPostResult is returned by ReadPost.
type ReadPostResult struct {
	PostSlug string      `json:"post_slug"`
	Award    AwardResult `json:"award"`
}

// DailyRewardResult is returned by ClaimDailyReward. On
// ErrDailyAlreadyClaimed only NextClaimAt is populated.
type DailyRewardResult struct {
	StreakDay     int         `json:"streak_day"`
	CurrentStreak int         `json:"current_streak"`
	LongestStreak int         `json:"longest_streak"`
	RewardXP      int         `json:"reward_xp"`
	BonusItem     string      `json:"bonus_item,omitempty"`
	Award         AwardResult `json:"award"`
	NextClaimAt   time.Time   `json:"next_claim_at"`
}

// AccessResult is the pure-read answer to "can this user see this post".
type AccessResult struct {
	PostSlug      string `json:"post_slug"`
	HasAccess     bool   `json:"has_access"`
	UserLevel     int    `json:"user_level"`
	RequiredLevel int    `json:"required_level,omitempty"`
	RequiredItem  string `json:"required_item,omitempty"`
	HasItem       bool   `json:"has_item"`
	IsUnlocked    bool   `json:"is_unlocked"`
}

// GameService implements the progression use-cases over a GORM handle.
type GameService struct {
	// DB is the database handle used for all game operations.
	DB *gorm.DB

	// Caps bounds single awards per source; zero means the source accepts
	// no caller-supplied amounts.
	Caps XPCaps

	// DefaultReadXP is paid for a post read when the request does not name
	// an amount.
	DefaultReadXP int
}

// capFor returns the configured cap for a caller-supplied award source.
func (s *GameService) capFor(source string) int {
	switch source {
	case SourceReadPost:
		return s.Caps.ReadPost
	case SourceQuest:
		return s.Caps.Quest
	case SourceAdmin:
		return s.Caps.Admin
	}
	return 0
}

// checkAmount validates a caller-supplied award amount against its source cap.
func (s *GameService) checkAmount(amount int, source string) error {
	if amount <= 0 {
		return ErrXPAmountInvalid
	}
	if limit := s.capFor(source); amount > limit {
		return ErrXPCapExceeded
	}
	return nil
}

// awardXPTx applies one XP award inside the caller's transaction: it reads
// the user, writes the new denormalized xp/level pair, and appends the ledger
// row with before/after snapshots. The level is always recomputed from total
// XP, so one large award may raise it by several levels.
func awardXPTx(ctx context.Context, tx *gorm.DB, userID string, amount int, source, sourceID, description string) (*AwardResult, error) {
	user, err := repo.GetUser(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	newXP := user.XP + amount
	newLevel := leveling.LevelFromXP(newXP)

	if err := repo.UpdateUserXP(ctx, tx, userID, newXP, newLevel); err != nil {
		return nil, err
	}
	ledger, err := repo.CreateXPTransaction(ctx, tx, &domain.XPTransaction{
		UserID:        userID,
		Amount:        amount,
		Source:        source,
		SourceID:      sourceID,
		Description:   description,
		BalanceBefore: user.XP,
		BalanceAfter:  newXP,
		LevelBefore:   user.Level,
		LevelAfter:    newLevel,
	})
	if err != nil {
		return nil, err
	}

	return &AwardResult{
		Amount:        amount,
		XP:            newXP,
		Level:         newLevel,
		LeveledUp:     newLevel > user.Level,
		TransactionID: ledger.ID,
	}, nil
}

// recordAward feeds the Prometheus counters after a committed award.
func recordAward(source string, res *AwardResult) {
	xpAwards.WithLabelValues(source).Inc()
	xpAwarded.WithLabelValues(source).Add(float64(res.Amount))
	if res.LeveledUp {
		levelUps.Inc()
	}
}

// AwardXP grants amount XP to userID from the given source. Used directly by
// the admin grant endpoint; game flows go through their own methods so the
// grant and its trigger commit together.
//
// Errors: ErrXPAmountInvalid, ErrXPCapExceeded, ErrUserNotFound, or a DB error.
func (s *GameService) AwardXP(ctx context.Context, userID string, amount int, source, sourceID, description string) (*AwardResult, error) {
	tr := otel.Tracer("services/GameService")
	ctx, span := tr.Start(ctx, "AwardXP",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("xp.source", source),
			attribute.Int("xp.amount", amount),
		),
	)
	defer span.End()

	if err := s.checkAmount(amount, source); err != nil {
		return nil, err
	}

	var res *AwardResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := awardXPTx(ctx, tx, userID, amount, source, sourceID, description)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	recordAward(source, res)
	return res, nil
}

// ReadPost rewards userID for reading slug exactly once. The read marker and
// the award commit together; a second read of the same post (including one
// racing this call) comes back as ErrAlreadyRead with nothing written.
//
// readXP is the caller-requested reward; zero means DefaultReadXP. Amounts
// above the read_post cap are ErrXPCapExceeded.
func (s *GameService) ReadPost(ctx context.Context, userID, slug string, readXP int) (*ReadPostResult, error) {
	tr := otel.Tracer("services/GameService")
	ctx, span := tr.Start(ctx, "ReadPost",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("post.slug", slug),
		),
	)
	defer span.End()

	if readXP == 0 {
		readXP = s.DefaultReadXP
	}
	if err := s.checkAmount(readXP, SourceReadPost); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var res *ReadPostResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.MarkPostRead(ctx, tx, userID, slug, now); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return ErrAlreadyRead
			}
			return err
		}
		award, err := awardXPTx(ctx, tx, userID, readXP, SourceReadPost, slug, "Read post "+slug)
		if err != nil {
			return err
		}
		res = &ReadPostResult{PostSlug: slug, Award: *award}
		return nil
	})
	if err != nil {
		return nil, err
	}
	recordAward(SourceReadPost, &res.Award)
	return res, nil
}

// nextUTCMidnight returns the first instant of the next UTC calendar day.
func nextUTCMidnight(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
}

// ClaimDailyReward pays out the user's daily reward and advances the streak.
//
// Streak rules, all in UTC days:
//   - already claimed today: ErrDailyAlreadyClaimed; the returned result
//     still carries NextClaimAt so callers can say when to come back.
//   - last claim was yesterday: the streak continues, streakDay cycles 1..7.
//   - anything older (or no claim ever): the streak resets to day 1.
//
// Day 7 pays bonus XP and grants the streak trophy. The claim row, the XP
// award, and the streak counters commit in one transaction; the unique
// (user, claim day) index settles any race.
func (s *GameService) ClaimDailyReward(ctx context.Context, userID string) (*DailyRewardResult, error) {
	tr := otel.Tracer("services/GameService")
	ctx, span := tr.Start(ctx, "ClaimDailyReward",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	now := time.Now().UTC()
	today := now.Format("2006-01-02")
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")

	var res *DailyRewardResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := repo.GetUser(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		streakDay, currentStreak := 1, 1
		last, err := repo.GetLastDailyReward(ctx, tx, userID)
		switch {
		case err == nil:
			switch last.ClaimDay {
			case today:
				return ErrDailyAlreadyClaimed
			case yesterday:
				streakDay = last.StreakDay%7 + 1
				currentStreak = user.CurrentStreak + 1
			}
		case !errors.Is(err, repo.ErrNotFound):
			return err
		}

		longest := user.LongestStreak
		if currentStreak > longest {
			longest = currentStreak
		}

		rewardXP := dailyRewardXP[streakDay-1]
		rewardType := "xp"
		bonusItem := ""
		if streakDay == 7 {
			rewardType = "xp_bonus"
			bonusItem = dailyTrophyItem
			if _, err := repo.GrantItem(ctx, tx, userID, dailyTrophyItem, SourceDailyReward); err != nil {
				return err
			}
		}

		if _, err := repo.CreateDailyReward(ctx, tx, &domain.DailyReward{
			UserID:      userID,
			ClaimDay:    today,
			StreakDay:   streakDay,
			RewardType:  rewardType,
			RewardValue: rewardXP,
			ClaimedAt:   now,
		}); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return ErrDailyAlreadyClaimed
			}
			return err
		}

		award, err := awardXPTx(ctx, tx, userID, rewardXP, SourceDailyReward, today,
			fmt.Sprintf("Daily reward, streak day %d", streakDay))
		if err != nil {
			return err
		}
		if err := repo.UpdateUserStreaks(ctx, tx, userID, currentStreak, longest); err != nil {
			return err
		}

		res = &DailyRewardResult{
			StreakDay:     streakDay,
			CurrentStreak: currentStreak,
			LongestStreak: longest,
			RewardXP:      rewardXP,
			BonusItem:     bonusItem,
			Award:         *award,
			NextClaimAt:   nextUTCMidnight(now),
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDailyAlreadyClaimed) {
			return &DailyRewardResult{NextClaimAt: nextUTCMidnight(now)}, err
		}
		return nil, err
	}

	recordAward(SourceDailyReward, &res.Award)
	dailyClaims.WithLabelValues(strconv.Itoa(res.StreakDay)).Inc()
	return res, nil
}

// UseItem spends nothing: using itemID to unlock slug keeps the item in the
// user's inventory as a trophy. The unlock is recorded once; trying again is
// ErrAlreadyUnlocked, and an item the user never held is ErrItemNotHeld.
func (s *GameService) UseItem(ctx context.Context, userID, itemID, slug string) (*domain.PostProgress, error) {
	tr := otel.Tracer("services/GameService")
	ctx, span := tr.Start(ctx, "UseItem",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("item.id", itemID),
			attribute.String("post.slug", slug),
		),
	)
	defer span.End()

	now := time.Now().UTC()
	var res *domain.PostProgress
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetUser(ctx, tx, userID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		held, err := repo.HasItem(ctx, tx, userID, itemID)
		if err != nil {
			return err
		}
		if !held {
			return ErrItemNotHeld
		}
		pp, err := repo.UnlockPost(ctx, tx, userID, slug, itemID, now)
		if err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return ErrAlreadyUnlocked
			}
			return err
		}
		res = pp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CheckAccess answers whether userID may see slug, given the post's gates.
// It is a pure read: no rows are written, and asking never changes the
// answer. A post with no gates is open to everyone.
//
// For item-gated posts, access requires the post to be unlocked; merely
// holding the item is reported in HasItem so clients can offer the unlock.
func (s *GameService) CheckAccess(ctx context.Context, userID, slug string, requiredLevel int, requiredItem string) (*AccessResult, error) {
	tr := otel.Tracer("services/GameService")
	ctx, span := tr.Start(ctx, "CheckAccess",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("post.slug", slug),
		),
	)
	defer span.End()

	user, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	res := &AccessResult{
		PostSlug:      slug,
		UserLevel:     user.Level,
		RequiredLevel: requiredLevel,
		RequiredItem:  requiredItem,
	}

	levelOK := user.Level >= requiredLevel
	itemOK := true
	if requiredItem != "" {
		itemOK = false
		pp, err := repo.GetPostProgress(ctx, s.DB, userID, slug)
		if err == nil && pp.IsUnlocked {
			res.IsUnlocked = true
			itemOK = true
		} else if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
		held, err := repo.HasItem(ctx, s.DB, userID, requiredItem)
		if err != nil {
			return nil, err
		}
		res.HasItem = held
	}

	res.HasAccess = levelOK && itemOK
	return res, nil
}

// LevelProgress returns the user's position inside their current level band.
func (s *GameService) LevelProgress(ctx context.Context, userID string) (*leveling.Progress, error) {
	user, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	p := leveling.ProgressFor(user.XP)
	return &p, nil
}

// GrantItem places itemID in userID's inventory. Granting an item the user
// already holds is a no-op with created=false, never an error.
func (s *GameService) GrantItem(ctx context.Context, userID, itemID, source string) (created bool, err error) {
	if _, err := repo.GetUser(ctx, s.DB, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, ErrUserNotFound
		}
		return false, err
	}
	return repo.GrantItem(ctx, s.DB, userID, itemID, source)
}

// Inventory lists the user's items, newest first.
func (s *GameService) Inventory(ctx context.Context, userID string) ([]domain.InventoryItem, error) {
	return repo.ListInventory(ctx, s.DB, userID)
}

// XPHistory returns one page of the user's XP ledger plus the total count.
func (s *GameService) XPHistory(ctx context.Context, userID string, page, pageSize int) ([]domain.XPTransaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	total, err := repo.CountXPTransactions(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := repo.ListXPTransactionsPage(ctx, s.DB, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
