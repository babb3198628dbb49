// Package domain defines the persistence models for users, quests, post
// progress, inventory, the XP ledger, and daily rewards. These types are
// mapped with GORM and form the core data layer of the game backend.
//
// Duplicate prevention lives in the schema, not in application checks: every
// "at most once" rule (one read per post, one quest completion, one item
// copy, one daily claim per UTC day) is a unique index on the relevant
// table, so concurrent writers cannot both succeed.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// User is a registered player account. XP and Level are denormalized from
// the XP ledger; every writer updates both inside the transaction that
// appends the ledger row, so they never drift.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Username / Email: unique credentials chosen at registration.
//   - PasswordHash: bcrypt hash; never serialized.
//   - Role: "user" or "admin" (enforced by DB constraint).
//   - IsActive: inactive accounts cannot log in.
//   - XP / Level: cumulative XP and the level derived from it.
//   - CurrentStreak / LongestStreak: daily-reward streak counters.
type User struct {
	ID            string         `json:"id"             gorm:"type:char(36);primaryKey"`
	Username      string         `json:"username"       gorm:"type:varchar(64);not null;uniqueIndex:ux_users_username"`
	Email         string         `json:"email"          gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	PasswordHash  string         `json:"-"              gorm:"type:varchar(255);not null"`
	AvatarURL     string         `json:"avatar_url"     gorm:"type:varchar(512)"`
	Role          string         `json:"role"           gorm:"type:varchar(16);not null;default:'user';check:role IN ('user','admin')"`
	IsActive      bool           `json:"is_active"      gorm:"not null;default:true"`
	XP            int            `json:"xp"             gorm:"not null;default:0"`
	Level         int            `json:"level"          gorm:"not null;default:1"`
	CurrentStreak int            `json:"current_streak" gorm:"not null;default:0"`
	LongestStreak int            `json:"longest_streak" gorm:"not null;default:0"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-"              gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Quest is an admin-authored challenge with a reference answer and a match
// policy ("exact", "contains" or "fuzzy"). Completing it awards XPReward and,
// when RewardItemID is set, a one-time inventory item.
type Quest struct {
	ID            string         `json:"id"             gorm:"type:char(36);primaryKey"`
	Slug          string         `json:"slug"           gorm:"type:varchar(64);not null;uniqueIndex:ux_quests_slug"`
	Title         string         `json:"title"          gorm:"type:varchar(255);not null"`
	Description   string         `json:"description"    gorm:"type:text"`
	CorrectAnswer string         `json:"-"              gorm:"type:text;not null"`
	MatchPolicy   string         `json:"match_policy"   gorm:"type:varchar(16);not null;default:'exact';check:match_policy IN ('exact','contains','fuzzy')"`
	XPReward      int            `json:"xp_reward"      gorm:"not null;default:0"`
	Hint          string         `json:"-"              gorm:"type:text"`
	RewardItemID  string         `json:"reward_item_id" gorm:"type:varchar(64)"`
	IsActive      bool           `json:"is_active"      gorm:"not null;default:true"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-"              gorm:"index"`
}

// TableName returns the database table name for Quest.
func (Quest) TableName() string { return "quests" }

// PostProgress records a user's relationship with a single blog post: whether
// they have read it (and been paid for it) and whether an item-gated post has
// been unlocked. One row per (user, post); the unique index makes the
// read-reward and unlock operations idempotent under concurrency.
type PostProgress struct {
	ID               string     `json:"id"                 gorm:"type:char(36);primaryKey"`
	UserID           string     `json:"user_id"            gorm:"type:char(36);not null;index;uniqueIndex:ux_post_progress_user_post"`
	PostSlug         string     `json:"post_slug"          gorm:"type:varchar(255);not null;uniqueIndex:ux_post_progress_user_post"`
	HasRead          bool       `json:"has_read"           gorm:"not null;default:false"`
	ReadAt           *time.Time `json:"read_at,omitempty"`
	IsUnlocked       bool       `json:"is_unlocked"        gorm:"not null;default:false"`
	UnlockedAt       *time.Time `json:"unlocked_at,omitempty"`
	UnlockedWithItem string     `json:"unlocked_with_item" gorm:"type:varchar(64)"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName returns the database table name for PostProgress.
func (PostProgress) TableName() string { return "post_progress" }

// QuestStatus values for QuestProgress. A quest with no row is NOT_STARTED;
// COMPLETED is terminal.
const (
	QuestNotStarted = "NOT_STARTED"
	QuestInProgress = "IN_PROGRESS"
	QuestCompleted  = "COMPLETED"
)

// QuestProgress tracks a user's attempts at one quest. Attempts increments
// on every submission, including wrong ones. The unique (user, quest) index
// guarantees a single progress row and therefore a single completion.
type QuestProgress struct {
	ID          string     `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID      string     `json:"user_id"      gorm:"type:char(36);not null;index;uniqueIndex:ux_quest_progress_user_quest"`
	QuestID     string     `json:"quest_id"     gorm:"type:char(36);not null;index;uniqueIndex:ux_quest_progress_user_quest"`
	Status      string     `json:"status"       gorm:"type:varchar(16);not null;default:'IN_PROGRESS';check:status IN ('IN_PROGRESS','COMPLETED')"`
	Attempts    int        `json:"attempts"     gorm:"not null;default:0"`
	AnswerGiven string     `json:"answer_given" gorm:"type:text"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Quest is the parent quest definition; progress rows are removed with it.
	Quest Quest `json:"-" gorm:"foreignKey:QuestID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for QuestProgress.
func (QuestProgress) TableName() string { return "quest_progress" }

// InventoryItem is one item held by a user. Items are identified by an
// item ID string (keys, trophies); a user holds at most one copy of each,
// which makes every grant path idempotent.
type InventoryItem struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID     string    `json:"user_id"     gorm:"type:char(36);not null;index;uniqueIndex:ux_inventory_user_item"`
	ItemID     string    `json:"item_id"     gorm:"type:varchar(64);not null;uniqueIndex:ux_inventory_user_item"`
	Source     string    `json:"source"      gorm:"type:varchar(32);not null"`
	AcquiredAt time.Time `json:"acquired_at" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for InventoryItem.
func (InventoryItem) TableName() string { return "inventory_items" }

// XPTransaction is one row of the append-only XP ledger. Rows are never
// updated or deleted; the before/after snapshots make each award auditable
// without replaying the ledger.
//
// Fields:
//   - Amount: XP granted (always positive).
//   - Source: what earned it ("read_post", "quest", "daily_reward", "admin").
//   - SourceID: the specific post slug, quest ID, or claim day.
//   - BalanceBefore/After, LevelBefore/After: user state around the award.
type XPTransaction struct {
	ID            string    `json:"id"             gorm:"type:char(36);primaryKey"`
	UserID        string    `json:"user_id"        gorm:"type:char(36);not null;index:idx_xp_tx_user,priority:1"`
	Amount        int       `json:"amount"         gorm:"not null"`
	Source        string    `json:"source"         gorm:"type:varchar(32);not null"`
	SourceID      string    `json:"source_id"      gorm:"type:varchar(255)"`
	Description   string    `json:"description"    gorm:"type:varchar(255)"`
	BalanceBefore int       `json:"balance_before" gorm:"not null"`
	BalanceAfter  int       `json:"balance_after"  gorm:"not null"`
	LevelBefore   int       `json:"level_before"   gorm:"not null"`
	LevelAfter    int       `json:"level_after"    gorm:"not null"`
	CreatedAt     time.Time `json:"created_at"     gorm:"index:idx_xp_tx_user,priority:2"`
}

// TableName returns the database table name for XPTransaction.
func (XPTransaction) TableName() string { return "xp_transactions" }

// DailyReward records one claimed daily reward. ClaimDay is the UTC calendar
// day ("2006-01-02"); the unique (user, day) index is what enforces a single
// claim per day regardless of how many requests race.
type DailyReward struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID      string    `json:"user_id"      gorm:"type:char(36);not null;index;uniqueIndex:ux_daily_rewards_user_day"`
	ClaimDay    string    `json:"claim_day"    gorm:"type:char(10);not null;uniqueIndex:ux_daily_rewards_user_day"`
	StreakDay   int       `json:"streak_day"   gorm:"not null;check:streak_day BETWEEN 1 AND 7"`
	RewardType  string    `json:"reward_type"  gorm:"type:varchar(16);not null"`
	RewardValue int       `json:"reward_value" gorm:"not null"`
	ClaimedAt   time.Time `json:"claimed_at"   gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName returns the database table name for DailyReward.
func (DailyReward) TableName() string { return "daily_rewards" }

// RefreshToken is a persisted, rotating refresh token. Only the SHA-256 hash
// of the opaque token is stored. Revoked or expired rows are rejected at
// refresh time and swept opportunistically.
type RefreshToken struct {
	ID        string     `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string     `json:"user_id"    gorm:"type:char(36);not null;index"`
	TokenHash string     `json:"-"          gorm:"type:char(64);not null;uniqueIndex:ux_refresh_tokens_hash"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null;index"`
	RevokedAt *time.Time `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName returns the database table name for RefreshToken.
func (RefreshToken) TableName() string { return "refresh_tokens" }
