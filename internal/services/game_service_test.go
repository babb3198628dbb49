package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-game-backend/internal/domain"
	"github.com/tbourn/go-game-backend/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:gamesvc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newGame(db *gorm.DB) *GameService {
	return &GameService{
		DB:            db,
		Caps:          XPCaps{ReadPost: 50, Quest: 100, Admin: 1000},
		DefaultReadXP: 15,
	}
}

func seedUser(t *testing.T, db *gorm.DB, username string) *domain.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), db, username, username+"@example.com", "hash")
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

func TestAwardXP_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := newGame(db)
	u := seedUser(t, db, "alice")
	ctx := context.Background()

	if _, err := svc.AwardXP(ctx, u.ID, 0, SourceAdmin, "", ""); !errors.Is(err, ErrXPAmountInvalid) {
		t.Fatalf("zero amount: expected ErrXPAmountInvalid, got %v", err)
	}
	if _, err := svc.AwardXP(ctx, u.ID, -5, SourceAdmin, "", ""); !errors.Is(err, ErrXPAmountInvalid) {
		t.Fatalf("negative amount: expected ErrXPAmountInvalid, got %v", err)
	}
	if _, err := svc.AwardXP(ctx, u.ID, 1001, SourceAdmin, "", ""); !errors.Is(err, ErrXPCapExceeded) {
		t.Fatalf("over cap: expected ErrXPCapExceeded, got %v", err)
	}
	if _, err := svc.AwardXP(ctx, "missing", 10, SourceAdmin, "", ""); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("missing user: expected ErrUserNotFound, got %v", err)
	}
}

func TestAwardXP_LedgerSnapshots(t *testing.T) {
	db := newTestDB(t)
	svc := newGame(db)
	u := seedUser(t, db, "bob")
	ctx := context.Background()

	res, err := svc.AwardXP(ctx, u.ID, 300, SourceAdmin, "grant-1", "welcome grant")
	if err != nil {
		t.Fatalf("AwardXP: %v", err)
	}
	// 300 XP crosses the level-2 threshold (282).
	if res.XP != 300 || res.Level != 2 || !res.LeveledUp {
		t.Fatalf("unexpected result: %+v", res)
	}

	got, _ := repo.GetUser(ctx, db, u.ID)
	if got.XP != 300 || got.Level != 2 {
		t.Fatalf("user not updated: %+v", got)
	}

	rows, err := repo.ListXPTransactionsPage(ctx, db, u.ID, 0, 10)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ledger rows = %d, %v; want 1", len(rows), err)
	}
	tx := rows[0]
	if tx.BalanceBefore != 0 || tx.BalanceAfter != 300 || tx.LevelBefore != 1 || tx.LevelAfter != 2 {
		t.Fatalf("bad snapshots: %+v", tx)
	}
	if tx.Source != SourceAdmin || tx.SourceID != "grant-1" {
		t.Fatalf("bad source fields: %+v", tx)
	}
	if tx.ID != res.TransactionID {
		t.Fatalf("transaction id mismatch: %s vs %s", tx.ID, res.TransactionID)
	}
}

func TestAwardXP_MultiLevelJump(t *testing.T) {
	db := newTestDB(t)
	svc := newGame(db)
	u := seedUser(t, db, "carol")

	res, err := svc.AwardXP(context.Background(), u.ID, 1000, SourceAdmin, "", "")
	if err != nil {
		t.Fatalf("AwardXP: %v", err)
	}
	// 1000 XP lands at level 4 (floor(4^1.5*100)=800, floor(5^1.5*100)=1118).
	if res.Level != 4 || !res.LeveledUp {
		t.Fatalf("expected jump to level 4, got %+v", res)
	}
}

func TestReadPost_OnceThenConflict(t *testing.T) {
	db := newTestDB(t)
	svc := newGame(db)
	u := seedUser(t, db, "dave")
	ctx := context.Background()

	res, err := svc.ReadPost(ctx, u.ID, "intro-to-go", 0)
	if err != nil {
		t.Fatalf("ReadPost: %v", err)
	}
	if res.Award.Amount != 15 || res.Award.XP != 15 {
		t.Fatalf("default read XP not applied: %+v", res.Award)
	}

	if _, err := svc.ReadPost(ctx, u.ID, "intro-to-go", 0); !errors.Is(err, ErrAlreadyRead) {
		t.Fatalf("expected ErrAlreadyRead, got %v", err)
	}
	// Nothing extra was paid.
	got, _ := repo.GetUser(ctx, db, u.ID)
	if got.XP != 15 {
		t.Fatalf("duplicate read changed xp: %d", got.XP)
	}
	total, _ := repo.CountXPTransactions(ctx, db, u.ID)
	if total != 1 {
		t.Fatalf("ledger rows = %d; want 1", total)
	}
}

func TestReadPost_ConcurrentDuplicatesAwardOnce(t *testing.T) {
	db := newTestDB(t)
	// SQLite allows one writer at a time; cap the pool so the racing
	// transactions queue on the driver instead of failing with a busy error.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	svc := newGame(db)
	u := seedUser(t, db, "pete")
	ctx := context.Background()

	// Race N identical reads of one post: the unique (user, post) index must
	// let exactly one transaction through, no matter the interleaving.
	const n = 8
	start := make(chan struct{})
	errs := make(chan error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.ReadPost(ctx, u.ID, "hot-post", 0)
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	won, lost := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrAlreadyRead):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 || lost != n-1 {
		t.Fatalf("winners = %d, losers = %d; want 1 and %d", won, lost, n-1)
	}

	// Exactly one award is durably recorded.
	got, _ := repo.GetUser(ctx, db, u.ID)
	if got.XP != 15 {
		t.Fatalf("xp = %d; want 15", got.XP)
	}
	total, _ := repo.CountXPTransactions(ctx, db, u.ID)
	if total != 1 {
		t.Fatalf("ledger rows = %d; want 1", total)
	}
}

func TestReadPost_CapExceeded(t *testing.T) {
	db := newTestDB(t)
	svc := newGame(db)
	u := seedUser(t, db, "erin")

	if _, err := svc.ReadPost(context.Background(), u.ID, "big-post", 51); !errors.Is(err, ErrXPCapExceeded) {
		t.Fatalf("expected ErrXPCapExceeded, got %v", err)
	}
}

func TestClaimDailyReward_FirstClaimAndSameDay(t *testing.T) {
	db := newTestDB(t)
	svc := newGame(db)
	u := seedUser(t, db, "frank")
	ctx := context.Background()

	res, err := svc.ClaimDailyReward(ctx, u.ID)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if res.StreakDay != 1 || res.CurrentStreak != 1 || res.LongestStreak != 1 || res.RewardXP != 10 {
		t.Fatalf("unexpected first claim: %+v", res)
	}
	if res.NextClaimAt.Before(time.Now().UTC()) {
		t.Fatalf("NextClaimAt in the past: %v", res.NextClaimAt)
	}

	again, err := svc.ClaimDailyReward(ctx, u.ID)
	if !errors.Is(err, ErrDailyAlreadyClaimed) {
		t.Fatalf("expected ErrDailyAlreadyClaimed, got %v", err)
	}
	if again == nil || again.NextClaimAt.IsZero() {
		t.Fatal("rejected claim must still carry NextClaimAt")
	}

	got, _ := repo.GetUser(ctx, db, u.ID)
	if got.XP != 10 || got.CurrentStreak != 1 {
		t.Fatalf("duplicate claim changed state: %+v", got)
	}
}

// seedClaim inserts a prior claim on the given UTC day offset (-1 =
// yesterday) and sets the user's streak counters to match.
func seedClaim(t *testing.T, db *gorm.DB, userID string, dayOffset, streakDay, current, longest int) {
	t.Helper()
	ctx := context.Background()
	day := time.Now().UTC().AddDate(0, 0, dayOffset).Format("2006-01-02")
	if _, err := repo.CreateDailyReward(ctx, db, &domain.DailyReward{
		UserID: userID, ClaimDay: day, StreakDay: streakDay, RewardType: "xp",
		RewardValue: dailyRewardXP[streakDay-1], ClaimedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed claim: %v", err)
	}
	if err := repo.UpdateUserStreaks(ctx, db, userID, current, longest); err != nil {
		t.Fatalf("seed streaks: %v", err)
	}
}

func TestClaimDailyReward_StreakContinues(t *testing.T) {
	db := newTestDB(t)
	svc := newGame(db)
	u := seedUser(t, db, "grace")
	seedClaim(t, db, u.ID, -1, 3, 3, 5)

	res, err := svc.ClaimDailyReward(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if res.StreakDay != 4 || res.CurrentStreak != 4 || res.LongestStreak != 5 {
		t.Fatalf("streak did not continue: %+v", res)
	}
	if res.RewardXP != dailyRewardXP[3] {
		t.Fatalf("wrong reward: %+v", res)
	}
}

func TestClaimDailyReward_Day7BonusAndCycle(t *testing.T) {
	db := newTestDB(t)
	svc := newGame(db)
	u := seedUser(t, db, "heidi")
	seedClaim(t, db, u.ID, -1, 6, 6, 6)
	ctx := context.Background()

	res, err := svc.ClaimDailyReward(ctx, u.ID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if res.StreakDay != 7 || res.RewardXP != 70 || res.BonusItem != dailyTrophyItem {
		t.Fatalf("day 7 bonus wrong: %+v", res)
	}
	if res.CurrentStreak != 7 || res.LongestStreak != 7 {
		t.Fatalf("streak counters wrong: %+v", res)
	}
	held, err := repo.HasItem(ctx, db, u.ID, dailyTrophyItem)
	if err != nil || !held {
		t.Fatalf("trophy not granted: %v %v", held, err)
	}
}

func TestClaimDailyReward_CycleWrapsAfterDay7(t *testing.T) {
	db := newTestDB(t)
	svc := newGame(db)
	u := seedUser(t, db, "ivan")
	seedClaim(t, db, u.ID, -1, 7, 7, 7)

	res, err := svc.ClaimDailyReward(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	// Streak day cycles back to 1 but the streak itself keeps growing.
	if res.StreakDay != 1 || res.CurrentStreak != 8 || res.LongestStreak != 8 {
		t.Fatalf("cycle wrap wrong: %+v", res)
	}
}

func TestClaimDailyReward_ResetAfterGap(t *testing.T) {
	db := newTestDB(t)
	svc := newGame(db)
	u := seedUser(t, db, "judy")
	seedClaim(t, db, u.ID, -3, 5, 5, 5)

	res, err := svc.ClaimDailyReward(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if res.StreakDay != 1 || res.CurrentStreak != 1 {
		t.Fatalf("streak should reset: %+v", res)
	}
	if res.LongestStreak != 5 {
		t.Fatalf("longest streak must survive the reset: %+v", res)
	}
}

func TestUseItem_FlowAndTrophyRetention(t *testing.T) {
	db := newTestDB(t)
	svc := newGame(db)
	u := seedUser(t, db, "karl")
	ctx := context.Background()

	if _, err := svc.UseItem(ctx, u.ID, "golden-key", "vault-post"); !errors.Is(err, ErrItemNotHeld) {
		t.Fatalf("expected ErrItemNotHeld, got %v", err)
	}

	if _, err := repo.GrantItem(ctx, db, u.ID, "golden-key", SourceAdmin); err != nil {
		t.Fatalf("grant: %v", err)
	}

	pp, err := svc.UseItem(ctx, u.ID, "golden-key", "vault-post")
	if err != nil {
		t.Fatalf("UseItem: %v", err)
	}
	if !pp.IsUnlocked || pp.UnlockedWithItem != "golden-key" {
		t.Fatalf("unlock fields wrong: %+v", pp)
	}

	// The key stays in the inventory.
	held, err := repo.HasItem(ctx, db, u.ID, "golden-key")
	if err != nil || !held {
		t.Fatalf("item should be retained: %v %v", held, err)
	}

	if _, err := svc.UseItem(ctx, u.ID, "golden-key", "vault-post"); !errors.Is(err, ErrAlreadyUnlocked) {
		t.Fatalf("expected ErrAlreadyUnlocked, got %v", err)
	}
}

func TestCheckAccess_Gates(t *testing.T) {
	db := newTestDB(t)
	svc := newGame(db)
	u := seedUser(t, db, "lena")
	ctx := context.Background()

	// Open post.
	res, err := svc.CheckAccess(ctx, u.ID, "open-post", 0, "")
	if err != nil || !res.HasAccess {
		t.Fatalf("open post should be accessible: %+v %v", res, err)
	}

	// Level gate above the user's level 1.
	res, err = svc.CheckAccess(ctx, u.ID, "pro-post", 5, "")
	if err != nil || res.HasAccess {
		t.Fatalf("level gate should deny: %+v %v", res, err)
	}

	// Item gate: holding the item is not enough until the post is unlocked.
	if _, err := repo.GrantItem(ctx, db, u.ID, "silver-key", SourceAdmin); err != nil {
		t.Fatalf("grant: %v", err)
	}
	res, err = svc.CheckAccess(ctx, u.ID, "gated-post", 0, "silver-key")
	if err != nil {
		t.Fatalf("CheckAccess: %v", err)
	}
	if res.HasAccess || !res.HasItem || res.IsUnlocked {
		t.Fatalf("pre-unlock state wrong: %+v", res)
	}

	if _, err := svc.UseItem(ctx, u.ID, "silver-key", "gated-post"); err != nil {
		t.Fatalf("UseItem: %v", err)
	}
	res, err = svc.CheckAccess(ctx, u.ID, "gated-post", 0, "silver-key")
	if err != nil || !res.HasAccess || !res.IsUnlocked {
		t.Fatalf("post-unlock state wrong: %+v %v", res, err)
	}

	// Asking twice changes nothing.
	res2, err := svc.CheckAccess(ctx, u.ID, "gated-post", 0, "silver-key")
	if err != nil || res2.HasAccess != res.HasAccess {
		t.Fatalf("check-access is not a pure read: %+v %v", res2, err)
	}

	if _, err := svc.CheckAccess(ctx, "missing", "open-post", 0, ""); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestLevelProgress(t *testing.T) {
	db := newTestDB(t)
	svc := newGame(db)
	u := seedUser(t, db, "mallory")
	ctx := context.Background()

	if _, err := svc.AwardXP(ctx, u.ID, 300, SourceAdmin, "", ""); err != nil {
		t.Fatalf("award: %v", err)
	}
	p, err := svc.LevelProgress(ctx, u.ID)
	if err != nil {
		t.Fatalf("LevelProgress: %v", err)
	}
	if p.Level != 2 || p.FloorXP != 282 {
		t.Fatalf("unexpected progress: %+v", p)
	}
}

func TestXPHistory_Paging(t *testing.T) {
	db := newTestDB(t)
	svc := newGame(db)
	u := seedUser(t, db, "nina")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.ReadPost(ctx, u.ID, fmt.Sprintf("post-%d", i), 10); err != nil {
			t.Fatalf("read #%d: %v", i, err)
		}
	}

	rows, total, err := svc.XPHistory(ctx, u.ID, 1, 2)
	if err != nil {
		t.Fatalf("XPHistory: %v", err)
	}
	if total != 3 || len(rows) != 2 {
		t.Fatalf("page 1 = %d rows of %d; want 2 of 3", len(rows), total)
	}
	rows, _, err = svc.XPHistory(ctx, u.ID, 2, 2)
	if err != nil || len(rows) != 1 {
		t.Fatalf("page 2 = %d rows, %v; want 1", len(rows), err)
	}
}

func TestGrantItem_IdempotentService(t *testing.T) {
	db := newTestDB(t)
	svc := newGame(db)
	u := seedUser(t, db, "oscar")
	ctx := context.Background()

	created, err := svc.GrantItem(ctx, u.ID, "badge", SourceAdmin)
	if err != nil || !created {
		t.Fatalf("first grant: %v %v", created, err)
	}
	created, err = svc.GrantItem(ctx, u.ID, "badge", SourceAdmin)
	if err != nil || created {
		t.Fatalf("second grant should be a no-op: %v %v", created, err)
	}
	if _, err := svc.GrantItem(ctx, "missing", "badge", SourceAdmin); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
