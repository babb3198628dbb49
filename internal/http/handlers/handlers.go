// Handler wiring and shared helpers.
//
// Handlers are transport-thin: they validate input, call application services
// through the interfaces below, and translate domain/service errors into HTTP
// responses. All business rules live in internal/services.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-game-backend/internal/domain"
	"github.com/tbourn/go-game-backend/internal/leveling"
	"github.com/tbourn/go-game-backend/internal/services"
	"github.com/tbourn/go-game-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// AuthService defines the account lifecycle operations consumed by HTTP
// handlers. Implementations should be safe for concurrent use and must honor
// the provided context for cancellation and timeouts.
type AuthService interface {
	// Register creates a new account starting at xp=0, level=1.
	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	// Login verifies credentials and issues a token pair.
	Login(ctx context.Context, username, password string) (*domain.User, *services.TokenPair, error)
	// Refresh rotates a refresh token and issues a new pair.
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	// Logout revokes a refresh token.
	Logout(ctx context.Context, refreshToken string) error
}

// UserService defines profile operations.
type UserService interface {
	// Profile fetches the user's account row.
	Profile(ctx context.Context, userID string) (*domain.User, error)
	// UpdateAvatar sets (or clears) the avatar URL.
	UpdateAvatar(ctx context.Context, userID, avatarURL string) (*domain.User, error)
}

// GameService defines the progression operations consumed by HTTP handlers.
type GameService interface {
	// AwardXP grants XP from a named source; used by the admin endpoint.
	AwardXP(ctx context.Context, userID string, amount int, source, sourceID, description string) (*services.AwardResult, error)
	// ReadPost pays the read reward for a post exactly once.
	ReadPost(ctx context.Context, userID, slug string, readXP int) (*services.ReadPostResult, error)
	// ClaimDailyReward pays today's reward and advances the streak.
	ClaimDailyReward(ctx context.Context, userID string) (*services.DailyRewardResult, error)
	// UseItem unlocks an item-gated post; the item is retained.
	UseItem(ctx context.Context, userID, itemID, slug string) (*domain.PostProgress, error)
	// CheckAccess answers a content-gate question without writing anything.
	CheckAccess(ctx context.Context, userID, slug string, requiredLevel int, requiredItem string) (*services.AccessResult, error)
	// LevelProgress reports the user's position in their level band.
	LevelProgress(ctx context.Context, userID string) (*leveling.Progress, error)
	// GrantItem places an item in a user's inventory (idempotent).
	GrantItem(ctx context.Context, userID, itemID, source string) (bool, error)
	// Inventory lists the user's items.
	Inventory(ctx context.Context, userID string) ([]domain.InventoryItem, error)
	// XPHistory returns one page of the XP ledger plus the total count.
	XPHistory(ctx context.Context, userID string, page, pageSize int) ([]domain.XPTransaction, int64, error)
}

// QuestService defines quest operations consumed by HTTP handlers.
type QuestService interface {
	// Submit validates an answer and completes the quest when correct.
	Submit(ctx context.Context, userID, ref, answer string) (*services.SubmitResult, error)
	// Progress reports the user's standing on one quest.
	Progress(ctx context.Context, userID, ref string) (*services.QuestProgressView, error)
	// ListProgress reports the user's standing on every active quest.
	ListProgress(ctx context.Context, userID string) ([]services.QuestProgressView, error)
	// CreateQuest stores admin-authored quest content.
	CreateQuest(ctx context.Context, q *domain.Quest) (*domain.Quest, error)
}

// Handlers groups the HTTP endpoints for auth, profiles, game flows, and
// quests. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	authSvc  AuthService
	userSvc  UserService
	gameSvc  GameService
	questSvc QuestService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(authSvc AuthService, userSvc UserService, gameSvc GameService, questSvc QuestService) *Handlers {
	return &Handlers{authSvc: authSvc, userSvc: userSvc, gameSvc: gameSvc, questSvc: questSvc}
}

// userID extracts the authenticated user id from Gin context (set by the auth
// middleware). Every consuming route is mounted behind RequireAuth, so the key
// is normally present; ok=false means the route was mounted ungated and the
// handler must refuse to act on anyone's behalf.
func userID(c *gin.Context) (string, bool) {
	v, found := c.Get("userID")
	if !found {
		return "", false
	}
	s, isStr := v.(string)
	return s, isStr && strings.TrimSpace(s) != ""
}

// mustUserID is userID plus the fail-closed 401 for requests that reach a
// handler without an authenticated identity attached.
func mustUserID(c *gin.Context) (string, bool) {
	uid, found := userID(c)
	if !found {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
	}
	return uid, found
}

//
// Shared DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}
