// Game HTTP handlers.
//
// This file exposes the progression endpoints:
//   - POST /game/read-post     (one-time read reward)
//   - POST /game/daily-reward  (streaked daily claim)
//   - POST /game/use-item      (unlock an item-gated post)
//   - GET  /game/check-access  (pure-read content gate check)
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-game-backend/internal/services"
	"github.com/tbourn/go-game-backend/internal/utils"
)

// ReadPostRequest is the JSON payload for claiming a read reward.
type ReadPostRequest struct {
	// PostSlug identifies the post that was read.
	PostSlug string `json:"post_slug" binding:"required,min=1,max=255" example:"intro-to-generics"`
	// ReadXP optionally overrides the default reward; bounded by the
	// read_post cap.
	ReadXP int `json:"read_xp" example:"15"`
}

// UseItemRequest is the JSON payload for unlocking a post with an item.
type UseItemRequest struct {
	ItemID   string `json:"item_id"   binding:"required,min=1,max=64"  example:"golden-key"`
	PostSlug string `json:"post_slug" binding:"required,min=1,max=255" example:"the-vault"`
}

// DailyRewardUnavailable is the 429 envelope for an already-claimed day; it
// extends the standard error shape with the time the next claim opens.
type DailyRewardUnavailable struct {
	RequestID   string    `json:"request_id,omitempty"`
	Code        string    `json:"code" example:"daily_claimed"`
	Detail      string    `json:"detail"`
	NextClaimAt time.Time `json:"next_claim_at"`
}

// ReadPost godoc
// @ID          readPost
// @Summary     Claim the read reward for a post
// @Description Marks the post read and awards XP atomically; a post can only be claimed once.
// @Tags        Game
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.ReadPostRequest  true  "Read payload"
// @Success     200  {object} services.ReadPostResult
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload or XP over cap"
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     409  {object} handlers.ErrorResponse "Post already read"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /game/read-post [post]
func (h *Handlers) ReadPost(c *gin.Context) {
	uid, authed := mustUserID(c)
	if !authed {
		return
	}
	var req ReadPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post_slug required")
		return
	}

	res, err := h.gameSvc.ReadPost(c.Request.Context(), uid, req.PostSlug, req.ReadXP)
	if err != nil {
		switch err {
		case services.ErrXPAmountInvalid:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "read_xp must be positive")
		case services.ErrXPCapExceeded:
			fail(c, http.StatusBadRequest, ErrCodeXPCapExceeded, "read_xp exceeds the per-read cap")
		case services.ErrUserNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		case services.ErrAlreadyRead:
			fail(c, http.StatusConflict, ErrCodeAlreadyRead, "post already read")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, res)
}

// ClaimDailyReward godoc
// @ID          claimDailyReward
// @Summary     Claim today's daily reward
// @Description Pays the streaked daily reward; one claim per UTC day.
// @Tags        Game
// @Produce     json
// @Success     200  {object} services.DailyRewardResult
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     429  {object} handlers.DailyRewardUnavailable "Already claimed today"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /game/daily-reward [post]
func (h *Handlers) ClaimDailyReward(c *gin.Context) {
	uid, authed := mustUserID(c)
	if !authed {
		return
	}
	res, err := h.gameSvc.ClaimDailyReward(c.Request.Context(), uid)
	if err != nil {
		switch err {
		case services.ErrUserNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		case services.ErrDailyAlreadyClaimed:
			resp := DailyRewardUnavailable{
				RequestID: c.Writer.Header().Get("X-Request-ID"),
				Code:      ErrCodeDailyClaimed,
				Detail:    "daily reward already claimed today",
			}
			if res != nil {
				resp.NextClaimAt = res.NextClaimAt
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, resp)
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, res)
}

// UseItem godoc
// @ID          useItem
// @Summary     Unlock a post with an inventory item
// @Description Unlocks an item-gated post; the item stays in the inventory as a trophy.
// @Tags        Game
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.UseItemRequest  true  "Unlock payload"
// @Success     200  {object} domain.PostProgress
// @Failure     400  {object} handlers.ErrorResponse "Item not held or post already unlocked"
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /game/use-item [post]
func (h *Handlers) UseItem(c *gin.Context) {
	uid, authed := mustUserID(c)
	if !authed {
		return
	}
	var req UseItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "item_id and post_slug required")
		return
	}

	pp, err := h.gameSvc.UseItem(c.Request.Context(), uid, req.ItemID, req.PostSlug)
	if err != nil {
		switch err {
		case services.ErrUserNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		case services.ErrItemNotHeld:
			fail(c, http.StatusBadRequest, ErrCodeItemNotHeld, "item not in inventory")
		case services.ErrAlreadyUnlocked:
			fail(c, http.StatusBadRequest, ErrCodeAlreadyUnlocked, "post already unlocked")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, pp)
}

// CheckAccess godoc
// @ID          checkAccess
// @Summary     Check content access
// @Description Pure read: reports whether the user clears the post's level and item gates.
// @Tags        Game
// @Produce     json
// @Param       post_slug       query  string  true  "Post slug"            example(the-vault)
// @Param       required_level  query  int     false "Level gate (0 = none)" minimum(0)
// @Param       required_item   query  string  false "Item gate item id"     example(golden-key)
// @Success     200  {object} services.AccessResult
// @Failure     400  {object} handlers.ErrorResponse "Missing post_slug"
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /game/check-access [get]
func (h *Handlers) CheckAccess(c *gin.Context) {
	uid, authed := mustUserID(c)
	if !authed {
		return
	}
	slug := c.Query("post_slug")
	if slug == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "post_slug required")
		return
	}
	requiredLevel := utils.AtoiDefault(c.Query("required_level"), 0)
	if requiredLevel < 0 {
		requiredLevel = 0
	}
	requiredItem := c.Query("required_item")

	res, err := h.gameSvc.CheckAccess(c.Request.Context(), uid, slug, requiredLevel, requiredItem)
	if err != nil {
		if err == services.ErrUserNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, res)
}
