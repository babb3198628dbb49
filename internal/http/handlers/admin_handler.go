// Admin HTTP handlers.
//
// Role-gated endpoints for operators:
//   - POST /admin/xp-grants    (grant XP to a user)
//   - POST /admin/item-grants  (grant an inventory item)
//   - POST /admin/quests       (create quest content)
//
// The RequireRole("admin") middleware guards these routes; handlers assume
// the caller is already authorized.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-game-backend/internal/domain"
	"github.com/tbourn/go-game-backend/internal/repo"
	"github.com/tbourn/go-game-backend/internal/services"
)

// GrantXPRequest is the JSON payload for an admin XP grant.
type GrantXPRequest struct {
	UserID      string `json:"user_id" binding:"required" example:"9f1b2c3d-4e5f-6a7b-8c9d-0e1f2a3b4c5d"`
	Amount      int    `json:"amount"  binding:"required" example:"100"`
	Description string `json:"description" example:"community event prize"`
}

// GrantItemRequest is the JSON payload for an admin item grant.
type GrantItemRequest struct {
	UserID string `json:"user_id" binding:"required"`
	ItemID string `json:"item_id" binding:"required,min=1,max=64" example:"golden-key"`
}

// CreateQuestRequest is the JSON payload for authoring a quest.
type CreateQuestRequest struct {
	Slug          string `json:"slug"           binding:"required,min=1,max=64"  example:"the-riddle"`
	Title         string `json:"title"          binding:"required,min=1,max=255" example:"The Riddle"`
	Description   string `json:"description"    example:"What walks on four legs..."`
	CorrectAnswer string `json:"correct_answer" binding:"required"               example:"man"`
	MatchPolicy   string `json:"match_policy"   binding:"required,oneof=exact contains fuzzy" example:"fuzzy"`
	XPReward      int    `json:"xp_reward"      binding:"required"               example:"50"`
	Hint          string `json:"hint"           example:"think of a lifetime"`
	RewardItemID  string `json:"reward_item_id" example:"riddle-badge"`
}

// GrantItemResponse reports whether the grant created a new inventory row.
type GrantItemResponse struct {
	UserID  string `json:"user_id"`
	ItemID  string `json:"item_id"`
	Created bool   `json:"created"`
}

// GrantXP godoc
// @ID          grantXP
// @Summary     Grant XP (admin)
// @Description Awards XP from the admin source; the amount is bounded by the admin cap.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.GrantXPRequest  true  "Grant payload"
// @Success     200  {object} services.AwardResult
// @Failure     400  {object} handlers.ErrorResponse "Invalid amount or over cap"
// @Failure     403  {object} handlers.ErrorResponse "Admin role required"
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /admin/xp-grants [post]
func (h *Handlers) GrantXP(c *gin.Context) {
	adminID, authed := mustUserID(c)
	if !authed {
		return
	}
	var req GrantXPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id and amount required")
		return
	}

	res, err := h.gameSvc.AwardXP(c.Request.Context(), req.UserID, req.Amount,
		services.SourceAdmin, adminID, req.Description)
	if err != nil {
		switch err {
		case services.ErrXPAmountInvalid:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "amount must be positive")
		case services.ErrXPCapExceeded:
			fail(c, http.StatusBadRequest, ErrCodeXPCapExceeded, "amount exceeds the admin grant cap")
		case services.ErrUserNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, res)
}

// GrantItem godoc
// @ID          grantItem
// @Summary     Grant an inventory item (admin)
// @Description Places an item in a user's inventory; granting a held item is a no-op.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.GrantItemRequest  true  "Grant payload"
// @Success     200  {object} handlers.GrantItemResponse
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     403  {object} handlers.ErrorResponse "Admin role required"
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /admin/item-grants [post]
func (h *Handlers) GrantItem(c *gin.Context) {
	var req GrantItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id and item_id required")
		return
	}

	created, err := h.gameSvc.GrantItem(c.Request.Context(), req.UserID, req.ItemID, services.SourceAdmin)
	if err != nil {
		if err == services.ErrUserNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, GrantItemResponse{UserID: req.UserID, ItemID: req.ItemID, Created: created})
}

// CreateQuest godoc
// @ID          createQuest
// @Summary     Create a quest (admin)
// @Description Stores quest content with its reference answer and match policy.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.CreateQuestRequest  true  "Quest payload"
// @Success     201  {object} domain.Quest
// @Failure     400  {object} handlers.ErrorResponse "Malformed quest"
// @Failure     403  {object} handlers.ErrorResponse "Admin role required"
// @Failure     409  {object} handlers.ErrorResponse "Slug already exists"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /admin/quests [post]
func (h *Handlers) CreateQuest(c *gin.Context) {
	var req CreateQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "slug, title, correct_answer, match_policy, and xp_reward required")
		return
	}

	q, err := h.questSvc.CreateQuest(c.Request.Context(), &domain.Quest{
		Slug:          req.Slug,
		Title:         req.Title,
		Description:   req.Description,
		CorrectAnswer: req.CorrectAnswer,
		MatchPolicy:   req.MatchPolicy,
		XPReward:      req.XPReward,
		Hint:          req.Hint,
		RewardItemID:  req.RewardItemID,
	})
	if err != nil {
		switch {
		case err == services.ErrInvalidQuest:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid quest definition")
		case err == repo.ErrDuplicate:
			fail(c, http.StatusConflict, ErrCodeConflict, "quest slug already exists")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, q)
}
