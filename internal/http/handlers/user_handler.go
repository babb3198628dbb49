// Profile and history HTTP handlers.
//
// This file exposes the authenticated user's own resources:
//   - GET   /users/me                   (profile with level progress)
//   - PATCH /users/me                   (avatar update)
//   - GET   /users/me/level             (level band and fraction)
//   - GET   /users/me/xp-transactions   (paginated XP ledger)
//   - GET   /users/me/inventory         (items held)
//   - GET   /users/me/quests            (per-quest progress)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-game-backend/internal/domain"
	"github.com/tbourn/go-game-backend/internal/leveling"
	"github.com/tbourn/go-game-backend/internal/services"
)

// UpdateProfileRequest is the JSON payload for profile edits. Only the avatar
// can be changed through the public API.
type UpdateProfileRequest struct {
	AvatarURL *string `json:"avatar_url" example:"https://cdn.example.com/me.png"`
}

// ProfileResponse pairs the account row with its level progress.
type ProfileResponse struct {
	User     *domain.User       `json:"user"`
	Progress *leveling.Progress `json:"progress"`
}

// XPHistoryResponse wraps a page of ledger rows and pagination information.
type XPHistoryResponse struct {
	Transactions []domain.XPTransaction `json:"transactions"`
	Pagination   Pagination             `json:"pagination"`
}

// Me godoc
// @ID          me
// @Summary     Current user's profile
// @Description Returns the profile together with level progress.
// @Tags        Users
// @Produce     json
// @Success     200  {object} handlers.ProfileResponse
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/me [get]
func (h *Handlers) Me(c *gin.Context) {
	ctx := c.Request.Context()
	uid, authed := mustUserID(c)
	if !authed {
		return
	}

	user, err := h.userSvc.Profile(ctx, uid)
	if err != nil {
		if err == services.ErrUserNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	p := leveling.ProgressFor(user.XP)
	ok(c, http.StatusOK, ProfileResponse{User: user, Progress: &p})
}

// UpdateMe godoc
// @ID          updateMe
// @Summary     Update the current user's profile
// @Description Sets or clears the avatar URL.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.UpdateProfileRequest  true  "Profile changes"
// @Success     200  {object} domain.User
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/me [patch]
func (h *Handlers) UpdateMe(c *gin.Context) {
	uid, authed := mustUserID(c)
	if !authed {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AvatarURL == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "avatar_url required")
		return
	}

	user, err := h.userSvc.UpdateAvatar(c.Request.Context(), uid, *req.AvatarURL)
	if err != nil {
		switch err {
		case services.ErrInvalidAvatarURL:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "avatar_url must be an http(s) URL")
		case services.ErrUserNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, user)
}

// MyLevel godoc
// @ID          myLevel
// @Summary     Current user's level progress
// @Description Returns the level band, XP thresholds, and progress fraction.
// @Tags        Users
// @Produce     json
// @Success     200  {object} leveling.Progress
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/me/level [get]
func (h *Handlers) MyLevel(c *gin.Context) {
	uid, authed := mustUserID(c)
	if !authed {
		return
	}
	p, err := h.gameSvc.LevelProgress(c.Request.Context(), uid)
	if err != nil {
		if err == services.ErrUserNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, p)
}

// MyXPTransactions godoc
// @ID          myXPTransactions
// @Summary     Current user's XP ledger (paginated)
// @Description Returns the append-only XP transaction history, newest first.
// @Tags        Users
// @Produce     json
// @Param       page       query  int  false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object} handlers.XPHistoryResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/me/xp-transactions [get]
func (h *Handlers) MyXPTransactions(c *gin.Context) {
	uid, authed := mustUserID(c)
	if !authed {
		return
	}
	page, pageSize := clampPagination(c)

	rows, total, err := h.gameSvc.XPHistory(c.Request.Context(), uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, XPHistoryResponse{
		Transactions: rows,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// MyInventory godoc
// @ID          myInventory
// @Summary     Current user's inventory
// @Description Lists held items, most recently acquired first.
// @Tags        Users
// @Produce     json
// @Success     200  {array} domain.InventoryItem
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/me/inventory [get]
func (h *Handlers) MyInventory(c *gin.Context) {
	uid, authed := mustUserID(c)
	if !authed {
		return
	}
	items, err := h.gameSvc.Inventory(c.Request.Context(), uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, items)
}

// MyQuests godoc
// @ID          myQuests
// @Summary     Current user's quest progress
// @Description Lists every active quest with the user's status and attempts.
// @Tags        Users
// @Produce     json
// @Success     200  {array} services.QuestProgressView
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/me/quests [get]
func (h *Handlers) MyQuests(c *gin.Context) {
	uid, authed := mustUserID(c)
	if !authed {
		return
	}
	views, err := h.questSvc.ListProgress(c.Request.Context(), uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, views)
}
