// Quest HTTP handlers.
//
// This file exposes the quest endpoints:
//   - POST /quests/{id}/submit    (answer submission)
//   - GET  /quests/{id}/progress  (the caller's standing on one quest)
//
// The {id} segment accepts either the quest UUID or its slug.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-game-backend/internal/services"
)

// SubmitQuestRequest is the JSON payload for answering a quest.
type SubmitQuestRequest struct {
	Answer string `json:"answer" binding:"required,min=1,max=1024" example:"forty two"`
}

// SubmitQuest godoc
// @ID          submitQuest
// @Summary     Submit a quest answer
// @Description Validates the answer against the quest's match policy. Every submission
// @Description increments the persisted attempt counter; a correct answer completes the
// @Description quest and pays its reward exactly once. The hint appears after three attempts.
// @Tags        Quests
// @Accept      json
// @Produce     json
// @Param       id    path  string  true  "Quest ID or slug"
// @Param       body  body  handlers.SubmitQuestRequest  true  "Answer payload"
// @Success     200  {object} services.SubmitResult
// @Failure     400  {object} handlers.ErrorResponse "Empty answer or quest already completed"
// @Failure     404  {object} handlers.ErrorResponse "Quest or user not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /quests/{id}/submit [post]
func (h *Handlers) SubmitQuest(c *gin.Context) {
	uid, authed := mustUserID(c)
	if !authed {
		return
	}
	var req SubmitQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "answer required")
		return
	}

	res, err := h.questSvc.Submit(c.Request.Context(), uid, c.Param("id"), req.Answer)
	if err != nil {
		switch err {
		case services.ErrEmptyAnswer:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "answer is empty")
		case services.ErrQuestNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "quest not found")
		case services.ErrUserNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		case services.ErrQuestCompleted:
			fail(c, http.StatusBadRequest, ErrCodeQuestCompleted, "quest already completed")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, res)
}

// QuestProgress godoc
// @ID          questProgress
// @Summary     Quest progress
// @Description Returns the caller's standing on one quest; NOT_STARTED when never attempted.
// @Tags        Quests
// @Produce     json
// @Param       id  path  string  true  "Quest ID or slug"
// @Success     200  {object} services.QuestProgressView
// @Failure     404  {object} handlers.ErrorResponse "Quest not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /quests/{id}/progress [get]
func (h *Handlers) QuestProgress(c *gin.Context) {
	uid, authed := mustUserID(c)
	if !authed {
		return
	}
	view, err := h.questSvc.Progress(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		if err == services.ErrQuestNotFound {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "quest not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, view)
}
