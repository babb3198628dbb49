// Auth HTTP handlers.
//
// This file exposes the account lifecycle endpoints:
//   - POST /auth/register
//   - POST /auth/login
//   - POST /auth/refresh
//   - POST /auth/logout
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-game-backend/internal/services"
)

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	// Username is the unique handle (3–64 chars).
	Username string `json:"username" binding:"required,min=3,max=64" example:"gopher42"`
	// Email must be unique and well-formed.
	Email string `json:"email" binding:"required,email" example:"gopher42@example.com"`
	// Password is stored only as a bcrypt hash (min 8 chars).
	Password string `json:"password" binding:"required,min=8" example:"correct-horse"`
}

// LoginRequest is the JSON payload for logging in.
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"gopher42"`
	Password string `json:"password" binding:"required" example:"correct-horse"`
}

// RefreshRequest carries an opaque refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LoginResponse bundles the profile with the issued tokens.
type LoginResponse struct {
	User   any                 `json:"user"`
	Tokens *services.TokenPair `json:"tokens"`
}

// Register godoc
// @ID          register
// @Summary     Register a new account
// @Description Creates an account starting at 0 XP, level 1.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.RegisterRequest  true  "Registration payload"
// @Success     201  {object} domain.User
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     409  {object} handlers.ErrorResponse "Username or email taken"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username (3-64), valid email, and password (8+) required")
		return
	}

	user, err := h.authSvc.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch err {
		case services.ErrInvalidRegistration:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid registration input")
		case services.ErrUsernameTaken:
			fail(c, http.StatusConflict, ErrCodeConflict, "username already taken")
		case services.ErrEmailTaken:
			fail(c, http.StatusConflict, ErrCodeConflict, "email already registered")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, user)
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Verifies credentials and returns an access/refresh token pair.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
// @Success     200  {object} handlers.LoginResponse
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     401  {object} handlers.ErrorResponse "Invalid credentials"
// @Failure     403  {object} handlers.ErrorResponse "Account inactive"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and password required")
		return
	}

	user, tokens, err := h.authSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch err {
		case services.ErrInvalidCredentials:
			fail(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, "invalid credentials")
		case services.ErrInactiveAccount:
			fail(c, http.StatusForbidden, ErrCodeInactiveAccount, "account is inactive")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, LoginResponse{User: user, Tokens: tokens})
}

// RefreshToken godoc
// @ID          refreshToken
// @Summary     Rotate a refresh token
// @Description Revokes the presented refresh token and issues a new pair.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.RefreshRequest  true  "Refresh token"
// @Success     200  {object} services.TokenPair
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     401  {object} handlers.ErrorResponse "Unknown, expired, or revoked token"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /auth/refresh [post]
func (h *Handlers) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "refresh_token required")
		return
	}

	tokens, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch err {
		case services.ErrInvalidRefreshToken:
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid refresh token")
		case services.ErrInactiveAccount:
			fail(c, http.StatusForbidden, ErrCodeInactiveAccount, "account is inactive")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, tokens)
}

// Logout godoc
// @ID          logout
// @Summary     Log out
// @Description Revokes the presented refresh token.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.RefreshRequest  true  "Refresh token"
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     401  {object} handlers.ErrorResponse "Unknown token"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /auth/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "refresh_token required")
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		switch err {
		case services.ErrInvalidRefreshToken:
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid refresh token")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}
