package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/tbourn/go-game-backend/internal/domain"
	"github.com/tbourn/go-game-backend/internal/services"
)

func TestRegister_Success(t *testing.T) {
	r := newTestRouter(stubServices{})

	w := doJSON(t, r, http.MethodPost, "/auth/register", map[string]string{
		"username": "gopher42",
		"email":    "gopher42@example.com",
		"password": "correct-horse",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"username":"gopher42"`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestRegister_BadPayload(t *testing.T) {
	r := newTestRouter(stubServices{})

	// password too short for the binding rule
	w := doJSON(t, r, http.MethodPost, "/auth/register", map[string]string{
		"username": "gopher42",
		"email":    "gopher42@example.com",
		"password": "short",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRegister_Conflicts(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"username taken", services.ErrUsernameTaken, http.StatusConflict},
		{"email taken", services.ErrEmailTaken, http.StatusConflict},
		{"invalid input", services.ErrInvalidRegistration, http.StatusBadRequest},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(stubServices{auth: stubAuthSvc{
				register: func(context.Context, string, string, string) (*domain.User, error) {
					return nil, tc.err
				},
			}})
			w := doJSON(t, r, http.MethodPost, "/auth/register", map[string]string{
				"username": "gopher42",
				"email":    "gopher42@example.com",
				"password": "correct-horse",
			})
			if w.Code != tc.code {
				t.Fatalf("status = %d; want %d", w.Code, tc.code)
			}
		})
	}
}

func TestLogin_SuccessAndFailures(t *testing.T) {
	r := newTestRouter(stubServices{})
	w := doJSON(t, r, http.MethodPost, "/auth/login", map[string]string{
		"username": "gopher42",
		"password": "correct-horse",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp LoginResponse
	decodeBody(t, w, &resp)
	if resp.Tokens == nil || resp.Tokens.AccessToken == "" {
		t.Fatalf("missing tokens: %s", w.Body.String())
	}

	rBad := newTestRouter(stubServices{auth: stubAuthSvc{
		login: func(context.Context, string, string) (*domain.User, *services.TokenPair, error) {
			return nil, nil, services.ErrInvalidCredentials
		},
	}})
	w = doJSON(t, rBad, http.MethodPost, "/auth/login", map[string]string{
		"username": "gopher42", "password": "wrong",
	})
	if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "invalid_credentials") {
		t.Fatalf("bad creds: %d %s", w.Code, w.Body.String())
	}

	rInactive := newTestRouter(stubServices{auth: stubAuthSvc{
		login: func(context.Context, string, string) (*domain.User, *services.TokenPair, error) {
			return nil, nil, services.ErrInactiveAccount
		},
	}})
	w = doJSON(t, rInactive, http.MethodPost, "/auth/login", map[string]string{
		"username": "gopher42", "password": "correct-horse",
	})
	if w.Code != http.StatusForbidden || !strings.Contains(w.Body.String(), "inactive_account") {
		t.Fatalf("inactive: %d %s", w.Code, w.Body.String())
	}
}

func TestRefreshToken_RotationAndRejection(t *testing.T) {
	r := newTestRouter(stubServices{})
	w := doJSON(t, r, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": "tok"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var pair services.TokenPair
	decodeBody(t, w, &pair)
	if pair.AccessToken != "a2" || pair.RefreshToken != "r2" {
		t.Fatalf("unexpected pair: %+v", pair)
	}

	rBad := newTestRouter(stubServices{auth: stubAuthSvc{
		refresh: func(context.Context, string) (*services.TokenPair, error) {
			return nil, services.ErrInvalidRefreshToken
		},
	}})
	w = doJSON(t, rBad, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": "stale"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("stale token: %d", w.Code)
	}

	// missing payload
	w = doJSON(t, r, http.MethodPost, "/auth/refresh", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing token: %d", w.Code)
	}
}

func TestLogout(t *testing.T) {
	r := newTestRouter(stubServices{})
	w := doJSON(t, r, http.MethodPost, "/auth/logout", map[string]string{"refresh_token": "tok"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}

	rBad := newTestRouter(stubServices{auth: stubAuthSvc{
		logout: func(context.Context, string) error { return services.ErrInvalidRefreshToken },
	}})
	w = doJSON(t, rBad, http.MethodPost, "/auth/logout", map[string]string{"refresh_token": "unknown"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown token: %d", w.Code)
	}
}
