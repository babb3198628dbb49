package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-game-backend/internal/config"
	"github.com/tbourn/go-game-backend/internal/repo"
)

func testConfig() config.Config {
	return config.Config{
		Port:        "0",
		GinMode:     "test",
		APIBasePath: "/api/v1",
		Auth: config.AuthConfig{
			JWTSecret:       "router-test-secret",
			Issuer:          "router-test",
			AccessTokenTTL:  time.Minute,
			RefreshTokenTTL: time.Hour,
		},
		Game: config.GameConfig{
			ReadPostXPCap: 50,
			QuestXPCap:    500,
			AdminXPCap:    10000,
			DefaultReadXP: 15,
		},
		RateRPS:   1000,
		RateBurst: 1000,
	}
}

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	r := gin.New()
	RegisterRoutes(r, db, testConfig())
	return r
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	r := newTestEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: %d", w.Code)
	}
}

func TestNoRouteAndNoMethodEnvelopes(t *testing.T) {
	r := newTestEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), `"code":"not_found"`) {
		t.Fatalf("no-route: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/health", nil))
	if w.Code != http.StatusMethodNotAllowed || !strings.Contains(w.Body.String(), `"code":"method_not_allowed"`) {
		t.Fatalf("no-method: %d %s", w.Code, w.Body.String())
	}
}

func TestPrivateRoutesRequireToken(t *testing.T) {
	r := newTestEngine(t)

	for _, route := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodPost, "/api/v1/game/daily-reward"},
		{http.MethodPost, "/api/v1/quests/q/submit"},
		{http.MethodPost, "/api/v1/admin/quests"},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(route.method, route.path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s without token: %d", route.method, route.path, w.Code)
		}
	}
}

func postJSON(t *testing.T, r *gin.Engine, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterLoginAndMeFlow(t *testing.T) {
	r := newTestEngine(t)

	w := postJSON(t, r, "/api/v1/auth/register", "", map[string]string{
		"username": "gopher42",
		"email":    "gopher42@example.com",
		"password": "correct-horse",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}

	w = postJSON(t, r, "/api/v1/auth/login", "", map[string]string{
		"username": "gopher42",
		"password": "correct-horse",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	var login struct {
		Tokens struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"tokens"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if login.Tokens.AccessToken == "" || login.Tokens.RefreshToken == "" {
		t.Fatalf("missing tokens: %s", w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Tokens.AccessToken)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"username":"gopher42"`) {
		t.Fatalf("me: %d %s", rec.Code, rec.Body.String())
	}

	// Non-admin hitting an operator route gets 403, not 404
	w = postJSON(t, r, "/api/v1/admin/item-grants", login.Tokens.AccessToken, map[string]string{
		"user_id": "x", "item_id": "golden-key",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("admin as user: %d %s", w.Code, w.Body.String())
	}
}

func TestCORSHeaderDefaultAllowAll(t *testing.T) {
	r := newTestEngine(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("ACAO = %q; want *", got)
	}
	if rid := w.Header().Get("X-Request-ID"); rid == "" {
		t.Fatalf("expected X-Request-ID header")
	}
}

func TestLimitBody(t *testing.T) {
	r := newTestEngine(t)

	big := strings.Repeat("a", (1<<20)+10)
	payload := map[string]string{
		"username": "gopher43",
		"email":    "gopher43@example.com",
		"password": big,
	}
	w := postJSON(t, r, "/api/v1/auth/register", "", payload)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("oversized body: %d", w.Code)
	}
}
