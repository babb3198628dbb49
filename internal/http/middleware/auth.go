package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-game-backend/internal/auth"
)

const (
	// userIDKey is the Gin context key under which the authenticated subject
	// is stored for downstream handlers.
	userIDKey = "userID"
	// userRoleKey is the Gin context key for the subject's role claim.
	userRoleKey = "userRole"
)

// RequireAuth validates the Authorization bearer token and stores the subject
// and role in the Gin context.
//
// Behavior:
//   - Expects "Authorization: Bearer <access token>" (scheme match is
//     case-insensitive).
//   - On success sets the "userID" and "userRole" context keys and calls the
//     next handler.
//   - On a missing, malformed, expired, or otherwise invalid token it aborts
//     with a JSON 401 carrying the correlation ID.
//
// Place this after RequestID() so rejections include the request ID.
func RequireAuth(mgr *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			abortAuth(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}

		claims, err := mgr.ParseAccessToken(raw)
		if err != nil {
			abortAuth(c, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
			return
		}

		c.Set(userIDKey, claims.Subject)
		c.Set(userRoleKey, claims.Role)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the authenticated user carries the given
// role. Must run after RequireAuth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if got, _ := c.Get(userRoleKey); asString(got) != role {
			abortAuth(c, http.StatusForbidden, "forbidden", "insufficient role")
			return
		}
		c.Next()
	}
}

// bearerToken extracts the token from an Authorization header value, returning
// an empty string when the scheme is not Bearer.
func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func abortAuth(c *gin.Context, status int, code, detail string) {
	rid, _ := c.Get(requestIDKey)
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": asString(rid),
		"code":       code,
		"detail":     detail,
	})
}
