package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/mother-community/pkg/helpers"
	"github.com/oksasatya/mother-community/pkg/response"
)

// Context keys set by Auth.
const (
	CtxUserIDKey = "userID"
	CtxEmailKey  = "userEmail"
	CtxRolesKey  = "userRoles"
)

// Auth validates the access token cookie and, when rdb is set, requires the
// Redis session to exist with the same session id.
// It sets userID, userEmail and userRoles in the Gin context on success.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(helpers.AccessCookie)
		if err != nil || token == "" {
			response.Abort(c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid access token", err.Error())
			return
		}

		if rdb == nil {
			c.Set(CtxUserIDKey, claims.UserID)
			c.Next()
			return
		}

		// Retrieve session from Redis as a hash
		data, err := rdb.HGetAll(c.Request.Context(), "user:session:"+claims.UserID).Result()
		if err != nil || len(data) == 0 {
			response.Abort(c, http.StatusUnauthorized, "session not found", nil)
			return
		}
		if sid := data["sid"]; sid != "" && sid != claims.SessionID {
			response.Abort(c, http.StatusUnauthorized, "session expired", nil)
			return
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxEmailKey, data["email"])
		c.Set(CtxRolesKey, splitRoles(data["roles"]))
		c.Next()
	}
}

// RequireRole lets the request through only if Auth stored the role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, _ := c.Get(CtxRolesKey)
		if list, ok := roles.([]string); ok {
			for _, r := range list {
				if r == role {
					c.Next()
					return
				}
			}
		}
		response.Abort(c, http.StatusForbidden, "forbidden", nil)
	}
}

func splitRoles(s string) []string {
	var out []string
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
