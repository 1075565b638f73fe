package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/greenloop/internal/application"
	"github.com/oksasatya/greenloop/pkg/helpers"
	"github.com/oksasatya/greenloop/pkg/response"
)

const CtxUserIDKey = "userID"

// Auth validates the access token (bearer header or cookie) and, when Redis
// is configured, requires the token's session id to match the live session.
// It sets userID and userName in the Gin context on success.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := helpers.BearerOrCookie(c, helpers.AccessCookie)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "missing access token")
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid access token")
			return
		}

		if rdb != nil {
			data, err := rdb.HGetAll(c.Request.Context(), application.SessionKey(claims.UserID)).Result()
			if err != nil || len(data) == 0 {
				response.Abort(c, http.StatusUnauthorized, "session not found")
				return
			}
			if data["sid"] != claims.SessionID {
				response.Abort(c, http.StatusUnauthorized, "session revoked")
				return
			}
			c.Set("userName", data["name"])
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Next()
	}
}
