package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/greenloop/internal/interface/http"
	"github.com/oksasatya/greenloop/internal/interface/middleware"
	"github.com/oksasatya/greenloop/pkg/helpers"
)

// UserModule wires profile, settings, stats, leaderboard, user search and
// photo uploads. Everything except the leaderboard requires a session.
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
	RDB     *redis.Client
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager, rdb *redis.Client) *UserModule {
	return &UserModule{Handler: h, JWT: jwt, RDB: rdb}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	rg.GET("/leaderboard", middleware.RateLimit(m.RDB, middleware.PolicyPublic, nil), m.Handler.Leaderboard)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.RDB, m.JWT))
	auth.Use(
		middleware.RateLimit(m.RDB, middleware.PolicyPublic, nil),
		middleware.RateLimit(m.RDB, middleware.PolicyProfile, nil),
	)
	{
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.GET("/settings", m.Handler.GetSettings)
		auth.PUT("/settings", m.Handler.UpdateSettings)
		auth.GET("/user/me/stats", m.Handler.Stats)
		auth.GET("/users/search", m.Handler.Search)
		auth.POST("/uploads/photo", middleware.RateLimit(m.RDB, middleware.PolicyUpload, nil), m.Handler.UploadPhoto)
	}
}
