package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/greenloop/internal/interface/http"
	"github.com/oksasatya/greenloop/internal/interface/middleware"
	"github.com/oksasatya/greenloop/pkg/helpers"
)

// AuthModule wires the session routes.
// Public: POST /api/register, POST /api/login, POST /api/refresh
// Protected: POST /api/logout
type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
	RDB     *redis.Client
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager, rdb *redis.Client) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt, RDB: rdb}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rg.POST("/register", middleware.RateLimit(m.RDB, middleware.PolicyRegister, nil), m.Handler.Register)
	rg.POST("/login", middleware.RateLimit(m.RDB, middleware.PolicyLogin, nil), m.Handler.Login)
	rg.POST("/refresh", middleware.RateLimit(m.RDB, middleware.PolicyRefresh, nil), m.Handler.Refresh)
	rg.POST("/logout", middleware.Auth(m.RDB, m.JWT), m.Handler.Logout)
}
