package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/greenloop/internal/interface/http"
	"github.com/oksasatya/greenloop/internal/interface/middleware"
	"github.com/oksasatya/greenloop/pkg/helpers"
)

// LedgerModule wires the XP-bearing commands and their reads.
type LedgerModule struct {
	Handler *handlers.LedgerHandler
	JWT     *helpers.JWTManager
	RDB     *redis.Client
}

func NewLedgerModule(h *handlers.LedgerHandler, jwt *helpers.JWTManager, rdb *redis.Client) *LedgerModule {
	return &LedgerModule{Handler: h, JWT: jwt, RDB: rdb}
}

func (m *LedgerModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.RDB, m.JWT))
	auth.Use(middleware.RateLimit(m.RDB, middleware.PolicyLedger, nil))
	{
		auth.POST("/action", m.Handler.LogAction)
		auth.POST("/actions", m.Handler.LogAction)
		auth.GET("/actions", m.Handler.ListActions)
		auth.DELETE("/actions/:id", m.Handler.DeleteAction)
		auth.POST("/swaps", m.Handler.LogSwap)
		auth.GET("/swaps", m.Handler.ListSwaps)
		auth.GET("/gallery", m.Handler.Gallery)
	}
}
