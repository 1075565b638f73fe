package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/greenloop/internal/interface/http"
	"github.com/oksasatya/greenloop/internal/interface/middleware"
	"github.com/oksasatya/greenloop/pkg/helpers"
)

// AssistantModule wires chat and product search (both model-backed, so
// tightly limited) plus the public XP table.
type AssistantModule struct {
	Handler *handlers.AssistantHandler
	JWT     *helpers.JWTManager
	RDB     *redis.Client
}

func NewAssistantModule(h *handlers.AssistantHandler, jwt *helpers.JWTManager, rdb *redis.Client) *AssistantModule {
	return &AssistantModule{Handler: h, JWT: jwt, RDB: rdb}
}

func (m *AssistantModule) Register(rg *gin.RouterGroup) {
	rg.GET("/xp/table", m.Handler.XPTable)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.RDB, m.JWT))
	auth.Use(middleware.RateLimit(m.RDB, middleware.PolicyModel, nil))
	{
		auth.POST("/chat", m.Handler.Chat)
		auth.GET("/products/search", m.Handler.SearchProducts)
	}
}
