package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/greenloop/internal/domain/xp"
	"github.com/oksasatya/greenloop/pkg/response"
	"github.com/oksasatya/greenloop/pkg/validation"
)

// AssistantHandler serves the AI-backed routes and the public XP table.
type AssistantHandler struct {
	Chat     Chatter
	Products ProductSearcher
	Table    xp.Table
	Logger   *logrus.Logger
}

func NewAssistantHandler(chat Chatter, products ProductSearcher, table xp.Table, logger *logrus.Logger) *AssistantHandler {
	return &AssistantHandler{Chat: chat, Products: products, Table: table, Logger: logger}
}

type chatRequest struct {
	Message string `json:"message" binding:"required,max=2000"`
}

// Chat POST /api/chat
func (h *AssistantHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	reply, err := h.Chat.Reply(c.Request.Context(), c.GetString("userID"), req.Message)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reply": reply}, "reply", nil)
}

// SearchProducts GET /api/products/search?q=
func (h *AssistantHandler) SearchProducts(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "query parameter q is required", nil)
		return
	}
	res, err := h.Products.Search(c.Request.Context(), q)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, res, "product", nil)
}

// XPTable GET /api/xp/table
func (h *AssistantHandler) XPTable(c *gin.Context) {
	response.Success(c, http.StatusOK, h.Table.Snapshot(), "xp table", nil)
}
