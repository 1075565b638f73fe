package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/greenloop/internal/application"
	"github.com/oksasatya/greenloop/internal/domain/entity"
	"github.com/oksasatya/greenloop/pkg/response"
	"github.com/oksasatya/greenloop/pkg/validation"
)

const defaultListLimit = 50

type LedgerHandler struct {
	Svc    Ledger
	Logger *logrus.Logger
}

func NewLedgerHandler(svc Ledger, logger *logrus.Logger) *LedgerHandler {
	return &LedgerHandler{Svc: svc, Logger: logger}
}

type logActionRequest struct {
	ActionType string               `json:"actionType" binding:"actiontype"`
	Details    entity.ActionDetails `json:"details"`
	Location   *locationRequest     `json:"location"`
}

type logSwapRequest struct {
	Original       string  `json:"original" binding:"required,max=200"`
	Swap           string  `json:"swap" binding:"required,max=200"`
	Category       string  `json:"category" binding:"omitempty,swapcategory"`
	EcoScoreBefore int     `json:"ecoScoreBefore" binding:"ecoscore"`
	EcoScoreAfter  int     `json:"ecoScoreAfter" binding:"ecoscore"`
	XP             *int    `json:"xp" binding:"omitempty,min=0"`
	CO2Saved       float64 `json:"co2Saved" binding:"min=0"`
	PlasticSaved   float64 `json:"plasticSaved" binding:"min=0"`
}

type logActionView struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message"`
	XPGained int            `json:"xpGained"`
	NewTotal int            `json:"newTotal"`
	NewLevel entity.Level   `json:"newLevel"`
	LevelUp  bool           `json:"levelUp"`
	Action   *entity.Action `json:"action"`
}

type logSwapView struct {
	XPGained int          `json:"xpGained"`
	NewTotal int          `json:"newTotal"`
	NewLevel entity.Level `json:"newLevel"`
	LevelUp  bool         `json:"levelUp"`
	Swap     *entity.Swap `json:"swap"`
}

func listLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 || n > 200 {
		return defaultListLimit
	}
	return n
}

// LogAction POST /api/action and /api/actions
func (h *LedgerHandler) LogAction(c *gin.Context) {
	var req logActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	in := application.LogActionInput{UserID: c.GetString("userID"), Type: req.ActionType, Details: req.Details}
	if req.Location != nil {
		in.Location = &entity.GeoPoint{Lat: req.Location.Lat, Lng: req.Location.Lng}
	}
	res, err := h.Svc.LogAction(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, logActionView{
		Success:  true,
		Message:  res.Message,
		XPGained: res.XPGained,
		NewTotal: res.NewTotal,
		NewLevel: res.NewLevel,
		LevelUp:  res.LeveledUp,
		Action:   res.Action,
	}, res.Message, nil)
}

// ListActions GET /api/actions
func (h *LedgerHandler) ListActions(c *gin.Context) {
	limit := listLimit(c)
	items, err := h.Svc.ListActions(c.Request.Context(), c.GetString("userID"), limit)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.List(c, items, limit, "actions")
}

// DeleteAction DELETE /api/actions/:id; missing and foreign ids are both 404.
func (h *LedgerHandler) DeleteAction(c *gin.Context) {
	res, err := h.Svc.DeleteAction(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"xpRemoved": res.XPRemoved,
		"newTotal":  res.NewTotal,
		"newLevel":  res.NewLevel,
	}, "action deleted", nil)
}

// LogSwap POST /api/swaps
func (h *LedgerHandler) LogSwap(c *gin.Context) {
	var req logSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.LogSwap(c.Request.Context(), application.LogSwapInput{
		UserID:         c.GetString("userID"),
		Original:       req.Original,
		Replacement:    req.Swap,
		Category:       entity.SwapCategory(req.Category),
		EcoScoreBefore: req.EcoScoreBefore,
		EcoScoreAfter:  req.EcoScoreAfter,
		XP:             req.XP,
		CO2Saved:       req.CO2Saved,
		PlasticSaved:   req.PlasticSaved,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, logSwapView{
		XPGained: res.XPGained,
		NewTotal: res.NewTotal,
		NewLevel: res.NewLevel,
		LevelUp:  res.LeveledUp,
		Swap:     res.Swap,
	}, "swap logged", nil)
}

// ListSwaps GET /api/swaps
func (h *LedgerHandler) ListSwaps(c *gin.Context) {
	limit := listLimit(c)
	items, err := h.Svc.ListSwaps(c.Request.Context(), c.GetString("userID"), limit)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.List(c, items, limit, "swaps")
}

// Gallery GET /api/gallery
func (h *LedgerHandler) Gallery(c *gin.Context) {
	limit := listLimit(c)
	items, err := h.Svc.Gallery(c.Request.Context(), c.GetString("userID"), limit)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.List(c, items, limit, "gallery")
}
