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

const maxPhotoBytes = 10 << 20

type UserHandler struct {
	Svc    UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type locationRequest struct {
	Lat float64 `json:"lat" binding:"latitude"`
	Lng float64 `json:"lng" binding:"longitude"`
}

type updateProfileRequest struct {
	Name      string           `json:"name" binding:"omitempty,displayname"`
	AvatarURL string           `json:"avatarUrl" binding:"omitempty,url"`
	Location  *locationRequest `json:"location"`
}

func profileView(u *entity.User) gin.H {
	if u == nil {
		return nil
	}
	return gin.H{
		"id":        u.ID,
		"email":     u.Email,
		"name":      u.Name,
		"avatarUrl": u.AvatarURL,
		"level":     u.Level,
		"xp":        u.TotalXP,
		"streak":    u.Streak,
		"location":  u.Location,
		"createdAt": u.CreatedAt,
		"updatedAt": u.UpdatedAt,
	}
}

// GetProfile GET /api/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, profileView(u), "profile", nil)
}

// UpdateProfile PUT /api/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	in := application.UpdateProfileInput{Name: req.Name, AvatarURL: req.AvatarURL}
	if req.Location != nil {
		in.Location = &entity.GeoPoint{Lat: req.Location.Lat, Lng: req.Location.Lng}
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), c.GetString("userID"), in)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, profileView(u), "profile updated", nil)
}

// GetSettings GET /api/settings
func (h *UserHandler) GetSettings(c *gin.Context) {
	s, err := h.Svc.GetSettings(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, s, "settings", nil)
}

// UpdateSettings PUT /api/settings; unknown keys are ignored.
func (h *UserHandler) UpdateSettings(c *gin.Context) {
	var patch map[string]bool
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	s, err := h.Svc.UpdateSettings(c.Request.Context(), c.GetString("userID"), patch)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, s, "settings updated", nil)
}

// Stats GET /api/user/me/stats reconciles before reading.
func (h *UserHandler) Stats(c *gin.Context) {
	st, err := h.Svc.Stats(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, st, "stats", nil)
}

// Leaderboard GET /api/leaderboard?limit=
func (h *UserHandler) Leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.Svc.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, entries, "leaderboard", nil)
}

// Search GET /api/users/search?q=&size=
func (h *UserHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	hits, err := h.Svc.SearchUsers(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "users", gin.H{"count": len(hits)})
}

// UploadPhoto POST /api/uploads/photo (multipart field "photo")
func (h *UserHandler) UploadPhoto(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPhotoBytes)
	fh, err := c.FormFile("photo")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "photo file is required", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "unreadable upload", nil)
		return
	}
	defer f.Close()

	url, err := h.Svc.UploadPhoto(c.Request.Context(), c.GetString("userID"), f, fh.Header.Get("Content-Type"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"imageUrl": url}, "photo uploaded", nil)
}
