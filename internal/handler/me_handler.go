package handler

import (
	"net/http"
	"strings"

	"infinity/internal/middleware"
	"infinity/internal/service"

	"github.com/gin-gonic/gin"
)

const maxAvatarBytes = 5 << 20

type MeHandler struct {
	svc *service.ProfileService
}

func NewMeHandler(svc *service.ProfileService) *MeHandler {
	return &MeHandler{svc: svc}
}

// UploadAvatar takes a multipart "file" image.
func (h *MeHandler) UploadAvatar(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file required")
		return
	}
	if file.Size > maxAvatarBytes {
		badRequest(c, "file too large")
		return
	}
	if ct := file.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		badRequest(c, "file must be an image")
		return
	}
	f, err := file.Open()
	if err != nil {
		badRequest(c, "could not read file")
		return
	}
	defer f.Close()

	url, err := h.svc.UploadAvatar(c.Request.Context(), middleware.GetUserID(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatarUrl": url})
}

func (h *MeHandler) RegisterFCMToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "token required")
		return
	}
	if err := h.svc.SetFCMToken(c.Request.Context(), middleware.GetUserID(c), req.Token); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *MeHandler) Reputation(c *gin.Context) {
	rep, err := h.svc.Reputation(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}
