package handler

import (
	"net/http"

	"infinity/internal/middleware"
	"infinity/internal/service"

	"github.com/gin-gonic/gin"
)

type SuggestionHandler struct {
	svc *service.SuggestionService
}

func NewSuggestionHandler(svc *service.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{svc: svc}
}

func (h *SuggestionHandler) Friends(c *gin.Context) {
	list, err := h.svc.SuggestFriends(c.Request.Context(), middleware.GetUserID(c), queryInt(c, "limit", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": list})
}

func (h *SuggestionHandler) Random(c *gin.Context) {
	list, err := h.svc.SuggestRandom(c.Request.Context(), middleware.GetUserID(c), queryInt(c, "limit", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": list})
}

func (h *SuggestionHandler) Dismiss(c *gin.Context) {
	candidateID, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	if err := h.svc.Dismiss(c.Request.Context(), middleware.GetUserID(c), candidateID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
