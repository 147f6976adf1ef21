package handler

import (
	"net/http"
	"strconv"

	"infinity/internal/middleware"
	"infinity/internal/service"

	"github.com/gin-gonic/gin"
)

type ConversationHandler struct {
	svc *service.ConversationService
}

func NewConversationHandler(svc *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

// List returns the viewer's conversations plus friends not yet messaged (id "").
func (h *ConversationHandler) List(c *gin.Context) {
	views, err := h.svc.ListConversations(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": views})
}

func (h *ConversationHandler) Start(c *gin.Context) {
	var req struct {
		UserID uint `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "userId required")
		return
	}
	id, err := h.svc.Start(c.Request.Context(), middleware.GetUserID(c), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": strconv.FormatUint(uint64(id), 10)})
}

// Messages pages backwards with ?before=<message id>; each page is oldest first.
func (h *ConversationHandler) Messages(c *gin.Context) {
	convID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var before uint
	if v, err := strconv.ParseUint(c.Query("before"), 10, 64); err == nil {
		before = uint(v)
	}
	msgs, err := h.svc.ListMessages(c.Request.Context(), middleware.GetUserID(c), convID, queryInt(c, "limit", 0), before)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *ConversationHandler) Send(c *gin.Context) {
	convID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "content required")
		return
	}
	msg, err := h.svc.SendMessage(c.Request.Context(), middleware.GetUserID(c), convID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *ConversationHandler) MarkRead(c *gin.Context) {
	convID, ok := paramID(c, "id")
	if !ok {
		return
	}
	n, err := h.svc.MarkRead(c.Request.Context(), middleware.GetUserID(c), convID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "updated": n})
}
