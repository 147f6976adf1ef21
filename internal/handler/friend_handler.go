package handler

import (
	"net/http"
	"strconv"

	"infinity/internal/middleware"
	"infinity/internal/service"

	"github.com/gin-gonic/gin"
)

type FriendHandler struct {
	svc *service.FriendService
}

func NewFriendHandler(svc *service.FriendService) *FriendHandler {
	return &FriendHandler{svc: svc}
}

func (h *FriendHandler) SendRequest(c *gin.Context) {
	targetID, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	f, err := h.svc.SendRequest(c.Request.Context(), middleware.GetUserID(c), targetID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request": f})
}

func (h *FriendHandler) Accept(c *gin.Context) {
	requestID, ok := paramID(c, "request_id")
	if !ok {
		return
	}
	convID, err := h.svc.Accept(c.Request.Context(), middleware.GetUserID(c), requestID)
	if err != nil {
		respondError(c, err)
		return
	}
	// "" tells the client to open the conversation itself, as in the conversation list.
	id := ""
	if convID != 0 {
		id = strconv.FormatUint(uint64(convID), 10)
	}
	c.JSON(http.StatusOK, gin.H{"status": "accepted", "conversationId": id})
}

// Remove rejects or cancels a request, or unfriends.
func (h *FriendHandler) Remove(c *gin.Context) {
	requestID, ok := paramID(c, "request_id")
	if !ok {
		return
	}
	if err := h.svc.Remove(c.Request.Context(), middleware.GetUserID(c), requestID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *FriendHandler) List(c *gin.Context) {
	friends, err := h.svc.Friends(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

func (h *FriendHandler) Pending(c *gin.Context) {
	reqs, err := h.svc.PendingRequests(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}

func (h *FriendHandler) Block(c *gin.Context) {
	targetID, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	if err := h.svc.Block(c.Request.Context(), middleware.GetUserID(c), targetID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *FriendHandler) Unblock(c *gin.Context) {
	targetID, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	if err := h.svc.Unblock(c.Request.Context(), middleware.GetUserID(c), targetID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
