package handler

import (
	"net/http"

	"infinity/internal/middleware"
	"infinity/internal/service"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	svc *service.PostService
}

func NewPostHandler(svc *service.PostService) *PostHandler {
	return &PostHandler{svc: svc}
}

type reactionRequest struct {
	Type string `json:"type"`
}

func (h *PostHandler) Create(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required,max=5000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "content required")
		return
	}
	p, err := h.svc.Create(c.Request.Context(), middleware.GetUserID(c), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// Like toggles a reaction: same type removes it, another type switches it.
func (h *PostHandler) Like(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req reactionRequest
	_ = c.ShouldBindJSON(&req)
	res, err := h.svc.ToggleLike(c.Request.Context(), middleware.GetUserID(c), postID, req.Type)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *PostHandler) Comment(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Content  string `json:"content" binding:"required,max=2000"`
		ParentID *uint  `json:"parentId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "content required")
		return
	}
	cm, err := h.svc.AddComment(c.Request.Context(), middleware.GetUserID(c), postID, req.Content, req.ParentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cm)
}

func (h *PostHandler) LikeComment(c *gin.Context) {
	commentID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req reactionRequest
	_ = c.ShouldBindJSON(&req)
	res, err := h.svc.ToggleCommentLike(c.Request.Context(), middleware.GetUserID(c), commentID, req.Type)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
