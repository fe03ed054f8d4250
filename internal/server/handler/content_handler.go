package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"socialhub/internal/server/models"
	"socialhub/internal/server/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Posts and call history: the resolution endpoints a client hits before
// showing a preview or navigating into a call.

type ContentHandler struct {
	posts repository.PostRepository
	calls repository.CallRepository
}

func NewContentHandler(posts repository.PostRepository, calls repository.CallRepository) *ContentHandler {
	return &ContentHandler{posts: posts, calls: calls}
}

func (h *ContentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/posts/:id/", h.GetPost)
	rg.POST("/posts/", h.CreatePost)
	rg.GET("/chatrooms/:id/call-history/", h.CallHistory)
}

type postResponse struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// GetPost resolves a referenced post for preview
func (h *ContentHandler) GetPost(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	post, err := h.posts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, postResponse{
		ID:        post.ID,
		Author:    post.Author,
		Content:   post.Content,
		CreatedAt: post.CreatedAt,
	})
}

type createPostRequest struct {
	Content string `json:"content" binding:"required"`
}

// CreatePost is a dev helper so there is something for notifications to
// reference
func (h *ContentHandler) CreatePost(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	post := &models.Post{
		AuthorID: claims.UserID,
		Author:   claims.Username,
		Content:  req.Content,
	}
	if err := h.posts.Create(ctx, post); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, post)
}

// CallHistory returns a chat room's call history, newest first
func (h *ContentHandler) CallHistory(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	calls, err := h.calls.ListByRoom(ctx, roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"calls": calls})
}
