package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"socialhub/internal/notify"
	"socialhub/internal/server/service"

	"github.com/gin-gonic/gin"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	requestTimeout   = 5 * time.Second
)

type NotificationHandler struct {
	svc service.NotificationService
}

func NewNotificationHandler(svc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/notifications/", h.List)
	rg.POST("/notifications/", h.Publish)
	rg.PATCH("/notifications/:id/read/", h.MarkRead)
	rg.POST("/notifications/mark-all-read/", h.MarkAllRead)
	rg.DELETE("/notifications/:id/", h.Delete)
}

// List returns the authenticated user's newest notifications, newest first
func (h *NotificationHandler) List(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	notifications, err := h.svc.ListRecent(ctx, claims.UserID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

type publishRequest struct {
	To      string         `json:"to" binding:"required"`
	Payload notify.Payload `json:"payload" binding:"required"`
}

// Publish creates a notification for another user and pushes it to their
// live stream connections
func (h *NotificationHandler) Publish(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Payload.Kind == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload type is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	notification, err := h.svc.Publish(ctx, req.To, claims, req.Payload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, notification)
}

// MarkRead marks a specific notification as read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.MarkRead(ctx, claims.UserID, id); err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// MarkAllRead marks all notifications as read for the user
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.MarkAllRead(ctx, claims.UserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// Delete removes a notification
func (h *NotificationHandler) Delete(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.Delete(ctx, claims.UserID, id); err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// mustClaims pulls the auth claims set by the middleware, failing the
// request when absent
func mustClaims(c *gin.Context) *service.Claims {
	value, exists := c.Get("claims")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return nil
	}
	claims, ok := value.(*service.Claims)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return nil
	}
	return claims
}
