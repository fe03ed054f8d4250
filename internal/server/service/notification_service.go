package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"socialhub/internal/notify"
	"socialhub/internal/server/models"
	"socialhub/internal/server/repository"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Pusher delivers a frame to a user's live stream connections. Implemented
// by the websocket hub; nil-safe no-op when no hub is wired.
type Pusher interface {
	Push(userID string, frame []byte)
}

type NotificationService interface {
	// Publish persists a notification for the target user and pushes it to
	// their live stream connections
	Publish(ctx context.Context, toUsername string, sender *Claims, payload notify.Payload) (*models.Notification, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID string, notificationID int64) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID string, notificationID int64) error
}

type notificationService struct {
	repo     repository.NotificationRepository
	userRepo repository.UserRepository
	callRepo repository.CallRepository
	pusher   Pusher
	logger   *slog.Logger
}

func NewNotificationService(
	repo repository.NotificationRepository,
	userRepo repository.UserRepository,
	callRepo repository.CallRepository,
	pusher Pusher,
	logger *slog.Logger,
) NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &notificationService{
		repo:     repo,
		userRepo: userRepo,
		callRepo: callRepo,
		pusher:   pusher,
		logger:   logger,
	}
}

// streamEnvelope is the frame pushed over the websocket, the same shape the
// REST list endpoint serves per entry
type streamEnvelope struct {
	Type         string               `json:"type"`
	Notification *models.Notification `json:"notification"`
}

func (s *notificationService) Publish(ctx context.Context, toUsername string, sender *Claims, payload notify.Payload) (*models.Notification, error) {
	target, err := s.userRepo.FindByUsername(toUsername)
	if err != nil {
		return nil, fmt.Errorf("target user %q: %w", toUsername, err)
	}

	// the sender is always the acting user, regardless of what the request body says
	payload.From = notify.Actor{Username: sender.Username}

	message, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	notification := &models.Notification{
		UserID:    target.ID,
		Message:   string(message),
		IsRead:    false,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, err
	}

	// call notifications also land in the room's call history so the client
	// can resolve the call's current status later
	if payload.Kind == notify.KindCall {
		call := &models.Call{
			RoomID:    payload.RoomID,
			Caller:    sender.Username,
			Status:    payload.CallStatus,
			StartedAt: notification.CreatedAt,
		}
		if err := s.callRepo.Create(ctx, call); err != nil {
			s.logger.Warn("call history not recorded",
				"room_id", payload.RoomID,
				"error", err.Error(),
			)
		}
	}

	if s.pusher != nil {
		frame, err := json.Marshal(streamEnvelope{Type: "notification", Notification: notification})
		if err == nil {
			s.pusher.Push(target.ID, frame)
		}
	}

	return notification, nil
}

func (s *notificationService) ListRecent(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	return s.repo.ListRecent(ctx, userID, limit)
}

func (s *notificationService) MarkRead(ctx context.Context, userID string, notificationID int64) error {
	affected, err := s.repo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *notificationService) Delete(ctx context.Context, userID string, notificationID int64) error {
	affected, err := s.repo.Delete(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
