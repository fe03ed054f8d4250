package repository

import (
	"context"

	"socialhub/internal/server/models"

	"gorm.io/gorm"
)

// Posts and call history back the preview/resolution endpoints the client
// consumes when a notification references a post or a call.

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id int64) (*models.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) FindByID(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

type CallRepository interface {
	Create(ctx context.Context, call *models.Call) error
	ListByRoom(ctx context.Context, roomID int64) ([]models.Call, error)
}

type callRepository struct {
	db *gorm.DB
}

func NewCallRepository(db *gorm.DB) CallRepository {
	return &callRepository{db: db}
}

func (r *callRepository) Create(ctx context.Context, call *models.Call) error {
	return r.db.WithContext(ctx).Create(call).Error
}

func (r *callRepository) ListByRoom(ctx context.Context, roomID int64) ([]models.Call, error) {
	var calls []models.Call
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("started_at DESC").
		Find(&calls).Error
	return calls, err
}
