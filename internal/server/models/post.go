package models

import "time"

type Post struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AuthorID  string    `gorm:"type:uuid;not null;index" json:"author_id"`
	Author    string    `gorm:"not null" json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Post) TableName() string {
	return "posts"
}

// Call is one call-history entry of a chat room
type Call struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"call_id"`
	RoomID    int64     `gorm:"not null;index" json:"room_id"`
	Caller    string    `gorm:"not null" json:"caller"`
	Status    string    `gorm:"not null" json:"status"` // missed, ongoing, ended
	StartedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"started_at"`
}

func (Call) TableName() string {
	return "calls"
}
