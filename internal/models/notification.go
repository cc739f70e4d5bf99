package models

import (
	"errors"
	"time"
)

const TableNotifications = "notifications"

type NotificationType string

const (
	NotificationTypeComment NotificationType = "comment"
	NotificationTypeFollow  NotificationType = "follow"
	NotificationTypeSale    NotificationType = "sale"
	NotificationTypeMessage NotificationType = "message"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTypeComment, NotificationTypeFollow, NotificationTypeSale, NotificationTypeMessage:
		return true
	}
	return false
}

type Notification struct {
	ID          int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      string           `gorm:"index;type:text;not null" json:"user_id"` // Recipient
	ActorID     string           `gorm:"index;type:text" json:"actor_id"`         // Who performed action
	ActorName   string           `json:"actor_name"`
	ActorAvatar string           `json:"actor_avatar"`
	Type        NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	EntityID    *string          `gorm:"type:text" json:"entity_id,omitempty"`
	Content     string           `gorm:"type:text" json:"content,omitempty"`
	IsRead      bool             `gorm:"default:false;not null" json:"is_read"`
	CreatedAt   time.Time        `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string {
	return TableNotifications
}

func (n Notification) FeedKeys() map[string]string {
	return map[string]string{"user_id": n.UserID}
}

func (n Notification) Validate() error {
	switch {
	case n.ID <= 0:
		return errors.New("notification: missing id")
	case n.UserID == "":
		return errors.New("notification: missing recipient")
	case !n.Type.Valid():
		return errors.New("notification: unknown type " + string(n.Type))
	}
	return nil
}

// Newer orders notifications newest first.
func (n Notification) Newer(other Notification) bool {
	if n.CreatedAt.Equal(other.CreatedAt) {
		return n.ID > other.ID
	}
	return n.CreatedAt.After(other.CreatedAt)
}
