package models

import (
	"errors"
	"sort"
	"time"
)

const TableMessages = "messages"

// Message represents a direct message between two users
type Message struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderID   string    `gorm:"index;type:text;not null" json:"sender_id"`
	ReceiverID string    `gorm:"index;type:text;not null" json:"receiver_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	IsRead     bool      `gorm:"default:false;not null" json:"is_read"`
}

func (Message) TableName() string {
	return TableMessages
}

// FeedKeys lists the columns subscribers may filter message events on.
func (m Message) FeedKeys() map[string]string {
	return map[string]string{
		"sender_id":   m.SenderID,
		"receiver_id": m.ReceiverID,
	}
}

func (m Message) Validate() error {
	switch {
	case m.ID <= 0:
		return errors.New("message: missing id")
	case m.SenderID == "" || m.ReceiverID == "":
		return errors.New("message: missing participants")
	case m.CreatedAt.IsZero():
		return errors.New("message: missing created_at")
	}
	return nil
}

// PartnerOf returns the other participant from selfID's point of view.
func (m Message) PartnerOf(selfID string) string {
	if m.SenderID == selfID {
		return m.ReceiverID
	}
	return m.SenderID
}

// Before orders messages by created_at, then by store id.
func (m Message) Before(other Message) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.ID < other.ID
	}
	return m.CreatedAt.Before(other.CreatedAt)
}

// SortChronologically sorts msgs oldest first.
func SortChronologically(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Before(msgs[j])
	})
}

// ConversationSummary is one inbox entry. It is derived, never persisted.
type ConversationSummary struct {
	Partner         Identity  `json:"partner"`
	LastMessage     string    `json:"lastMessage"`
	LastMessageTime time.Time `json:"lastMessageTime"`
	UnreadCount     int       `json:"unreadCount"`
}
