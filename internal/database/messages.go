package database

import (
	"context"

	"github.com/Xeladesign/shok/internal/models"
	"github.com/Xeladesign/shok/internal/realtime"
	"github.com/Xeladesign/shok/pkg/logger"
	"gorm.io/gorm"
)

// MessageRepo reads and writes the messages table. Committed inserts are
// published on the realtime feed.
type MessageRepo struct {
	db   *gorm.DB
	feed realtime.Publisher
}

func NewMessageRepo(db *gorm.DB, feed realtime.Publisher) *MessageRepo {
	return &MessageRepo{db: db, feed: feed}
}

// Sent returns every message userID sent, newest first.
func (r *MessageRepo) Sent(ctx context.Context, userID string) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.WithContext(ctx).
		Where("sender_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&msgs).Error
	return msgs, classify(err, "Failed to fetch sent messages")
}

// Received returns every message addressed to userID, newest first.
func (r *MessageRepo) Received(ctx context.Context, userID string) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.WithContext(ctx).
		Where("receiver_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&msgs).Error
	return msgs, classify(err, "Failed to fetch received messages")
}

// Between returns the conversation between a and b, oldest first.
func (r *MessageRepo) Between(ctx context.Context, a, b string) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	return msgs, classify(err, "Failed to fetch messages")
}

// Insert stores msg, filling its id and created_at.
func (r *MessageRepo) Insert(ctx context.Context, msg *models.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return classify(err, "Failed to send message")
	}
	if err := realtime.PublishRecord(ctx, r.feed, realtime.EventInsert, *msg); err != nil {
		logger.Warn().Err(err).Int64("message_id", msg.ID).Msg("Failed to publish message insert")
	}
	return nil
}

// MarkRead flags the given messages read. Only rows received by receiverID
// are touched, so a sender can never flip its own outgoing messages.
func (r *MessageRepo) MarkRead(ctx context.Context, receiverID string, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("id IN ? AND receiver_id = ? AND is_read = ?", ids, receiverID, false).
		Update("is_read", true)
	return res.RowsAffected, classify(res.Error, "Failed to mark messages read")
}

// MarkReadFrom flags everything senderID sent to receiverID as read.
func (r *MessageRepo) MarkReadFrom(ctx context.Context, receiverID, senderID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", receiverID, senderID, false).
		Update("is_read", true)
	return res.RowsAffected, classify(res.Error, "Failed to mark conversation read")
}

func (r *MessageRepo) CountUnread(ctx context.Context, receiverID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Count(&count).Error
	return count, classify(err, "Failed to count unread messages")
}
