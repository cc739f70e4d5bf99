package database

import (
	"context"

	"github.com/Xeladesign/shok/internal/models"
	"github.com/Xeladesign/shok/internal/realtime"
	"github.com/Xeladesign/shok/pkg/logger"
	"gorm.io/gorm"
)

type NotificationRepo struct {
	db   *gorm.DB
	feed realtime.Publisher
}

func NewNotificationRepo(db *gorm.DB, feed realtime.Publisher) *NotificationRepo {
	return &NotificationRepo{db: db, feed: feed}
}

func (r *NotificationRepo) Insert(ctx context.Context, n *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return classify(err, "Failed to create notification")
	}
	if err := realtime.PublishRecord(ctx, r.feed, realtime.EventInsert, *n); err != nil {
		logger.Warn().Err(err).Int64("notification_id", n.ID).Msg("Failed to publish notification insert")
	}
	return nil
}

// Recent returns the newest notifications of userID.
func (r *NotificationRepo) Recent(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	var items []models.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&items).Error
	return items, classify(err, "Failed to fetch notifications")
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, classify(res.Error, "Failed to mark notifications read")
}

func (r *NotificationRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, classify(err, "Failed to count notifications")
}
