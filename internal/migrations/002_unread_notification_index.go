package migrations

import (
	"gorm.io/gorm"
)

// Migration002UnreadNotificationIndex backs the badge count and read-all
// update with a partial index over unread rows only.
func Migration002UnreadNotificationIndex() Migration {
	return Migration{
		ID:        "002_unread_notification_index",
		Name:      "Add partial index for unread notifications",
		DependsOn: []string{"001_messaging_indexes"},
		Up: func(db *gorm.DB) error {
			return db.Exec(`CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications (user_id, created_at) WHERE is_read = false`).Error
		},
		Down: func(db *gorm.DB) error {
			return db.Exec(`DROP INDEX IF EXISTS idx_notifications_user_unread`).Error
		},
	}
}
