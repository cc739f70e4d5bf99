package migrations

import (
	"gorm.io/gorm"
)

// Migration001MessagingIndexes adds the composite indexes behind the inbox and
// conversation queries:
// 1. Unread tally per receiver (receiver_id, is_read)
// 2. Conversation history between two users, oldest first
func Migration001MessagingIndexes() Migration {
	return Migration{
		ID:   "001_messaging_indexes",
		Name: "Add composite indexes for inbox and conversation queries",
		Up: func(db *gorm.DB) error {
			stmts := []string{
				`CREATE INDEX IF NOT EXISTS idx_messages_receiver_unread ON messages (receiver_id, is_read)`,
				`CREATE INDEX IF NOT EXISTS idx_messages_pair_created ON messages (sender_id, receiver_id, created_at)`,
			}
			for _, stmt := range stmts {
				if err := db.Exec(stmt).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Down: func(db *gorm.DB) error {
			if err := db.Exec(`DROP INDEX IF EXISTS idx_messages_receiver_unread`).Error; err != nil {
				return err
			}
			return db.Exec(`DROP INDEX IF EXISTS idx_messages_pair_created`).Error
		},
	}
}
