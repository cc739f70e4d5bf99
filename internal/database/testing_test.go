package database

import (
	"context"
	"testing"
	"time"

	"github.com/Xeladesign/shok/internal/models"
	"github.com/Xeladesign/shok/internal/realtime"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens a private in-memory SQLite database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func seedMessage(t *testing.T, db *gorm.DB, from, to, content string, at time.Time, read bool) models.Message {
	t.Helper()
	m := models.Message{SenderID: from, ReceiverID: to, Content: content, CreatedAt: at, IsRead: read}
	require.NoError(t, db.Create(&m).Error)
	return m
}

func nextEvent(t *testing.T, sub realtime.Subscription) realtime.Event {
	t.Helper()
	select {
	case e := <-sub.Events():
		return e
	case <-time.After(time.Second):
		t.Fatal("no event published")
		return realtime.Event{}
	}
}

var bg = context.Background()
