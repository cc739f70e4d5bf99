package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Xeladesign/shok/internal/database"
	"github.com/Xeladesign/shok/internal/middleware"
	"github.com/Xeladesign/shok/internal/models"
	"github.com/Xeladesign/shok/internal/realtime"
	"github.com/Xeladesign/shok/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	alice = models.Identity{ID: "alice", Name: "Alice", Avatar: "https://cdn.example.com/alice.png"}
	bob   = models.Identity{ID: "bob", Name: "Bob", Avatar: "https://cdn.example.com/bob.png"}
)

func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	for _, u := range []models.User{
		{ID: alice.ID, Name: alice.Name, AvatarURL: alice.Avatar, Email: "alice@example.com"},
		{ID: bob.ID, Name: bob.Name, AvatarURL: bob.Avatar, Email: "bob@example.com"},
	} {
		require.NoError(t, db.Create(&u).Error)
	}
	return db
}

func setupHandlers(t *testing.T) (*Handlers, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := SetupTestDB(t)

	broker := realtime.NewBroker(32)
	t.Cleanup(func() { broker.Close() })

	messages := database.NewMessageRepo(db, broker)
	users := database.NewUserRepo(db, nil, 0)
	social := database.NewSocialRepo(db)
	notifier := services.NewNotifier(database.NewNotificationRepo(db, broker), broker, services.NotifierConfig{})
	inbox := services.NewInbox(messages, users, services.CallPolicy{})

	return &Handlers{
		Inbox:     inbox,
		Messenger: services.NewMessenger(messages, social, users, notifier, inbox, broker, services.MessengerConfig{}),
		Notifier:  notifier,
		Social:    services.NewSocial(social, notifier, services.CallPolicy{}),
		Directory: users,
	}, db
}

// call runs handler as self with an optional JSON body and gin params.
func call(t *testing.T, handler gin.HandlerFunc, self models.Identity, method, target string, body interface{}, params ...gin.Param) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = params
	c.Set(middleware.UserIDKey, self.ID)
	c.Set(middleware.IdentityKey, self)

	handler(c)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

func seedMessage(t *testing.T, db *gorm.DB, from, to, content string, at time.Time, read bool) models.Message {
	t.Helper()
	m := models.Message{SenderID: from, ReceiverID: to, Content: content, CreatedAt: at}
	require.NoError(t, db.Create(&m).Error)
	if read {
		require.NoError(t, db.Model(&m).Update("is_read", true).Error)
		m.IsRead = true
	}
	return m
}
