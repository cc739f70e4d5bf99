package gateway

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/Xeladesign/shok/internal/config"
	"github.com/Xeladesign/shok/internal/database"
	"github.com/Xeladesign/shok/internal/models"
	"github.com/Xeladesign/shok/internal/realtime"
	"github.com/Xeladesign/shok/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type env struct {
	db     *gorm.DB
	broker *realtime.Broker
	svc    Services
}

func setupEnv(t *testing.T) *env {
	t.Helper()
	config.AppConfig = &config.Config{JWTSecret: "gateway-test-secret"}

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	for _, u := range []models.User{
		{ID: "alice", Name: "Alice", Email: "alice@example.com"},
		{ID: "bob", Name: "Bob", Email: "bob@example.com"},
	} {
		require.NoError(t, db.Create(&u).Error)
	}

	broker := realtime.NewBroker(32)
	t.Cleanup(func() { broker.Close() })

	watch := realtime.WatchOptions{InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
	messages := database.NewMessageRepo(db, broker)
	users := database.NewUserRepo(db, nil, 0)
	social := database.NewSocialRepo(db)
	notifier := services.NewNotifier(database.NewNotificationRepo(db, broker), broker, services.NotifierConfig{Watch: watch})
	inbox := services.NewInbox(messages, users, services.CallPolicy{})
	messenger := services.NewMessenger(messages, social, users, notifier, inbox, broker, services.MessengerConfig{Watch: watch})

	return &env{
		db:     db,
		broker: broker,
		svc: Services{
			Inbox:             inbox,
			Messenger:         messenger,
			Notifier:          notifier,
			Directory:         users,
			NotificationLimit: 10,
		},
	}
}

type emitted struct {
	event   string
	payload interface{}
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (r *recordingEmitter) Emit(event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, emitted{event: event, payload: payload})
}

func (r *recordingEmitter) all(event string) []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []interface{}
	for _, e := range r.events {
		if e.event == event {
			out = append(out, e.payload)
		}
	}
	return out
}

func (r *recordingEmitter) last(t *testing.T, event string) interface{} {
	t.Helper()
	var got []interface{}
	require.Eventually(t, func() bool {
		got = r.all(event)
		return len(got) > 0
	}, time.Second, 5*time.Millisecond, "no %q event", event)
	return got[len(got)-1]
}

func rawArgs(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}
