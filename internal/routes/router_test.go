package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Xeladesign/shok/internal/config"
	"github.com/Xeladesign/shok/internal/database"
	"github.com/Xeladesign/shok/internal/handlers"
	"github.com/Xeladesign/shok/internal/models"
	"github.com/Xeladesign/shok/internal/realtime"
	"github.com/Xeladesign/shok/internal/services"
	"github.com/Xeladesign/shok/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupRouter(t *testing.T, opts RouterOptions) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.AppConfig = &config.Config{JWTSecret: "router-test-secret", FrontendURL: "http://localhost:5173"}

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	require.NoError(t, db.Create(&models.User{ID: "alice", Name: "Alice", Email: "alice@example.com"}).Error)

	broker := realtime.NewBroker(8)
	t.Cleanup(func() { broker.Close() })

	messages := database.NewMessageRepo(db, broker)
	users := database.NewUserRepo(db, nil, 0)
	notifier := services.NewNotifier(database.NewNotificationRepo(db, broker), broker, services.NotifierConfig{})
	inbox := services.NewInbox(messages, users, services.CallPolicy{})
	h := &handlers.Handlers{
		Inbox:     inbox,
		Messenger: services.NewMessenger(messages, database.NewSocialRepo(db), users, notifier, inbox, broker, services.MessengerConfig{}),
		Notifier:  notifier,
		Social:    services.NewSocial(database.NewSocialRepo(db), notifier, services.CallPolicy{}),
		Directory: users,
	}
	if opts.Health == nil {
		opts.Health = handlers.Health(db, nil)
	}
	return NewRouter(h, opts), db
}

func authed(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	token, err := utils.GenerateToken("alice")
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRouter_RequiresAuth(t *testing.T) {
	r, _ := setupRouter(t, RouterOptions{})

	for _, target := range []string{"/api/chat/conversations", "/api/notifications", "/api/me"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", target, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, target)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_AuthenticatedFlow(t *testing.T) {
	r, db := setupRouter(t, RouterOptions{})
	require.NoError(t, db.Create(&models.User{ID: "bob", Name: "Bob", Email: "bob@example.com"}).Error)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authed(t, "GET", "/api/me", ""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Alice"`)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authed(t, "POST", "/api/chat/messages", `{"recipientId":"bob","content":"hi"}`))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authed(t, "GET", "/api/chat/conversations", ""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"lastMessage":"hi"`)
}

func TestRouter_HealthAndMaintenance(t *testing.T) {
	down := true
	r, _ := setupRouter(t, RouterOptions{Maintenance: func() bool { return down }, MaintETA: "10 minutes"})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"database":"ok","redis":"not configured"}}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authed(t, "GET", "/api/me", ""))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "10 minutes")

	down = false
	w = httptest.NewRecorder()
	r.ServeHTTP(w, authed(t, "GET", "/api/me", ""))
	assert.Equal(t, http.StatusOK, w.Code)
}
