package integration

import (
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Xeladesign/shok/internal/config"
	"github.com/Xeladesign/shok/internal/database"
	"github.com/Xeladesign/shok/internal/gateway"
	"github.com/Xeladesign/shok/internal/handlers"
	"github.com/Xeladesign/shok/internal/models"
	"github.com/Xeladesign/shok/internal/realtime"
	"github.com/Xeladesign/shok/internal/routes"
	"github.com/Xeladesign/shok/internal/services"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB uses the postgres database in TEST_DATABASE_URL when set and
// an in-memory sqlite database otherwise. The postgres database is wiped.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	config.AppConfig = &config.Config{
		JWTSecret:   "test_secret_key_12345",
		FrontendURL: "http://localhost:5173",
	}

	dsn := os.Getenv("TEST_DATABASE_URL")
	var dialector gorm.Dialector
	if dsn != "" {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	if dsn == "" {
		sqlDB.SetMaxOpenConns(1)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if dsn != "" {
		require.NoError(t, db.Migrator().DropTable(append(models.AllModels(), "schema_migrations")...))
	}
	require.NoError(t, database.Migrate(db))

	for _, u := range []models.User{
		{ID: "alice", Name: "Alice", Email: "alice@example.com"},
		{ID: "bob", Name: "Bob", Email: "bob@example.com"},
	} {
		require.NoError(t, db.Create(&u).Error)
	}
	return db
}

type stack struct {
	db    *gorm.DB
	redis *miniredis.Miniredis
	gw    *gateway.Gateway
	http  string
	ws    string
}

// setupStack wires the whole server the way cmd/server does, over a redis
// feed backed by miniredis.
func setupStack(t *testing.T) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	feed := realtime.NewRedisFeed(rdb, "test", 32)
	policy := services.CallPolicy{Timeout: 5 * time.Second, Retries: 2, Backoff: 10 * time.Millisecond}
	watch := realtime.WatchOptions{InitialInterval: 10 * time.Millisecond, MaxInterval: 50 * time.Millisecond, MaxAttempts: 5}

	messages := database.NewMessageRepo(db, feed)
	users := database.NewUserRepo(db, database.NewRedisCache(rdb), time.Minute)
	social := database.NewSocialRepo(db)
	notifier := services.NewNotifier(database.NewNotificationRepo(db, feed), feed, services.NotifierConfig{Policy: policy, Watch: watch})
	inbox := services.NewInbox(messages, users, policy)
	messenger := services.NewMessenger(messages, social, users, notifier, inbox, feed, services.MessengerConfig{Policy: policy, Watch: watch})

	h := &handlers.Handlers{
		Inbox:     inbox,
		Messenger: messenger,
		Notifier:  notifier,
		Social:    services.NewSocial(social, notifier, policy),
		Directory: users,
	}
	gw := gateway.NewGateway(gateway.Services{
		Inbox:             inbox,
		Messenger:         messenger,
		Notifier:          notifier,
		Directory:         users,
		Limiter:           database.NewRedisLimiter(rdb, "ratelimit:send", 30, time.Minute),
		NotificationLimit: 10,
	}, nil)

	r := routes.NewRouter(h, routes.RouterOptions{Health: handlers.Health(db, rdb)})
	routes.RegisterRealtimeRoutes(r, gw, nil)

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		gw.Close()
		srv.Close()
	})
	return &stack{
		db:    db,
		redis: mr,
		gw:    gw,
		http:  srv.URL,
		ws:    "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
	}
}
