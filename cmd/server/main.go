package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Xeladesign/shok/internal/config"
	"github.com/Xeladesign/shok/internal/database"
	"github.com/Xeladesign/shok/internal/gateway"
	"github.com/Xeladesign/shok/internal/handlers"
	"github.com/Xeladesign/shok/internal/middleware"
	"github.com/Xeladesign/shok/internal/realtime"
	"github.com/Xeladesign/shok/internal/routes"
	"github.com/Xeladesign/shok/internal/services"
	"github.com/Xeladesign/shok/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// 0. Load Config & Initialize Logger
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Env)

	logger.Info().Str("environment", cfg.Env).Msg("Starting shok messaging backend...")

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 1. Connect Database & run migrations
	database.Connect()
	if err := database.Migrate(database.DB); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate database")
	}
	logger.Info().Msg("Database migrations complete")

	// 2. Redis & realtime feed
	var rdb *redis.Client
	var feed realtime.Feed
	var cache database.Cache
	switch cfg.FeedDriver {
	case "memory":
		broker := realtime.NewBroker(cfg.FeedBuffer)
		defer broker.Close()
		feed = broker
		logger.Warn().Msg("Using in-process feed, realtime events stay inside this instance")
	default:
		rdb = database.InitRedis()
		defer rdb.Close()
		feed = realtime.NewRedisFeed(rdb, "shok", cfg.FeedBuffer)
		cache = database.NewRedisCache(rdb)
	}

	// 3. Repositories & services
	policy := services.PolicyFromConfig(cfg)
	watch := realtime.WatchOptions{
		InitialInterval: cfg.ReconnectInitial,
		MaxInterval:     cfg.ReconnectMax,
		MaxAttempts:     uint64(cfg.ReconnectAttempts),
	}

	messages := database.NewMessageRepo(database.DB, feed)
	users := database.NewUserRepo(database.DB, cache, cfg.IdentityTTL)
	social := database.NewSocialRepo(database.DB)

	notifier := services.NewNotifier(database.NewNotificationRepo(database.DB, feed), feed, services.NotifierConfig{
		Policy:       policy,
		Watch:        watch,
		DefaultLimit: cfg.NotificationLimit,
	})
	inbox := services.NewInbox(messages, users, policy)
	messenger := services.NewMessenger(messages, social, users, notifier, inbox, feed, services.MessengerConfig{
		Policy:                    policy,
		Watch:                     watch,
		SuppressOpenNotifications: cfg.SuppressOpenChatNotifications,
	})

	h := &handlers.Handlers{
		Inbox:     inbox,
		Messenger: messenger,
		Notifier:  notifier,
		Social:    services.NewSocial(social, notifier, policy),
		Directory: users,
	}

	// 4. Realtime gateway
	svc := gateway.Services{
		Inbox:             inbox,
		Messenger:         messenger,
		Notifier:          notifier,
		Directory:         users,
		NotificationLimit: cfg.NotificationLimit,
	}
	if rdb != nil && cfg.SendRateLimit > 0 {
		svc.Limiter = database.NewRedisLimiter(rdb, "ratelimit:send", cfg.SendRateLimit, time.Minute)
	}
	checkOrigin := originChecker(middleware.AllowedOrigins())
	gw := gateway.NewGateway(svc, checkOrigin)
	defer gw.Close()

	socketServer := gw.NewSocketServer(checkOrigin)
	go func() {
		if err := socketServer.Serve(); err != nil {
			logger.Error().Err(err).Msg("Socket.io server stopped")
		}
	}()
	defer socketServer.Close()

	// 5. Setup Router
	r := routes.NewRouter(h, routes.RouterOptions{
		Health:      handlers.Health(database.DB, rdb),
		Maintenance: func() bool { return cfg.MaintenanceMode },
		MaintETA:    cfg.MaintenanceETA,
	})
	routes.RegisterRealtimeRoutes(r, gw, socketServer)

	// 6. Start Server with graceful shutdown
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// realtime connections are long lived; the WebSocket pumps manage their own deadlines
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}

// originChecker admits browser upgrades from the configured origins and
// non-browser clients that send no Origin header.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}
