package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env         string `mapstructure:"GO_ENV"`
	Port        string `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	FrontendURL string `mapstructure:"FRONTEND_URL"`

	// Redis backs the realtime feed, identity cache and send throttling
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// Realtime
	FeedDriver        string        `mapstructure:"FEED_DRIVER"` // redis | memory
	FeedBuffer        int           `mapstructure:"FEED_BUFFER"`
	ReconnectInitial  time.Duration `mapstructure:"RECONNECT_INITIAL"`
	ReconnectMax      time.Duration `mapstructure:"RECONNECT_MAX"`
	ReconnectAttempts int           `mapstructure:"RECONNECT_ATTEMPTS"`

	// Store access
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ReadRetries    int           `mapstructure:"READ_RETRIES"`
	IdentityTTL    time.Duration `mapstructure:"IDENTITY_CACHE_TTL"`

	// Messaging
	NotificationLimit             int  `mapstructure:"NOTIFICATION_LIMIT"`
	SendRateLimit                 int  `mapstructure:"SEND_RATE_LIMIT"` // per user per minute
	SuppressOpenChatNotifications bool `mapstructure:"SUPPRESS_OPEN_CHAT_NOTIFICATIONS"`

	MaintenanceMode bool   `mapstructure:"MAINTENANCE_MODE"`
	MaintenanceETA  string `mapstructure:"MAINTENANCE_ETA"`
}

var AppConfig *Config

var defaults = map[string]interface{}{
	"GO_ENV":                           "development",
	"PORT":                             "8080",
	"DATABASE_URL":                     "",
	"JWT_SECRET":                       "",
	"FRONTEND_URL":                     "http://localhost:5173",
	"REDIS_ADDR":                       "localhost:6379",
	"REDIS_PASSWORD":                   "",
	"FEED_DRIVER":                      "redis",
	"FEED_BUFFER":                      64,
	"RECONNECT_INITIAL":                "500ms",
	"RECONNECT_MAX":                    "10s",
	"RECONNECT_ATTEMPTS":               8,
	"REQUEST_TIMEOUT":                  "10s",
	"READ_RETRIES":                     3,
	"IDENTITY_CACHE_TTL":               "5m",
	"NOTIFICATION_LIMIT":               10,
	"SEND_RATE_LIMIT":                  30,
	"SUPPRESS_OPEN_CHAT_NOTIFICATIONS": false,
	"MAINTENANCE_MODE":                 false,
	"MAINTENANCE_ETA":                  "",
}

// Load reads .env (if present) and the environment into a Config.
// Every key has a default, so environment variables are picked up even without a file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadConfig() {
	cfg, err := Load(".env")
	if err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}
	AppConfig = cfg
}
