package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Xeladesign/shok/internal/config"
	"github.com/Xeladesign/shok/internal/migrations"
	"github.com/Xeladesign/shok/internal/models"
	"github.com/Xeladesign/shok/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open connects to PostgreSQL with the production pool settings.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

func Connect() {
	db, err := Open(config.AppConfig.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	DB = db
	logger.Info().Msg("Connected to PostgreSQL with connection pooling (max: 25, idle: 10)")
}

// Migrate creates the messaging tables and applies the versioned migrations.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return migrations.NewMigrator(db).Run()
}

// Ping checks the database is reachable within ctx.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
