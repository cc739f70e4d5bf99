package main

import (
	"context"
	"log"
	"time"

	"github.com/Xeladesign/shok/internal/config"
	"github.com/Xeladesign/shok/internal/database"
	"github.com/Xeladesign/shok/internal/seeds"
	"github.com/Xeladesign/shok/pkg/utils"
)

func main() {
	config.LoadConfig()
	database.Connect()

	log.Println("Running migrations (just in case)...")
	if err := database.Migrate(database.DB); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := seeds.Seed(ctx, database.DB); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	// Tokens are only printed outside production, for trying the API by hand.
	if config.AppConfig.Env != "production" {
		for _, u := range seeds.DemoUsers {
			token, err := utils.GenerateToken(u.ID)
			if err != nil {
				log.Fatalf("Failed to mint token: %v", err)
			}
			log.Printf("%s  %s", u.Name, token)
		}
	}
}
