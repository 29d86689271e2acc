package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/nawel-dev/nawel/db"
	"github.com/nawel-dev/nawel/internal/auth"
	"github.com/nawel-dev/nawel/internal/config"
	"github.com/nawel-dev/nawel/internal/router"
	"github.com/nawel-dev/nawel/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg := logger.New(cfg.LogLevel)

	if err := auth.InitJWTSecret(cfg.JWTSecret); err != nil {
		logg.Fatalf("Failed to initialize JWT secret: %v", err)
	}

	if err := db.ConnectDatabase(cfg.DatabaseURL); err != nil {
		logg.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		logg.Fatalf("Failed to migrate database: %v", err)
	}

	r := router.NewRouter(db.DB, logg, cfg.AllowedOrigins)

	logg.Infof("Listening on port %s", cfg.Port)

	if err := r.Run(":" + cfg.Port); err != nil {
		logg.Fatalf("Failed to start server: %v", err)
	}
}
