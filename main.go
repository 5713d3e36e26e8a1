package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iainbx/hangman/internal/hangman"
	"github.com/iainbx/hangman/internal/httpserver"
	"github.com/iainbx/hangman/internal/reminder"
	"github.com/iainbx/hangman/internal/store"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := store.OpenSQLite(getEnv("DB_PATH", "./data/hangman.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	svc := hangman.New(db)
	if err := svc.Seed(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to seed word bank")
	}

	if getEnv("REMINDER_CRON_ENABLED", "true") == "true" {
		sch, err := reminder.Start(db, reminder.LogNotifier{}, getEnv("REMINDER_AT", "09:00"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to start reminder scheduler")
		}
		defer sch.Stop()
	}

	srv := httpserver.New(svc)
	port := getEnv("PORT", "8080")
	log.Info().Str("port", port).Msg("starting hangman server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
