// Package main is the entry point for the auth service. It reads
// configuration, builds the logger, and hands everything to the server
// package — no logic lives here.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/medibook/auth-service/internal/server"
)

func main() {
	// .env is a development convenience; in deployment the variables come
	// from the environment and the file is simply absent.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := server.Config{
		Port:               envInt("PORT", 8080, logger),
		DBPath:             envStr("DB_PATH", "data/auth.db"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		SessionTTL:         envDuration("SESSION_TTL", 24*time.Hour, logger),
		BcryptCost:         envInt("BCRYPT_COST", 10, logger),
		ResetTokenTTL:      envDuration("RESET_TOKEN_TTL", 15*time.Minute, logger),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  os.Getenv("GOOGLE_CALLBACK_URL"),
		NotifyURL:          os.Getenv("NOTIFY_URL"),
	}

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is not set; generate one with `openssl rand -hex 32`")
		os.Exit(1)
	}
	if cfg.GoogleClientID == "" {
		logger.Warn("GOOGLE_CLIENT_ID not set — Google sign-in will reject all exchanges")
	}
	if cfg.NotifyURL == "" {
		logger.Warn("NOTIFY_URL not set — lifecycle notifications are disabled")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		logger.Error("failed to create database directory", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int, logger *slog.Logger) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Error("invalid integer in environment", slog.String("key", key), slog.String("value", v))
		os.Exit(1)
	}
	return n
}

func envDuration(key string, fallback time.Duration, logger *slog.Logger) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Error("invalid duration in environment", slog.String("key", key), slog.String("value", v))
		os.Exit(1)
	}
	return d
}
