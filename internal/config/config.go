package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	AppEnv   string
	Debug    bool
	Version  string
	BotToken string

	// Chat identities. Channels may be @usernames or numeric ids; groups are
	// resolved at startup by the channel snapshot.
	AcceptChannel string
	RejectChannel string
	ReviewGroup   string
	CommentGroup  string
	SubGroup      string

	SentryDSN     string
	MongoURI      string
	MongoDatabase string

	DefaultLanguage string
	StatsBatchSize  int
}

// Load reads configuration from environment variables. A .env file is
// loaded when present, but real environment variables take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	debug, _ := strconv.ParseBool(getEnv("DEBUG", "false"))

	batchSize := 10
	if raw := getEnv("STATS_BATCH_SIZE", ""); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("invalid STATS_BATCH_SIZE: %q", raw)
		}
		batchSize = parsed
	}

	cfg := &Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		Debug:           debug,
		Version:         getEnv("VERSION", "dev"),
		BotToken:        getEnv("TELEGRAM_BOT_TOKEN", ""),
		AcceptChannel:   getEnv("ACCEPT_CHANNEL", ""),
		RejectChannel:   getEnv("REJECT_CHANNEL", ""),
		ReviewGroup:     getEnv("REVIEW_GROUP", ""),
		CommentGroup:    getEnv("COMMENT_GROUP", ""),
		SubGroup:        getEnv("SUB_GROUP", ""),
		SentryDSN:       getEnv("SENTRY_DSN", ""),
		MongoURI:        getEnv("MONGODB_URI", ""),
		MongoDatabase:   getEnv("MONGODB_DATABASE", ""),
		DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "en"),
		StatsBatchSize:  batchSize,
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.AcceptChannel == "" {
		return nil, fmt.Errorf("ACCEPT_CHANNEL is required")
	}
	if cfg.RejectChannel == "" {
		return nil, fmt.Errorf("REJECT_CHANNEL is required")
	}
	if cfg.ReviewGroup == "" {
		return nil, fmt.Errorf("REVIEW_GROUP is required")
	}
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if cfg.MongoDatabase == "" {
		return nil, fmt.Errorf("MONGODB_DATABASE is required")
	}
	if cfg.SentryDSN == "" {
		log.Println("Warning: SENTRY_DSN is not set. Error tracking disabled.")
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
