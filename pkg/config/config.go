package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string
	FirebaseProject string
	Environment     string
	StorageBucket   string

	// Deadline windows for the order state machine.
	PaymentWindow    time.Duration
	CompletionWindow time.Duration

	// Typing indicator lifetime in the presence tracker.
	TypingTTL time.Duration
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		FirebaseProject:  getEnv("FIREBASE_PROJECT_ID", ""),
		Environment:      getEnv("ENVIRONMENT", "development"),
		StorageBucket:    getEnv("STORAGE_BUCKET", ""),
		PaymentWindow:    time.Duration(getEnvAsInt64("PAYMENT_WINDOW_MINUTES", 30)) * time.Minute,
		CompletionWindow: time.Duration(getEnvAsInt64("COMPLETION_WINDOW_MINUTES", 30)) * time.Minute,
		TypingTTL:        time.Duration(getEnvAsInt64("TYPING_TTL_MS", 1000)) * time.Millisecond,
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
