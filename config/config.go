package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port             string
	JWTSecret        string
	JWTExpiry        int // in hours
	LogLevel         string
	MaxMessageLength int

	// Durable store. Empty MongoURI selects the in-memory store.
	MongoURI string
	MongoDB  string

	// Optional relay backplane. Empty NATSURL keeps the hub single-process.
	NATSURL string
}

func Load() Config {
	return Config{
		Port:             getEnv("PORT", "8081"),
		JWTSecret:        getEnv("JWT_SECRET", "dev-super-secret-change-me"),
		JWTExpiry:        getEnvAsInt("JWT_EXPIRY", 24),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		MaxMessageLength: getEnvAsInt("MAX_MESSAGE_LENGTH", 1000),
		MongoURI:         getEnv("MONGO_URI", ""),
		MongoDB:          getEnv("MONGO_DB", "community"),
		NATSURL:          getEnv("NATS_URL", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
