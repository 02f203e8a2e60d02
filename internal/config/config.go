package config

import (
	"os"
	"strconv"
)

type Config struct {
	ServerPort string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	RedisURL   string
	JWTSecret  string

	// ArchiveRetentionDays is how old a message must be before the
	// daily sweep moves it to cold storage.
	ArchiveRetentionDays int
	// CacheTTLMinutes and CacheThreadLimit bound the redis shadow of an
	// active conversation.
	CacheTTLMinutes  int
	CacheThreadLimit int
}

func Load() *Config {
	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "messaging"),
		DBPassword: getEnv("DB_PASSWORD", "messaging_dev_password"),
		DBName:     getEnv("DB_NAME", "messaging"),
		RedisURL:   getEnv("REDIS_URL", "localhost:6379"),
		JWTSecret:  getEnv("JWT_SECRET", "dev-secret-change-me"),

		ArchiveRetentionDays: getEnvInt("ARCHIVE_RETENTION_DAYS", 360),
		CacheTTLMinutes:      getEnvInt("CACHE_TTL_MINUTES", 10),
		CacheThreadLimit:     getEnvInt("CACHE_THREAD_LIMIT", 100),
	}
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}
