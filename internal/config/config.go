package config

import (
	"os"
	"strconv"
)

type Config struct {
	Addr    string
	DataDir string

	// Store: "file" (défaut) ou "redis".
	Store         string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// RetentionDays: 0 = ne garder que les dates d'aujourd'hui et au-delà.
	RetentionDays int

	AuthFile string
}

func Default() Config {
	return Config{
		Addr:          envOr("PW_ADDR", "127.0.0.1:8080"),
		DataDir:       envOr("PW_DATA_DIR", "data"),
		Store:         envOr("PW_STORE", "file"),
		RedisAddr:     envOr("PW_REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("PW_REDIS_PASSWORD"),
		RedisDB:       envIntOr("PW_REDIS_DB", 0),
		RetentionDays: envIntOr("PW_RETENTION_DAYS", 0),
		AuthFile:      envOr("PW_AUTH_FILE", "auth.secret"),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
