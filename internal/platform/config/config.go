package config

import (
	"os"
	"time"
)

// Config captures process configuration. It is built once at startup and
// handed to constructors; nothing reads the environment afterwards.
type Config struct {
	Addr string

	RedisURL          string
	RedisDialTimeout  time.Duration
	RedisReadTimeout  time.Duration
	RedisWriteTimeout time.Duration

	Salt       string
	AdminSalt  string
	AdminLogin string

	ScoreCacheTTL time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Addr:              getenv("SCORING_ADDR", ":8080"),
		RedisURL:          getenv("SCORING_REDIS_URL", "redis://localhost:6379/0"),
		RedisDialTimeout:  5 * time.Second,
		RedisReadTimeout:  5 * time.Second,
		RedisWriteTimeout: 5 * time.Second,
		Salt:              getenv("SCORING_SALT", "Otus"),
		AdminSalt:         getenv("SCORING_ADMIN_SALT", "42"),
		AdminLogin:        getenv("SCORING_ADMIN_LOGIN", "admin"),
		ScoreCacheTTL:     getenvDuration("SCORING_SCORE_CACHE_TTL", 30*time.Second),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
