package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	Port               string
	CacheDBPath        string
	CacheTTL           time.Duration
	CachePurgeSchedule string
	RapidAPIKey        string
	RapidAPIEndpoint   string
	RapidAPIHost       string
	SourceTimeout      time.Duration
	ScraperConcurrency int
	LogLevel           string
	LiveSources        bool
}

// Load reads an optional .env file and then the environment. Missing or
// malformed values fall back to defaults rather than failing.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port:               env("PORT", "9090"),
		CacheDBPath:        env("CACHE_DB_PATH", "./cache.db"),
		CachePurgeSchedule: env("CACHE_PURGE_SCHEDULE", "@every 1h"),
		RapidAPIKey:        os.Getenv("RAPID_API_KEY"),
		RapidAPIEndpoint:   env("RAPID_API_ENDPOINT", "https://amazon-price1.p.rapidapi.com"),
		RapidAPIHost:       env("RAPID_API_HOST", "amazon-price1.p.rapidapi.com"),
		LogLevel:           env("LOG_LEVEL", "info"),
		LiveSources:        cast.ToBool(env("LIVE_SOURCES", "true")),
	}

	cfg.CacheTTL = time.Duration(positive("CACHE_TTL_MINUTES", 1440)) * time.Minute
	cfg.SourceTimeout = time.Duration(positive("SOURCE_TIMEOUT_SECONDS", 10)) * time.Second
	cfg.ScraperConcurrency = positive("SCRAPER_CONCURRENCY", 3)

	return cfg
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func positive(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
