// Package config loads application settings from environment
// variables. Every variable carries the STASH_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	DatabasePath string // path to the SQLite database file

	// Revisit scheduling
	DefaultReviewIntervalDays int            // interval assigned at bookmark creation (0 = unscheduled)
	DayBoundary               *time.Location // zone whose midnight defines "start of day"

	// Metadata fetcher
	MetadataTimeout time.Duration // upper bound for one page fetch

	// Background summaries
	SummaryQueueSize int    // pending summary jobs before dispatch starts dropping
	SummaryAPIKey    string // empty disables AI summaries
	SummaryAPIURL    string // OpenAI-compatible chat completions endpoint
	SummaryModel     string
	SummaryTimeout   time.Duration // upper bound for one completion call

	// Optional YAML bookmark import, run once at startup
	ImportFile  string
	ImportOwner string // email of the account the import belongs to

	// Sessions (Redis)
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDialTimeout    time.Duration
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, grows exponentially
	RedisMaxWait        time.Duration // cap on the wait between retries
	RedisPingTimeout    time.Duration
	RedisPoolSize       int
	SessionTTL          time.Duration

	// HTTP
	CORSOrigin      string // browser origin allowed to send credentials
	LoginRateBurst  int    // token bucket size for auth endpoints
	LoginRatePerMin int    // tokens refilled per IP per minute
}

func Load() *Config {
	cfg := &Config{
		ListenPort:      getenv("STASH_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("STASH_SHUTDOWN_TIMEOUT", 5*time.Second),

		LogLevel:  getenv("STASH_LOG_LEVEL", "info"),
		PrettyLog: mustBool("STASH_PRETTY_LOG", false),

		DatabasePath: getenv("STASH_DATABASE_PATH", "./data/stashspark.db"),

		DefaultReviewIntervalDays: getenvInt("STASH_DEFAULT_REVIEW_INTERVAL_DAYS", 3),
		DayBoundary:               mustLocation("STASH_DAY_BOUNDARY_TZ", time.UTC),

		MetadataTimeout:  mustDuration("STASH_METADATA_TIMEOUT", 10*time.Second),
		SummaryQueueSize: getenvInt("STASH_SUMMARY_QUEUE_SIZE", 64),
		SummaryAPIKey:    getenv("STASH_SUMMARY_API_KEY", ""),
		SummaryAPIURL:    getenv("STASH_SUMMARY_API_URL", "https://api.openai.com/v1/chat/completions"),
		SummaryModel:     getenv("STASH_SUMMARY_MODEL", "gpt-3.5-turbo"),
		SummaryTimeout:   mustDuration("STASH_SUMMARY_TIMEOUT", 30*time.Second),

		ImportFile:  getenv("STASH_IMPORT_FILE", ""),
		ImportOwner: getenv("STASH_IMPORT_OWNER", ""),

		RedisAddr:           requireEnv("STASH_REDIS_ADDR"),
		RedisUser:           getenv("STASH_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("STASH_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("STASH_REDIS_DB", 0),
		RedisDialTimeout:    mustDuration("STASH_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisConnectTimeout: mustDuration("STASH_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("STASH_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisMaxWait:        mustDuration("STASH_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("STASH_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("STASH_REDIS_POOL_SIZE", 10),
		SessionTTL:          mustDuration("STASH_SESSION_TTL", 7*24*time.Hour),

		CORSOrigin:      getenv("STASH_CORS_ORIGIN", "http://localhost:5173"),
		LoginRateBurst:  getenvInt("STASH_LOGIN_RATE_BURST", 10),
		LoginRatePerMin: getenvInt("STASH_LOGIN_RATE_PER_MIN", 5),
	}

	if cfg.DefaultReviewIntervalDays < 0 {
		panic(fmt.Sprintf("FATAL: STASH_DEFAULT_REVIEW_INTERVAL_DAYS must be >= 0, got %d", cfg.DefaultReviewIntervalDays))
	}
	if cfg.ImportFile != "" && cfg.ImportOwner == "" {
		panic("FATAL: STASH_IMPORT_OWNER is required when STASH_IMPORT_FILE is set")
	}

	return cfg
}

// helpers

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("FATAL: required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// mustLocation resolves an IANA zone name. An unknown zone is a hard
// failure: silently falling back would shift every day boundary.
func mustLocation(key string, def *time.Location) *time.Location {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	loc, err := time.LoadLocation(v)
	if err != nil {
		panic(fmt.Sprintf("FATAL: invalid timezone %q in %s: %v", v, key, err))
	}
	return loc
}
