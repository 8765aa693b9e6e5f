package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs from the environment so main
// stays lean.
type Config struct {
	Addr          string
	DatabaseURL   string
	JWTSigningKey string

	// RemoteBaseURL points at the destination arrival-card gateway.
	RemoteBaseURL string
	RemoteTimeout time.Duration

	Redis RedisConfig

	// KafkaBrokers enables the audit stream when non-empty.
	KafkaBrokers    []string
	KafkaAuditTopic string

	Submission SubmissionConfig
}

// RedisConfig holds connection tuning for the challenge-session and
// submission-lock store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// SubmissionConfig tunes the arrival-card pipeline. Durations and counts are
// deliberate named configuration, not inferred behavior.
type SubmissionConfig struct {
	// WindowHours is the default submission window before arrival.
	// Destinations may override it per rule set.
	WindowHours int

	// PollInterval and MaxPolls bound the challenge token loop
	// (500ms x 120 polls = 60s by default).
	PollInterval time.Duration
	MaxPolls     int

	// DuplicateLookback bounds how old a prior success may be and still
	// block a new submission for the same trip.
	DuplicateLookback time.Duration

	// PersistRetries bounds the local-write retry taken when a remote
	// submission succeeded but the insert failed.
	PersistRetries int

	// LockTTL caps how long a per-entry submission lock may be held.
	LockTTL time.Duration
}

// FromEnv builds a Config from environment variables, applying development
// defaults where unset.
func FromEnv() Config {
	cfg := Config{
		Addr:          envOr("TRIPGATE_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("TRIPGATE_DATABASE_URL"),
		JWTSigningKey: envOr("TRIPGATE_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		RemoteBaseURL: envOr("TRIPGATE_REMOTE_BASE_URL", "https://gateway.invalid"),
		RemoteTimeout: envDuration("TRIPGATE_REMOTE_TIMEOUT", 30*time.Second),
		Redis: RedisConfig{
			URL:          os.Getenv("TRIPGATE_REDIS_URL"),
			PoolSize:     envInt("TRIPGATE_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("TRIPGATE_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		KafkaAuditTopic: envOr("TRIPGATE_KAFKA_AUDIT_TOPIC", "tripgate.audit"),
		Submission: SubmissionConfig{
			WindowHours:       envInt("TRIPGATE_WINDOW_HOURS", 72),
			PollInterval:      envDuration("TRIPGATE_CHALLENGE_POLL_INTERVAL", 500*time.Millisecond),
			MaxPolls:          envInt("TRIPGATE_CHALLENGE_MAX_POLLS", 120),
			DuplicateLookback: envDuration("TRIPGATE_DUPLICATE_LOOKBACK", 7*24*time.Hour),
			PersistRetries:    envInt("TRIPGATE_PERSIST_RETRIES", 3),
			LockTTL:           envDuration("TRIPGATE_SUBMIT_LOCK_TTL", 2*time.Minute),
		},
	}
	if brokers := os.Getenv("TRIPGATE_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
