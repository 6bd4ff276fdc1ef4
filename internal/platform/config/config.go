package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	strutil "listingwatch/pkg/platform/strings"
)

// Config is the full process configuration.
type Config struct {
	Server     Server
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Compliance ComplianceConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr     string
	Env      string
	LogLevel string
}

// DatabaseConfig configures PostgreSQL. An empty URL selects the in-memory store.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the check cache. An empty URL disables caching.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the complaint-pack relay. No brokers disables it.
type KafkaConfig struct {
	Brokers            []string
	ComplaintPackTopic string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
}

// ComplianceConfig tunes the compliance module.
type ComplianceConfig struct {
	CheckCacheTTL     time.Duration
	TxTimeout         time.Duration
	ReferenceDataFile string
	BatchConcurrency  int
}

// IsProduction reports whether the process runs with production defaults.
func (s Server) IsProduction() bool {
	return s.Env == "production"
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var p parser
	cfg := Config{
		Server: Server{
			Addr:     p.str("LISTINGWATCH_ADDR", ":8080"),
			Env:      p.str("APP_ENV", "development"),
			LogLevel: p.str("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:             p.str("DATABASE_URL", ""),
			MaxOpenConns:    p.integer("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    p.integer("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: p.duration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          p.str("REDIS_URL", ""),
			PoolSize:     p.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:            p.list("KAFKA_BROKERS"),
			ComplaintPackTopic: p.str("COMPLAINT_PACK_TOPIC", "complaint-packs"),
			OutboxPollInterval: p.duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
			OutboxBatchSize:    p.integer("OUTBOX_BATCH_SIZE", 100),
		},
		Compliance: ComplianceConfig{
			CheckCacheTTL:     p.duration("CHECK_CACHE_TTL", 24*time.Hour),
			TxTimeout:         p.duration("STORE_TX_TIMEOUT", 5*time.Second),
			ReferenceDataFile: p.str("REFERENCE_DATA_FILE", ""),
			BatchConcurrency:  p.integer("BATCH_CONCURRENCY", 8),
		},
	}
	if p.err != nil {
		return Config{}, p.err
	}
	if cfg.Compliance.BatchConcurrency < 1 {
		return Config{}, fmt.Errorf("BATCH_CONCURRENCY must be at least 1")
	}
	if cfg.Kafka.OutboxBatchSize < 1 {
		return Config{}, fmt.Errorf("OUTBOX_BATCH_SIZE must be at least 1")
	}
	return cfg, nil
}

// parser records the first malformed variable and keeps returning defaults.
type parser struct {
	err error
}

func (p *parser) str(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (p *parser) integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(fmt.Errorf("parse %s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(fmt.Errorf("parse %s: %w", key, err))
		return def
	}
	return d
}

func (p *parser) list(key string) []string {
	return strutil.DedupeAndTrimLower([]string{os.Getenv(key)})
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}
