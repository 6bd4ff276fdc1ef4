package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LISTINGWATCH_ADDR", "APP_ENV", "DATABASE_URL", "KAFKA_BROKERS",
		"COMPLAINT_PACK_TOPIC", "CHECK_CACHE_TTL", "STORE_TX_TIMEOUT", "BATCH_CONCURRENCY",
		"OUTBOX_BATCH_SIZE",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.False(t, cfg.Server.IsProduction())
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "complaint-packs", cfg.Kafka.ComplaintPackTopic)
	assert.Equal(t, 24*time.Hour, cfg.Compliance.CheckCacheTTL)
	assert.Equal(t, 5*time.Second, cfg.Compliance.TxTimeout)
	assert.Equal(t, 8, cfg.Compliance.BatchConcurrency)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LISTINGWATCH_ADDR", ":9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,kafka-1:9092")
	t.Setenv("CHECK_CACHE_TTL", "1h")
	t.Setenv("BATCH_CONCURRENCY", "2")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.True(t, cfg.Server.IsProduction())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, time.Hour, cfg.Compliance.CheckCacheTTL)
	assert.Equal(t, 2, cfg.Compliance.BatchConcurrency)
}

func TestFromEnvRejectsMalformedValues(t *testing.T) {
	tests := map[string]string{
		"STORE_TX_TIMEOUT":  "soon",
		"BATCH_CONCURRENCY": "many",
		"OUTBOX_BATCH_SIZE": "0",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
