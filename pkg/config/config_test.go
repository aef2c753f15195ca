package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "REDIS_ADDR", "SESSION_TTL", "OTEL_PROBABILITY", "TLS_CERT", "TLS_KEY", "KAFKA_TOPIC", "STORE_NAME"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8443", cfg.HTTPAddr)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, 1.0, cfg.OtelProbability)
	assert.Equal(t, "bookstore.orders", cfg.KafkaTopic)
	assert.Equal(t, "Bookstore", cfg.StoreName)
	assert.False(t, cfg.TLS())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("OTEL_PROBABILITY", "0.25")
	t.Setenv("TLS_CERT", "certs/server.crt")
	t.Setenv("TLS_KEY", "certs/server.key")
	t.Setenv("SEED_BOOKS", "data/books.json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 0.25, cfg.OtelProbability)
	assert.True(t, cfg.TLS())
	assert.Equal(t, "data/books.json", cfg.SeedBooks)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad ttl", map[string]string{"SESSION_TTL": "soon"}},
		{"negative ttl", map[string]string{"SESSION_TTL": "-1m"}},
		{"bad probability", map[string]string{"OTEL_PROBABILITY": "lots"}},
		{"probability out of range", map[string]string{"OTEL_PROBABILITY": "1.5"}},
		{"cert without key", map[string]string{"TLS_CERT": "a.crt", "TLS_KEY": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
