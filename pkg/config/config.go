// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	ServiceName = "bookstore"

	defaultHTTPAddr   = ":8443"
	defaultRedisAddr  = "localhost:6379"
	defaultSessionTTL = time.Hour
	defaultKafkaTopic = "bookstore.orders"
	defaultStoreName  = "Bookstore"
)

// Config holds everything main needs to assemble the service.
type Config struct {
	HTTPAddr string
	TLSCert  string
	TLSKey   string

	RedisAddr  string
	SessionTTL time.Duration

	DatabaseURL  string
	SeedBooks    string
	SeedAccounts string

	KafkaBroker string
	KafkaTopic  string

	OtelHost        string
	OtelProbability float64
	LogLevel        string

	StoreName    string
	StoreAddress string
}

// Load reads the configuration, applying defaults for unset variables.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:     getenv("HTTP_ADDR", defaultHTTPAddr),
		TLSCert:      os.Getenv("TLS_CERT"),
		TLSKey:       os.Getenv("TLS_KEY"),
		RedisAddr:    getenv("REDIS_ADDR", defaultRedisAddr),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		SeedBooks:    os.Getenv("SEED_BOOKS"),
		SeedAccounts: os.Getenv("SEED_ACCOUNTS"),
		KafkaBroker:  os.Getenv("KAFKA_BROKER"),
		KafkaTopic:   getenv("KAFKA_TOPIC", defaultKafkaTopic),
		OtelHost:     os.Getenv("OTEL_HOST"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		StoreName:    getenv("STORE_NAME", defaultStoreName),
		StoreAddress: os.Getenv("STORE_ADDRESS"),
	}

	ttl, err := time.ParseDuration(getenv("SESSION_TTL", defaultSessionTTL.String()))
	if err != nil {
		return nil, fmt.Errorf("SESSION_TTL: %w", err)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", ttl)
	}
	cfg.SessionTTL = ttl

	p, err := strconv.ParseFloat(getenv("OTEL_PROBABILITY", "1.0"), 64)
	if err != nil {
		return nil, fmt.Errorf("OTEL_PROBABILITY: %w", err)
	}
	if p < 0 || p > 1 {
		return nil, fmt.Errorf("OTEL_PROBABILITY must be within [0,1], got %v", p)
	}
	cfg.OtelProbability = p

	if (cfg.TLSCert == "") != (cfg.TLSKey == "") {
		return nil, fmt.Errorf("TLS_CERT and TLS_KEY must be set together")
	}
	return cfg, nil
}

// TLS reports whether the server should terminate TLS itself.
func (c *Config) TLS() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
