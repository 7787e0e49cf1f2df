package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process-level configuration. Memory stores are used when no
// Postgres DSN is configured, which keeps local development and unit tests
// free of infrastructure.
type Config struct {
	Addr          string
	PostgresDSN   string
	RedisURL      string
	KafkaBrokers  []string
	AuditTopic    string
	JWTSigningKey string
	ScanLockTTL   time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:          getenv("CUSTOS_ADDR", ":8080"),
		PostgresDSN:   os.Getenv("CUSTOS_POSTGRES_DSN"),
		RedisURL:      os.Getenv("CUSTOS_REDIS_URL"),
		AuditTopic:    getenv("CUSTOS_AUDIT_TOPIC", "custos.audit"),
		JWTSigningKey: os.Getenv("CUSTOS_JWT_SIGNING_KEY"),
		ScanLockTTL:   5 * time.Minute,
	}
	if brokers := os.Getenv("CUSTOS_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	if cfg.JWTSigningKey == "" {
		// Development default; must be overridden in any real deployment.
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	if ttl, err := time.ParseDuration(os.Getenv("CUSTOS_SCAN_LOCK_TTL")); err == nil && ttl > 0 {
		cfg.ScanLockTTL = ttl
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
