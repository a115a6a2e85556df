package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process-level configuration so main stays lean.
type Config struct {
	Addr           string
	JWTSigningKey  string
	AdminPrincipal string
	DatabaseURL    string
	Redis          RedisConfig
	Kafka          KafkaConfig

	// DocumentCacheTTL bounds staleness of the read-through document cache.
	DocumentCacheTTL time.Duration
}

// RedisConfig holds Redis connection settings. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds the audit stream settings. Empty brokers disable Kafka
// and audit events stay in the in-memory store.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	addr := os.Getenv("TRADELANE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	admin := os.Getenv("TRADELANE_ADMIN")
	if admin == "" {
		admin = "registry-admin"
	}

	topic := os.Getenv("TRADELANE_KAFKA_TOPIC")
	if topic == "" {
		topic = "tradelane.audit"
	}

	var brokers []string
	if raw := os.Getenv("TRADELANE_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Config{
		Addr:           addr,
		JWTSigningKey:  jwtSigningKey,
		AdminPrincipal: admin,
		DatabaseURL:    os.Getenv("TRADELANE_DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("TRADELANE_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   topic,
		},
		DocumentCacheTTL: 5 * time.Minute,
	}
}
