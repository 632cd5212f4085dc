package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TransportLog   = "log"
	TransportKafka = "kafka"
)

type Config struct {
	DatabaseURL string
	RedisURL    string
	JWTSecret   string
	AdminToken  string
	ServerPort  string

	KafkaBrokers      []string
	KafkaInboundTopic string
	KafkaAlertTopic   string
	KafkaGroupID      string

	RulesFile       string
	ThrottleWindow  time.Duration
	DefaultTimezone *time.Location
	AlertTransport  string

	CORSAllowedOrigins []string
}

func Load() (*Config, error) {
	godotenv.Load()

	window, err := time.ParseDuration(getEnv("THROTTLE_WINDOW", "30m"))
	if err != nil {
		return nil, fmt.Errorf("THROTTLE_WINDOW: %w", err)
	}
	if window <= 0 {
		return nil, fmt.Errorf("THROTTLE_WINDOW must be positive, got %s", window)
	}

	loc, err := time.LoadLocation(getEnv("DEFAULT_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_TIMEZONE: %w", err)
	}

	transport := strings.ToLower(getEnv("ALERT_TRANSPORT", TransportLog))
	if transport != TransportLog && transport != TransportKafka {
		return nil, fmt.Errorf("ALERT_TRANSPORT must be %q or %q, got %q", TransportLog, TransportKafka, transport)
	}

	cfg := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		JWTSecret:          getEnv("JWT_SECRET", "secret"),
		AdminToken:         getEnv("ADMIN_TOKEN", ""),
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		KafkaBrokers:       splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaInboundTopic:  getEnv("KAFKA_INBOUND_TOPIC", "lead-messages"),
		KafkaAlertTopic:    getEnv("KAFKA_ALERT_TOPIC", "lead-alerts"),
		KafkaGroupID:       getEnv("KAFKA_GROUP_ID", "lead-signal-worker"),
		RulesFile:          getEnv("RULES_FILE", ""),
		ThrottleWindow:     window,
		DefaultTimezone:    loc,
		AlertTransport:     transport,
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	if cfg.AlertTransport == TransportKafka && len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("ALERT_TRANSPORT=kafka requires KAFKA_BROKERS")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
