package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// ErrMissingRabbitURL is returned by Load when RABBITMQ_URL is unset.
var ErrMissingRabbitURL = errors.New("config: RABBITMQ_URL is not set")

type Config struct {
	HTTPAddr    string
	ServiceName string
	LogLevel    string
	LogFormat   string
	CatalogPath string
	CORSOrigins []string

	RabbitURL      string
	OrderQueue     string
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
	ReconnectDelay time.Duration

	FulfillmentDelay time.Duration

	RedisAddr    string
	KafkaBrokers []string
}

func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":5000"),
		ServiceName: getenv("SERVICE_NAME", "bookstore"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		LogFormat:   getenv("LOG_FORMAT", "json"),
		CatalogPath: os.Getenv("CATALOG_PATH"),
		CORSOrigins: splitCSV(getenv("CORS_ORIGINS", "*")),

		RabbitURL:  strings.TrimSpace(os.Getenv("RABBITMQ_URL")),
		OrderQueue: getenv("ORDER_QUEUE", "order_processing_queue"),

		RedisAddr:    getenv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
	}

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"AMQP_CONNECT_TIMEOUT", 5 * time.Second, &cfg.ConnectTimeout},
		{"AMQP_PUBLISH_TIMEOUT", 5 * time.Second, &cfg.PublishTimeout},
		{"AMQP_RECONNECT_DELAY", 5 * time.Second, &cfg.ReconnectDelay},
		{"FULFILLMENT_DELAY", 3 * time.Second, &cfg.FulfillmentDelay},
	}
	for _, d := range durations {
		v, err := getduration(d.key, d.def)
		if err != nil {
			return cfg, err
		}
		*d.dst = v
	}

	if cfg.RabbitURL == "" {
		return cfg, ErrMissingRabbitURL
	}
	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getduration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", k, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: %s must not be negative", k)
	}
	return d, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
