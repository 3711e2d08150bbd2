// Package config provides runtime configuration values for the service.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config holds configuration knobs for the HTTP server, stores and integrations.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
	LogLevel        string

	StoreDriver   string
	DatabaseURL   string
	MongoURL      string
	MongoDatabase string

	RedisAddr       string
	ProductCacheTTL time.Duration

	KafkaBrokers       []string
	ProductEventsTopic string
	OrderEventsTopic   string

	OTLPEndpoint string

	ReservationRetries int
	ReservationBackoff time.Duration
}

func defaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("shutdown_timeout_seconds", 15)
	v.SetDefault("log_level", "info")
	v.SetDefault("store_driver", DriverMemory)
	v.SetDefault("mongodb_url", "mongodb://localhost:27017/")
	v.SetDefault("database_name", "ecommerce")
	v.SetDefault("product_cache_ttl_seconds", 300)
	v.SetDefault("kafka_topic_products", "product.created")
	v.SetDefault("kafka_topic_orders", "order.placed")
	v.SetDefault("reservation_retries", 3)
	v.SetDefault("reservation_backoff_ms", 10)
}

// Load collects configuration from an optional .env file and the environment.
func Load() Config {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	defaults(v)

	addr := v.GetString("http_addr")
	if port := v.GetString("app_port"); port != "" {
		addr = ":" + port
	}

	return Config{
		HTTPAddr:           addr,
		ShutdownTimeout:    time.Duration(v.GetInt("shutdown_timeout_seconds")) * time.Second,
		LogLevel:           v.GetString("log_level"),
		StoreDriver:        strings.ToLower(v.GetString("store_driver")),
		DatabaseURL:        v.GetString("database_url"),
		MongoURL:           v.GetString("mongodb_url"),
		MongoDatabase:      v.GetString("database_name"),
		RedisAddr:          v.GetString("redis_addr"),
		ProductCacheTTL:    time.Duration(v.GetInt("product_cache_ttl_seconds")) * time.Second,
		KafkaBrokers:       splitList(v.GetString("kafka_brokers")),
		ProductEventsTopic: v.GetString("kafka_topic_products"),
		OrderEventsTopic:   v.GetString("kafka_topic_orders"),
		OTLPEndpoint:       v.GetString("otel_exporter_otlp_endpoint"),
		ReservationRetries: v.GetInt("reservation_retries"),
		ReservationBackoff: time.Duration(v.GetInt("reservation_backoff_ms")) * time.Millisecond,
	}
}

// Validate reports configuration combinations the service cannot start with.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory, DriverMongo:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.ReservationRetries < 0 {
		return fmt.Errorf("RESERVATION_RETRIES must be >= 0")
	}
	return nil
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
