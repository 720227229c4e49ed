package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/gogift/internal/cart"
	"github.com/fjod/gogift/internal/catalog"
	"github.com/fjod/gogift/internal/notify"
	"github.com/fjod/gogift/internal/poller"
	"github.com/fjod/gogift/internal/store"
)

type Config struct {
	HTTPPort        string
	LogLevel        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	StoreDriver string
	CartKey     string
	StoreTTL    time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MongoURI    string
	MongoDBName string

	Postgres store.Credentials

	SQLitePath string

	CatalogURL      string
	CatalogCache    bool
	CatalogCacheTTL time.Duration
	PaymentURL      string
	OrdersURL       string
	ClientTimeout   time.Duration

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	NotificationTTL time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "memory")),
		CartKey:     getEnv("CART_KEY", cart.DefaultKey),
		StoreTTL:    getEnvDuration("STORE_TTL", 0),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "giftcart"),

		Postgres: store.Credentials{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			DBName:   getEnv("POSTGRES_DB", "giftcart"),
		},

		SQLitePath: getEnv("SQLITE_PATH", "giftcart.db"),

		CatalogURL:      getEnv("CATALOG_URL", "http://127.0.0.1:8000"),
		CatalogCache:    getEnv("CATALOG_CACHE", "off") == "redis",
		CatalogCacheTTL: getEnvDuration("CATALOG_CACHE_TTL", catalog.DefaultCacheTTL),
		PaymentURL:      getEnv("PAYMENT_URL", "http://127.0.0.1:8000"),
		OrdersURL:       getEnv("ORDERS_URL", "http://127.0.0.1:8000"),
		ClientTimeout:   getEnvDuration("CLIENT_TIMEOUT", 10*time.Second),

		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", poller.DefaultTopic),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", poller.DefaultGroupID),

		NotificationTTL: getEnvDuration("NOTIFICATION_TTL", notify.DefaultDismissAfter),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
