package config

import (
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	HTTPPort string

	DBUsername string
	DBPassword string
	DBHost     string
	DBPort     string
	DBDatabase string
	DBSchema   string

	GatewayBaseURL   string
	GatewaySecretKey string
	GatewayTimeout   time.Duration

	SuccessURL string
	CancelURL  string

	ReconcileInterval time.Duration
	ReconcileAfter    time.Duration
}

func Load() Config {
	return Config{
		HTTPPort: getenv("STOREFRONT_HTTP_PORT", "8080"),

		DBUsername: os.Getenv("STOREFRONT_DB_USERNAME"),
		DBPassword: os.Getenv("STOREFRONT_DB_PASSWORD"),
		DBHost:     getenv("STOREFRONT_DB_HOST", "localhost"),
		DBPort:     getenv("STOREFRONT_DB_PORT", "5432"),
		DBDatabase: getenv("STOREFRONT_DB_DATABASE", "storefront"),
		DBSchema:   getenv("STOREFRONT_DB_SCHEMA", "public"),

		GatewayBaseURL:   getenv("STOREFRONT_GATEWAY_URL", "https://api.fastpay.test"),
		GatewaySecretKey: os.Getenv("STOREFRONT_GATEWAY_SECRET_KEY"),
		GatewayTimeout:   getenvDuration("STOREFRONT_GATEWAY_TIMEOUT_SECONDS", 10*time.Second),

		SuccessURL: getenv("STOREFRONT_SUCCESS_URL", "http://localhost:3000/checkout/success"),
		CancelURL:  getenv("STOREFRONT_CANCEL_URL", "http://localhost:3000/checkout/cancel"),

		ReconcileInterval: getenvDuration("STOREFRONT_RECONCILE_INTERVAL_SECONDS", 60*time.Second),
		ReconcileAfter:    getenvDuration("STOREFRONT_RECONCILE_AFTER_SECONDS", 15*time.Minute),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
