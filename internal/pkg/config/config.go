// Package config loads the storefront settings from environment variables.
package config

import (
	"os"
	"strconv"
)

type Config struct {
	ServiceName string
	LogLevel    string

	HTTPPort int
	GRPCPort int

	// StoreBackend selects the cart key-value store: "sqlite", "redis" or "memory".
	StoreBackend string
	SQLitePath   string
	RedisAddr    string

	// CatalogPath points at a menu page (.html) or spreadsheet (.xlsx).
	// Empty means the embedded default menu.
	CatalogPath string
	// StaticDir is served under /static/ for product images.
	StaticDir string

	WhatsAppNumber string
	StoreName      string
	Timezone       string

	TracingEnabled bool
	OTLPEndpoint   string
}

func Load() Config {
	return Config{
		ServiceName:    getEnv("OTEL_SERVICE_NAME", "storefront"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		HTTPPort:       getEnvInt("HTTP_PORT", 8080),
		GRPCPort:       getEnvInt("GRPC_PORT", 9090),
		StoreBackend:   getEnv("STORE_BACKEND", "sqlite"),
		SQLitePath:     getEnv("SQLITE_PATH", "./data/storefront.db"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		CatalogPath:    getEnv("CATALOG_PATH", ""),
		StaticDir:      getEnv("STATIC_DIR", "./static"),
		WhatsAppNumber: getEnv("WHATSAPP_NUMBER", "5598985197515"),
		StoreName:      getEnv("STORE_NAME", "COXINHAS DELIVERY"),
		Timezone:       getEnv("TIMEZONE", "America/Fortaleza"),
		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
