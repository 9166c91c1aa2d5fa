// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"os"
	"strconv"
)

// Config はアプリケーション設定を表す。
type Config struct {
	DatabaseURL        string
	DatabaseType       string
	ResourceRoot       string
	LogLevel           string
	GoogleCloudProject string
	OtelEnabled        bool
	OtelEndpoint       string
	OtelServiceName    string
	OtelSamplingRate   float64
}

// Load は環境変数から設定を読み込む。
func Load() *Config {
	samplingRate, err := strconv.ParseFloat(getEnv("OTEL_SAMPLING_RATE", "1.0"), 64)
	if err != nil {
		samplingRate = 1.0
	}

	return &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DatabaseType:       getEnv("DATABASE_TYPE", "postgresql"),
		ResourceRoot:       getEnv("RESOURCE_ROOT", "."),
		LogLevel:           getEnv("LOG_LEVEL", "INFO"),
		GoogleCloudProject: os.Getenv("GOOGLE_CLOUD_PROJECT"),
		OtelEnabled:        getEnv("OTEL_ENABLED", "false") == "true",
		OtelEndpoint:       getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
		OtelServiceName:    getEnv("OTEL_SERVICE_NAME", "schematool"),
		OtelSamplingRate:   samplingRate,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
