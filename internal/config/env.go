package config

import (
	"os"
	"strconv"
	"time"
)

// LoadFromEnv applies environment-variable overrides on top of file
// configuration. Deployment platforms set these; files set the rest.
func LoadFromEnv(cfg *Config) {
	if port := os.Getenv("LEADSCORE_METRICS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.MetricsPort = p
		}
	}
	if level := os.Getenv("LEADSCORE_LOG_LEVEL"); level != "" {
		cfg.Server.LogLevel = level
	}
	if workers := os.Getenv("LEADSCORE_BATCH_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil {
			cfg.Engine.BatchWorkers = w
		}
	}
	if ttl := os.Getenv("LEADSCORE_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.Cache.TTL = d
		}
	}
	if file := os.Getenv("LEADSCORE_WEIGHTS_FILE"); file != "" {
		cfg.Models.WeightsFile = file
	}
}

// GetEnvOrDefault returns an environment variable or a fallback
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
