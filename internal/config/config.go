// Package config loads relay configuration from environment variables with
// an optional .env file.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the signaling relay.
type Config struct {
	// Listener settings
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool

	// Transport settings
	AllowedOrigins []string
	SendBuffer     int
	EventBuffer    int

	// Logging
	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		BindAddr:         getEnvOrDefault("RELAY_BIND_ADDR", "0.0.0.0:8095"),
		PortCandidates:   splitList(getEnvOrDefault("RELAY_PORT_CANDIDATES", "0.0.0.0:8096,0.0.0.0:8097")),
		PortAutoFallback: getEnvBoolOrDefault("RELAY_PORT_AUTO_FALLBACK", false),
		AllowedOrigins:   splitList(getEnvOrDefault("RELAY_ALLOWED_ORIGINS", "*")),
		SendBuffer:       getEnvIntOrDefault("RELAY_SEND_BUFFER", 256),
		EventBuffer:      getEnvIntOrDefault("RELAY_EVENT_BUFFER", 1024),
		LogLevel:         strings.ToLower(getEnvOrDefault("RELAY_LOG_LEVEL", "info")),
		LogFile:          getEnvOrDefault("RELAY_LOG_FILE", "logs/relay.log"),
	}

	return cfg, nil
}

// splitList parses a comma-separated value, trimming blanks.
func splitList(val string) []string {
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
