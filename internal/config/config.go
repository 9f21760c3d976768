// Copyright 2025 Seth Burkart
//
// Environment-driven configuration

package config

import (
	"fmt"
	"os"
	"time"
)

// TransportType selects how MCP traffic reaches the server.
type TransportType string

const (
	// TransportStdio uses stdin/stdout for communication.
	TransportStdio TransportType = "stdio"
	// TransportHTTP uses HTTP/SSE for communication.
	TransportHTTP TransportType = "sse"
)

// Config holds the server configuration, read from OPENLP_MCP_*
// environment variables.
type Config struct {
	Transport         TransportType
	HTTPAddress       string
	CORSOrigin        string
	DownloadDir       string
	SofficePath       string
	AuditLogPath      string
	ShortTimeout      time.Duration
	LongTimeout       time.Duration
	HeartbeatInterval time.Duration
	HTTPReadTimeout   time.Duration
	HTTPWriteTimeout  time.Duration
	RateLimit         float64
	Debug             bool
}

// Load reads the configuration from the environment, applying defaults and
// validating what it finds.
func Load() (*Config, error) {
	shortTimeout, err := getEnvAsDuration("OPENLP_MCP_SHORT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	longTimeout, err := getEnvAsDuration("OPENLP_MCP_LONG_TIMEOUT", 90*time.Second)
	if err != nil {
		return nil, err
	}
	heartbeatInterval, err := getEnvAsDuration("OPENLP_MCP_HEARTBEAT_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, err
	}
	httpReadTimeout, err := getEnvAsDuration("OPENLP_MCP_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	httpWriteTimeout, err := getEnvAsDuration("OPENLP_MCP_HTTP_WRITE_TIMEOUT", 0)
	if err != nil {
		return nil, err
	}
	rateLimit, err := getEnvAsFloat("OPENLP_MCP_RATE_LIMIT", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Transport:         TransportType(getEnv("OPENLP_MCP_TRANSPORT", "sse")),
		HTTPAddress:       getEnv("OPENLP_MCP_HTTP_ADDRESS", "127.0.0.1:8765"),
		CORSOrigin:        getEnv("OPENLP_MCP_CORS_ORIGIN", "*"),
		DownloadDir:       os.Getenv("OPENLP_MCP_DOWNLOAD_DIR"),
		SofficePath:       os.Getenv("OPENLP_MCP_SOFFICE_PATH"),
		AuditLogPath:      os.Getenv("OPENLP_MCP_AUDIT_LOG"),
		ShortTimeout:      shortTimeout,
		LongTimeout:       longTimeout,
		HeartbeatInterval: heartbeatInterval,
		HTTPReadTimeout:   httpReadTimeout,
		HTTPWriteTimeout:  httpWriteTimeout,
		RateLimit:         rateLimit,
		Debug:             getEnvAsBool("OPENLP_MCP_DEBUG", false),
	}

	if cfg.Transport != TransportStdio && cfg.Transport != TransportHTTP {
		return nil, fmt.Errorf("invalid transport type: %s (must be 'stdio' or 'sse')", cfg.Transport)
	}
	if cfg.HTTPAddress == "" {
		return nil, fmt.Errorf("HTTP address cannot be empty")
	}
	if cfg.ShortTimeout <= 0 || cfg.LongTimeout <= 0 {
		return nil, fmt.Errorf("operation timeouts must be positive")
	}
	if cfg.LongTimeout < cfg.ShortTimeout {
		return nil, fmt.Errorf("long timeout %s is shorter than short timeout %s", cfg.LongTimeout, cfg.ShortTimeout)
	}
	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("rate limit cannot be negative")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	var result float64
	if _, err := fmt.Sscanf(value, "%g", &result); err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q (expected number)", key, value)
	}
	return result, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q (expected duration, e.g., '30s', '5m')", key, value)
	}
	return d, nil
}
