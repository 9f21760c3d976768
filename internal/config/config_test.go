// Copyright 2025 Seth Burkart
//
// Configuration unit tests

package config

import (
	"strings"
	"testing"
	"time"
)

// clearEnv unsets every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENLP_MCP_TRANSPORT",
		"OPENLP_MCP_HTTP_ADDRESS",
		"OPENLP_MCP_CORS_ORIGIN",
		"OPENLP_MCP_DOWNLOAD_DIR",
		"OPENLP_MCP_SOFFICE_PATH",
		"OPENLP_MCP_AUDIT_LOG",
		"OPENLP_MCP_SHORT_TIMEOUT",
		"OPENLP_MCP_LONG_TIMEOUT",
		"OPENLP_MCP_HEARTBEAT_INTERVAL",
		"OPENLP_MCP_HTTP_READ_TIMEOUT",
		"OPENLP_MCP_HTTP_WRITE_TIMEOUT",
		"OPENLP_MCP_RATE_LIMIT",
		"OPENLP_MCP_DEBUG",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Transport != TransportHTTP {
		t.Errorf("Transport = %s, want sse", cfg.Transport)
	}
	if cfg.HTTPAddress != "127.0.0.1:8765" {
		t.Errorf("HTTPAddress = %s, want 127.0.0.1:8765", cfg.HTTPAddress)
	}
	if cfg.CORSOrigin != "*" {
		t.Errorf("CORSOrigin = %s, want *", cfg.CORSOrigin)
	}
	if cfg.ShortTimeout != 10*time.Second {
		t.Errorf("ShortTimeout = %v, want 10s", cfg.ShortTimeout)
	}
	if cfg.LongTimeout != 90*time.Second {
		t.Errorf("LongTimeout = %v, want 90s", cfg.LongTimeout)
	}
	if cfg.HeartbeatInterval != 15*time.Second {
		t.Errorf("HeartbeatInterval = %v, want 15s", cfg.HeartbeatInterval)
	}
	if cfg.HTTPReadTimeout != 30*time.Second {
		t.Errorf("HTTPReadTimeout = %v, want 30s", cfg.HTTPReadTimeout)
	}
	if cfg.HTTPWriteTimeout != 0 {
		t.Errorf("HTTPWriteTimeout = %v, want 0", cfg.HTTPWriteTimeout)
	}
	if cfg.RateLimit != 0 {
		t.Errorf("RateLimit = %g, want 0", cfg.RateLimit)
	}
	if cfg.DownloadDir != "" || cfg.SofficePath != "" || cfg.AuditLogPath != "" {
		t.Errorf("path overrides should default empty: %q %q %q",
			cfg.DownloadDir, cfg.SofficePath, cfg.AuditLogPath)
	}
	if cfg.Debug {
		t.Error("Debug should default to false")
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENLP_MCP_TRANSPORT", "stdio")
	t.Setenv("OPENLP_MCP_HTTP_ADDRESS", "127.0.0.1:9999")
	t.Setenv("OPENLP_MCP_DOWNLOAD_DIR", "/var/cache/openlp-mcp")
	t.Setenv("OPENLP_MCP_SOFFICE_PATH", "/opt/libreoffice/soffice")
	t.Setenv("OPENLP_MCP_AUDIT_LOG", "/var/log/openlp-mcp-audit.log")
	t.Setenv("OPENLP_MCP_SHORT_TIMEOUT", "5s")
	t.Setenv("OPENLP_MCP_LONG_TIMEOUT", "2m")
	t.Setenv("OPENLP_MCP_RATE_LIMIT", "25")
	t.Setenv("OPENLP_MCP_DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Transport != TransportStdio {
		t.Errorf("Transport = %s, want stdio", cfg.Transport)
	}
	if cfg.HTTPAddress != "127.0.0.1:9999" {
		t.Errorf("HTTPAddress = %s", cfg.HTTPAddress)
	}
	if cfg.DownloadDir != "/var/cache/openlp-mcp" {
		t.Errorf("DownloadDir = %s", cfg.DownloadDir)
	}
	if cfg.SofficePath != "/opt/libreoffice/soffice" {
		t.Errorf("SofficePath = %s", cfg.SofficePath)
	}
	if cfg.AuditLogPath != "/var/log/openlp-mcp-audit.log" {
		t.Errorf("AuditLogPath = %s", cfg.AuditLogPath)
	}
	if cfg.ShortTimeout != 5*time.Second {
		t.Errorf("ShortTimeout = %v, want 5s", cfg.ShortTimeout)
	}
	if cfg.LongTimeout != 2*time.Minute {
		t.Errorf("LongTimeout = %v, want 2m", cfg.LongTimeout)
	}
	if cfg.RateLimit != 25 {
		t.Errorf("RateLimit = %g, want 25", cfg.RateLimit)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
}

func TestLoad_BoolParsing(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"1", true},
		{"yes", true},
		{"false", false},
		{"0", false},
		{"banana", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("OPENLP_MCP_DEBUG", tt.value)
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Debug != tt.want {
				t.Errorf("Debug = %v, want %v", cfg.Debug, tt.want)
			}
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantMsg string
	}{
		{
			name:    "bad transport",
			key:     "OPENLP_MCP_TRANSPORT",
			value:   "carrier-pigeon",
			wantMsg: "invalid transport type",
		},
		{
			name:    "bad duration",
			key:     "OPENLP_MCP_SHORT_TIMEOUT",
			value:   "soonish",
			wantMsg: "expected duration",
		},
		{
			name:    "bad rate limit",
			key:     "OPENLP_MCP_RATE_LIMIT",
			value:   "many",
			wantMsg: "expected number",
		},
		{
			name:    "negative rate limit",
			key:     "OPENLP_MCP_RATE_LIMIT",
			value:   "-5",
			wantMsg: "cannot be negative",
		},
		{
			name:    "long shorter than short",
			key:     "OPENLP_MCP_LONG_TIMEOUT",
			value:   "1s",
			wantMsg: "shorter than",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if err == nil {
				t.Fatal("Load() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want containing %q", err, tt.wantMsg)
			}
		})
	}
}
