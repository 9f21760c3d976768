// Copyright 2025 Seth Burkart
//
// Audit logging for tool invocations

package server

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// AuditLogger writes one structured JSON record per tool invocation: tool
// name, redacted arguments, outcome, and duration. A nil or disabled
// logger is safe to call and does nothing.
type AuditLogger struct {
	logger  *slog.Logger
	file    *os.File
	enabled bool
	mu      sync.RWMutex
}

// Argument keys whose values never reach the audit log. Matching is
// case-insensitive and includes substring hits, so "db_password" and
// "Authorization" are both caught.
var redactedKeys = map[string]bool{
	"password":   true,
	"secret":     true,
	"token":      true,
	"api_key":    true,
	"apikey":     true,
	"credential": true,
	"auth":       true,
	"passphrase": true,
	"cookie":     true,
}

// NewAuditLogger opens (or creates) the audit log at filePath. An empty
// path disables audit logging.
func NewAuditLogger(filePath string) (*AuditLogger, error) {
	if filePath == "" {
		return &AuditLogger{enabled: false}, nil
	}

	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return &AuditLogger{
		logger:  slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelInfo})),
		file:    file,
		enabled: true,
	}, nil
}

// Close closes the underlying file. Safe to call on a disabled logger.
func (a *AuditLogger) Close() error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file != nil {
		return a.file.Close()
	}
	return nil
}

// IsEnabled reports whether records are being written.
func (a *AuditLogger) IsEnabled() bool {
	if a == nil {
		return false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// LogToolCall records one invocation with sensitive argument values
// redacted.
func (a *AuditLogger) LogToolCall(tool string, args json.RawMessage, status string, duration time.Duration) {
	if !a.IsEnabled() {
		return
	}

	a.mu.RLock()
	logger := a.logger
	a.mu.RUnlock()
	if logger == nil {
		return
	}

	logger.Info("tool_invocation",
		slog.String("tool", tool),
		slog.String("arguments", redactArguments(args)),
		slog.String("status", status),
		slog.Float64("duration_seconds", duration.Seconds()),
	)
}

func redactArguments(args json.RawMessage) string {
	if len(args) == 0 {
		return "{}"
	}

	var parsed map[string]any
	if err := json.Unmarshal(args, &parsed); err != nil {
		return "[unparseable]"
	}

	redactMapValues(parsed)

	redacted, err := json.Marshal(parsed)
	if err != nil {
		return "[error]"
	}
	return string(redacted)
}

func redactMapValues(m map[string]any) {
	for key, value := range m {
		lowerKey := strings.ToLower(key)
		redact := redactedKeys[lowerKey]
		if !redact {
			for k := range redactedKeys {
				if strings.Contains(lowerKey, k) {
					redact = true
					break
				}
			}
		}
		if redact {
			m[key] = "[REDACTED]"
			continue
		}

		switch v := value.(type) {
		case map[string]any:
			redactMapValues(v)
		case []any:
			for _, item := range v {
				if nested, ok := item.(map[string]any); ok {
					redactMapValues(nested)
				}
			}
		}
	}
}
