// Copyright 2025 Seth Burkart
//
// Audit logger tests

package server

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAuditLogger_Disabled(t *testing.T) {
	audit, err := NewAuditLogger("")
	if err != nil {
		t.Fatal(err)
	}
	if audit.IsEnabled() {
		t.Error("empty path should disable audit logging")
	}

	// Calls on a disabled logger are no-ops.
	audit.LogToolCall("create_new_service", nil, "ok", time.Millisecond)
	if err := audit.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	var nilLogger *AuditLogger
	if nilLogger.IsEnabled() {
		t.Error("nil logger should report disabled")
	}
	if err := nilLogger.Close(); err != nil {
		t.Errorf("nil Close() error = %v", err)
	}
}

func TestAuditLogger_WritesRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	audit, err := NewAuditLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	defer audit.Close()

	if !audit.IsEnabled() {
		t.Fatal("logger should be enabled")
	}

	args := json.RawMessage(`{"file_path":"/tmp/x.osz","api_key":"hunter2"}`)
	audit.LogToolCall("load_service", args, "ok", 42*time.Millisecond)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("audit record is not JSON: %v", err)
	}
	if record["tool"] != "load_service" {
		t.Errorf("tool = %v", record["tool"])
	}
	if record["status"] != "ok" {
		t.Errorf("status = %v", record["status"])
	}
	arguments, _ := record["arguments"].(string)
	if !strings.Contains(arguments, "/tmp/x.osz") {
		t.Errorf("arguments lost non-sensitive value: %q", arguments)
	}
	if strings.Contains(arguments, "hunter2") {
		t.Errorf("arguments leaked a redacted value: %q", arguments)
	}
	if !strings.Contains(arguments, "[REDACTED]") {
		t.Errorf("arguments missing redaction marker: %q", arguments)
	}
}

func TestRedactArguments(t *testing.T) {
	tests := []struct {
		name string
		args string
		want []string
		deny []string
	}{
		{
			name: "empty",
			args: "",
			want: []string{"{}"},
		},
		{
			name: "unparseable",
			args: "not json",
			want: []string{"[unparseable]"},
		},
		{
			name: "substring key match",
			args: `{"db_password":"s3cret","title":"Hymn"}`,
			want: []string{"[REDACTED]", "Hymn"},
			deny: []string{"s3cret"},
		},
		{
			name: "case insensitive",
			args: `{"Authorization":"Bearer abc"}`,
			want: []string{"[REDACTED]"},
			deny: []string{"Bearer abc"},
		},
		{
			name: "nested objects",
			args: `{"options":{"token":"tok123","depth":2}}`,
			want: []string{"[REDACTED]"},
			deny: []string{"tok123"},
		},
		{
			name: "objects in arrays",
			args: `{"entries":[{"secret":"shh"},{"name":"ok"}]}`,
			want: []string{"[REDACTED]", "ok"},
			deny: []string{"shh"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := redactArguments(json.RawMessage(tt.args))
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("redactArguments() = %q, want containing %q", got, want)
				}
			}
			for _, deny := range tt.deny {
				if strings.Contains(got, deny) {
					t.Errorf("redactArguments() = %q, must not contain %q", got, deny)
				}
			}
		})
	}
}
