// Copyright 2025 Seth Burkart
//
// Stdio transport tests

package transport

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestStdioTransport_ReadMessage(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantMethod string
		wantErr    string
	}{
		{
			name:       "valid request",
			input:      `{"jsonrpc":"2.0","id":1,"method":"tools/list"}` + "\n",
			wantMethod: "tools/list",
		},
		{
			name:    "empty line",
			input:   "\n",
			wantErr: "empty line",
		},
		{
			name:    "invalid json",
			input:   "not json\n",
			wantErr: "failed to parse JSON",
		},
		{
			name:    "eof",
			input:   "",
			wantErr: "stdin closed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewStdioTransport(strings.NewReader(tt.input), &bytes.Buffer{})
			msg, err := tr.ReadMessage()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("ReadMessage() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadMessage() error = %v", err)
			}
			if msg.Method != tt.wantMethod {
				t.Errorf("Method = %q, want %q", msg.Method, tt.wantMethod)
			}
		})
	}
}

func TestStdioTransport_WriteMessage(t *testing.T) {
	var out bytes.Buffer
	tr := NewStdioTransport(strings.NewReader(""), &out)

	id := json.RawMessage(`7`)
	if err := tr.WriteMessage(&Message{JSONRPC: "2.0", ID: id, Result: json.RawMessage(`"ok"`)}); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}

	line := out.String()
	if !strings.HasSuffix(line, "\n") {
		t.Error("output should be newline terminated")
	}
	var msg Message
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if string(msg.Result) != `"ok"` {
		t.Errorf("Result = %s, want %q", msg.Result, `"ok"`)
	}
}

func TestStdioTransport_Close(t *testing.T) {
	tr := NewStdioTransport(strings.NewReader("{}\n"), &bytes.Buffer{})
	if tr.IsClosed() {
		t.Fatal("new transport should not be closed")
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !tr.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}
	if _, err := tr.ReadMessage(); err == nil {
		t.Error("ReadMessage() after Close should error")
	}
	if err := tr.WriteMessage(&Message{JSONRPC: "2.0"}); err == nil {
		t.Error("WriteMessage() after Close should error")
	}
}

func TestStdioTransport_Serve(t *testing.T) {
	input := `{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"boom"}` + "\n"
	var out bytes.Buffer
	tr := NewStdioTransport(strings.NewReader(input), &out)

	err := tr.Serve(func(msg *Message) (*Message, error) {
		if msg.Method == "boom" {
			return nil, errHandlerBoom
		}
		return &Message{JSONRPC: "2.0", ID: msg.ID, Result: json.RawMessage(`"pong"`)}, nil
	})
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d responses, want 2", len(lines))
	}

	var first Message
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("first response invalid: %v", err)
	}
	if string(first.Result) != `"pong"` {
		t.Errorf("first Result = %s, want %q", first.Result, `"pong"`)
	}

	var second Message
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("second response invalid: %v", err)
	}
	if second.Error == nil || second.Error.Code != ErrCodeInternalError {
		t.Errorf("second response error = %+v, want code %d", second.Error, ErrCodeInternalError)
	}
}

var errHandlerBoom = errTest("handler exploded")

type errTest string

func (e errTest) Error() string { return string(e) }
