// Copyright 2025 Seth Burkart
//
// Validation helper tests

package server

import (
	"strings"
	"testing"

	"github.com/SethBurkart123/openlp-mcp/internal/transport"
)

func TestTextResult(t *testing.T) {
	r := textResult("hello")
	if r.IsError {
		t.Error("textResult should not set IsError")
	}
	if len(r.Content) != 1 || r.Content[0].Type != "text" || r.Content[0].Text != "hello" {
		t.Errorf("content = %+v", r.Content)
	}
}

func TestErrorResult(t *testing.T) {
	r := errorResultf("failed: %d", 7)
	if !r.IsError {
		t.Error("errorResult should set IsError")
	}
	if r.Content[0].Text != "failed: 7" {
		t.Errorf("text = %q", r.Content[0].Text)
	}
}

func TestValidateToolInput(t *testing.T) {
	tool := &Tool{
		Name: "sample",
		InputSchema: objectSchema(map[string]any{
			"name":  strProp("a string"),
			"count": intProp("an integer"),
			"loud":  boolProp("a flag"),
			"mode":  enumProp("a mode", "fast", "slow"),
			"extra": map[string]any{"description": "untyped"},
		}, "name"),
	}

	tests := []struct {
		name    string
		args    map[string]any
		wantMsg string
	}{
		{
			name: "valid",
			args: map[string]any{"name": "x", "count": float64(3), "loud": true, "mode": "fast"},
		},
		{
			name:    "missing required",
			args:    map[string]any{"count": float64(1)},
			wantMsg: "missing required field: name",
		},
		{
			name:    "string type mismatch",
			args:    map[string]any{"name": 42},
			wantMsg: `field "name" must be a string`,
		},
		{
			name:    "fractional integer",
			args:    map[string]any{"name": "x", "count": 1.5},
			wantMsg: `field "count" must be an integer`,
		},
		{
			name:    "bool type mismatch",
			args:    map[string]any{"name": "x", "loud": "yes"},
			wantMsg: `field "loud" must be a boolean`,
		},
		{
			name:    "enum violation",
			args:    map[string]any{"name": "x", "mode": "sideways"},
			wantMsg: `field "mode" must be one of [fast, slow]`,
		},
		{
			name: "whole float passes integer check",
			args: map[string]any{"name": "x", "count": float64(10)},
		},
		{
			name: "extra properties allowed",
			args: map[string]any{"name": "x", "surprise": "fine"},
		},
		{
			name: "nil value skipped",
			args: map[string]any{"name": "x", "count": nil},
		},
		{
			name: "untyped property skipped",
			args: map[string]any{"name": "x", "extra": 12},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := validateToolInput(tool, tt.args)
			if tt.wantMsg == "" {
				if got != nil {
					t.Fatalf("validateToolInput() = %+v, want nil", got.Error)
				}
				return
			}
			if got == nil {
				t.Fatal("validateToolInput() = nil, want error")
			}
			if got.Error.Code != transport.ErrCodeInvalidParams {
				t.Errorf("code = %d, want %d", got.Error.Code, transport.ErrCodeInvalidParams)
			}
			if !strings.Contains(got.Error.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", got.Error.Message, tt.wantMsg)
			}
		})
	}
}

func TestValidateToolInput_NoSchema(t *testing.T) {
	tool := &Tool{Name: "bare"}
	if got := validateToolInput(tool, map[string]any{"anything": 1}); got != nil {
		t.Errorf("validateToolInput() = %+v, want nil", got.Error)
	}
}

func TestRequiredFields_JSONDecoded(t *testing.T) {
	// Schemas that round-trip through JSON carry []any rather than
	// []string.
	schema := map[string]any{
		"type":     "object",
		"required": []any{"a", "b"},
	}
	got := requiredFields(schema)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("requiredFields() = %v", got)
	}
}
