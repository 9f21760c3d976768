// Copyright 2025 Seth Burkart
//
// Tool result helpers and input schema validation

package server

import (
	"fmt"
	"slices"
	"strings"

	"github.com/SethBurkart123/openlp-mcp/internal/transport"
)

// textResult wraps plain text in a tool result.
func textResult(text string) *ToolResult {
	return &ToolResult{
		Content: []Content{{Type: "text", Text: text}},
	}
}

// errorResult wraps an error message in a tool result with IsError set.
func errorResult(msg string) *ToolResult {
	return &ToolResult{
		IsError: true,
		Content: []Content{{Type: "text", Text: msg}},
	}
}

func errorResultf(format string, args ...any) *ToolResult {
	return errorResult(fmt.Sprintf(format, args...))
}

// resultText extracts the first text block of a tool result.
func resultText(r *ToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	return r.Content[0].Text
}

// validateToolInput checks decoded arguments against the tool's input
// schema: required fields present, types matching, enum values in range.
// Extra properties pass through untouched. Returns a -32602 error message
// on failure, nil when valid.
func validateToolInput(tool *Tool, args map[string]any) *transport.Message {
	schema := tool.InputSchema
	if schema == nil {
		return nil
	}

	for _, field := range requiredFields(schema) {
		if _, exists := args[field]; !exists {
			return invalidParamsError(fmt.Sprintf("missing required field: %s", field))
		}
	}

	properties := schemaProperties(schema)
	for fieldName, value := range args {
		propSchema, exists := properties[fieldName]
		if !exists {
			continue
		}
		if err := validateFieldValue(fieldName, value, propSchema); err != nil {
			return invalidParamsError(err.Error())
		}
	}
	return nil
}

func invalidParamsError(message string) *transport.Message {
	return &transport.Message{
		JSONRPC: "2.0",
		Error: &transport.ErrorObj{
			Code:    transport.ErrCodeInvalidParams,
			Message: message,
		},
	}
}

// requiredFields reads the schema's "required" list, tolerating both
// []string from in-process construction and []any from JSON decoding.
func requiredFields(schema map[string]any) []string {
	switch required := schema["required"].(type) {
	case []string:
		return required
	case []any:
		result := make([]string, 0, len(required))
		for _, v := range required {
			if s, ok := v.(string); ok {
				result = append(result, s)
			}
		}
		return result
	default:
		return nil
	}
}

func schemaProperties(schema map[string]any) map[string]map[string]any {
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		return nil
	}
	result := make(map[string]map[string]any, len(props))
	for k, v := range props {
		if propSchema, ok := v.(map[string]any); ok {
			result[k] = propSchema
		}
	}
	return result
}

func validateFieldValue(fieldName string, value any, propSchema map[string]any) error {
	if value == nil {
		return nil
	}

	if schemaType, ok := propSchema["type"].(string); ok {
		if err := validateType(fieldName, value, schemaType); err != nil {
			return err
		}
	}
	return validateEnumValue(fieldName, value, propSchema)
}

func validateType(fieldName string, value any, expectedType string) error {
	switch expectedType {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("field %q must be a string, got %T", fieldName, value)
		}
	case "number":
		if !isNumber(value) {
			return fmt.Errorf("field %q must be a number, got %T", fieldName, value)
		}
	case "integer":
		if !isInteger(value) {
			return fmt.Errorf("field %q must be an integer, got %T", fieldName, value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("field %q must be a boolean, got %T", fieldName, value)
		}
	case "array":
		if _, ok := value.([]any); !ok {
			return fmt.Errorf("field %q must be an array, got %T", fieldName, value)
		}
	case "object":
		if _, ok := value.(map[string]any); !ok {
			return fmt.Errorf("field %q must be an object, got %T", fieldName, value)
		}
	}
	return nil
}

func isNumber(value any) bool {
	switch value.(type) {
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}

// isInteger accepts native integer types and whole-valued floats, since
// JSON decoding produces float64 for every number.
func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		return v == float64(int64(v))
	case float32:
		return v == float32(int32(v))
	default:
		return false
	}
}

func validateEnumValue(fieldName string, value any, propSchema map[string]any) error {
	var allowed []string
	switch enum := propSchema["enum"].(type) {
	case []string:
		allowed = enum
	case []any:
		for _, v := range enum {
			if s, ok := v.(string); ok {
				allowed = append(allowed, s)
			}
		}
	default:
		return nil
	}

	valueStr, ok := value.(string)
	if !ok {
		return fmt.Errorf("field %q must be a string for enum validation, got %T", fieldName, value)
	}
	if slices.Contains(allowed, valueStr) {
		return nil
	}
	return fmt.Errorf("field %q must be one of [%s], got %q", fieldName, strings.Join(allowed, ", "), valueStr)
}
