package mcpserver

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// parseJSON parses a JSON string into the target type.
func parseJSON(data string, target any) error {
	return json.Unmarshal([]byte(data), target)
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func getFloat(args map[string]any, key string, fallback float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return fallback
}

// splitList splits a comma-separated argument, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// optionalJSON decodes args[key] when it is a non-empty JSON string. Other
// non-nil values are passed through as already decoded.
func optionalJSON(args map[string]any, key string) (any, error) {
	raw, present := args[key]
	if !present || raw == nil {
		return nil, nil
	}
	str, isStr := raw.(string)
	if !isStr {
		return raw, nil
	}
	if strings.TrimSpace(str) == "" {
		return nil, nil
	}
	var v any
	if err := parseJSON(str, &v); err != nil {
		return nil, fmt.Errorf("%s: invalid JSON: %w", key, err)
	}
	return v, nil
}
