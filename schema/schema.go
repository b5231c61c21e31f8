// Package schema models the tool descriptors advertised by an MCP server and
// the argument values passed back to it.
package schema

import (
	"encoding/json"
	"fmt"
)

// ArgumentSpec describes a single tool parameter.
type ArgumentSpec struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// Tool is a tool advertised by the server via tools/list. Arguments maps
// parameter names to their schemas; it is empty when the server declares no
// input schema.
type Tool struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description,omitempty"`
	Arguments   map[string]ArgumentSpec `json:"arguments,omitempty"`
}

// rawTool mirrors the wire shape of a tools/list entry.
type rawTool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema struct {
		Properties map[string]ArgumentSpec `json:"properties"`
	} `json:"inputSchema"`
}

// ParseToolsResult decodes a tools/list result payload into Tool descriptors.
// Entries without a name are skipped rather than failing the whole listing.
// A payload lacking a tools array yields an empty slice.
func ParseToolsResult(result json.RawMessage) ([]Tool, error) {
	var payload struct {
		Tools []json.RawMessage `json:"tools"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, fmt.Errorf("decode tools/list result: %w", err)
	}

	tools := make([]Tool, 0, len(payload.Tools))
	for _, entry := range payload.Tools {
		var rt rawTool
		if err := json.Unmarshal(entry, &rt); err != nil {
			continue
		}
		if rt.Name == "" {
			continue
		}

		args := make(map[string]ArgumentSpec, len(rt.InputSchema.Properties))
		for name, spec := range rt.InputSchema.Properties {
			args[name] = spec
		}

		tools = append(tools, Tool{
			Name:        rt.Name,
			Description: rt.Description,
			Arguments:   args,
		})
	}

	return tools, nil
}

// NormalizeArguments prepares a tool argument map for serialization: strings,
// numbers, and booleans pass through, sequences become plain arrays with
// normalized elements, nested maps are normalized recursively, and anything
// else is flattened to its string form.
func NormalizeArguments(args map[string]any) map[string]any {
	if args == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return val
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = item
		}
		return out
	case map[string]any:
		return NormalizeArguments(val)
	default:
		return fmt.Sprint(val)
	}
}
