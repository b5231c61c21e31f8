package schema

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParseToolsResult(t *testing.T) {
	t.Run("parses well-formed descriptors", func(t *testing.T) {
		raw := `{"tools":[{"name":"t1","description":"d","inputSchema":{"type":"object","properties":{"path":{"type":"string","description":"secret path"}}}}]}`

		tools, err := ParseToolsResult(json.RawMessage(raw))
		if err != nil {
			t.Fatalf("ParseToolsResult: %v", err)
		}

		if len(tools) != 1 {
			t.Fatalf("got %d tools, want 1", len(tools))
		}
		if tools[0].Name != "t1" {
			t.Errorf("Name = %q, want %q", tools[0].Name, "t1")
		}
		if tools[0].Description != "d" {
			t.Errorf("Description = %q, want %q", tools[0].Description, "d")
		}
		arg, ok := tools[0].Arguments["path"]
		if !ok {
			t.Fatal("expected 'path' argument")
		}
		if arg.Type != "string" || arg.Description != "secret path" {
			t.Errorf("argument = %+v, want type=string description=%q", arg, "secret path")
		}
	})

	t.Run("empty argument map when no input schema", func(t *testing.T) {
		tools, err := ParseToolsResult(json.RawMessage(`{"tools":[{"name":"t1","description":"d"}]}`))
		if err != nil {
			t.Fatalf("ParseToolsResult: %v", err)
		}
		if len(tools) != 1 {
			t.Fatalf("got %d tools, want 1", len(tools))
		}
		if len(tools[0].Arguments) != 0 {
			t.Errorf("Arguments = %v, want empty", tools[0].Arguments)
		}
	})

	t.Run("skips entries without a name", func(t *testing.T) {
		raw := `{"tools":[{"description":"nameless"},{"name":"ok"},{"name":""}]}`

		tools, err := ParseToolsResult(json.RawMessage(raw))
		if err != nil {
			t.Fatalf("ParseToolsResult: %v", err)
		}
		if len(tools) != 1 || tools[0].Name != "ok" {
			t.Errorf("tools = %+v, want single entry named 'ok'", tools)
		}
	})

	t.Run("missing tools array yields empty list", func(t *testing.T) {
		tools, err := ParseToolsResult(json.RawMessage(`{}`))
		if err != nil {
			t.Fatalf("ParseToolsResult: %v", err)
		}
		if len(tools) != 0 {
			t.Errorf("got %d tools, want 0", len(tools))
		}
	})

	t.Run("non-object result is an error", func(t *testing.T) {
		if _, err := ParseToolsResult(json.RawMessage(`"nope"`)); err == nil {
			t.Error("expected error for non-object result")
		}
	})
}

func TestNormalizeArguments(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		want map[string]any
	}{
		{
			name: "scalars pass through",
			in:   map[string]any{"s": "x", "n": 42, "f": 1.5, "b": true},
			want: map[string]any{"s": "x", "n": 42, "f": 1.5, "b": true},
		},
		{
			name: "string slice becomes array",
			in:   map[string]any{"items": []string{"a", "b"}},
			want: map[string]any{"items": []any{"a", "b"}},
		},
		{
			name: "nested map normalized",
			in:   map[string]any{"opts": map[string]any{"deep": []string{"v"}}},
			want: map[string]any{"opts": map[string]any{"deep": []any{"v"}}},
		},
		{
			name: "unknown types flattened to strings",
			in:   map[string]any{"d": struct{ A int }{A: 1}},
			want: map[string]any{"d": "{1}"},
		},
		{
			name: "nil map yields empty map",
			in:   nil,
			want: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeArguments(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeArguments() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
