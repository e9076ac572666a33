package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func textSchema() *Schema {
	return &Schema{
		Name: "test-text",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text":  map[string]any{"type": "string"},
				"level": map[string]any{"type": "string", "enum": []string{"A1", "A2", "B1"}},
			},
			"required":             []string{"text"},
			"additionalProperties": false,
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"text":"hi","level":"A2"}`, false},
		{"optional omitted", `{"text":"hi"}`, false},
		{"missing required", `{"level":"A1"}`, true},
		{"wrong type", `{"text":5}`, true},
		{"bad enum", `{"text":"hi","level":"C2"}`, true},
		{"extra field", `{"text":"hi","x":1}`, true},
		{"malformed", `{"text":`, true},
		{"empty", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(textSchema(), json.RawMessage(tt.raw))
			if tt.wantErr {
				var inv *ErrInvalidResponse
				if !errors.As(err, &inv) {
					t.Fatalf("expected ErrInvalidResponse, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`not json`)); err != nil {
		t.Fatalf("nil schema should skip validation: %v", err)
	}
}

func TestCheckStructured_Truncated(t *testing.T) {
	_, err := checkStructured(Request{Schema: textSchema()}, json.RawMessage(`{"te`), "max_tokens")
	var mt *ErrMaxTokensExceeded
	if !errors.As(err, &mt) {
		t.Fatalf("expected ErrMaxTokensExceeded, got %v", err)
	}
	if _, err := checkStructured(Request{}, json.RawMessage(`cut off mid`), "max_tokens"); err != nil {
		t.Fatalf("plain text should pass through: %v", err)
	}
}

func TestCheckStructured_StripsFence(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"json fence", "```json\n{\"text\":\"hi\"}\n```"},
		{"bare fence", "```\n{\"text\":\"hi\"}\n```  "},
		{"no fence", "  {\"text\":\"hi\"}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checkStructured(Request{Schema: textSchema()}, json.RawMessage(tt.raw), "end")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != `{"text":"hi"}` {
				t.Fatalf("content = %q", got)
			}
		})
	}
}
