package llm

import (
	"errors"
	"testing"

	"adfactory/internal/domain"
)

func TestStripFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "no fence",
			in:   `{"a":1}`,
			want: `{"a":1}`,
		},
		{
			name: "json fence",
			in:   "```json\n{\"a\":1}\n```",
			want: `{"a":1}`,
		},
		{
			name: "bare fence",
			in:   "```\n[1,2]\n```",
			want: "[1,2]",
		},
		{
			name: "surrounding whitespace",
			in:   "  \n```json\n{}\n```  ",
			want: "{}",
		},
		{
			name: "uppercase tag",
			in:   "```JSON\n{\"b\":2}\n```",
			want: `{"b":2}`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripFence(tc.in); got != tc.want {
				t.Fatalf("StripFence() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	var out struct {
		Name string `json:"name"`
	}
	if err := Decode(domain.StageIntake, "```json\n{\"name\":\"serum\"}\n```", &out); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if out.Name != "serum" {
		t.Fatalf("Decode() name = %q, want serum", out.Name)
	}
}

func TestDecodeSchemaViolation(t *testing.T) {
	var out []string
	err := Decode(domain.StageAngles, "I cannot help with that.", &out)
	if err == nil {
		t.Fatalf("Decode() with prose input returned nil error")
	}
	var parseErr *domain.GenerationParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Decode() error type = %T, want *domain.GenerationParseError", err)
	}
	if parseErr.Stage != domain.StageAngles {
		t.Fatalf("parse error stage = %q, want angles", parseErr.Stage)
	}
	if parseErr.Raw != "I cannot help with that." {
		t.Fatalf("parse error raw = %q, want original text retained", parseErr.Raw)
	}
}
