package llm

import (
	"encoding/json"
	"strings"

	"adfactory/internal/domain"
)

// StripFence removes a surrounding markdown code fence from model output.
// Models wrap JSON in ```json ... ``` often enough that every stage agent
// unwraps before decoding.
func StripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop the language tag line ("json", "JSON", or empty).
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// Decode parses model output into v after unwrapping any code fence. A schema
// violation surfaces as a *domain.GenerationParseError carrying the raw text,
// which stage agents treat as a terminal stage error.
func Decode(stage domain.Stage, raw string, v any) error {
	cleaned := StripFence(raw)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return &domain.GenerationParseError{Stage: stage, Raw: raw, Err: err}
	}
	return nil
}
