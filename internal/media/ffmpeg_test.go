package media

import (
	"strings"
	"testing"
)

func TestEscapeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"it's here", `it\'s here`},
		{"a:b", `a\:b`},
		{"one, two", `one\, two`},
		{`back\slash`, `back\\slash`},
	}
	for _, tc := range tests {
		if got := EscapeText(tc.in); got != tc.want {
			t.Fatalf("EscapeText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildDrawtextFilter(t *testing.T) {
	cues := []TextCue{
		{Start: 0, Duration: 3, Text: "Tired of dull skin?", Role: "hook"},
		{Start: 9, Duration: 3, Text: "Shop now", Role: "cta"},
		{Start: 5, Text: "   "},
	}
	filter := BuildDrawtextFilter(cues)

	if strings.Count(filter, "drawtext=") != 2 {
		t.Fatalf("filter has %d drawtext terms, want 2 (blank cue skipped): %s",
			strings.Count(filter, "drawtext="), filter)
	}
	if !strings.Contains(filter, "fontsize=64") {
		t.Fatalf("hook cue not styled at 64pt: %s", filter)
	}
	if !strings.Contains(filter, "fontcolor=yellow") {
		t.Fatalf("cta cue not yellow: %s", filter)
	}
	if !strings.Contains(filter, "between(t,0.000,3.000)") {
		t.Fatalf("hook cue window missing: %s", filter)
	}
	if !strings.Contains(filter, "between(t,9.000,12.000)") {
		t.Fatalf("cta cue window missing: %s", filter)
	}
}

func TestBuildDrawtextFilterEmpty(t *testing.T) {
	if got := BuildDrawtextFilter(nil); got != "" {
		t.Fatalf("BuildDrawtextFilter(nil) = %q, want empty", got)
	}
}

func TestBuildDrawtextFilterDefaultDuration(t *testing.T) {
	filter := BuildDrawtextFilter([]TextCue{{Start: 2, Text: "hello"}})
	if !strings.Contains(filter, "between(t,2.000,5.000)") {
		t.Fatalf("zero duration should default to 3s window: %s", filter)
	}
}
