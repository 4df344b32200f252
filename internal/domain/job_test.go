package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestModeValid(t *testing.T) {
	tests := []struct {
		mode Mode
		want bool
	}{
		{ModeProduct, true},
		{ModeUGC, true},
		{ModePerspective, true},
		{Mode("carousel"), false},
		{Mode(""), false},
	}
	for _, tc := range tests {
		if got := tc.mode.Valid(); got != tc.want {
			t.Fatalf("Mode(%q).Valid() = %v, want %v", tc.mode, got, tc.want)
		}
	}
}

func TestJobFailFirstWins(t *testing.T) {
	job := &Job{ID: "j"}
	job.Fail(StageRender, errors.New("backend down"))
	job.Fail(StageAssemble, errors.New("later failure"))

	if !strings.HasPrefix(job.Error, "stage render:") {
		t.Fatalf("job error = %q, want first failure retained", job.Error)
	}
	if len(job.Warnings) != 1 || !strings.Contains(job.Warnings[0], "later failure") {
		t.Fatalf("warnings = %v, want demoted second failure", job.Warnings)
	}
	if !job.Failed() {
		t.Fatalf("Failed() = false after Fail")
	}
}

func TestJobWarnAppends(t *testing.T) {
	job := &Job{ID: "j"}
	job.Warn("first %d", 1)
	job.Warn("second %d", 2)

	if len(job.Warnings) != 2 {
		t.Fatalf("warnings = %d, want 2", len(job.Warnings))
	}
	if job.Warnings[0] != "first 1" || job.Warnings[1] != "second 2" {
		t.Fatalf("warnings = %v, want chronological order", job.Warnings)
	}
}
