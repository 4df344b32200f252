package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreUpload(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileStore(root, "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	src := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(src, []byte("mp4-bytes"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	url, err := store.Upload(context.Background(), src, "jobs/job-1/videos/video-1.mp4")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if url != "http://localhost:8080/static/jobs/job-1/videos/video-1.mp4" {
		t.Fatalf("Upload() url = %q, want base url + key", url)
	}

	stored, err := os.ReadFile(filepath.Join(root, "jobs", "job-1", "videos", "video-1.mp4"))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if string(stored) != "mp4-bytes" {
		t.Fatalf("stored content = %q, want copy of source", stored)
	}
}

func TestFileStoreUploadMissingSource(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if _, err := store.Upload(context.Background(), "/nonexistent/file.png", "k.png"); err == nil {
		t.Fatalf("Upload() with missing source returned nil error")
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    string
		wantErr bool
	}{
		{"plain", "jobs/a/b.png", "jobs/a/b.png", false},
		{"leading slash", "/jobs/a.png", "jobs/a.png", false},
		{"dot prefix", "./jobs/a.png", "jobs/a.png", false},
		{"traversal", "../../etc/passwd", "", true},
		{"nested traversal", "jobs/../../x", "", true},
		{"empty", "   ", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := sanitizeKey(tc.key)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("sanitizeKey(%q) error = nil, want error", tc.key)
				}
				return
			}
			if err != nil {
				t.Fatalf("sanitizeKey(%q) error = %v", tc.key, err)
			}
			if got != tc.want {
				t.Fatalf("sanitizeKey(%q) = %q, want %q", tc.key, got, tc.want)
			}
		})
	}
}
