package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"adfactory/internal/domain"
)

func TestJobStoreMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewJobStoreMemory()
	job := &domain.Job{
		ID:        "job-1",
		UserID:    "user-1",
		Mode:      domain.ModeProduct,
		Status:    domain.JobStatusQueued,
		CreatedAt: time.Now().UTC(),
	}

	if err := store.Create(ctx, job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != job.ID || got.Mode != job.Mode {
		t.Fatalf("Get() = %+v, want stored job", got)
	}

	// Mutating the returned copy must not touch the stored record.
	got.Warnings = append(got.Warnings, "mutated")
	again, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(again.Warnings) != 0 {
		t.Fatalf("store leaked caller mutation: %v", again.Warnings)
	}
}

func TestJobStoreMemoryNotFound(t *testing.T) {
	store := NewJobStoreMemory()
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Delete(missing) error = %v, want ErrNotFound", err)
	}
}

func TestJobStoreMemoryCancelFlagSurvivesUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewJobStoreMemory()
	job := &domain.Job{ID: "job-1", UserID: "user-1", Status: domain.JobStatusRunning}
	if err := store.Create(ctx, job); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// API side requests cancellation.
	flagged, _ := store.Get(ctx, "job-1")
	flagged.CancelRequested = true
	if err := store.Update(ctx, flagged); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	// Pipeline persists a stale snapshot that predates the flag.
	stale := &domain.Job{ID: "job-1", UserID: "user-1", Status: domain.JobStatusRunning}
	if err := store.Update(ctx, stale); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.CancelRequested {
		t.Fatalf("cancel flag lost after stale pipeline update")
	}
}

func TestJobStoreMemoryListByUser(t *testing.T) {
	ctx := context.Background()
	store := NewJobStoreMemory()
	base := time.Now().UTC()
	for i, user := range []string{"a", "a", "b"} {
		job := &domain.Job{
			ID:        []string{"j1", "j2", "j3"}[i],
			UserID:    user,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Create(ctx, job); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	jobs, err := store.ListByUser(ctx, "a", 10)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("ListByUser(a) = %d jobs, want 2", len(jobs))
	}
	if jobs[0].ID != "j2" {
		t.Fatalf("ListByUser() first = %s, want newest job j2", jobs[0].ID)
	}

	limited, err := store.ListByUser(ctx, "a", 1)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("ListByUser(limit 1) = %d jobs, want 1", len(limited))
	}
}
