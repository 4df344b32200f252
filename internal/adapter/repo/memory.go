// Package repo provides the job store implementations: an in-memory map for
// single-process deployments and tests, and a PostgreSQL store for
// API/worker splits.
package repo

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"adfactory/internal/domain"
)

// JobStoreMemory is a concurrency-safe in-memory job store. Jobs are
// deep-copied on the way in and out so the pipeline's mutations never leak
// through shared pointers.
type JobStoreMemory struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
}

var _ domain.JobStore = (*JobStoreMemory)(nil)

// NewJobStoreMemory creates an empty in-memory store.
func NewJobStoreMemory() *JobStoreMemory {
	return &JobStoreMemory{jobs: make(map[string]*domain.Job)}
}

func (s *JobStoreMemory) Create(ctx context.Context, job *domain.Job) error {
	copied, err := copyJob(job)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = copied
	return nil
}

func (s *JobStoreMemory) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	s.mu.RLock()
	job, ok := s.jobs[jobID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyJob(job)
}

func (s *JobStoreMemory) Update(ctx context.Context, job *domain.Job) error {
	copied, err := copyJob(job)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.jobs[job.ID]; ok && existing.CancelRequested {
		// A cancel flag set through the API survives pipeline writes.
		copied.CancelRequested = true
	}
	s.jobs[job.ID] = copied
	return nil
}

func (s *JobStoreMemory) Delete(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[jobID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.jobs, jobID)
	return nil
}

func (s *JobStoreMemory) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Job, error) {
	s.mu.RLock()
	var out []*domain.Job
	for _, job := range s.jobs {
		if job.UserID != userID {
			continue
		}
		copied, err := copyJob(job)
		if err != nil {
			s.mu.RUnlock()
			return nil, err
		}
		out = append(out, copied)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// copyJob round-trips a job through JSON. The aggregate is already defined
// by its serialized form, so this is both the cheapest correct deep copy and
// a standing check that the job stays serializable.
func copyJob(job *domain.Job) (*domain.Job, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}
	var out domain.Job
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
