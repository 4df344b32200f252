package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"adfactory/internal/domain"
	"adfactory/internal/sqlinline"
)

// JobStorePG persists job aggregates in PostgreSQL as JSONB state rows. It
// additionally offers ClaimQueued, the worker's pull primitive.
type JobStorePG struct {
	pool *pgxpool.Pool
}

var _ domain.JobStore = (*JobStorePG)(nil)

// NewJobStorePG creates a job store backed by the given pool and ensures the
// jobs table exists.
func NewJobStorePG(ctx context.Context, pool *pgxpool.Pool) (*JobStorePG, error) {
	if _, err := pool.Exec(ctx, sqlinline.QCreateJobsTable); err != nil {
		return nil, fmt.Errorf("repo: ensure jobs table: %w", err)
	}
	return &JobStorePG{pool: pool}, nil
}

func (s *JobStorePG) Create(ctx context.Context, job *domain.Job) error {
	state, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("repo: marshal job: %w", err)
	}
	_, err = s.pool.Exec(ctx, sqlinline.QInsertJob,
		job.ID, job.UserID, string(job.Mode), string(job.Status), state)
	if err != nil {
		return fmt.Errorf("repo: insert job: %w", err)
	}
	return nil
}

func (s *JobStorePG) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	row := s.pool.QueryRow(ctx, sqlinline.QGetJob, jobID)
	return scanJobState(row)
}

func (s *JobStorePG) Update(ctx context.Context, job *domain.Job) error {
	// Re-read the cancel flag so an API-side cancel is not clobbered by a
	// stale pipeline snapshot.
	if current, err := s.Get(ctx, job.ID); err == nil && current.CancelRequested {
		job.CancelRequested = true
	}
	state, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("repo: marshal job: %w", err)
	}
	tag, err := s.pool.Exec(ctx, sqlinline.QUpdateJob, job.ID, string(job.Status), state)
	if err != nil {
		return fmt.Errorf("repo: update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *JobStorePG) Delete(ctx context.Context, jobID string) error {
	tag, err := s.pool.Exec(ctx, sqlinline.QDeleteJob, jobID)
	if err != nil {
		return fmt.Errorf("repo: delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *JobStorePG) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, sqlinline.QListJobsByUser, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("repo: list jobs: %w", err)
	}
	defer rows.Close()
	var out []*domain.Job
	for rows.Next() {
		var state []byte
		if err := rows.Scan(&state); err != nil {
			return nil, fmt.Errorf("repo: scan job: %w", err)
		}
		var job domain.Job
		if err := json.Unmarshal(state, &job); err != nil {
			return nil, fmt.Errorf("repo: decode job state: %w", err)
		}
		out = append(out, &job)
	}
	return out, rows.Err()
}

// ClaimQueued atomically claims the oldest queued job and marks it running.
// FOR UPDATE SKIP LOCKED keeps concurrent workers from double-claiming.
// Returns ErrNotFound when the queue is empty.
func (s *JobStorePG) ClaimQueued(ctx context.Context) (*domain.Job, error) {
	row := s.pool.QueryRow(ctx, sqlinline.QClaimQueuedJob)
	job, err := scanJobState(row)
	if err != nil {
		return nil, err
	}
	job.Status = domain.JobStatusRunning
	return job, nil
}

func scanJobState(row pgx.Row) (*domain.Job, error) {
	var state []byte
	if err := row.Scan(&state); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("repo: scan job: %w", err)
	}
	var job domain.Job
	if err := json.Unmarshal(state, &job); err != nil {
		return nil, fmt.Errorf("repo: decode job state: %w", err)
	}
	return &job, nil
}
