package domain

import "context"

// JobStore defines persistence for job aggregates. The pipeline core depends
// only on this interface; implementations may be an in-memory map or a
// database-backed store.
type JobStore interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, jobID string) (*Job, error)
	Update(ctx context.Context, job *Job) error
	Delete(ctx context.Context, jobID string) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*Job, error)
}
