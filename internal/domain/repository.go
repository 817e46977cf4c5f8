package domain

import "context"

// JobRecorder persists the lifecycle of generation jobs.
type JobRecorder interface {
	RecordStart(ctx context.Context, job *Job) error
	RecordFinish(ctx context.Context, job *Job) error
}

// JobHistory lists previously recorded jobs.
type JobHistory interface {
	Recent(ctx context.Context, limit int) ([]Job, error)
}
