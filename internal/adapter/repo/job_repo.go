package repo

import (
	"context"
	"fmt"
	"time"

	"logoanimator/internal/domain"
	"logoanimator/internal/infra"
	"logoanimator/internal/sqlinline"
)

const maxRecentJobs = 200

// JobRepositoryPG implements domain.JobRecorder and domain.JobHistory.
type JobRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(sql infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql}
}

// RecordStart inserts a running job.
func (r *JobRepositoryPG) RecordStart(ctx context.Context, job *domain.Job) error {
	if job == nil {
		return fmt.Errorf("job is required")
	}
	_, err := r.sql.Exec(ctx, sqlinline.QInsertGenerationJob,
		job.ID,
		job.SessionID,
		string(job.Kind),
		string(job.Status),
		job.AspectRatio,
		job.Backend,
		job.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job %s: %w", job.ID, err)
	}
	return nil
}

// RecordFinish stores the terminal status of a job.
func (r *JobRepositoryPG) RecordFinish(ctx context.Context, job *domain.Job) error {
	if job == nil {
		return fmt.Errorf("job is required")
	}
	finished := time.Now().UTC()
	if job.FinishedAt != nil {
		finished = *job.FinishedAt
	}
	_, err := r.sql.Exec(ctx, sqlinline.QFinishGenerationJob,
		job.ID,
		string(job.Status),
		job.PollAttempts,
		job.ErrorDetail,
		finished,
	)
	if err != nil {
		return fmt.Errorf("finish job %s: %w", job.ID, err)
	}
	return nil
}

// Recent returns the most recently started jobs, newest first.
func (r *JobRepositoryPG) Recent(ctx context.Context, limit int) ([]domain.Job, error) {
	if limit <= 0 || limit > maxRecentJobs {
		limit = maxRecentJobs
	}
	rows, err := r.sql.Query(ctx, sqlinline.QSelectRecentGenerationJobs, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		var (
			job    domain.Job
			kind   string
			status string
		)
		if err := rows.Scan(
			&job.ID,
			&job.SessionID,
			&kind,
			&status,
			&job.AspectRatio,
			&job.Backend,
			&job.PollAttempts,
			&job.ErrorDetail,
			&job.StartedAt,
			&job.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		job.Kind = domain.JobKind(kind)
		job.Status = domain.JobStatus(status)
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

var (
	_ domain.JobRecorder = (*JobRepositoryPG)(nil)
	_ domain.JobHistory  = (*JobRepositoryPG)(nil)
)
