package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"logoanimator/internal/domain"
	"logoanimator/internal/sqlinline"
)

type stubExecutor struct {
	execErr   error
	queries   []string
	args      [][]any
	rows      *stubRows
	queryArgs []any
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.queries = append(s.queries, query)
	s.args = append(s.args, args)
	return pgconn.CommandTag{}, s.execErr
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	return nil
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	s.queryArgs = args
	if s.rows == nil {
		return nil, errors.New("no rows configured")
	}
	return s.rows, nil
}

type stubRows struct {
	data   [][]any
	idx    int
	closed bool
}

func (r *stubRows) Close()                                       { r.closed = true }
func (r *stubRows) Err() error                                   { return nil }
func (r *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) Values() ([]any, error)                       { return r.data[r.idx-1], nil }
func (r *stubRows) RawValues() [][]byte                          { return nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }

func (r *stubRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *stubRows) Scan(dest ...any) error {
	row := r.data[r.idx-1]
	if len(dest) != len(row) {
		return errors.New("column count mismatch")
	}
	for i, v := range row {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *int:
			*d = v.(int)
		case *time.Time:
			*d = v.(time.Time)
		case **time.Time:
			*d = v.(*time.Time)
		default:
			return errors.New("unsupported destination")
		}
	}
	return nil
}

func TestRecordStartPassesJobFields(t *testing.T) {
	exec := &stubExecutor{}
	repo := NewJobRepository(exec)
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	job := &domain.Job{
		ID:          "8d5a1f4e-2b3c-4d5e-8f90-a1b2c3d4e5f6",
		SessionID:   "session-1",
		Kind:        domain.JobKindAnimation,
		Status:      domain.JobStatusRunning,
		AspectRatio: "16:9",
		Backend:     "synthetic",
		StartedAt:   started,
	}
	if err := repo.RecordStart(context.Background(), job); err != nil {
		t.Fatalf("RecordStart error: %v", err)
	}
	if exec.queries[0] != sqlinline.QInsertGenerationJob {
		t.Fatalf("unexpected query used")
	}
	args := exec.args[0]
	if len(args) != 7 {
		t.Fatalf("expected 7 args, got %d", len(args))
	}
	if args[2] != "animation" || args[3] != "running" {
		t.Fatalf("kind/status args = %v/%v", args[2], args[3])
	}
	if args[6] != started {
		t.Fatalf("started arg = %v, want %v", args[6], started)
	}
}

func TestRecordFinishWrapsErrors(t *testing.T) {
	exec := &stubExecutor{execErr: errors.New("boom")}
	repo := NewJobRepository(exec)
	err := repo.RecordFinish(context.Background(), &domain.Job{ID: "job-1", Status: domain.JobStatusFailed})
	if err == nil || !errors.Is(err, exec.execErr) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestRecordFinishDefaultsFinishedAt(t *testing.T) {
	exec := &stubExecutor{}
	repo := NewJobRepository(exec)
	job := &domain.Job{ID: "job-1", Status: domain.JobStatusSucceeded, PollAttempts: 4}
	if err := repo.RecordFinish(context.Background(), job); err != nil {
		t.Fatalf("RecordFinish error: %v", err)
	}
	args := exec.args[0]
	if args[2] != 4 {
		t.Fatalf("poll attempts arg = %v, want 4", args[2])
	}
	if ts, ok := args[4].(time.Time); !ok || ts.IsZero() {
		t.Fatalf("expected finished timestamp, got %#v", args[4])
	}
}

func TestRecentScansRowsAndClampsLimit(t *testing.T) {
	finished := time.Date(2026, 1, 2, 3, 5, 0, 0, time.UTC)
	rows := &stubRows{data: [][]any{
		{"job-2", "s-1", "animation", "timed_out", "9:16", "rest", 60, "deadline", finished, &finished},
		{"job-1", "s-1", "logo", "succeeded", "", "rest", 0, "", finished, (*time.Time)(nil)},
	}}
	exec := &stubExecutor{rows: rows}
	repo := NewJobRepository(exec)

	jobs, err := repo.Recent(context.Background(), 10_000)
	if err != nil {
		t.Fatalf("Recent error: %v", err)
	}
	if exec.queryArgs[0] != maxRecentJobs {
		t.Fatalf("limit = %v, want %d", exec.queryArgs[0], maxRecentJobs)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].Status != domain.JobStatusTimedOut || jobs[0].PollAttempts != 60 {
		t.Fatalf("unexpected first job %+v", jobs[0])
	}
	if jobs[1].FinishedAt != nil {
		t.Fatalf("expected nil finished_at for second job")
	}
	if !rows.closed {
		t.Fatalf("expected rows to be closed")
	}
}
