package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/viralflow/internal/models"
)

type ScheduledJobRepository interface {
	Create(ctx context.Context, tx *sql.Tx, job *models.ScheduledJob) error
	ListPending(ctx context.Context) ([]*models.ScheduledJob, error)
	ListRunning(ctx context.Context) ([]*models.ScheduledJob, error)
	ListByPost(ctx context.Context, postID string) ([]*models.ScheduledJob, error)
	// Claim moves the job pending -> running. It reports false if the job was no longer pending.
	Claim(ctx context.Context, tx *sql.Tx, jobID string) (bool, error)
	// Finish persists the terminal status of a running job.
	Finish(ctx context.Context, tx *sql.Tx, job *models.ScheduledJob) error
	// CancelPending cancels the post's pending job, reporting false when none exists.
	CancelPending(ctx context.Context, tx *sql.Tx, postID string, at time.Time) (bool, error)
}

type scheduledJobRepository struct {
	db *sql.DB
}

func NewScheduledJobRepository(db *sql.DB) ScheduledJobRepository {
	return &scheduledJobRepository{db: db}
}

const jobColumns = `id, post_id, schedule_time, status, error_message, created_at, executed_at`

func (r *scheduledJobRepository) Create(ctx context.Context, tx *sql.Tx, job *models.ScheduledJob) error {
	query := `
		INSERT INTO scheduled_jobs (id, post_id, schedule_time, status, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := execer(r.db, tx).ExecContext(ctx, query,
		job.ID,
		job.PostID,
		job.ScheduleTime,
		string(job.Status),
		job.Error,
		job.CreatedAt,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *scheduledJobRepository) ListPending(ctx context.Context) ([]*models.ScheduledJob, error) {
	query := `SELECT ` + jobColumns + ` FROM scheduled_jobs WHERE status = $1 ORDER BY schedule_time ASC`
	return r.list(ctx, query, string(models.JobStatusPending))
}

func (r *scheduledJobRepository) ListRunning(ctx context.Context) ([]*models.ScheduledJob, error) {
	query := `SELECT ` + jobColumns + ` FROM scheduled_jobs WHERE status = $1 ORDER BY schedule_time ASC`
	return r.list(ctx, query, string(models.JobStatusRunning))
}

func (r *scheduledJobRepository) ListByPost(ctx context.Context, postID string) ([]*models.ScheduledJob, error) {
	query := `SELECT ` + jobColumns + ` FROM scheduled_jobs WHERE post_id = $1 ORDER BY created_at ASC`
	return r.list(ctx, query, postID)
}

func (r *scheduledJobRepository) list(ctx context.Context, query string, args ...any) ([]*models.ScheduledJob, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.ScheduledJob
	for rows.Next() {
		var job models.ScheduledJob
		var status string
		var executedAt sql.NullTime
		err := rows.Scan(&job.ID, &job.PostID, &job.ScheduleTime, &status, &job.Error, &job.CreatedAt, &executedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		job.Status = models.JobStatus(status)
		if executedAt.Valid {
			t := executedAt.Time
			job.ExecutedAt = &t
		}
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}

func (r *scheduledJobRepository) Claim(ctx context.Context, tx *sql.Tx, jobID string) (bool, error) {
	query := `UPDATE scheduled_jobs SET status = $1 WHERE id = $2 AND status = $3`
	res, err := execer(r.db, tx).ExecContext(ctx, query,
		string(models.JobStatusRunning), jobID, string(models.JobStatusPending))
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *scheduledJobRepository) Finish(ctx context.Context, tx *sql.Tx, job *models.ScheduledJob) error {
	query := `
		UPDATE scheduled_jobs
		SET status = $1,
			error_message = $2,
			executed_at = $3
		WHERE id = $4 AND status = $5
	`
	res, err := execer(r.db, tx).ExecContext(ctx, query,
		string(job.Status), job.Error, job.ExecutedAt, job.ID, string(models.JobStatusRunning))
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return requireRow(res)
}

func (r *scheduledJobRepository) CancelPending(ctx context.Context, tx *sql.Tx, postID string, at time.Time) (bool, error) {
	query := `UPDATE scheduled_jobs SET status = $1, executed_at = $2 WHERE post_id = $3 AND status = $4`
	res, err := execer(r.db, tx).ExecContext(ctx, query,
		string(models.JobStatusCancelled), at, postID, string(models.JobStatusPending))
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
