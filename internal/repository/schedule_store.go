package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/maheshrc27/viralflow/internal/models"
)

// ScheduleStore backs the scheduler with Postgres. Changes spanning a post and
// its job run in one transaction.
type ScheduleStore struct {
	db    *sql.DB
	posts PostRepository
	jobs  ScheduledJobRepository
}

func NewScheduleStore(db *sql.DB, posts PostRepository, jobs ScheduledJobRepository) *ScheduleStore {
	return &ScheduleStore{db: db, posts: posts, jobs: jobs}
}

func (s *ScheduleStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	return s.posts.GetByID(ctx, id)
}

func (s *ScheduleStore) UpdatePost(ctx context.Context, id string, fields models.PostFields) error {
	return s.posts.Update(ctx, nil, id, fields)
}

func (s *ScheduleStore) SchedulePost(ctx context.Context, post *models.Post, job *models.ScheduledJob) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.posts.Save(ctx, tx, post); err != nil {
			return fmt.Errorf("save post: %w", err)
		}
		if err := s.jobs.Create(ctx, tx, job); err != nil {
			return fmt.Errorf("create job: %w", err)
		}
		return nil
	})
}

func (s *ScheduleStore) ClaimJob(ctx context.Context, jobID, postID string) (bool, error) {
	claimed := false
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		ok, err := s.jobs.Claim(ctx, tx, jobID)
		if err != nil || !ok {
			return err
		}
		ok, err = s.posts.TransitionStatus(ctx, tx, postID, models.PostStatusScheduled, models.PostStatusPosting)
		if err != nil {
			return err
		}
		if !ok {
			return errStale
		}
		claimed = true
		return nil
	})
	if err == errStale {
		return false, nil
	}
	return claimed, err
}

func (s *ScheduleStore) FinishJob(ctx context.Context, job *models.ScheduledJob, status models.PostStatus, results map[string]models.PostResult) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.jobs.Finish(ctx, tx, job); err != nil {
			return fmt.Errorf("finish job: %w", err)
		}
		fields := models.PostFields{Status: &status, Results: results}
		if fields.Results == nil {
			fields.Results = map[string]models.PostResult{}
		}
		if err := s.posts.Update(ctx, tx, job.PostID, fields); err != nil {
			return fmt.Errorf("record results: %w", err)
		}
		return nil
	})
}

func (s *ScheduleStore) CancelJob(ctx context.Context, postID string, at time.Time) (bool, error) {
	cancelled := false
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		ok, err := s.jobs.CancelPending(ctx, tx, postID, at)
		if err != nil || !ok {
			return err
		}
		ok, err = s.posts.TransitionStatus(ctx, tx, postID, models.PostStatusScheduled, models.PostStatusCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return errStale
		}
		cancelled = true
		return nil
	})
	if err == errStale {
		return false, nil
	}
	return cancelled, err
}

func (s *ScheduleStore) ListPendingJobs(ctx context.Context) ([]*models.ScheduledJob, error) {
	return s.jobs.ListPending(ctx)
}

func (s *ScheduleStore) ListRunningJobs(ctx context.Context) ([]*models.ScheduledJob, error) {
	return s.jobs.ListRunning(ctx)
}
