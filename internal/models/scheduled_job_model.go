package models

import (
	"fmt"
	"time"
)

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

type ScheduledJob struct {
	ID           string     `db:"id" json:"id"`
	PostID       string     `db:"post_id" json:"post_id"`
	ScheduleTime time.Time  `db:"schedule_time" json:"schedule_time"`
	Status       JobStatus  `db:"status" json:"status"`
	Error        string     `db:"error_message" json:"error,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	ExecutedAt   *time.Time `db:"executed_at" json:"executed_at,omitempty"`
}

// Due uses <= so a trigger missed while the process was down still fires.
func (j *ScheduledJob) Due(now time.Time) bool {
	return j.Status == JobStatusPending && !j.ScheduleTime.After(now)
}

func (j *ScheduledJob) Start() error {
	return j.move(JobStatusPending, JobStatusRunning, nil)
}

func (j *ScheduledJob) Complete(now time.Time) error {
	return j.move(JobStatusRunning, JobStatusCompleted, &now)
}

func (j *ScheduledJob) Fail(now time.Time, reason string) error {
	if err := j.move(JobStatusRunning, JobStatusFailed, &now); err != nil {
		return err
	}
	j.Error = reason
	return nil
}

func (j *ScheduledJob) Cancel(now time.Time) error {
	return j.move(JobStatusPending, JobStatusCancelled, &now)
}

func (j *ScheduledJob) move(from, to JobStatus, at *time.Time) error {
	if j.Status != from {
		return fmt.Errorf("%w: job %s is %s, want %s", ErrInvalidTransition, j.ID, j.Status, from)
	}
	j.Status = to
	if at != nil && j.ExecutedAt == nil {
		t := *at
		j.ExecutedAt = &t
	}
	return nil
}
