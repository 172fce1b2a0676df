package scheduler

import "errors"

var (
	ErrInvalidScheduleTime = errors.New("invalid schedule time")
	ErrPostNotScheduled    = errors.New("post is not scheduled")
	ErrJobAlreadyFired     = errors.New("job already fired")
	ErrAlreadyScheduled    = errors.New("post already has a pending job")
	ErrPostNotFound        = errors.New("post not found")
)
