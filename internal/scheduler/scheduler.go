package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/robfig/cron"

	"github.com/maheshrc27/viralflow/internal/content"
	"github.com/maheshrc27/viralflow/internal/models"
)

const DefaultInterval = time.Minute

// finishAttempts bounds how often a terminal write is tried within one tick.
// A write that still fails is carried over and retried on later ticks.
const finishAttempts = 3

// interruptedReason marks platforms of a job that was running when the process stopped.
const interruptedReason = "interrupted"

// Store is the durable record of posts and jobs. Every method that touches
// both a post and its job applies the change atomically.
type Store interface {
	GetPost(ctx context.Context, id string) (*models.Post, error)
	UpdatePost(ctx context.Context, id string, fields models.PostFields) error
	// SchedulePost persists the post as scheduled together with its pending job.
	SchedulePost(ctx context.Context, post *models.Post, job *models.ScheduledJob) error
	// ClaimJob moves the job pending->running and its post scheduled->posting.
	// It reports false when either was no longer in that state.
	ClaimJob(ctx context.Context, jobID, postID string) (bool, error)
	// FinishJob records the job's terminal state with the post's status and results.
	FinishJob(ctx context.Context, job *models.ScheduledJob, status models.PostStatus, results map[string]models.PostResult) error
	// CancelJob moves the post's pending job to cancelled and the post to cancelled.
	// It reports false when no pending job was found.
	CancelJob(ctx context.Context, postID string, at time.Time) (bool, error)
	ListPendingJobs(ctx context.Context) ([]*models.ScheduledJob, error)
	// ListRunningJobs returns jobs that were claimed but never reached a terminal state.
	ListRunningJobs(ctx context.Context) ([]*models.ScheduledJob, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, post models.PostView) map[string]models.PostResult
}

type Option func(*Scheduler)

func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithGenerator fills in missing description and hashtags before a job dispatches.
func WithGenerator(g content.Generator) Option {
	return func(s *Scheduler) { s.generator = g }
}

type Scheduler struct {
	store      Store
	dispatcher Dispatcher
	generator  content.Generator
	clock      Clock
	interval   time.Duration

	mu         sync.Mutex
	queue      jobQueue
	byPost     map[string]*entry
	unrecorded map[string]*outcome

	tickMu sync.Mutex
	cron   *cron.Cron
}

func New(store Store, dispatcher Dispatcher, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:      store,
		dispatcher: dispatcher,
		clock:      systemClock{},
		interval:   DefaultInterval,
		byPost:     make(map[string]*entry),
		unrecorded: make(map[string]*outcome),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule validates at, persists post and job, and registers the job for firing.
func (s *Scheduler) Schedule(ctx context.Context, post *models.Post, at time.Time) (*models.ScheduledJob, error) {
	now := s.clock.Now()
	if err := ValidateScheduleTime(now, at); err != nil {
		return nil, err
	}

	s.mu.Lock()
	_, pending := s.byPost[post.ID]
	s.mu.Unlock()
	if pending {
		return nil, ErrAlreadyScheduled
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	job := &models.ScheduledJob{
		ID:           id,
		PostID:       post.ID,
		ScheduleTime: at,
		Status:       models.JobStatusPending,
		CreatedAt:    now,
	}

	prevStatus, prevTime := post.Status, post.ScheduleTime
	if err := post.Transition(models.PostStatusScheduled, now); err != nil {
		return nil, err
	}
	post.ScheduleTime = &at

	if err := s.store.SchedulePost(ctx, post, job); err != nil {
		post.Status, post.ScheduleTime = prevStatus, prevTime
		slog.Info(err.Error(), "post_id", post.ID)
		return nil, fmt.Errorf("schedule post: %w", err)
	}

	s.push(job)
	slog.Info("post scheduled", "post_id", post.ID, "job_id", job.ID, "at", at)
	return job, nil
}

// Cancel cancels the post's pending job. A job already picked up by a tick
// reports ErrJobAlreadyFired.
func (s *Scheduler) Cancel(ctx context.Context, postID string) error {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}

	switch post.Status {
	case models.PostStatusScheduled:
	case models.PostStatusPosting, models.PostStatusPosted, models.PostStatusFailed:
		if post.ScheduleTime != nil {
			return ErrJobAlreadyFired
		}
		return ErrPostNotScheduled
	default:
		return ErrPostNotScheduled
	}

	s.mu.Lock()
	e := s.byPost[postID]
	if e != nil {
		s.remove(e)
	}
	s.mu.Unlock()

	now := s.clock.Now()
	ok, err := s.store.CancelJob(ctx, postID, now)
	if err != nil {
		if e != nil {
			s.push(e.job)
		}
		return err
	}
	if !ok {
		return ErrJobAlreadyFired
	}
	if e != nil {
		_ = e.job.Cancel(now)
	}

	slog.Info("scheduled post cancelled", "post_id", postID)
	return nil
}

// Recover loads pending jobs from the store. Jobs whose time passed while the
// process was down fire once on the next tick. Jobs left running by a stopped
// process are finished as failed, since their dispatch outcome is unknown.
func (s *Scheduler) Recover(ctx context.Context) (int, error) {
	if err := s.finishInterrupted(ctx); err != nil {
		return 0, err
	}

	jobs, err := s.store.ListPendingJobs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pending jobs: %w", err)
	}

	n := 0
	for _, job := range jobs {
		if job.Status != models.JobStatusPending {
			continue
		}
		if s.push(job) {
			n++
		}
	}
	slog.Info("scheduler recovered pending jobs", "count", n)
	return n, nil
}

func (s *Scheduler) finishInterrupted(ctx context.Context) error {
	running, err := s.store.ListRunningJobs(ctx)
	if err != nil {
		return fmt.Errorf("list running jobs: %w", err)
	}

	for _, job := range running {
		if job.Status != models.JobStatusRunning || s.isUnrecorded(job.ID) {
			continue
		}
		post, err := s.store.GetPost(ctx, job.PostID)
		if err != nil {
			return fmt.Errorf("load post %s: %w", job.PostID, err)
		}
		slog.Info("finishing interrupted job", "job_id", job.ID, "post_id", job.PostID)
		s.finish(ctx, job, post, interruptedReason)
	}
	return nil
}

// Pending returns the number of registered jobs.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Tick fires every due job and returns how many ran. Overlapping ticks are skipped.
func (s *Scheduler) Tick(ctx context.Context) int {
	if !s.tickMu.TryLock() {
		return 0
	}
	defer s.tickMu.Unlock()

	s.retryUnrecorded(ctx)

	due := s.popDue(s.clock.Now())
	ran := 0
	for _, job := range due {
		if s.fire(ctx, job) {
			ran++
		}
	}
	return ran
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.cron = cron.New()
	err := s.cron.AddFunc("@every "+s.interval.String(), func() {
		s.Tick(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	go s.Tick(ctx)

	slog.Info("scheduler started", "interval", s.interval.String())
	return nil
}

// Stop halts the timer and waits for an in-flight tick.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	s.tickMu.Lock()
	s.tickMu.Unlock()
}

func (s *Scheduler) push(job *models.ScheduledJob) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byPost[job.PostID]; ok {
		return false
	}
	e := &entry{job: job}
	heap.Push(&s.queue, e)
	s.byPost[job.PostID] = e
	return true
}

// remove must be called with s.mu held.
func (s *Scheduler) remove(e *entry) {
	if e.index >= 0 {
		heap.Remove(&s.queue, e.index)
	}
	delete(s.byPost, e.job.PostID)
}

func (s *Scheduler) popDue(now time.Time) []*models.ScheduledJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*models.ScheduledJob
	for {
		e := s.queue.peek()
		if e == nil || !e.job.Due(now) {
			return due
		}
		heap.Pop(&s.queue)
		delete(s.byPost, e.job.PostID)
		due = append(due, e.job)
	}
}

func (s *Scheduler) fire(ctx context.Context, job *models.ScheduledJob) bool {
	claimed, err := s.store.ClaimJob(ctx, job.ID, job.PostID)
	if err != nil {
		slog.Error("claim job failed, will retry next tick", "job_id", job.ID, "error", err)
		s.push(job)
		return false
	}
	if !claimed {
		slog.Info("job no longer pending, skipping", "job_id", job.ID, "post_id", job.PostID)
		return false
	}
	if err := job.Start(); err != nil {
		slog.Error(err.Error(), "job_id", job.ID)
	}

	s.execute(ctx, job)
	return true
}

func (s *Scheduler) execute(ctx context.Context, job *models.ScheduledJob) {
	var post *models.Post
	defer func() {
		if r := recover(); r != nil {
			slog.Error("job execution panicked", "job_id", job.ID, "post_id", job.PostID, "panic", r)
			s.finish(ctx, job, post, fmt.Sprintf("internal error: %v", r))
		}
	}()

	post, err := s.store.GetPost(ctx, job.PostID)
	if err == nil && post == nil {
		err = ErrPostNotFound
	}
	if err != nil {
		slog.Error("load post for job", "job_id", job.ID, "error", err)
		s.finish(ctx, job, nil, err.Error())
		return
	}

	if s.generator != nil && post.AIContent == nil {
		s.enrich(ctx, post)
	}

	results := s.dispatcher.Dispatch(ctx, post.View())
	s.record(ctx, job, results)
}

// finish marks every targeted platform failed with reason.
func (s *Scheduler) finish(ctx context.Context, job *models.ScheduledJob, post *models.Post, reason string) {
	results := map[string]models.PostResult{}
	if post != nil {
		for _, p := range post.Platforms {
			results[p] = models.FailedResult(reason)
		}
	}
	s.record(ctx, job, results)
}

// outcome is a terminal job state that still has to reach the store.
type outcome struct {
	job     *models.ScheduledJob
	status  models.PostStatus
	results map[string]models.PostResult
}

func (s *Scheduler) record(ctx context.Context, job *models.ScheduledJob, results map[string]models.PostResult) {
	now := s.clock.Now()
	status := models.PostStatusFailed
	if models.AnySucceeded(results) {
		status = models.PostStatusPosted
		_ = job.Complete(now)
	} else {
		_ = job.Fail(now, "no platform succeeded")
	}

	o := &outcome{job: job, status: status, results: results}
	if err := s.persist(ctx, o); err != nil {
		slog.Error("record job result, will retry next tick", "job_id", job.ID, "post_id", job.PostID, "error", err)
		s.mu.Lock()
		s.unrecorded[job.ID] = o
		s.mu.Unlock()
		return
	}
	slog.Info("job finished", "job_id", job.ID, "post_id", job.PostID, "status", string(job.Status))
}

func (s *Scheduler) persist(ctx context.Context, o *outcome) error {
	var err error
	for attempt := 0; attempt < finishAttempts; attempt++ {
		if err = s.store.FinishJob(ctx, o.job, o.status, o.results); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}

// retryUnrecorded writes outcomes that earlier ticks failed to store. The
// platforms are never dispatched again.
func (s *Scheduler) retryUnrecorded(ctx context.Context) {
	s.mu.Lock()
	pending := make([]*outcome, 0, len(s.unrecorded))
	for _, o := range s.unrecorded {
		pending = append(pending, o)
	}
	s.mu.Unlock()

	for _, o := range pending {
		if err := s.persist(ctx, o); err != nil {
			slog.Error("record job result", "job_id", o.job.ID, "post_id", o.job.PostID, "error", err)
			continue
		}
		s.mu.Lock()
		delete(s.unrecorded, o.job.ID)
		s.mu.Unlock()
		slog.Info("job finished", "job_id", o.job.ID, "post_id", o.job.PostID, "status", string(o.job.Status))
	}
}

// Unrecorded returns the number of finished jobs whose outcome is not stored yet.
func (s *Scheduler) Unrecorded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.unrecorded)
}

func (s *Scheduler) isUnrecorded(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.unrecorded[jobID]
	return ok
}

func (s *Scheduler) enrich(ctx context.Context, post *models.Post) {
	generated := s.generator.Generate(ctx, content.GenerateRequest{
		Title:     post.Title,
		Category:  post.Category,
		Platforms: post.Platforms,
	})
	post.AIContent = generated

	fields := models.PostFields{AIContent: generated}
	if post.Description == "" {
		post.Description = generated.Description
		fields.Description = &post.Description
	}
	if len(post.Hashtags) == 0 {
		post.Hashtags = generated.Hashtags
		fields.Hashtags = post.Hashtags
	}
	score := content.ScoreContent(post.Title, generated)
	post.ViralScore = score
	fields.ViralScore = &score

	if err := s.store.UpdatePost(ctx, post.ID, fields); err != nil {
		slog.Info(err.Error(), "post_id", post.ID)
	}
}
