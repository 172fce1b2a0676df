package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/maheshrc27/viralflow/internal/caption"
	"github.com/maheshrc27/viralflow/internal/content"
	"github.com/maheshrc27/viralflow/internal/models"
	"github.com/maheshrc27/viralflow/internal/repository"
	"github.com/maheshrc27/viralflow/internal/scheduler"
	"github.com/maheshrc27/viralflow/internal/transfer"
)

var ErrPostNotReady = errors.New("post is not ready to publish")

// recordAttempts bounds how often publish results are written before giving up.
const recordAttempts = 3

// interruptedReason marks platforms of a publish that was cut off by a restart.
const interruptedReason = "interrupted"

// Scheduler is the part of the job scheduler the post service drives.
type Scheduler interface {
	Schedule(ctx context.Context, post *models.Post, at time.Time) (*models.ScheduledJob, error)
	Cancel(ctx context.Context, postID string) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, post models.PostView) map[string]models.PostResult
}

type MediaUploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}

type PostService interface {
	// CreatePost saves a new post and either schedules it or marks it ready.
	// The returned job is nil for posts that are not scheduled.
	CreatePost(ctx context.Context, pc *transfer.PostCreation) (*models.Post, *models.ScheduledJob, error)
	GenerateContent(ctx context.Context, req *transfer.ContentRequest) (*models.GeneratedContent, error)
	// PublishNow dispatches a ready post immediately.
	PublishNow(ctx context.Context, postID string) (map[string]models.PostResult, error)
	Cancel(ctx context.Context, postID string) error
	Get(ctx context.Context, postID string) (*models.Post, error)
	ListScheduled(ctx context.Context, filter models.ScheduledPostFilter) ([]*models.Post, error)
	UploadMedia(ctx context.Context, data []byte) (string, error)
	// RecoverInterrupted fails unscheduled posts left in posting by a stopped
	// process. It must run before the publish worker starts.
	RecoverInterrupted(ctx context.Context) (int, error)
}

type postService struct {
	pr         repository.PostRepository
	validator  ValidationService
	generator  content.Generator
	scheduler  Scheduler
	dispatcher Dispatcher
	media      MediaUploader
	now        func() time.Time
}

func NewPostService(
	pr repository.PostRepository,
	validator ValidationService,
	generator content.Generator,
	scheduler Scheduler,
	dispatcher Dispatcher,
	media MediaUploader) PostService {
	return &postService{
		pr:         pr,
		validator:  validator,
		generator:  generator,
		scheduler:  scheduler,
		dispatcher: dispatcher,
		media:      media,
		now:        time.Now,
	}
}

func (s *postService) CreatePost(ctx context.Context, pc *transfer.PostCreation) (*models.Post, *models.ScheduledJob, error) {
	if err := s.validator.ValidatePost(pc); err != nil {
		return nil, nil, err
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, nil, err
	}
	now := s.now().UTC()
	post := &models.Post{
		ID:          id,
		Title:       pc.Title,
		Description: pc.Description,
		Category:    caption.NormalizeCategory(pc.Category),
		Hashtags:    caption.CleanHashtags(pc.Hashtags, caption.MaxHashtags),
		Platforms:   pc.Platforms,
		Overrides:   pc.Overrides,
		MediaKey:    pc.MediaKey,
		Status:      models.PostStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if pc.Generate {
		generated := s.generator.Generate(ctx, content.GenerateRequest{
			Title:     pc.Title,
			Category:  post.Category,
			Platforms: pc.Platforms,
			Tone:      pc.Tone,
			Audience:  pc.Audience,
		})
		applyGenerated(post, generated)
	} else {
		post.ViralScore = content.Score(post.Title, post.Hashtags)
	}

	// The scheduler stores the post together with its job.
	if pc.ScheduleTime != nil {
		job, err := s.scheduler.Schedule(ctx, post, *pc.ScheduleTime)
		if err != nil {
			return nil, nil, fmt.Errorf("error scheduling post: %w", err)
		}
		return post, job, nil
	}

	if err := post.Transition(models.PostStatusReady, now); err != nil {
		return nil, nil, err
	}
	if err := s.pr.Create(ctx, nil, post); err != nil {
		return nil, nil, fmt.Errorf("error creating post: %w", err)
	}
	return post, nil, nil
}

// applyGenerated fills only the fields the caller left empty.
func applyGenerated(post *models.Post, generated *models.GeneratedContent) {
	post.AIContent = generated
	if post.Description == "" {
		post.Description = generated.Description
	}
	if len(post.Hashtags) == 0 {
		post.Hashtags = generated.Hashtags
	}
	for _, p := range post.Platforms {
		variant, ok := generated.Platforms[p]
		if !ok {
			continue
		}
		if _, set := post.Overrides[p]; set {
			continue
		}
		if post.Overrides == nil {
			post.Overrides = make(map[string]models.PlatformContent)
		}
		post.Overrides[p] = models.PlatformContent{
			Title:       variant.Title,
			Description: variant.Description,
			Hashtags:    variant.Hashtags,
		}
	}
	post.ViralScore = content.ScoreContent(post.Title, generated)
}

func (s *postService) GenerateContent(ctx context.Context, req *transfer.ContentRequest) (*models.GeneratedContent, error) {
	if err := s.validator.ValidateContentRequest(req); err != nil {
		return nil, err
	}
	return s.generator.Generate(ctx, content.GenerateRequest{
		Title:        req.Title,
		Category:     caption.NormalizeCategory(req.Category),
		Platforms:    req.Platforms,
		Tone:         req.Tone,
		Audience:     req.Audience,
		DurationHint: req.DurationHint,
	}), nil
}

func (s *postService) PublishNow(ctx context.Context, postID string) (map[string]models.PostResult, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, scheduler.ErrPostNotFound
	}
	if post.Status != models.PostStatusReady {
		return nil, fmt.Errorf("%w: status is %s", ErrPostNotReady, post.Status)
	}

	ok, err := s.pr.TransitionStatus(ctx, nil, postID, models.PostStatusReady, models.PostStatusPosting)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPostNotReady
	}

	results := s.dispatcher.Dispatch(ctx, post.View())

	status := models.PostStatusFailed
	if models.AnySucceeded(results) {
		status = models.PostStatusPosted
	}
	if err := s.record(ctx, postID, models.PostFields{Status: &status, Results: results}); err != nil {
		slog.Error("record publish results", "post_id", postID, "error", err)
		return results, err
	}

	slog.Info("post published", "post_id", postID, "status", string(status))
	return results, nil
}

func (s *postService) record(ctx context.Context, postID string, fields models.PostFields) error {
	var err error
	for attempt := 0; attempt < recordAttempts; attempt++ {
		if err = s.pr.Update(ctx, nil, postID, fields); err == nil {
			return nil
		}
		if errors.Is(err, repository.ErrNotFound) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

func (s *postService) RecoverInterrupted(ctx context.Context) (int, error) {
	stuck, err := s.pr.ListByStatus(ctx, models.PostStatusPosting)
	if err != nil {
		return 0, fmt.Errorf("list posting posts: %w", err)
	}

	n := 0
	for _, post := range stuck {
		// scheduled posts are finished through their job
		if post.ScheduleTime != nil {
			continue
		}
		results := make(map[string]models.PostResult, len(post.Platforms))
		for _, p := range post.Platforms {
			results[p] = models.FailedResult(interruptedReason)
		}
		status := models.PostStatusFailed
		if err := s.record(ctx, post.ID, models.PostFields{Status: &status, Results: results}); err != nil {
			return n, fmt.Errorf("fail interrupted post %s: %w", post.ID, err)
		}
		slog.Info("interrupted post marked failed", "post_id", post.ID)
		n++
	}
	return n, nil
}

func (s *postService) Cancel(ctx context.Context, postID string) error {
	return s.scheduler.Cancel(ctx, postID)
}

func (s *postService) Get(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, scheduler.ErrPostNotFound
	}
	return post, nil
}

func (s *postService) ListScheduled(ctx context.Context, filter models.ScheduledPostFilter) ([]*models.Post, error) {
	return s.pr.ListScheduled(ctx, filter)
}

// UploadMedia stores a video under a fresh key and returns the key.
func (s *postService) UploadMedia(ctx context.Context, data []byte) (string, error) {
	if err := s.validator.ValidateVideo(head(data), int64(len(data))); err != nil {
		return "", err
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == types.Unknown {
		return "", &ValidationError{Problems: []string{"media: unsupported file type"}}
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("media/%s.%s", id, kind.Extension)

	if err := s.media.Upload(ctx, key, data, kind.MIME.Value); err != nil {
		return "", fmt.Errorf("error uploading file: %w", err)
	}
	return key, nil
}

// head returns the bytes filetype needs to sniff a container.
func head(data []byte) []byte {
	if len(data) > 261 {
		return data[:261]
	}
	return data
}
