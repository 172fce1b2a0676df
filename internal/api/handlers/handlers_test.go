package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/viralflow/internal/caption"
	"github.com/maheshrc27/viralflow/internal/models"
	"github.com/maheshrc27/viralflow/internal/platform"
	"github.com/maheshrc27/viralflow/internal/scheduler"
	"github.com/maheshrc27/viralflow/internal/service"
	"github.com/maheshrc27/viralflow/internal/transfer"
)

type fakePosts struct {
	created   *transfer.PostCreation
	job       *models.ScheduledJob
	createErr error
	cancelErr error
	filter    models.ScheduledPostFilter
}

func (f *fakePosts) CreatePost(ctx context.Context, pc *transfer.PostCreation) (*models.Post, *models.ScheduledJob, error) {
	f.created = pc
	if f.createErr != nil {
		return nil, nil, f.createErr
	}
	status := models.PostStatusReady
	if f.job != nil {
		status = models.PostStatusScheduled
	}
	return &models.Post{ID: "p1", Title: pc.Title, Platforms: pc.Platforms, Status: status}, f.job, nil
}

func (f *fakePosts) GenerateContent(ctx context.Context, req *transfer.ContentRequest) (*models.GeneratedContent, error) {
	return &models.GeneratedContent{Description: "desc", Fallback: true}, nil
}

func (f *fakePosts) PublishNow(ctx context.Context, postID string) (map[string]models.PostResult, error) {
	return nil, nil
}

func (f *fakePosts) Cancel(ctx context.Context, postID string) error {
	return f.cancelErr
}

func (f *fakePosts) Get(ctx context.Context, postID string) (*models.Post, error) {
	switch postID {
	case "p1":
		return &models.Post{ID: "p1", Title: "t"}, nil
	case "ready":
		return &models.Post{ID: "ready", Title: "t", Status: models.PostStatusReady}, nil
	case "posted":
		return &models.Post{ID: "posted", Title: "t", Status: models.PostStatusPosted}, nil
	}
	return nil, scheduler.ErrPostNotFound
}

func (f *fakePosts) RecoverInterrupted(ctx context.Context) (int, error) { return 0, nil }

func (f *fakePosts) ListScheduled(ctx context.Context, filter models.ScheduledPostFilter) ([]*models.Post, error) {
	f.filter = filter
	return nil, nil
}

func (f *fakePosts) UploadMedia(ctx context.Context, data []byte) (string, error) {
	return "media/x.mp4", nil
}

type fakePlatforms struct {
	connectRes platform.ConnectResult
}

func (f *fakePlatforms) Connect(ctx context.Context, p string, creds map[string]string) (platform.ConnectResult, error) {
	return f.connectRes, nil
}

func (f *fakePlatforms) Status(ctx context.Context) []models.PlatformStatus {
	return []models.PlatformStatus{{Platform: "tiktok", Connected: true, Capabilities: []string{"short_video"}}}
}

func (f *fakePlatforms) Revoke(ctx context.Context, p string) error {
	if p != "tiktok" {
		return platform.ErrNotConnected
	}
	return nil
}

func (f *fakePlatforms) Restore(ctx context.Context) (int, error) { return 0, nil }

type recordingEnqueuer struct {
	tasks []*asynq.Task
}

func (r *recordingEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func newApp(posts *fakePosts, platforms *fakePlatforms, q *recordingEnqueuer) *fiber.App {
	app := fiber.New()
	Register(app,
		NewPostHandler(posts, q),
		NewPlatformHandler(platforms, service.NewValidationService(caption.Default())),
	)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func TestCreatePostQueuesImmediatePublish(t *testing.T) {
	posts := &fakePosts{}
	q := &recordingEnqueuer{}
	app := newApp(posts, &fakePlatforms{}, q)

	resp, body := doJSON(t, app, http.MethodPost, "/api/posts", `{"title":"Cat","platforms":["tiktok"]}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Cat", posts.created.Title)
	require.Len(t, q.tasks, 1)
	assert.Contains(t, string(q.tasks[0].Payload()), "p1")
	assert.NotContains(t, body, "job_id")
}

func TestCreatePostScheduledSkipsQueue(t *testing.T) {
	posts := &fakePosts{job: &models.ScheduledJob{ID: "j1"}}
	q := &recordingEnqueuer{}
	app := newApp(posts, &fakePlatforms{}, q)

	at := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	resp, body := doJSON(t, app, http.MethodPost, "/api/posts",
		`{"title":"Cat","platforms":["tiktok"],"schedule_time":"`+at+`"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "j1", body["job_id"])
	assert.Empty(t, q.tasks)
	require.NotNil(t, posts.created.ScheduleTime)
}

func TestCreatePostValidationError(t *testing.T) {
	posts := &fakePosts{createErr: &service.ValidationError{Problems: []string{"title: this field is required"}}}
	app := newApp(posts, &fakePlatforms{}, &recordingEnqueuer{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/posts", `{"platforms":["tiktok"]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, []any{"title: this field is required"}, body["errors"])
}

func TestCancelRaceIsConflict(t *testing.T) {
	posts := &fakePosts{cancelErr: scheduler.ErrJobAlreadyFired}
	app := newApp(posts, &fakePlatforms{}, &recordingEnqueuer{})

	resp, _ := doJSON(t, app, http.MethodPost, "/api/posts/p1/cancel", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGetPostNotFound(t *testing.T) {
	app := newApp(&fakePosts{}, &fakePlatforms{}, &recordingEnqueuer{})

	resp, _ := doJSON(t, app, http.MethodGet, "/api/posts/zzz", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodGet, "/api/posts/p1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "p1", body["id"])
}

func TestListScheduledFilters(t *testing.T) {
	posts := &fakePosts{}
	app := newApp(posts, &fakePlatforms{}, &recordingEnqueuer{})

	resp, _ := doJSON(t, app, http.MethodGet, "/api/posts/scheduled?platform=kawai&date=2025-03-01", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "kawai", posts.filter.Platform)
	require.NotNil(t, posts.filter.Date)
	assert.Equal(t, 1, posts.filter.Date.Day())

	resp, _ = doJSON(t, app, http.MethodGet, "/api/posts/scheduled?date=March", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateContent(t *testing.T) {
	app := newApp(&fakePosts{}, &fakePlatforms{}, &recordingEnqueuer{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/content/generate", `{"title":"t","platforms":["youtube"]}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["fallback"])
}

func TestConnectPlatform(t *testing.T) {
	platforms := &fakePlatforms{connectRes: platform.ConnectResult{Success: true}}
	app := newApp(&fakePosts{}, platforms, &recordingEnqueuer{})

	resp, body := doJSON(t, app, http.MethodPost, "/api/platforms/tiktok/connect", `{"credentials":{"access_token":"x"}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	resp, _ = doJSON(t, app, http.MethodPost, "/api/platforms/tiktok/connect", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	platforms.connectRes = platform.ConnectResult{Success: false, Error: "invalid credentials"}
	resp, body = doJSON(t, app, http.MethodPost, "/api/platforms/tiktok/connect", `{"credentials":{"access_token":"x"}}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid credentials", body["error"])
}

func TestListAndRevokePlatforms(t *testing.T) {
	app := newApp(&fakePosts{}, &fakePlatforms{}, &recordingEnqueuer{})

	req := httptest.NewRequest(http.MethodGet, "/api/platforms", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	var statuses []models.PlatformStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&statuses))
	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].Connected)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/platforms/tiktok", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/platforms/youtube", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOptimalTimes(t *testing.T) {
	app := newApp(&fakePosts{}, &fakePlatforms{}, &recordingEnqueuer{})

	resp, body := doJSON(t, app, http.MethodGet, "/api/schedule/optimal-times?platform=tiktok&category=humor", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"18:00", "21:00"}, body["times"])

	resp, _ = doJSON(t, app, http.MethodGet, "/api/schedule/optimal-times", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPublishReadyPost(t *testing.T) {
	q := &recordingEnqueuer{}
	app := newApp(&fakePosts{}, &fakePlatforms{}, q)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/posts/ready/publish", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Len(t, q.tasks, 1)
	assert.Contains(t, string(q.tasks[0].Payload()), "ready")

	resp, _ = doJSON(t, app, http.MethodPost, "/api/posts/posted/publish", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/posts/zzz/publish", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Len(t, q.tasks, 1)
}
