package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/viralflow/internal/caption"
	"github.com/maheshrc27/viralflow/internal/content"
	"github.com/maheshrc27/viralflow/internal/models"
	"github.com/maheshrc27/viralflow/internal/platform"
	"github.com/maheshrc27/viralflow/internal/repository"
	"github.com/maheshrc27/viralflow/internal/scheduler"
	"github.com/maheshrc27/viralflow/internal/transfer"
)

type memPosts struct {
	mu    sync.Mutex
	posts map[string]*models.Post
	// updateFailures makes the next n Update calls fail.
	updateFailures int
}

func newMemPosts() *memPosts {
	return &memPosts{posts: map[string]*models.Post{}}
}

func (m *memPosts) Create(ctx context.Context, tx *sql.Tx, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *post
	m.posts[post.ID] = &cp
	return nil
}

func (m *memPosts) Save(ctx context.Context, tx *sql.Tx, post *models.Post) error {
	return m.Create(ctx, tx, post)
}

func (m *memPosts) GetByID(ctx context.Context, id string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *memPosts) Update(ctx context.Context, tx *sql.Tx, id string, f models.PostFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateFailures > 0 {
		m.updateFailures--
		return errors.New("connection reset")
	}
	p, ok := m.posts[id]
	if !ok {
		return repository.ErrNotFound
	}
	if f.Status != nil {
		p.Status = *f.Status
	}
	if f.Results != nil {
		p.Results = f.Results
	}
	return nil
}

func (m *memPosts) TransitionStatus(ctx context.Context, tx *sql.Tx, id string, from, to models.PostStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	return true, nil
}

func (m *memPosts) ListScheduled(ctx context.Context, filter models.ScheduledPostFilter) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Post
	for _, p := range m.posts {
		if p.Status == models.PostStatusScheduled {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPosts) ListByStatus(ctx context.Context, status models.PostStatus) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Post
	for _, p := range m.posts {
		if p.Status == status {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeScheduler struct {
	posts       *memPosts
	scheduled   map[string]time.Time
	scheduleErr error
	cancelErr   error
}

func (f *fakeScheduler) Schedule(ctx context.Context, post *models.Post, at time.Time) (*models.ScheduledJob, error) {
	if f.scheduleErr != nil {
		return nil, f.scheduleErr
	}
	if err := post.Transition(models.PostStatusScheduled, at); err != nil {
		return nil, err
	}
	post.ScheduleTime = &at
	if err := f.posts.Save(ctx, nil, post); err != nil {
		return nil, err
	}
	f.scheduled[post.ID] = at
	return &models.ScheduledJob{ID: "job-" + post.ID, PostID: post.ID, ScheduleTime: at, Status: models.JobStatusPending}, nil
}

func (f *fakeScheduler) Cancel(ctx context.Context, postID string) error {
	return f.cancelErr
}

type fakeDispatcher struct {
	results map[string]models.PostResult
	calls   int
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, post models.PostView) map[string]models.PostResult {
	f.calls++
	return f.results
}

type stubGenerator struct {
	out *models.GeneratedContent
}

func (g stubGenerator) Generate(ctx context.Context, req content.GenerateRequest) *models.GeneratedContent {
	return g.out
}

type memMedia struct {
	keys map[string]string
}

func (m *memMedia) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	m.keys[key] = contentType
	return nil
}

type postFixture struct {
	svc        PostService
	posts      *memPosts
	sched      *fakeScheduler
	dispatcher *fakeDispatcher
	media      *memMedia
}

func newPostFixture(generated *models.GeneratedContent) postFixture {
	posts := newMemPosts()
	f := postFixture{
		posts:      posts,
		sched:      &fakeScheduler{posts: posts, scheduled: map[string]time.Time{}},
		dispatcher: &fakeDispatcher{},
		media:      &memMedia{keys: map[string]string{}},
	}
	f.svc = NewPostService(f.posts, NewValidationService(caption.Default()), stubGenerator{out: generated}, f.sched, f.dispatcher, f.media)
	return f
}

func TestCreatePostWithoutScheduleIsReady(t *testing.T) {
	f := newPostFixture(nil)

	post, job, err := f.svc.CreatePost(context.Background(), &transfer.PostCreation{
		Title:     "Gato engraçado!",
		Category:  "Comedy",
		Hashtags:  []string{"#humor", "humor", "gato"},
		Platforms: []string{"tiktok"},
	})
	require.NoError(t, err)
	assert.Nil(t, job)
	assert.Equal(t, models.PostStatusReady, post.Status)
	assert.Equal(t, "humor", post.Category)
	assert.Equal(t, []string{"humor", "gato"}, post.Hashtags)

	stored, _ := f.posts.GetByID(context.Background(), post.ID)
	assert.Equal(t, models.PostStatusReady, stored.Status)
}

func TestCreatePostSchedules(t *testing.T) {
	f := newPostFixture(nil)
	at := time.Now().Add(2 * time.Hour)

	post, job, err := f.svc.CreatePost(context.Background(), &transfer.PostCreation{
		Title:        "Later",
		Platforms:    []string{"youtube", "kawai"},
		ScheduleTime: &at,
	})
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, post.ID, job.PostID)
	assert.Equal(t, models.PostStatusScheduled, post.Status)
	assert.Equal(t, at, f.sched.scheduled[post.ID])

	stored, _ := f.posts.GetByID(context.Background(), post.ID)
	require.NotNil(t, stored)
	assert.Equal(t, models.PostStatusScheduled, stored.Status)
}

func TestCreatePostScheduleFailureStoresNothing(t *testing.T) {
	f := newPostFixture(nil)
	f.sched.scheduleErr = sql.ErrConnDone
	at := time.Now().Add(2 * time.Hour)

	post, job, err := f.svc.CreatePost(context.Background(), &transfer.PostCreation{
		Title:        "Later",
		Platforms:    []string{"youtube"},
		ScheduleTime: &at,
	})
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.Nil(t, post)
	assert.Nil(t, job)
	assert.Empty(t, f.posts.posts)
}

func TestCreatePostRejectsInvalidInput(t *testing.T) {
	f := newPostFixture(nil)
	past := time.Now().Add(-time.Hour)

	_, _, err := f.svc.CreatePost(context.Background(), &transfer.PostCreation{
		Platforms:    []string{"myspace"},
		ScheduleTime: &past,
		Overrides: map[string]models.PlatformContent{
			"youtube": {Title: "not targeted"},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Problems, "title: this field is required")
	assert.Contains(t, verr.Problems, `platforms: unknown platform "myspace"`)
	assert.Contains(t, verr.Problems, "platform_specific.youtube: platform is not targeted")
	assert.Len(t, f.posts.posts, 0)
}

func TestCreatePostOverrideLimits(t *testing.T) {
	f := newPostFixture(nil)

	_, _, err := f.svc.CreatePost(context.Background(), &transfer.PostCreation{
		Title:     "ok",
		Platforms: []string{"tiktok"},
		Overrides: map[string]models.PlatformContent{
			"tiktok": {Hashtags: []string{"a1", "a2", "a3", "a4", "a5", "a6"}},
		},
	})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"tiktok too many hashtags (max 5)"}, verr.Problems)
}

func TestCreatePostWithGeneratedContent(t *testing.T) {
	generated := &models.GeneratedContent{
		Description: "AI description",
		Hashtags:    []string{"viral", "humor"},
		Platforms: map[string]models.PlatformVariant{
			"tiktok": {Description: "short", Hashtags: []string{"fyp"}},
		},
	}
	f := newPostFixture(generated)

	post, _, err := f.svc.CreatePost(context.Background(), &transfer.PostCreation{
		Title:     "Cat",
		Platforms: []string{"tiktok", "youtube"},
		Generate:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "AI description", post.Description)
	assert.Equal(t, []string{"viral", "humor"}, post.Hashtags)
	assert.Equal(t, "short", post.Overrides["tiktok"].Description)
	_, hasYouTube := post.Overrides["youtube"]
	assert.False(t, hasYouTube)
	assert.Same(t, generated, post.AIContent)
	assert.Equal(t, content.ScoreContent("Cat", generated), post.ViralScore)
}

func TestPublishNowAnySuccess(t *testing.T) {
	f := newPostFixture(nil)
	f.dispatcher.results = map[string]models.PostResult{
		"tiktok":  models.FailedResult("not connected"),
		"youtube": models.SucceededResult("v1", "https://youtube.com/shorts/v1"),
	}
	post, _, err := f.svc.CreatePost(context.Background(), &transfer.PostCreation{
		Title: "Now", Platforms: []string{"tiktok", "youtube"},
	})
	require.NoError(t, err)

	results, err := f.svc.PublishNow(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	stored, _ := f.posts.GetByID(context.Background(), post.ID)
	assert.Equal(t, models.PostStatusPosted, stored.Status)
	assert.Equal(t, results, stored.Results)

	_, err = f.svc.PublishNow(context.Background(), post.ID)
	assert.ErrorIs(t, err, ErrPostNotReady)
	assert.Equal(t, 1, f.dispatcher.calls)
}

func TestPublishNowAllFail(t *testing.T) {
	f := newPostFixture(nil)
	f.dispatcher.results = map[string]models.PostResult{"kawai": models.FailedResult("boom")}
	post, _, err := f.svc.CreatePost(context.Background(), &transfer.PostCreation{
		Title: "Now", Platforms: []string{"kawai"},
	})
	require.NoError(t, err)

	_, err = f.svc.PublishNow(context.Background(), post.ID)
	require.NoError(t, err)
	stored, _ := f.posts.GetByID(context.Background(), post.ID)
	assert.Equal(t, models.PostStatusFailed, stored.Status)
}

func TestPublishNowRetriesResultWrite(t *testing.T) {
	f := newPostFixture(nil)
	f.dispatcher.results = map[string]models.PostResult{"kawai": models.SucceededResult("k1", "")}
	post, _, err := f.svc.CreatePost(context.Background(), &transfer.PostCreation{
		Title: "Now", Platforms: []string{"kawai"},
	})
	require.NoError(t, err)

	f.posts.updateFailures = recordAttempts - 1
	_, err = f.svc.PublishNow(context.Background(), post.ID)
	require.NoError(t, err)

	stored, _ := f.posts.GetByID(context.Background(), post.ID)
	assert.Equal(t, models.PostStatusPosted, stored.Status)
	assert.Len(t, stored.Results, 1)
	assert.Equal(t, 1, f.dispatcher.calls)
}

func TestRecoverInterruptedFailsStuckPosts(t *testing.T) {
	f := newPostFixture(nil)
	f.dispatcher.results = map[string]models.PostResult{"kawai": models.SucceededResult("k1", "")}
	post, _, err := f.svc.CreatePost(context.Background(), &transfer.PostCreation{
		Title: "Now", Platforms: []string{"kawai", "tiktok"},
	})
	require.NoError(t, err)

	f.posts.updateFailures = recordAttempts
	_, err = f.svc.PublishNow(context.Background(), post.ID)
	require.Error(t, err)
	stored, _ := f.posts.GetByID(context.Background(), post.ID)
	require.Equal(t, models.PostStatusPosting, stored.Status)

	at := time.Now().Add(time.Hour)
	scheduled, _, err := f.svc.CreatePost(context.Background(), &transfer.PostCreation{
		Title: "Later", Platforms: []string{"kawai"}, ScheduleTime: &at,
	})
	require.NoError(t, err)
	_, err = f.posts.TransitionStatus(context.Background(), nil, scheduled.ID, models.PostStatusScheduled, models.PostStatusPosting)
	require.NoError(t, err)

	n, err := f.svc.RecoverInterrupted(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, _ = f.posts.GetByID(context.Background(), post.ID)
	assert.Equal(t, models.PostStatusFailed, stored.Status)
	require.Len(t, stored.Results, 2)
	assert.Equal(t, interruptedReason, stored.Results["tiktok"].Error)

	stored, _ = f.posts.GetByID(context.Background(), scheduled.ID)
	assert.Equal(t, models.PostStatusPosting, stored.Status, "scheduled posts are recovered by the scheduler")
}

func TestPublishNowMissingPost(t *testing.T) {
	f := newPostFixture(nil)
	_, err := f.svc.PublishNow(context.Background(), "nope")
	assert.ErrorIs(t, err, scheduler.ErrPostNotFound)

	_, err = f.svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, scheduler.ErrPostNotFound)
}

func TestCancelPassesThroughRace(t *testing.T) {
	f := newPostFixture(nil)
	f.sched.cancelErr = scheduler.ErrJobAlreadyFired
	assert.ErrorIs(t, f.svc.Cancel(context.Background(), "p1"), scheduler.ErrJobAlreadyFired)
}

func TestGenerateContentValidates(t *testing.T) {
	f := newPostFixture(&models.GeneratedContent{Description: "d"})

	_, err := f.svc.GenerateContent(context.Background(), &transfer.ContentRequest{Platforms: []string{"tiktok"}})
	assert.ErrorIs(t, err, ErrValidation)

	out, err := f.svc.GenerateContent(context.Background(), &transfer.ContentRequest{Title: "t", Platforms: []string{"tiktok"}})
	require.NoError(t, err)
	assert.Equal(t, "d", out.Description)
}

func TestUploadMedia(t *testing.T) {
	f := newPostFixture(nil)
	mp4 := []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00}

	key, err := f.svc.UploadMedia(context.Background(), mp4)
	require.NoError(t, err)
	assert.Regexp(t, `^media/.+\.mp4$`, key)
	assert.Equal(t, "video/mp4", f.media.keys[key])

	_, err = f.svc.UploadMedia(context.Background(), []byte("plain text, not a video"))
	assert.ErrorIs(t, err, ErrValidation)
}

type fakeConnector struct {
	connected map[string]bool
	accept    map[string]bool
	revoked   []string
}

func (f *fakeConnector) Connect(ctx context.Context, p string, creds platform.Credentials) platform.ConnectResult {
	if !f.accept[p] {
		return platform.ConnectResult{Success: false, Error: platform.ErrInvalidCredentials.Error()}
	}
	f.connected[p] = true
	return platform.ConnectResult{Success: true}
}

func (f *fakeConnector) Revoke(ctx context.Context, p string) error {
	delete(f.connected, p)
	f.revoked = append(f.revoked, p)
	return nil
}

func (f *fakeConnector) IsConnected(p string) bool { return f.connected[p] }

func (f *fakeConnector) Status() []models.PlatformStatus {
	var out []models.PlatformStatus
	for p := range f.connected {
		out = append(out, models.PlatformStatus{Platform: p, Connected: true})
	}
	return out
}

type memCreds struct {
	creds map[string]*models.PlatformCredential
}

func (m *memCreds) Upsert(ctx context.Context, cred *models.PlatformCredential) error {
	cp := *cred
	cp.Active = true
	m.creds[cred.Platform] = &cp
	return nil
}

func (m *memCreds) GetActive(ctx context.Context, p string) (*models.PlatformCredential, error) {
	c, ok := m.creds[p]
	if !ok || !c.Active {
		return nil, nil
	}
	return c, nil
}

func (m *memCreds) ListActive(ctx context.Context) ([]*models.PlatformCredential, error) {
	var out []*models.PlatformCredential
	for _, c := range m.creds {
		if c.Active {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCreds) Deactivate(ctx context.Context, p string) error {
	c, ok := m.creds[p]
	if !ok || !c.Active {
		return repository.ErrNotFound
	}
	c.Active = false
	return nil
}

func TestPlatformConnectPersistsEncrypted(t *testing.T) {
	conn := &fakeConnector{connected: map[string]bool{}, accept: map[string]bool{"kawai": true}}
	creds := &memCreds{creds: map[string]*models.PlatformCredential{}}
	svc := NewPlatformService(conn, creds, "secret")

	res, err := svc.Connect(context.Background(), "kawai", map[string]string{"api_key": "k-123", "user_id": "u1"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Contains(t, creds.creds, "kawai")
	assert.NotContains(t, string(creds.creds["kawai"].Credentials), "k-123")

	res, err = svc.Connect(context.Background(), "tiktok", map[string]string{"access_token": "bad"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.NotContains(t, creds.creds, "tiktok")
}

func TestPlatformRevokeAndRestore(t *testing.T) {
	conn := &fakeConnector{connected: map[string]bool{}, accept: map[string]bool{"kawai": true, "youtube": true}}
	creds := &memCreds{creds: map[string]*models.PlatformCredential{}}
	svc := NewPlatformService(conn, creds, "secret")

	_, err := svc.Connect(context.Background(), "kawai", map[string]string{"api_key": "k"})
	require.NoError(t, err)
	_, err = svc.Connect(context.Background(), "youtube", map[string]string{"access_token": "t"})
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), "youtube"))
	assert.Equal(t, []string{"youtube"}, conn.revoked)
	assert.False(t, creds.creds["youtube"].Active)
	assert.ErrorIs(t, svc.Revoke(context.Background(), "youtube"), platform.ErrNotConnected)

	// simulate a restart: nothing is connected in memory
	conn.connected = map[string]bool{}
	n, err := svc.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, conn.IsConnected("kawai"))
	assert.False(t, conn.IsConnected("youtube"))
}

func TestValidateScheduleTimeBounds(t *testing.T) {
	v := NewValidationService(caption.Default())
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, v.ValidateScheduleTime(now, now.Add(time.Hour)))
	assert.ErrorIs(t, v.ValidateScheduleTime(now, now.Add(-time.Minute)), scheduler.ErrInvalidScheduleTime)
	assert.ErrorIs(t, v.ValidateScheduleTime(now, now.Add(366*24*time.Hour)), scheduler.ErrInvalidScheduleTime)
}

func TestValidateConnect(t *testing.T) {
	v := NewValidationService(caption.Default())
	assert.NoError(t, v.ValidateConnect("tiktok", &transfer.ConnectRequest{Credentials: map[string]string{"access_token": "x"}}))
	assert.ErrorIs(t, v.ValidateConnect("tiktok", &transfer.ConnectRequest{}), ErrValidation)
	assert.ErrorIs(t, v.ValidateConnect("myspace", &transfer.ConnectRequest{Credentials: map[string]string{"a": "b"}}), ErrValidation)
}
