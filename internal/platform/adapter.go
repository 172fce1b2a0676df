package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/viralflow/internal/caption"
	"github.com/maheshrc27/viralflow/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotConnected       = errors.New("not connected")
	ErrNoMedia            = errors.New("post has no media attached")
)

// Credentials is the decrypted credential blob for one platform.
type Credentials map[string]string

type ConnectResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Adapter publishes to one platform. Post never panics or returns an error;
// failures are reported through PostResult.
type Adapter interface {
	Platform() string
	Connect(ctx context.Context, creds Credentials) ConnectResult
	Post(ctx context.Context, post models.PostView) models.PostResult
	Capabilities() []string
}

// Revoker is implemented by adapters that can invalidate their stored credentials.
type Revoker interface {
	Revoke(ctx context.Context) error
}

// MediaSource resolves a post's media key to bytes or a public URL.
type MediaSource interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	PublicURL(key string) string
}

type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Media      MediaSource
	Rules      *caption.Rules
}

func (o Options) client() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{Timeout: time.Minute}
}

func (o Options) rule(platform string) caption.Rule {
	if o.Rules == nil {
		return caption.Default().For(platform)
	}
	return o.Rules.For(platform)
}

// base holds what every adapter shares: formatting rule, HTTP client and the
// credentials accepted by the last successful Connect.
type base struct {
	name    string
	rule    caption.Rule
	baseURL string
	client  *http.Client
	media   MediaSource

	mu    sync.RWMutex
	creds Credentials
}

func newBase(name, defaultURL string, opts Options) *base {
	url := opts.BaseURL
	if url == "" {
		url = defaultURL
	}
	return &base{
		name:    name,
		rule:    opts.rule(name),
		baseURL: url,
		client:  opts.client(),
		media:   opts.Media,
	}
}

func (b *base) Platform() string { return b.name }

func (b *base) Capabilities() []string {
	return append([]string(nil), b.rule.Capabilities...)
}

func (b *base) credentials() (Credentials, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.creds, b.creds != nil
}

func (b *base) store(creds Credentials) {
	c := make(Credentials, len(creds))
	for k, v := range creds {
		c[k] = v
	}
	b.mu.Lock()
	b.creds = c
	b.mu.Unlock()
}

func (b *base) forget() {
	b.mu.Lock()
	b.creds = nil
	b.mu.Unlock()
}

// render formats the post for this platform.
func (b *base) render(post models.PostView) (models.PlatformContent, string) {
	c := post.ContentFor(b.name)
	c.Hashtags = caption.LimitHashtags(caption.CleanHashtags(c.Hashtags, 0), b.rule.MaxHashtags)
	return c, b.rule.Format(c.Description, c.Hashtags)
}

func requireKeys(creds Credentials, keys ...string) error {
	var missing []string
	for _, k := range keys {
		if creds[k] == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: missing %v", ErrInvalidCredentials, missing)
	}
	return nil
}

func connectFailure(err error) ConnectResult {
	return ConnectResult{Success: false, Error: err.Error()}
}

// APIError is a non-2xx platform response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

func doJSON(ctx context.Context, client *http.Client, method, url string, headers map[string]string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("error marshalling payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("error parsing response: %w", err)
	}
	return nil
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
