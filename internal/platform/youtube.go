package platform

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/maheshrc27/viralflow/internal/models"
)

const googleRevokeURL = "https://oauth2.googleapis.com/revoke"

type YouTubeOptions struct {
	Options
	ClientID     string
	ClientSecret string
	RevokeURL    string
}

type youtubeAdapter struct {
	*base
	oauth     *oauth2.Config
	revokeURL string
}

func NewYouTubeAdapter(opts YouTubeOptions) Adapter {
	a := &youtubeAdapter{
		base:      newBase("youtube", "", opts.Options),
		revokeURL: opts.RevokeURL,
	}
	if a.revokeURL == "" {
		a.revokeURL = googleRevokeURL
	}
	if opts.ClientID != "" && opts.ClientSecret != "" {
		a.oauth = &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			Scopes:       []string{youtube.YoutubeUploadScope, youtube.YoutubeReadonlyScope},
			Endpoint:     google.Endpoint,
		}
	}
	return a
}

func (a *youtubeAdapter) service(ctx context.Context, creds Credentials) (*youtube.Service, error) {
	token := &oauth2.Token{
		AccessToken:  creds["access_token"],
		RefreshToken: creds["refresh_token"],
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.client)
	var ts oauth2.TokenSource
	if a.oauth != nil && token.RefreshToken != "" {
		ts = a.oauth.TokenSource(ctx, token)
	} else {
		ts = oauth2.StaticTokenSource(token)
	}

	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, ts))}
	if a.baseURL != "" {
		opts = append(opts, option.WithEndpoint(a.baseURL))
	}
	return youtube.NewService(ctx, opts...)
}

func (a *youtubeAdapter) Connect(ctx context.Context, creds Credentials) ConnectResult {
	if err := requireKeys(creds, "access_token"); err != nil {
		return connectFailure(err)
	}

	svc, err := a.service(ctx, creds)
	if err != nil {
		slog.Info(err.Error())
		return connectFailure(err)
	}

	resp, err := svc.Channels.List([]string{"id"}).Mine(true).Context(ctx).Do()
	if err != nil {
		slog.Info(err.Error(), "platform", a.name)
		return connectFailure(fmt.Errorf("%w: %v", ErrInvalidCredentials, err))
	}
	if len(resp.Items) == 0 {
		return connectFailure(fmt.Errorf("%w: no channel for token", ErrInvalidCredentials))
	}

	a.store(creds)
	return ConnectResult{Success: true}
}

func (a *youtubeAdapter) Post(ctx context.Context, post models.PostView) models.PostResult {
	creds, ok := a.credentials()
	if !ok {
		return models.FailedResult(ErrNotConnected.Error())
	}
	if post.MediaKey == "" || a.media == nil {
		return models.FailedResult(ErrNoMedia.Error())
	}

	content, description := a.render(post)

	svc, err := a.service(ctx, creds)
	if err != nil {
		return models.FailedResult(err.Error())
	}

	file, err := a.media.Open(ctx, post.MediaKey)
	if err != nil {
		return models.FailedResult(fmt.Sprintf("open media: %v", err))
	}
	defer file.Close()

	reader := bufio.NewReaderSize(file, 512)
	head, _ := reader.Peek(261)
	if !filetype.IsVideo(head) {
		return models.FailedResult("media is not a video")
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       a.rule.Title(content.Title),
			Description: description,
			Tags:        content.Hashtags,
			CategoryId:  a.rule.CategoryID(post.Category),
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: "public",
		},
	}

	resp, err := svc.Videos.Insert([]string{"snippet", "status"}, video).Media(reader).Context(ctx).Do()
	if err != nil {
		slog.Info(err.Error(), "platform", a.name, "post_id", post.ID)
		return models.FailedResult(err.Error())
	}

	return models.SucceededResult(resp.Id, fmt.Sprintf(a.rule.URLTemplate, resp.Id))
}

func (a *youtubeAdapter) Revoke(ctx context.Context) error {
	creds, ok := a.credentials()
	if !ok {
		return nil
	}
	a.forget()

	form := url.Values{"token": {creds["access_token"]}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New("failed to revoke google token, status " + resp.Status)
	}
	return nil
}
