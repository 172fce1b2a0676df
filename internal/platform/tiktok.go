package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/maheshrc27/viralflow/internal/models"
	"github.com/maheshrc27/viralflow/internal/transfer"
)

const (
	tiktokAPIURL    = "https://open.tiktokapis.com/v2"
	tiktokRevokeURL = "https://open-api.tiktok.com/oauth/revoke/"
)

type TikTokOptions struct {
	Options
	RevokeURL string
}

type tiktokAdapter struct {
	*base
	revokeURL string
}

func NewTikTokAdapter(opts TikTokOptions) Adapter {
	a := &tiktokAdapter{
		base:      newBase("tiktok", tiktokAPIURL, opts.Options),
		revokeURL: opts.RevokeURL,
	}
	if a.revokeURL == "" {
		a.revokeURL = tiktokRevokeURL
	}
	return a
}

func (a *tiktokAdapter) queryCreatorInfo(ctx context.Context, accessToken string) (*transfer.TiktokCreatorInfo, error) {
	var resp transfer.TiktokResponse[transfer.TiktokCreatorInfo]
	err := doJSON(ctx, a.client, http.MethodPost, a.baseURL+"/post/publish/creator_info/query/", bearer(accessToken), struct{}{}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Error.OK() {
		return nil, errors.New(resp.Error.String())
	}
	return &resp.Data, nil
}

func (a *tiktokAdapter) Connect(ctx context.Context, creds Credentials) ConnectResult {
	if err := requireKeys(creds, "access_token", "open_id"); err != nil {
		return connectFailure(err)
	}

	if _, err := a.queryCreatorInfo(ctx, creds["access_token"]); err != nil {
		slog.Info(err.Error(), "platform", a.name)
		return connectFailure(fmt.Errorf("%w: %v", ErrInvalidCredentials, err))
	}

	a.store(creds)
	return ConnectResult{Success: true}
}

func (a *tiktokAdapter) Post(ctx context.Context, post models.PostView) models.PostResult {
	creds, ok := a.credentials()
	if !ok {
		return models.FailedResult(ErrNotConnected.Error())
	}
	if post.MediaKey == "" || a.media == nil {
		return models.FailedResult(ErrNoMedia.Error())
	}

	_, caption := a.render(post)

	creator, err := a.queryCreatorInfo(ctx, creds["access_token"])
	if err != nil {
		slog.Info(err.Error(), "platform", a.name, "post_id", post.ID)
		return models.FailedResult(err.Error())
	}

	var req transfer.TiktokInitRequest
	req.PostInfo.Title = caption
	req.PostInfo.PrivacyLevel = privacyLevel(creator.PrivacyLevelOptions)
	req.PostInfo.VideoCoverTimestampMs = 1000
	req.SourceInfo.Source = "PULL_FROM_URL"
	req.SourceInfo.VideoURL = a.media.PublicURL(post.MediaKey)

	var resp transfer.TiktokResponse[transfer.TiktokPublishData]
	err = doJSON(ctx, a.client, http.MethodPost, a.baseURL+"/post/publish/video/init/", bearer(creds["access_token"]), req, &resp)
	if err != nil {
		slog.Info(err.Error(), "platform", a.name, "post_id", post.ID)
		return models.FailedResult(err.Error())
	}
	if !resp.Error.OK() {
		return models.FailedResult(resp.Error.String())
	}

	id := resp.Data.PublishID
	return models.SucceededResult(id, fmt.Sprintf(a.rule.URLTemplate, creds["open_id"], id))
}

// privacyLevel prefers public posting when the creator allows it.
func privacyLevel(options []string) string {
	for _, o := range options {
		if o == "PUBLIC_TO_EVERYONE" {
			return o
		}
	}
	if len(options) > 0 {
		return options[0]
	}
	return "PUBLIC_TO_EVERYONE"
}

func (a *tiktokAdapter) Revoke(ctx context.Context) error {
	creds, ok := a.credentials()
	if !ok {
		return nil
	}
	a.forget()

	params := url.Values{}
	params.Add("open_id", creds["open_id"])
	params.Add("access_token", creds["access_token"])

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.revokeURL, strings.NewReader(params.Encode()))
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
		return fmt.Errorf("failed to revoke tiktok token, status code: %d", resp.StatusCode)
	}
	return nil
}
