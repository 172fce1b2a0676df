package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/maheshrc27/viralflow/internal/models"
	"github.com/maheshrc27/viralflow/internal/transfer"
)

const instagramGraphURL = "https://graph.instagram.com/v21.0"

type instagramAdapter struct {
	*base
}

func NewInstagramAdapter(opts Options) Adapter {
	return &instagramAdapter{base: newBase("instagram", instagramGraphURL, opts)}
}

func (a *instagramAdapter) Connect(ctx context.Context, creds Credentials) ConnectResult {
	if err := requireKeys(creds, "access_token", "account_id"); err != nil {
		return connectFailure(err)
	}

	reqURL := fmt.Sprintf("%s/me?fields=id,username&access_token=%s", a.baseURL, url.QueryEscape(creds["access_token"]))

	var info transfer.InstagramUserInfo
	if err := doJSON(ctx, a.client, http.MethodGet, reqURL, nil, nil, &info); err != nil {
		slog.Info(err.Error(), "platform", a.name)
		return connectFailure(fmt.Errorf("%w: %v", ErrInvalidCredentials, instagramError(err)))
	}
	if info.UserID == "" {
		return connectFailure(fmt.Errorf("%w: empty account", ErrInvalidCredentials))
	}

	a.store(creds)
	return ConnectResult{Success: true}
}

func (a *instagramAdapter) Post(ctx context.Context, post models.PostView) models.PostResult {
	creds, ok := a.credentials()
	if !ok {
		return models.FailedResult(ErrNotConnected.Error())
	}
	if post.MediaKey == "" || a.media == nil {
		return models.FailedResult(ErrNoMedia.Error())
	}

	_, caption := a.render(post)
	accountID := creds["account_id"]

	var container transfer.InstagramMediaResponse
	err := doJSON(ctx, a.client, http.MethodPost, fmt.Sprintf("%s/%s/media", a.baseURL, accountID), nil,
		transfer.InstagramMediaRequest{
			MediaType:   "REELS",
			VideoURL:    a.media.PublicURL(post.MediaKey),
			Caption:     caption,
			AccessToken: creds["access_token"],
		}, &container)
	if err != nil {
		return models.FailedResult(instagramError(err).Error())
	}
	if container.ID == "" {
		return models.FailedResult("no media ID returned from Instagram")
	}

	var published transfer.InstagramMediaResponse
	err = doJSON(ctx, a.client, http.MethodPost, fmt.Sprintf("%s/%s/media_publish", a.baseURL, accountID), nil,
		transfer.InstagramPublishRequest{
			CreationID:  container.ID,
			AccessToken: creds["access_token"],
		}, &published)
	if err != nil {
		return models.FailedResult(instagramError(err).Error())
	}

	return models.SucceededResult(published.ID, fmt.Sprintf(a.rule.URLTemplate, published.ID))
}

func (a *instagramAdapter) Revoke(ctx context.Context) error {
	a.forget()
	return nil
}

// instagramError unwraps the Graph API error envelope when present.
func instagramError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	var body transfer.InstagramErrorResponse
	if json.Unmarshal([]byte(apiErr.Body), &body) != nil || body.Error.Message == "" {
		return err
	}
	return fmt.Errorf("instagram: %s (code %d)", body.Error.Message, body.Error.Code)
}
