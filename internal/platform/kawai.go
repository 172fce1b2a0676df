package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/maheshrc27/viralflow/internal/models"
	"github.com/maheshrc27/viralflow/internal/transfer"
)

const kawaiAPIURL = "https://api.kawai.com/v1"

type kawaiAdapter struct {
	*base
}

func NewKawaiAdapter(opts Options) Adapter {
	return &kawaiAdapter{base: newBase("kawai", kawaiAPIURL, opts)}
}

func (a *kawaiAdapter) Connect(ctx context.Context, creds Credentials) ConnectResult {
	if err := requireKeys(creds, "api_key", "user_id"); err != nil {
		return connectFailure(err)
	}

	var user transfer.KawaiUser
	reqURL := fmt.Sprintf("%s/users/%s", a.baseURL, url.PathEscape(creds["user_id"]))
	if err := doJSON(ctx, a.client, http.MethodGet, reqURL, bearer(creds["api_key"]), nil, &user); err != nil {
		return connectFailure(fmt.Errorf("%w: %v", ErrInvalidCredentials, err))
	}

	a.store(creds)
	return ConnectResult{Success: true}
}

func (a *kawaiAdapter) Post(ctx context.Context, post models.PostView) models.PostResult {
	creds, ok := a.credentials()
	if !ok {
		return models.FailedResult(ErrNotConnected.Error())
	}
	if post.MediaKey == "" || a.media == nil {
		return models.FailedResult(ErrNoMedia.Error())
	}

	content, caption := a.render(post)

	var resp transfer.KawaiVideoResponse
	err := doJSON(ctx, a.client, http.MethodPost, a.baseURL+"/videos", bearer(creds["api_key"]),
		transfer.KawaiVideoRequest{
			UserID:   creds["user_id"],
			Title:    content.Title,
			Caption:  caption,
			Hashtags: content.Hashtags,
			VideoURL: a.media.PublicURL(post.MediaKey),
		}, &resp)
	if err != nil {
		return models.FailedResult(err.Error())
	}
	if resp.ID == "" {
		return models.FailedResult("no video ID returned from Kawai")
	}

	link := resp.URL
	if link == "" {
		link = fmt.Sprintf(a.rule.URLTemplate, resp.ID)
	}
	return models.SucceededResult(resp.ID, link)
}
