package transfer

type InstagramUserInfo struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
}

type InstagramMediaRequest struct {
	MediaType   string `json:"media_type"`
	VideoURL    string `json:"video_url"`
	Caption     string `json:"caption"`
	AccessToken string `json:"access_token"`
}

type InstagramPublishRequest struct {
	CreationID  string `json:"creation_id"`
	AccessToken string `json:"access_token"`
}

type InstagramMediaResponse struct {
	ID string `json:"id"`
}

type InstagramErrorResponse struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		IsTransient  bool   `json:"is_transient"`
		FbtraceID    string `json:"fbtrace_id"`
	} `json:"error"`
}
