package transfer

// TiktokResponse is the envelope every TikTok content posting endpoint returns.
type TiktokResponse[T any] struct {
	Data  T           `json:"data"`
	Error TiktokError `json:"error"`
}

type TiktokError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	LogID   string `json:"log_id"`
}

// OK reports whether the envelope carries no error.
func (e TiktokError) OK() bool {
	return e.Code == "" || e.Code == "ok"
}

func (e TiktokError) String() string {
	return e.Code + ": " + e.Message
}

type TiktokCreatorInfo struct {
	CreatorUsername         string   `json:"creator_username"`
	PrivacyLevelOptions     []string `json:"privacy_level_options"`
	MaxVideoPostDurationSec int32    `json:"max_video_post_duration_sec"`
}

type TiktokPublishData struct {
	PublishID string `json:"publish_id"`
}

// TiktokInitRequest starts a pull-from-URL direct post.
type TiktokInitRequest struct {
	PostInfo struct {
		Title                 string `json:"title"`
		PrivacyLevel          string `json:"privacy_level"`
		VideoCoverTimestampMs int    `json:"video_cover_timestamp_ms"`
		IsAIGC                bool   `json:"is_aigc"`
	} `json:"post_info"`
	SourceInfo struct {
		Source   string `json:"source"`
		VideoURL string `json:"video_url"`
	} `json:"source_info"`
}
