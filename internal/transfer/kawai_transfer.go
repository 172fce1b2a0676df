package transfer

type KawaiUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type KawaiVideoRequest struct {
	UserID   string   `json:"user_id"`
	Title    string   `json:"title"`
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
	VideoURL string   `json:"video_url"`
}

type KawaiVideoResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
