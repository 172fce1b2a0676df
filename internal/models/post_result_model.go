package models

type Metrics struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Shares   int64 `json:"shares"`
}

type PostResult struct {
	Success bool    `json:"success"`
	PostID  string  `json:"post_id,omitempty"`
	URL     string  `json:"url,omitempty"`
	Error   string  `json:"error,omitempty"`
	Metrics Metrics `json:"metrics"`
}

func FailedResult(reason string) PostResult {
	return PostResult{Success: false, Error: reason}
}

func SucceededResult(postID, url string) PostResult {
	return PostResult{Success: true, PostID: postID, URL: url}
}

// AnySucceeded is the publish policy: one successful platform marks the post posted.
func AnySucceeded(results map[string]PostResult) bool {
	for _, r := range results {
		if r.Success {
			return true
		}
	}
	return false
}
