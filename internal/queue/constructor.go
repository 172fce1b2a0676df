package queue

import (
	"context"

	"github.com/maheshrc27/viralflow/internal/models"
)

// Publisher publishes a ready post to all of its platforms.
type Publisher interface {
	PublishNow(ctx context.Context, postID string) (map[string]models.PostResult, error)
}

type Queue struct {
	publisher Publisher
}

func NewQueue(publisher Publisher) *Queue {
	return &Queue{publisher: publisher}
}

const TaskTypePublishPost = "publish:post"

type PublishPostPayload struct {
	PostID string `json:"post_id"`
}
