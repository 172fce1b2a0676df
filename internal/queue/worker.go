package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/maheshrc27/viralflow/internal/models"
	"github.com/maheshrc27/viralflow/internal/scheduler"
	"github.com/maheshrc27/viralflow/internal/service"
)

// HandlePublishPostTask publishes the post named in the payload. Posts that are
// gone or no longer ready are not retried.
func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	results, err := q.publisher.PublishNow(ctx, payload.PostID)
	if errors.Is(err, service.ErrPostNotReady) || errors.Is(err, scheduler.ErrPostNotFound) {
		slog.Info(err.Error(), "post_id", payload.PostID)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		slog.Error("publish post", "post_id", payload.PostID, "error", err)
		return err
	}

	for platform, res := range results {
		if !res.Success {
			slog.Info("platform publish failed", "post_id", payload.PostID, "platform", platform, "error", res.Error)
		}
	}
	slog.Info("publish task done", "post_id", payload.PostID, "posted", models.AnySucceeded(results))
	return nil
}
