package queue

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const maxPublishRetries = 3

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EnqueuePublish queues an out-of-request publish of a ready post.
func EnqueuePublish(client Enqueuer, payload PublishPostPayload, delay time.Duration) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypePublishPost, taskPayload)

	_, err = client.Enqueue(task,
		asynq.ProcessIn(delay),
		asynq.MaxRetry(maxPublishRetries),
		asynq.TaskID(TaskTypePublishPost+":"+payload.PostID),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		slog.Info("publish task already queued", "post_id", payload.PostID)
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("publish task queued", "post_id", payload.PostID, "delay", delay.String())
	return nil
}
