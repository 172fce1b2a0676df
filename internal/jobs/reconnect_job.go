package job

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Restorer reconnects platforms whose stored credentials are active.
type Restorer interface {
	Restore(ctx context.Context) (int, error)
}

// ReconnectJob periodically brings stored platform credentials back into the
// dispatcher's connected set, e.g. after a restart or a transient connect failure.
type ReconnectJob struct {
	restorer Restorer
	timeout  time.Duration
	running  sync.Mutex
}

func NewReconnectJob(restorer Restorer, timeout time.Duration) *ReconnectJob {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &ReconnectJob{restorer: restorer, timeout: timeout}
}

// Reconnect runs one pass. An overlapping call returns immediately.
func (j *ReconnectJob) Reconnect() {
	if !j.running.TryLock() {
		return
	}
	defer j.running.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	n, err := j.restorer.Restore(ctx)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if n > 0 {
		slog.Info("platforms reconnected", "count", n)
	}
}
