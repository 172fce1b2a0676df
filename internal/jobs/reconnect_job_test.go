package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingRestorer struct {
	calls atomic.Int32
	block chan struct{}
	err   error
}

func (r *countingRestorer) Restore(ctx context.Context) (int, error) {
	r.calls.Add(1)
	if r.block != nil {
		<-r.block
	}
	return 1, r.err
}

func TestReconnectRunsRestore(t *testing.T) {
	r := &countingRestorer{}
	j := NewReconnectJob(r, time.Second)

	j.Reconnect()
	j.Reconnect()
	assert.Equal(t, int32(2), r.calls.Load())

	r.err = errors.New("db down")
	j.Reconnect()
	assert.Equal(t, int32(3), r.calls.Load())
}

func TestReconnectSkipsOverlap(t *testing.T) {
	r := &countingRestorer{block: make(chan struct{})}
	j := NewReconnectJob(r, time.Second)

	done := make(chan struct{})
	go func() {
		j.Reconnect()
		close(done)
	}()
	assert.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, time.Millisecond)

	j.Reconnect()
	assert.Equal(t, int32(1), r.calls.Load())

	close(r.block)
	<-done
}
