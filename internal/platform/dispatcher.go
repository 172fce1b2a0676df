package platform

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/viralflow/internal/models"
)

const DefaultPostTimeout = 2 * time.Minute

// Dispatcher owns the adapter registry and the set of connected platforms.
// Connect is the only way a platform enters the connected set.
type Dispatcher struct {
	adapters map[string]Adapter
	timeout  time.Duration

	mu        sync.RWMutex
	connected map[string]struct{}
}

func NewDispatcher(timeout time.Duration, adapters ...Adapter) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultPostTimeout
	}
	d := &Dispatcher{
		adapters:  make(map[string]Adapter, len(adapters)),
		timeout:   timeout,
		connected: make(map[string]struct{}),
	}
	for _, a := range adapters {
		d.adapters[a.Platform()] = a
	}
	return d
}

func (d *Dispatcher) Known(platform string) bool {
	_, ok := d.adapters[platform]
	return ok
}

func (d *Dispatcher) IsConnected(platform string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.connected[platform]
	return ok
}

func (d *Dispatcher) Connect(ctx context.Context, platform string, creds Credentials) (res ConnectResult) {
	adapter, ok := d.adapters[platform]
	if !ok {
		return ConnectResult{Success: false, Error: fmt.Sprintf("unknown platform %q", platform)}
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("adapter connect panicked", "platform", platform, "panic", r)
			res = ConnectResult{Success: false, Error: fmt.Sprintf("connect panic: %v", r)}
		}
	}()

	res = adapter.Connect(ctx, creds)
	if !res.Success {
		slog.Info("platform connect failed", "platform", platform, "error", res.Error)
		return res
	}

	d.mu.Lock()
	d.connected[platform] = struct{}{}
	d.mu.Unlock()
	slog.Info("platform connected", "platform", platform)
	return res
}

// Revoke drops the platform from the connected set and invalidates adapter credentials.
func (d *Dispatcher) Revoke(ctx context.Context, platform string) error {
	adapter, ok := d.adapters[platform]
	if !ok {
		return fmt.Errorf("unknown platform %q", platform)
	}

	d.mu.Lock()
	delete(d.connected, platform)
	d.mu.Unlock()

	if r, ok := adapter.(Revoker); ok {
		return r.Revoke(ctx)
	}
	return nil
}

type dispatchOutcome struct {
	platform string
	result   models.PostResult
}

// Dispatch publishes the post to every targeted platform concurrently and
// returns exactly one result per distinct platform in post.Platforms.
func (d *Dispatcher) Dispatch(ctx context.Context, post models.PostView) map[string]models.PostResult {
	results := make(map[string]models.PostResult, len(post.Platforms))
	outcomes := make(chan dispatchOutcome, len(post.Platforms))

	var wg sync.WaitGroup
	for _, platform := range post.Platforms {
		if _, seen := results[platform]; seen {
			continue
		}
		// placeholder keeps duplicates out until the task settles
		results[platform] = models.FailedResult(ErrNotConnected.Error())

		adapter, known := d.adapters[platform]
		if !known || !d.IsConnected(platform) {
			continue
		}

		wg.Add(1)
		go func(platform string, adapter Adapter) {
			defer wg.Done()
			outcomes <- dispatchOutcome{platform: platform, result: d.publish(ctx, adapter, post)}
		}(platform, adapter)
	}

	wg.Wait()
	close(outcomes)

	for o := range outcomes {
		results[o.platform] = o.result
		if o.result.Success {
			slog.Info("published", "post_id", post.ID, "platform", o.platform, "external_id", o.result.PostID)
		} else {
			slog.Info("publish failed", "post_id", post.ID, "platform", o.platform, "error", o.result.Error)
		}
	}
	return results
}

func (d *Dispatcher) publish(ctx context.Context, adapter Adapter, post models.PostView) models.PostResult {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan models.PostResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- models.FailedResult(fmt.Sprintf("adapter panic: %v", r))
			}
		}()
		done <- adapter.Post(ctx, post)
	}()

	select {
	case r := <-done:
		return r
	case <-ctx.Done():
		return models.FailedResult(fmt.Sprintf("publish timed out: %v", ctx.Err()))
	}
}

// Status lists every registered platform, sorted by name.
func (d *Dispatcher) Status() []models.PlatformStatus {
	names := make([]string, 0, len(d.adapters))
	for name := range d.adapters {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]models.PlatformStatus, 0, len(names))
	for _, name := range names {
		out = append(out, models.PlatformStatus{
			Platform:     name,
			Connected:    d.IsConnected(name),
			Capabilities: d.adapters[name].Capabilities(),
		})
	}
	return out
}
