// internal/service/negotiation/mock/ports.go
package mock

import (
	"context"
	"sync"
	"time"

	"haggle/internal/service/negotiation/domain"
)

// Dispatcher captures dispatched notification events. Events are buffered on
// a channel so tests can await the asynchronous side-effect path.
type Dispatcher struct {
	Events chan *domain.NotificationEvent
	Err    error
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{Events: make(chan *domain.NotificationEvent, 16)}
}

func (d *Dispatcher) Dispatch(_ context.Context, event *domain.NotificationEvent) error {
	if d.Err != nil {
		return d.Err
	}
	d.Events <- event
	return nil
}

// Await returns the next dispatched event or nil after the timeout.
func (d *Dispatcher) Await(timeout time.Duration) *domain.NotificationEvent {
	select {
	case ev := <-d.Events:
		return ev
	case <-time.After(timeout):
		return nil
	}
}

// Invalidator records invalidation calls.
type Invalidator struct {
	mu       sync.Mutex
	Patterns []string
	Keys     []string
	Err      error

	calls chan struct{}
}

func NewInvalidator() *Invalidator {
	return &Invalidator{calls: make(chan struct{}, 32)}
}

func (i *Invalidator) InvalidateNamespace(_ context.Context, pattern string) error {
	if i.Err != nil {
		return i.Err
	}
	i.mu.Lock()
	i.Patterns = append(i.Patterns, pattern)
	i.mu.Unlock()
	i.calls <- struct{}{}
	return nil
}

func (i *Invalidator) InvalidateKey(_ context.Context, key string) error {
	if i.Err != nil {
		return i.Err
	}
	i.mu.Lock()
	i.Keys = append(i.Keys, key)
	i.mu.Unlock()
	i.calls <- struct{}{}
	return nil
}

// AwaitCalls blocks until n invalidation calls happened or the timeout
// passed, reporting whether it saw all n.
func (i *Invalidator) AwaitCalls(n int, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for seen := 0; seen < n; {
		select {
		case <-i.calls:
			seen++
		case <-deadline:
			return false
		}
	}
	return true
}

// Snapshot returns copies of the recorded patterns and keys.
func (i *Invalidator) Snapshot() (patterns, keys []string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.Patterns...), append([]string(nil), i.Keys...)
}

// ViewCache is a TTL-less in-memory port.ViewCache.
type ViewCache struct {
	mu      sync.Mutex
	entries map[string]string
	Err     error
}

func NewViewCache() *ViewCache {
	return &ViewCache{entries: make(map[string]string)}
}

func (c *ViewCache) Get(_ context.Context, key string) (string, bool, error) {
	if c.Err != nil {
		return "", false, c.Err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.entries[key]
	return val, ok, nil
}

func (c *ViewCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	if c.Err != nil {
		return c.Err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

// Recorder captures audit trail entries on a channel.
type Recorder struct {
	Entries chan *domain.ActivityEntry
	Err     error
}

func NewRecorder() *Recorder {
	return &Recorder{Entries: make(chan *domain.ActivityEntry, 16)}
}

func (r *Recorder) Record(_ context.Context, entry *domain.ActivityEntry) error {
	if r.Err != nil {
		return r.Err
	}
	r.Entries <- entry
	return nil
}

// Await returns the next recorded entry or nil after the timeout.
func (r *Recorder) Await(timeout time.Duration) *domain.ActivityEntry {
	select {
	case entry := <-r.Entries:
		return entry
	case <-time.After(timeout):
		return nil
	}
}
