package strata

import (
	"sync"
	"sync/atomic"
	"time"
)

// subscriber is a single registered callback.
// The removed flag lets an unsubscribe that races a notification snapshot
// suppress the pending invocation.
type subscriber struct {
	id      uint64
	fn      func()
	removed atomic.Bool
}

// WriteEvent describes a completed store write. It is delivered to hooks
// installed via WithWriteHook after the merge and all notifications finish.
type WriteEvent struct {
	// Store is the name given via WithName, or "" for anonymous stores.
	Store string

	// Keys are the patched field names in sorted order.
	// Nil for whole-value writes (Replace, Update).
	Keys []string

	// Subscribers is the number of subscribers notified.
	Subscribers int

	// Start is when the write began; Duration covers merge plus notification.
	Start    time.Time
	Duration time.Duration
}

// WriteHook observes completed writes. Hooks run after the write's
// notification loop, on the writing goroutine.
type WriteHook func(WriteEvent)

// Option configures a Store at construction.
type Option func(*storeConfig)

type storeConfig struct {
	name  string
	hooks []WriteHook
}

// WithName gives the store a name for observability surfaces
// (write events, inspection, metrics labels).
func WithName(name string) Option {
	return func(c *storeConfig) {
		c.name = name
	}
}

// WithWriteHook installs a hook observing every completed write.
// Multiple hooks run in installation order.
func WithWriteHook(h WriteHook) Option {
	return func(c *storeConfig) {
		if h != nil {
			c.hooks = append(c.hooks, h)
		}
	}
}

// Store is a single mutable state cell with a subscriber registry.
//
// The concurrency model is cooperative and synchronous: Set performs its
// merge and invokes every subscriber in-line before returning, so callers
// observe either the fully-prior or the fully-updated value, never an
// intermediate one. Internal locking only protects the value and the
// registry against access from multiple goroutines; it does not reorder or
// defer notifications.
type Store[T any] struct {
	name string

	// value is the current state.
	value T

	// mu protects value.
	mu sync.RWMutex

	// subs are the registered subscribers.
	subs []*subscriber

	// subMu protects the subs slice.
	subMu sync.Mutex

	hooks []WriteHook
}

// New creates a fresh, independent store holding initial.
// Two stores created from the same initial value share no mutable state.
func New[T any](initial T, opts ...Option) *Store[T] {
	var cfg storeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Store[T]{
		name:  cfg.name,
		value: initial,
		hooks: cfg.hooks,
	}
}

// Name returns the store's name ("" if none was set).
func (s *Store[T]) Name() string {
	return s.name
}

// Get returns the current value. It is a pure read: it never notifies,
// never mutates, and is safe to call from inside a subscriber callback.
func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Snapshot returns the current value type-erased, for shape-agnostic
// observers such as an inspection registry.
func (s *Store[T]) Snapshot() any {
	return s.Get()
}

// Set shallow-merges patch over the current value and synchronously notifies
// every subscriber. Fields named in patch overwrite (including to zero
// values); fields absent are preserved; nested aggregates are replaced
// wholesale, not merged recursively.
//
// Notification policy: the subscriber set is snapshotted when notification
// begins. Every subscriber in the snapshot is invoked exactly once unless it
// unsubscribed in the meantime; subscribers added during the loop are not
// invoked until the next write. A subscriber that calls Set itself runs a
// complete nested merge-and-notify cycle against its own snapshot.
//
// Set panics if patch names a field the state type does not have or carries
// a value not assignable to it; that is a programming error, not a runtime
// condition.
func (s *Store[T]) Set(patch Patch) {
	start := time.Now()

	s.mu.Lock()
	s.value = mergeValue(s.value, patch)
	s.mu.Unlock()

	notified := s.notify()
	s.fireHooks(patch.Keys(), notified, start)
}

// Replace swaps in an entirely new value and notifies subscribers.
func (s *Store[T]) Replace(value T) {
	start := time.Now()

	s.mu.Lock()
	s.value = value
	s.mu.Unlock()

	notified := s.notify()
	s.fireHooks(nil, notified, start)
}

// Update atomically derives the new value from the current one via fn,
// then notifies subscribers.
func (s *Store[T]) Update(fn func(T) T) {
	start := time.Now()

	s.mu.Lock()
	s.value = fn(s.value)
	s.mu.Unlock()

	notified := s.notify()
	s.fireHooks(nil, notified, start)
}

// Subscribe registers fn to be invoked, with no arguments, on every write.
// It does not invoke fn immediately. The returned function removes exactly
// this registration and is idempotent; subscriber identity is internal, so
// the same callback may be subscribed more than once.
func (s *Store[T]) Subscribe(fn func()) (unsubscribe func()) {
	sub := &subscriber{id: nextID(), fn: fn}

	s.subMu.Lock()
	s.subs = append(s.subs, sub)
	s.subMu.Unlock()

	return func() {
		if sub.removed.Swap(true) {
			return
		}

		s.subMu.Lock()
		defer s.subMu.Unlock()

		for i, existing := range s.subs {
			if existing.id == sub.id {
				// Remove by swapping with last element (order doesn't matter)
				s.subs[i] = s.subs[len(s.subs)-1]
				s.subs[len(s.subs)-1] = nil
				s.subs = s.subs[:len(s.subs)-1]
				return
			}
		}
	}
}

// Subscribers returns the current number of registered subscribers.
func (s *Store[T]) Subscribers() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

// notify invokes all current subscribers and reports how many were in the
// snapshot. Uses copy-before-notify so the registry can be mutated freely
// from inside callbacks. Inside a Batch, subscribers are queued for the
// flush instead of invoked.
func (s *Store[T]) notify() int {
	s.subMu.Lock()
	snapshot := make([]*subscriber, len(s.subs))
	copy(snapshot, s.subs)
	s.subMu.Unlock()

	if batchDepth() > 0 {
		for _, sub := range snapshot {
			queuePending(sub)
		}
		return len(snapshot)
	}

	for _, sub := range snapshot {
		if sub.removed.Load() {
			continue
		}
		sub.fn()
	}
	return len(snapshot)
}

func (s *Store[T]) fireHooks(keys []string, notified int, start time.Time) {
	if len(s.hooks) == 0 {
		return
	}

	ev := WriteEvent{
		Store:       s.name,
		Keys:        keys,
		Subscribers: notified,
		Start:       start,
		Duration:    time.Since(start),
	}
	for _, h := range s.hooks {
		h(ev)
	}
}
