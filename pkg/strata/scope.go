package strata

import (
	"sync"
	"sync/atomic"
)

// Scope makes stores ambient to a subtree of consumers. A provider binds a
// store to a scope; any code running under that scope (or a child of it)
// can reach the store through the same Handle without explicit parameter
// passing.
//
// Scopes form a hierarchy mirroring the consumer tree: lookups walk from
// the scope to its root, so a child scope can shadow a parent's binding.
// Providing or resolving a store never touches any store's value.
type Scope struct {
	id uint64

	// parent is the parent scope; nil for a root scope.
	parent *Scope

	// children are child scopes, disposed with this one.
	children   []*Scope
	childrenMu sync.Mutex

	// values holds the handle bindings for this scope.
	values   map[any]any
	valuesMu sync.RWMutex

	// cleanups run in reverse order on Dispose.
	cleanups   []func()
	cleanupsMu sync.Mutex

	disposed atomic.Bool
}

// NewScope creates a scope with the given parent (nil for a root scope).
// The new scope is registered as a child of the parent and is disposed
// with it.
func NewScope(parent *Scope) *Scope {
	s := &Scope{
		id:     nextID(),
		parent: parent,
	}

	if parent != nil {
		parent.addChild(s)
	}

	return s
}

// ID returns the unique identifier for this scope.
func (s *Scope) ID() uint64 {
	return s.id
}

// Parent returns the parent scope, or nil for a root scope.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// IsDisposed reports whether Dispose has been called.
func (s *Scope) IsDisposed() bool {
	return s.disposed.Load()
}

// OnCleanup registers fn to run when this scope is disposed.
// If the scope is already disposed, fn runs immediately.
func (s *Scope) OnCleanup(fn func()) {
	if s.disposed.Load() {
		fn()
		return
	}

	s.cleanupsMu.Lock()
	defer s.cleanupsMu.Unlock()
	s.cleanups = append(s.cleanups, fn)
}

// Dispose disposes this scope, its children, and runs registered cleanups.
// Children are disposed first, in reverse creation order, then cleanups run
// in reverse registration order. Idempotent.
func (s *Scope) Dispose() {
	if s.disposed.Swap(true) {
		return
	}

	if s.parent != nil {
		s.parent.removeChild(s)
	}

	s.childrenMu.Lock()
	children := make([]*Scope, len(s.children))
	copy(children, s.children)
	s.children = nil
	s.childrenMu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	s.cleanupsMu.Lock()
	cleanups := s.cleanups
	s.cleanups = nil
	s.cleanupsMu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}

	s.valuesMu.Lock()
	s.values = nil
	s.valuesMu.Unlock()
}

func (s *Scope) addChild(child *Scope) {
	s.childrenMu.Lock()
	defer s.childrenMu.Unlock()
	s.children = append(s.children, child)
}

func (s *Scope) removeChild(child *Scope) {
	s.childrenMu.Lock()
	defer s.childrenMu.Unlock()

	for i, c := range s.children {
		if c == child {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return
		}
	}
}

// setValue binds a value on this scope.
func (s *Scope) setValue(key, value any) {
	s.valuesMu.Lock()
	defer s.valuesMu.Unlock()

	if s.values == nil {
		s.values = make(map[any]any)
	}
	s.values[key] = value
}

// value retrieves a binding from this scope or the nearest ancestor.
// Returns nil if no binding is found.
func (s *Scope) value(key any) any {
	s.valuesMu.RLock()
	if s.values != nil {
		if val, ok := s.values[key]; ok {
			s.valuesMu.RUnlock()
			return val
		}
	}
	s.valuesMu.RUnlock()

	if s.parent != nil {
		return s.parent.value(key)
	}

	return nil
}
