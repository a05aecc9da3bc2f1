package inspect

import (
	"errors"
	"sort"

	"github.com/puzpuzpuz/xsync/v3"
)

// Observable is the store surface the inspector needs. *strata.Store[T]
// satisfies it for any T.
type Observable interface {
	// Snapshot returns the current state, type-erased.
	Snapshot() any

	// Subscribe registers a no-argument change callback and returns an
	// idempotent unsubscribe function.
	Subscribe(func()) func()
}

// ErrAlreadyRegistered is returned when a store name is already taken.
var ErrAlreadyRegistered = errors.New("inspect: store name already registered")

// Registry is a concurrent, name-keyed collection of live stores.
type Registry struct {
	stores *xsync.MapOf[string, Observable]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		stores: xsync.NewMapOf[string, Observable](),
	}
}

// Register adds a store under name.
func (r *Registry) Register(name string, store Observable) error {
	if _, loaded := r.stores.LoadOrStore(name, store); loaded {
		return ErrAlreadyRegistered
	}
	return nil
}

// Unregister removes the store registered under name, if any.
func (r *Registry) Unregister(name string) {
	r.stores.Delete(name)
}

// Get returns the store registered under name.
func (r *Registry) Get(name string) (Observable, bool) {
	return r.stores.Load(name)
}

// Names returns the registered store names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, r.stores.Size())
	r.stores.Range(func(name string, _ Observable) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	return names
}

// Snapshots returns a name-to-state snapshot of every registered store.
func (r *Registry) Snapshots() map[string]any {
	out := make(map[string]any, r.stores.Size())
	r.stores.Range(func(name string, store Observable) bool {
		out[name] = store.Snapshot()
		return true
	})
	return out
}
