package strata

// Handle is a typed key identifying one ambient store binding. Declare a
// handle once (typically package-level), Provide a store for it on a scope,
// and resolve it from any code running under that scope.
//
//	var AppStore = strata.NewHandle[AppState]()
//
//	func mount(scope *strata.Scope) {
//	    AppStore.Provide(scope, strata.New(AppState{}))
//	}
//
//	func consumer(scope *strata.Scope) {
//	    store := AppStore.MustUse(scope)
//	    ...
//	}
//
// Each Provide still binds an independent store instance; handles avoid
// parameter threading, they do not introduce singletons.
type Handle[T any] struct {
	// key uniquely identifies this handle in scope value maps.
	key any
}

// handleKey wraps Handle to create a unique key type.
type handleKey[T any] struct {
	h *Handle[T]
}

// NewHandle creates a handle for stores of state type T.
func NewHandle[T any]() *Handle[T] {
	h := &Handle[T]{}
	// Use the handle pointer itself as the key to ensure uniqueness
	h.key = handleKey[T]{h: h}
	return h
}

// Provide binds store to this handle on the given scope. Descendant scopes
// resolve it via Use unless a nearer scope shadows the binding.
func (h *Handle[T]) Provide(scope *Scope, store *Store[T]) {
	scope.setValue(h.key, store)
}

// Use resolves the store bound to this handle on scope or the nearest
// ancestor. Returns ErrNoStore when nothing was provided; there is no
// fallback value.
func (h *Handle[T]) Use(scope *Scope) (*Store[T], error) {
	if scope == nil {
		return nil, ErrNoStore
	}
	if v := scope.value(h.key); v != nil {
		if store, ok := v.(*Store[T]); ok {
			return store, nil
		}
	}
	return nil, ErrNoStore
}

// MustUse is Use for call sites that cannot propagate an error.
// It panics with ErrNoStore when no store was provided; providing a store
// is a structural precondition, so failing fast beats defaulting.
func (h *Handle[T]) MustUse(scope *Scope) *Store[T] {
	store, err := h.Use(scope)
	if err != nil {
		panic(err)
	}
	return store
}

// UseCurrent resolves the store against the calling goroutine's ambient
// scope (see WithScope).
func (h *Handle[T]) UseCurrent() (*Store[T], error) {
	return h.Use(CurrentScope())
}
