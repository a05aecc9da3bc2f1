package strata

// Selection binds a pure selector function to a store, scoping a consumer's
// dependency to the derived value instead of the whole state.
//
// The store notifies on every write; deduplication happens here. A
// Selection subscription recomputes the selector on each notification and
// invokes its callback only when the derived value changed according to the
// selection's equality function.
type Selection[T, D any] struct {
	store    *Store[T]
	selector func(T) D
	equal    func(D, D) bool
}

// Select creates a Selection deriving D from the store's state.
// The selector must be pure: it may be recomputed on any write.
func Select[T, D any](s *Store[T], selector func(T) D) *Selection[T, D] {
	return &Selection[T, D]{
		store:    s,
		selector: selector,
	}
}

// WithEquals returns the selection configured with a custom equality
// function for change detection. Useful when reflect.DeepEqual is too
// expensive or has incorrect semantics for D.
func (sel *Selection[T, D]) WithEquals(fn func(D, D) bool) *Selection[T, D] {
	sel.equal = fn
	return sel
}

// Get computes the current derived value. Pure read, never notifies.
func (sel *Selection[T, D]) Get() D {
	return sel.selector(sel.store.Get())
}

// Subscribe invokes onChange with the new derived value whenever a store
// write actually changed it. No catch-up call is made on registration.
// The returned function unsubscribes and is idempotent.
//
// Change detection runs on the writing goroutine, so onChange follows the
// same synchronous discipline as Store.Subscribe callbacks.
func (sel *Selection[T, D]) Subscribe(onChange func(D)) (unsubscribe func()) {
	last := sel.Get()

	return sel.store.Subscribe(func() {
		next := sel.Get()
		if sel.equals(last, next) {
			return
		}
		last = next
		onChange(next)
	})
}

func (sel *Selection[T, D]) equals(a, b D) bool {
	if sel.equal != nil {
		return sel.equal(a, b)
	}
	return defaultEquals(a, b)
}
