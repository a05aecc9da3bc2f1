package strata

import (
	"errors"
	"testing"
)

func TestHandleProvideUse(t *testing.T) {
	handle := NewHandle[appState]()
	scope := NewScope(nil)

	store := New(appState{Count: 1})
	handle.Provide(scope, store)

	got, err := handle.Use(scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != store {
		t.Errorf("expected the provided store instance")
	}
}

func TestHandleUseWithoutProvider(t *testing.T) {
	handle := NewHandle[appState]()
	scope := NewScope(nil)

	if _, err := handle.Use(scope); !errors.Is(err, ErrNoStore) {
		t.Errorf("expected ErrNoStore, got %v", err)
	}
	if _, err := handle.Use(nil); !errors.Is(err, ErrNoStore) {
		t.Errorf("expected ErrNoStore for nil scope, got %v", err)
	}
}

func TestHandleMustUsePanics(t *testing.T) {
	handle := NewHandle[appState]()
	scope := NewScope(nil)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrNoStore) {
			t.Errorf("expected ErrNoStore panic, got %v", r)
		}
	}()
	handle.MustUse(scope)
}

func TestHandleResolvesThroughParents(t *testing.T) {
	handle := NewHandle[appState]()

	root := NewScope(nil)
	child := NewScope(root)
	grandchild := NewScope(child)

	store := New(appState{Count: 1})
	handle.Provide(root, store)

	got, err := handle.Use(grandchild)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != store {
		t.Errorf("expected root-provided store from grandchild scope")
	}
}

func TestHandleChildShadowsParent(t *testing.T) {
	handle := NewHandle[appState]()

	root := NewScope(nil)
	child := NewScope(root)

	rootStore := New(appState{Count: 1})
	childStore := New(appState{Count: 2})
	handle.Provide(root, rootStore)
	handle.Provide(child, childStore)

	if got, _ := handle.Use(child); got != childStore {
		t.Errorf("expected child binding to shadow root")
	}
	if got, _ := handle.Use(root); got != rootStore {
		t.Errorf("sibling lookup polluted by child binding")
	}
}

func TestHandleIndependentInstances(t *testing.T) {
	handle := NewHandle[appState]()

	scopeA := NewScope(nil)
	scopeB := NewScope(nil)
	handle.Provide(scopeA, New(appState{Count: 1}))
	handle.Provide(scopeB, New(appState{Count: 1}))

	storeA := handle.MustUse(scopeA)
	storeB := handle.MustUse(scopeB)

	storeA.Set(Patch{"Count": 99})
	if got := storeB.Get().Count; got != 1 {
		t.Errorf("ambient binding leaked state across scopes: got %d", got)
	}
}

func TestTwoHandlesSameType(t *testing.T) {
	h1 := NewHandle[appState]()
	h2 := NewHandle[appState]()
	scope := NewScope(nil)

	s1 := New(appState{Count: 1})
	s2 := New(appState{Count: 2})
	h1.Provide(scope, s1)
	h2.Provide(scope, s2)

	if got := h1.MustUse(scope); got != s1 {
		t.Errorf("handle identity collided for h1")
	}
	if got := h2.MustUse(scope); got != s2 {
		t.Errorf("handle identity collided for h2")
	}
}

func TestWithScope(t *testing.T) {
	handle := NewHandle[appState]()
	scope := NewScope(nil)
	store := New(appState{Count: 1})
	handle.Provide(scope, store)

	if got := CurrentScope(); got != nil {
		t.Fatalf("expected no ambient scope, got %v", got)
	}

	WithScope(scope, func() {
		if CurrentScope() != scope {
			t.Errorf("ambient scope not established")
		}
		got, err := handle.UseCurrent()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != store {
			t.Errorf("UseCurrent resolved wrong store")
		}
	})

	if got := CurrentScope(); got != nil {
		t.Errorf("ambient scope not restored, got %v", got)
	}
	if _, err := handle.UseCurrent(); !errors.Is(err, ErrNoStore) {
		t.Errorf("expected ErrNoStore outside WithScope, got %v", err)
	}
}

func TestScopeDispose(t *testing.T) {
	root := NewScope(nil)
	child := NewScope(root)

	var order []string
	root.OnCleanup(func() { order = append(order, "root-1") })
	root.OnCleanup(func() { order = append(order, "root-2") })
	child.OnCleanup(func() { order = append(order, "child") })

	root.Dispose()

	if !root.IsDisposed() || !child.IsDisposed() {
		t.Fatalf("expected both scopes disposed")
	}
	// Children first, then own cleanups in reverse registration order.
	want := []string{"child", "root-2", "root-1"}
	if len(order) != len(want) {
		t.Fatalf("expected cleanup order %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected cleanup order %v, got %v", want, order)
		}
	}

	// Idempotent.
	root.Dispose()
	if len(order) != 3 {
		t.Errorf("cleanups ran again on second dispose")
	}
}

func TestScopeOnCleanupAfterDispose(t *testing.T) {
	scope := NewScope(nil)
	scope.Dispose()

	ran := false
	scope.OnCleanup(func() { ran = true })
	if !ran {
		t.Errorf("cleanup registered after dispose must run immediately")
	}
}

func TestProvideDoesNotMutateState(t *testing.T) {
	handle := NewHandle[appState]()
	scope := NewScope(nil)
	store := New(appState{Count: 1})

	calls := 0
	store.Subscribe(func() { calls++ })

	handle.Provide(scope, store)
	if _, err := handle.Use(scope); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != 0 {
		t.Errorf("provide/use notified subscribers, got %d calls", calls)
	}
	if got := store.Get().Count; got != 1 {
		t.Errorf("provide/use mutated state: got %d", got)
	}
}
