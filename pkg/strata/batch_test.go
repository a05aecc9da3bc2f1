package strata

import "testing"

func TestBatchCoalescesNotifications(t *testing.T) {
	store := New(appState{})

	calls := 0
	store.Subscribe(func() { calls++ })

	Batch(func() {
		store.Set(Patch{"Count": 1})
		store.Set(Patch{"Count": 2})
		store.Set(Patch{"Theme": "dark"})

		if calls != 0 {
			t.Errorf("notifications fired inside batch, got %d calls", calls)
		}
	})

	if calls != 1 {
		t.Errorf("expected 1 coalesced notification, got %d", calls)
	}
	if got := store.Get(); got.Count != 2 || got.Theme != "dark" {
		t.Errorf("expected state {2 dark}, got %+v", got)
	}
}

func TestBatchAcrossStores(t *testing.T) {
	a := New(appState{})
	b := New(appState{})

	aCalls, bCalls := 0, 0
	a.Subscribe(func() { aCalls++ })
	b.Subscribe(func() { bCalls++ })

	Batch(func() {
		a.Set(Patch{"Count": 1})
		b.Set(Patch{"Count": 1})
		a.Set(Patch{"Count": 2})
	})

	if aCalls != 1 || bCalls != 1 {
		t.Errorf("expected each store's subscriber once, got a=%d b=%d", aCalls, bCalls)
	}
}

func TestBatchNested(t *testing.T) {
	store := New(appState{})

	calls := 0
	store.Subscribe(func() { calls++ })

	Batch(func() {
		store.Set(Patch{"Count": 1})
		Batch(func() {
			store.Set(Patch{"Count": 2})
		})
		// Inner batch end must not flush.
		if calls != 0 {
			t.Errorf("inner batch flushed early, got %d calls", calls)
		}
	})

	if calls != 1 {
		t.Errorf("expected 1 notification after outermost batch, got %d", calls)
	}
}

func TestBatchSkipsUnsubscribed(t *testing.T) {
	store := New(appState{})

	calls := 0
	stop := store.Subscribe(func() { calls++ })

	Batch(func() {
		store.Set(Patch{"Count": 1})
		stop()
	})

	if calls != 0 {
		t.Errorf("subscriber removed during batch was still invoked")
	}
}

func TestSetOutsideBatchStaysSynchronous(t *testing.T) {
	store := New(appState{})

	calls := 0
	store.Subscribe(func() { calls++ })

	store.Set(Patch{"Count": 1})
	if calls != 1 {
		t.Errorf("expected synchronous notification, got %d calls", calls)
	}
}
