// Package strata is a minimal publish-subscribe state container for
// component-based UIs.
//
// A Store holds a single application-defined value. Consumers read it with
// Get, write it with a shallow-merge Set, and register for change
// notifications with Subscribe. Notification is synchronous and carries no
// payload: subscribers re-read state themselves, typically through a
// Selection that recomputes a derived value and reports it only when it
// actually changed. This keeps re-render scheduling in the consuming
// framework while the store stays framework-independent.
//
//	type AppState struct {
//	    Count int
//	    Theme string
//	}
//
//	store := strata.New(AppState{Theme: "light"})
//
//	count := strata.Select(store, func(s AppState) int { return s.Count })
//	stop := count.Subscribe(func(n int) {
//	    // re-render the counter
//	})
//	defer stop()
//
//	store.Set(strata.Patch{"Count": 1}) // notifies, count changed
//	store.Set(strata.Patch{"Theme": "dark"}) // notifies, count unchanged: no re-render
//
// Stores can be made ambient to a subtree of consumers through a Scope and a
// typed Handle, so descendants reach the store without explicit parameter
// passing:
//
//	var AppStore = strata.NewHandle[AppState]()
//
//	scope := strata.NewScope(nil)
//	AppStore.Provide(scope, store)
//
//	st, err := AppStore.Use(scope) // strata.ErrNoStore when nothing was provided
package strata
