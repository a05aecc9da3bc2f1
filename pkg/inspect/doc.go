// Package inspect provides a devtools surface for strata stores: a named
// registry of live stores, Prometheus and OpenTelemetry instrumentation of
// store writes, and an HTTP server exposing snapshots plus a websocket
// stream of change events.
//
// Instrumentation attaches through store options, so the core stays
// dependency-free:
//
//	reg := inspect.NewRegistry()
//	hub := inspect.NewHub(logger)
//	metrics := inspect.NewMetrics()
//
//	store := strata.New(AppState{},
//	    strata.WithName("app"),
//	    metrics.Option(),
//	    hub.Option(),
//	)
//	reg.Register("app", store)
//
//	srv := inspect.NewServer(reg, inspect.WithHub(hub))
//	go srv.ListenAndServe(":7070")
//
// The server observes state; it never stores or replays it.
package inspect
