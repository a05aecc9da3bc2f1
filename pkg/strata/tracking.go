package strata

import (
	"runtime"
	"sync"
)

// trackingContext holds the per-goroutine state: the current ambient scope
// and the batching state. Each goroutine has its own context, matching the
// single-threaded cooperative model of the store itself.
type trackingContext struct {
	// currentScope is the scope consulted by Handle.UseCurrent.
	currentScope *Scope

	// batchDepth tracks nested Batch() calls.
	// When > 0, writes queue notifications instead of firing immediately.
	batchDepth int

	// pending accumulates subscribers to notify when the batch completes.
	// Deduplicated by ID before notification.
	pending []*subscriber
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

// goroutineID returns a unique identifier for the current goroutine by
// parsing the runtime stack header. Implementation detail; never exposed.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// The stack starts with "goroutine <id> "
	var id uint64
	for i := 10; i < n; i++ { // Skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

func getTrackingContext() *trackingContext {
	gid := goroutineID()

	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*trackingContext)
	}

	ctx := &trackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

func batchDepth() int {
	return getTrackingContext().batchDepth
}

func incrementBatchDepth() {
	getTrackingContext().batchDepth++
}

// decrementBatchDepth decreases the batch depth by 1.
// Returns true if batch depth reached 0 (batch complete).
func decrementBatchDepth() bool {
	ctx := getTrackingContext()
	ctx.batchDepth--
	return ctx.batchDepth == 0
}

func queuePending(sub *subscriber) {
	ctx := getTrackingContext()
	ctx.pending = append(ctx.pending, sub)
}

func drainPending() []*subscriber {
	ctx := getTrackingContext()
	pending := ctx.pending
	ctx.pending = nil
	return pending
}

// CurrentScope returns the ambient scope for the calling goroutine, or nil
// when none has been established via WithScope.
func CurrentScope() *Scope {
	return getTrackingContext().currentScope
}

func setCurrentScope(s *Scope) *Scope {
	ctx := getTrackingContext()
	old := ctx.currentScope
	ctx.currentScope = s
	return old
}

// WithScope runs fn with scope as the calling goroutine's ambient scope,
// restoring the previous one afterwards. Handles resolved via UseCurrent
// inside fn look stores up in this scope's chain.
func WithScope(scope *Scope, fn func()) {
	old := setCurrentScope(scope)
	defer setCurrentScope(old)
	fn()
}
