package strata

// Batch groups multiple store writes into a single notification phase.
// Notifications from all Set, Replace, and Update calls within fn are
// collected, deduplicated by subscriber, and delivered once when the
// outermost batch completes. Writes outside a batch remain strictly
// synchronous.
//
// Batches can be nested; notifications only fire when the outermost batch
// completes.
//
//	strata.Batch(func() {
//	    users.Set(strata.Patch{"Active": 12})
//	    session.Set(strata.Patch{"LastSeen": now})
//	})
//	// each subscriber of each store runs once
func Batch(fn func()) {
	incrementBatchDepth()

	defer func() {
		if decrementBatchDepth() {
			flushPending()
		}
	}()

	fn()
}

// flushPending deduplicates and invokes all subscribers queued during a
// batch. Subscribers that unsubscribed mid-batch are skipped.
func flushPending() {
	pending := drainPending()
	if len(pending) == 0 {
		return
	}

	seen := make(map[uint64]bool, len(pending))
	for _, sub := range pending {
		if seen[sub.id] {
			continue
		}
		seen[sub.id] = true

		if sub.removed.Load() {
			continue
		}
		sub.fn()
	}
}
