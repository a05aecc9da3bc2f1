package strata

import "errors"

// ErrNoStore is returned by Handle.Use when no store has been provided for
// the handle anywhere in the scope chain.
//
// This is a programmer-error guard, not a recoverable runtime condition: a
// consumer asking for an ambient store outside the subtree that provides one
// should fail immediately rather than operate on default state. MustUse
// panics with this error for call sites where returning it is impractical.
var ErrNoStore = errors.New("strata: no store available in scope")
