package replay

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady is returned when the readiness signal does not arrive
	// within the ready timeout.
	ErrNotReady = errors.New("application did not become ready")
	// ErrApplicationStopped is returned when the event loop stops before
	// the replay finishes.
	ErrApplicationStopped = errors.New("application event loop stopped")
	// ErrToolkitMismatch is returned for scenarios recorded with another
	// toolkit version.
	ErrToolkitMismatch = errors.New("scenario toolkit version does not match")
)

// UnresolvedTargetError reports an entry whose target path matched nothing
// in the live tree within the resolve timeout.
type UnresolvedTargetError struct {
	Index int
	Path  string
}

func (e *UnresolvedTargetError) Error() string {
	return fmt.Sprintf("entry %d: target %s not found", e.Index, e.Path)
}

// EntryError wraps a per-entry failure that aborted a strict replay.
type EntryError struct {
	Index int
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("entry %d: %v", e.Index, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }
