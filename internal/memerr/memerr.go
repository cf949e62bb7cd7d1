// Package memerr defines the error kinds the cheat engine core can raise:
// explicit, wrappable error values in place of an errno-style global
// indicator, so a caller can use errors.Is against a stable sentinel while
// still getting a human message via Error().
package memerr

import "errors"

// Sentinel errors classifying a failure. Use errors.Is to test for one of
// these against an error returned from the core.
var (
	// ErrTargetInaccessible means /proc/<pid>/maps or /proc/<pid>/mem could
	// not be opened at all: the process is gone or permission was denied
	// for the whole target, not just one region.
	ErrTargetInaccessible = errors.New("target process inaccessible")

	// ErrPartialTransfer means a read or write returned fewer bytes than
	// requested. It is recoverable: callers truncate the region or drop
	// the affected slot and continue.
	ErrPartialTransfer = errors.New("partial memory transfer")

	// ErrPermissionDenied means a specific region could not be accessed,
	// while the target as a whole remains reachable.
	ErrPermissionDenied = errors.New("permission denied for region")

	// ErrInvalidCommand means the operator's command line could not be
	// parsed or dispatched; engine state is left unchanged.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrNoInitialScan means next_scan/update/freeze_all was requested
	// before first_scan ever ran.
	ErrNoInitialScan = errors.New("no initial scan has been run")

	// ErrFreezeFailure means a freeze worker's writes kept failing and the
	// entry was dropped.
	ErrFreezeFailure = errors.New("freeze worker failed repeatedly")
)
