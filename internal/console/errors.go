package console

import "errors"

var (
	// ErrUserNotLoaded means the id is not in the currently loaded page.
	ErrUserNotLoaded  = errors.New("user not loaded")
	ErrNoEditSession  = errors.New("no edit session open")
	ErrPageOutOfRange = errors.New("page out of range")

	// ErrStaleResponse is returned by a load whose response arrived after a
	// newer load was issued. The response is discarded.
	ErrStaleResponse = errors.New("stale response discarded")
)
