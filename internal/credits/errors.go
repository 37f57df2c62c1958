package credits

import "errors"

var (
	// ErrInsufficientCredits is returned when the local cache or the server
	// has no credit to spend. It is never retried.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrTransient wraps store and task failures that triggered a rollback.
	ErrTransient = errors.New("transient failure")
	// ErrBusy is returned when a transaction is already in flight for the session.
	ErrBusy = errors.New("credit transaction already in progress")
)
