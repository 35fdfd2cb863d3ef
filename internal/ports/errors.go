package ports

import "errors"

// Standard application-level errors.
// Adapters wrap underlying infrastructure errors with these; the core
// signals rejected transitions with them instead of crashing.
var (
	// General errors
	ErrConfigurationError = errors.New("invalid or missing configuration")
	ErrUnknownAction      = errors.New("unknown input action")
	ErrNotFound           = errors.New("resource not found")

	// Trade session errors. Invalid transitions are non-fatal no-ops:
	// the in-flight session state is never overwritten.
	ErrSessionActive     = errors.New("a trade session is already active")
	ErrNoSession         = errors.New("no active trade session")
	ErrInvalidTransition = errors.New("invalid trade session transition")
	ErrNoBreakout        = errors.New("no unconsumed breakout event within the entry window")

	// Journal errors
	ErrJournalClosed = errors.New("trade journal is closed")
	ErrQueryFailed   = errors.New("journal query failed")
)
