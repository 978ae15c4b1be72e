package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrRateLimited           = errors.New("provider rate limited")
	ErrAmbiguousMatch        = errors.New("ambiguous match")
	ErrSyncAlreadyRunning    = errors.New("sync already running")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrIdentifierExhausted   = errors.New("identifier space exhausted")
)
