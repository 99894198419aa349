package authcore

import "errors"

var (
	// ErrEngineNotReady is returned when a method is called on an engine
	// that was not constructed through Builder.Build.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrSessionNotFound is returned when an operation requires a valid
	// session and none exists.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionCreationFailed is returned when a fresh record cannot be
	// built or persisted.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrTokenInvalid is returned for credentials that fail structural
	// decoding.
	ErrTokenInvalid = errors.New("invalid token")
)
