package service

import "errors"

// Sentinel kinds for session admission and lookup. The HTTP layer maps
// these onto status codes by message, so the wording is load-bearing.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("session limit reached")
)
