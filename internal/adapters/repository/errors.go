package repository

import "errors"

// Sentinel kinds for score store errors.
var (
	ErrNotFound = errors.New("score record not found")
	ErrExpired  = errors.New("score record expired")
)
