package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound             = errors.New("not found")
	ErrDuplicateParticipant = errors.New("participant already exists")
)
