package service

import "errors"

var (
	// ErrNoValidPredictions is returned when a submission has no scorable guess.
	ErrNoValidPredictions = errors.New("no valid predictions")
	// ErrInvalidInput is returned for malformed caller input.
	ErrInvalidInput = errors.New("invalid input")
)
