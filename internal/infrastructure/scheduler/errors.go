package scheduler

import "errors"

var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrAlreadyRunning is returned when a run is triggered while another is in progress
	ErrAlreadyRunning = errors.New("forecast warm-up already in progress")
)
