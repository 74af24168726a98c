package app

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidInterval   = errors.New("start time must be before end time")
	ErrSlotUnavailable   = errors.New("slot not available")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTypeInactive      = errors.New("appointment type is not active")
)
