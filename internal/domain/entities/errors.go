package entities

import "errors"

// Domain errors
var (
	ErrInvalidStatusTransition = errors.New("invalid meeting status transition")
)
