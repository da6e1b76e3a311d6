package services

import "errors"

// Sentinel errors dispatched by handlers via errors.Is.
var (
	ErrParsingFailed      = errors.New("parsing failed")
	ErrUnknownParticipant = errors.New("unknown participant")
)
