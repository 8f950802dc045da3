package domain

import "errors"

// ErrInvalidOutcomeKey is returned when an outcome key cannot be parsed.
var ErrInvalidOutcomeKey = errors.New("invalid outcome key")
