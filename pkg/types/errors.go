package types

import "errors"

// Domain errors for type validation
var (
	ErrEmptyPath         = errors.New("file path is required")
	ErrInvalidChange     = errors.New("invalid change type")
	ErrInvalidConfidence = errors.New("confidence must be between 0 and 1")
	ErrEmptyName         = errors.New("function name is required")
)
