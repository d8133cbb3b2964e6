package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound           = errors.New("resource not found")
	ErrAnalysisNotFound   = fmt.Errorf("%w: analysis", ErrNotFound)
	ErrHypothesisNotFound = fmt.Errorf("%w: hypothesis", ErrNotFound)
	ErrSeriesNotFound     = fmt.Errorf("%w: series", ErrNotFound)

	// Validation errors
	ErrInvalidSeries    = errors.New("invalid time series")
	ErrInsufficientData = errors.New("insufficient data for analysis")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
