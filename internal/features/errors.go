package features

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFeature marks a non-finite feature value
	ErrInvalidFeature = errors.New("invalid feature value")
	// ErrInsufficientHistory is returned when too few prior games exist
	ErrInsufficientHistory = errors.New("insufficient game history")
)

// InvalidFeatureError names the offending feature
type InvalidFeatureError struct {
	Feature string
	Value   float64
}

func (e *InvalidFeatureError) Error() string {
	return fmt.Sprintf("%s: %s = %v", ErrInvalidFeature, e.Feature, e.Value)
}

// Unwrap lets errors.Is match ErrInvalidFeature
func (e *InvalidFeatureError) Unwrap() error {
	return ErrInvalidFeature
}
