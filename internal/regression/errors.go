package regression

import "errors"

var (
	// ErrInsufficientData is returned when fewer than the minimum valid samples are supplied
	ErrInsufficientData = errors.New("insufficient training data")
	// ErrNumericalInstability is returned when neither LU nor SVD can solve the system
	ErrNumericalInstability = errors.New("numerically unstable normal equations")
	// ErrInvalidLambda is returned for a negative ridge penalty
	ErrInvalidLambda = errors.New("ridge lambda must be non-negative")
)
