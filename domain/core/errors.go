package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrEstimateNotFound = fmt.Errorf("%w: estimate", ErrNotFound)
	ErrDatasetNotFound  = fmt.Errorf("%w: dataset", ErrNotFound)

	// Estimation errors
	ErrInvalidDataset         = errors.New("invalid dataset")
	ErrUnsupportedDesign      = errors.New("unsupported design")
	ErrUnsupportedEnforcement = errors.New("unsupported enforcement strategy")
	ErrUnknownFamily          = errors.New("unknown estimator family")
	ErrFittingFailed          = errors.New("model fitting failed")
	ErrNonPositiveVariance    = errors.New("non-positive variance")
)

// IsNotFound checks if an error is a not-found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
