package errors

import (
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid          = "CONFIG_INVALID"
	CodeDatabaseError          = "DATABASE_ERROR"
	CodeNotFound               = "NOT_FOUND"
	CodeInternalError          = "INTERNAL_ERROR"
	CodeInvalidDataset         = "INVALID_DATASET"
	CodeUnsupportedDesign      = "UNSUPPORTED_DESIGN"
	CodeUnsupportedEnforcement = "UNSUPPORTED_ENFORCEMENT"
	CodeFittingFailed          = "FITTING_FAILED"
	CodeNonPositiveVariance    = "NONPOSITIVE_VARIANCE"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string) *AppError {
	return New(CodeDatabaseError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

// InvalidDataset reports a dataset that fails structural validation
func InvalidDataset(message string) *AppError {
	return New(CodeInvalidDataset, message)
}

// UnsupportedDesign reports a design-shape assumption violation (e.g. wrong
// period count for a fixed-width basis family)
func UnsupportedDesign(message string) *AppError {
	return New(CodeUnsupportedDesign, message)
}

// UnsupportedEnforcement reports an unknown monotonicity strategy name
func UnsupportedEnforcement(name string) *AppError {
	return New(CodeUnsupportedEnforcement, fmt.Sprintf("unknown enforcement strategy: %s", name))
}

// FittingFailed reports a model-fitting collaborator failure for a family
func FittingFailed(family string, cause error) *AppError {
	return &AppError{
		Code:    CodeFittingFailed,
		Message: fmt.Sprintf("model fitting failed for family %s", family),
		Cause:   cause,
	}
}

// NonPositiveVariance reports a propagated covariance that yields a negative
// variance for a reported scalar
func NonPositiveVariance(quantity string, value float64) *AppError {
	return New(CodeNonPositiveVariance, fmt.Sprintf("propagated variance for %s is non-positive: %g", quantity, value))
}
