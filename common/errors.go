package common

import "fmt"

// NotFoundError indicates that the entity that triggered a dispatch does not exist. A dispatch
// that encounters this error aborts without writing anything.
type NotFoundError struct {
	message string
}

// Error returns the error message for a NotFoundError.
func (e NotFoundError) Error() string {
	return e.message
}

// NewNotFoundError returns a new error indicating that an entity could not be found.
func NewNotFoundError(formatString string, a ...interface{}) NotFoundError {
	return NotFoundError{message: fmt.Sprintf(formatString, a...)}
}

// ValidationError indicates that a request or a single recipient's record was malformed. It
// aborts only the write it applies to, not sibling writes in the same fan-out.
type ValidationError struct {
	message string
}

// Error returns the error message for a ValidationError.
func (e ValidationError) Error() string {
	return e.message
}

// NewValidationError returns a new error indicating that input validation failed.
func NewValidationError(formatString string, a ...interface{}) ValidationError {
	return ValidationError{message: fmt.Sprintf(formatString, a...)}
}

// DeliveryError indicates that a downstream delivery channel failed. The sweeper logs these and
// leaves the record undelivered so that it's retried on the next sweep.
type DeliveryError struct {
	message string
}

// Error returns the error message for a DeliveryError.
func (e DeliveryError) Error() string {
	return e.message
}

// NewDeliveryError returns a new error indicating that a delivery channel failed.
func NewDeliveryError(formatString string, a ...interface{}) DeliveryError {
	return DeliveryError{message: fmt.Sprintf(formatString, a...)}
}
