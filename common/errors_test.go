package common

import (
	"errors"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	var err error = NewNotFoundError("request %s does not exist", "abc")

	// Verify that we get the expected error message.
	if err.Error() != "request abc does not exist" {
		t.Errorf("unexpected error message: %s", err.Error())
	}

	// Verify that the error matches with errors.As, which is how callers classify it.
	var notFound NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("the error doesn't appear to be a NotFoundError")
	}

	// The type must be distinct from the other error types.
	var validation ValidationError
	if errors.As(err, &validation) {
		t.Errorf("the error appears to be a ValidationError")
	}
}

func TestValidationError(t *testing.T) {
	var err error = NewValidationError("recipient_type must be one of: user, admin")

	if err.Error() != "recipient_type must be one of: user, admin" {
		t.Errorf("unexpected error message: %s", err.Error())
	}

	var validation ValidationError
	if !errors.As(err, &validation) {
		t.Errorf("the error doesn't appear to be a ValidationError")
	}
}

func TestDeliveryError(t *testing.T) {
	var err error = NewDeliveryError("unable to publish the email request: %s", "connection refused")

	if err.Error() != "unable to publish the email request: connection refused" {
		t.Errorf("unexpected error message: %s", err.Error())
	}

	var delivery DeliveryError
	if !errors.As(err, &delivery) {
		t.Errorf("the error doesn't appear to be a DeliveryError")
	}
}
