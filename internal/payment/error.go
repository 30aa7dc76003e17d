package payment

import (
	"errors"
	"fmt"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrVerificationRejected  = errors.New("payment signature mismatch")
	ErrDuplicateConfirmation = errors.New("payment already confirmed")
	ErrOrderNotFound         = errors.New("order not found")
)

// GatewayError is an order API failure. Detail carries the upstream message
// so it can be shown to the caller.
type GatewayError struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway error (status %d): %s", e.StatusCode, e.Detail)
	}
	return "gateway error: " + e.Detail
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// StorageError is a failed write or read against the confirmation store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
