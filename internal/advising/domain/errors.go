package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors, one per failure kind. Callers test them with errors.Is.
var (
	ErrUnauthorized       = errors.New("caller is not allowed to perform this operation")
	ErrBookingDisabled    = errors.New("booking is currently disabled")
	ErrAdvisorUnavailable = errors.New("advisor is not accepting bookings")
	ErrSlotTaken          = errors.New("slot is already booked")
	ErrInvalidSlot        = errors.New("start time is not a bookable slot")
	ErrInvalidTransition  = errors.New("session cannot make this transition")
	ErrMissingReason      = errors.New("cancellation reason is required")
	ErrNotFound           = errors.New("not found")
	ErrStoreFailure       = errors.New("store failure")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrConcurrentUpdate   = errors.New("session was modified concurrently")
)

// Kind is the stable machine-readable name of a failure.
type Kind string

const (
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindBookingDisabled    Kind = "BOOKING_DISABLED"
	KindAdvisorUnavailable Kind = "ADVISOR_UNAVAILABLE"
	KindSlotTaken          Kind = "SLOT_TAKEN"
	KindInvalidSlot        Kind = "INVALID_SLOT"
	KindInvalidTransition  Kind = "INVALID_TRANSITION"
	KindMissingReason      Kind = "MISSING_REASON"
	KindNotFound           Kind = "NOT_FOUND"
	KindStoreFailure       Kind = "STORE_FAILURE"
	KindInvalidRequest     Kind = "INVALID_REQUEST"
	KindConcurrentUpdate   Kind = "CONCURRENT_UPDATE"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrUnauthorized, KindUnauthorized},
	{ErrBookingDisabled, KindBookingDisabled},
	{ErrAdvisorUnavailable, KindAdvisorUnavailable},
	{ErrSlotTaken, KindSlotTaken},
	{ErrInvalidSlot, KindInvalidSlot},
	{ErrInvalidTransition, KindInvalidTransition},
	{ErrMissingReason, KindMissingReason},
	{ErrNotFound, KindNotFound},
	{ErrInvalidRequest, KindInvalidRequest},
	{ErrConcurrentUpdate, KindConcurrentUpdate},
	{ErrStoreFailure, KindStoreFailure},
}

// KindOf classifies err. Errors outside the taxonomy are reported as store
// failures so that nothing unexpected reaches a caller as success. A nil
// error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindStoreFailure
}

// IsKnown reports whether err carries one of the kinds above.
func IsKnown(err error) bool {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return true
		}
	}
	return false
}

// storeError wraps a driver error so it matches ErrStoreFailure while
// keeping the cause for logs.
type storeError struct {
	op  string
	err error
}

func (e *storeError) Error() string {
	return fmt.Sprintf("%s: %v", e.op, e.err)
}

func (e *storeError) Is(target error) bool {
	return target == ErrStoreFailure
}

func (e *storeError) Unwrap() error {
	return e.err
}

// StoreFailure wraps err as a store failure for operation op. Errors that
// already carry a kind pass through unchanged.
func StoreFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return err
		}
	}
	return &storeError{op: op, err: err}
}

// InvalidRequest reports the request fields that failed validation.
func InvalidRequest(fields ...string) error {
	if len(fields) == 0 {
		return ErrInvalidRequest
	}
	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(fields, ", "))
}
