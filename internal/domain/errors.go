package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across layers. Stores return them so the
// services can classify failures without importing the store packages.
var (
	ErrBookingNotFound        = errors.New("booking not found")
	ErrCarNotFound            = errors.New("car not found")
	ErrReviewExists           = errors.New("review already exists for booking")
	ErrPayloadRejected        = errors.New("payload rejected by store")
	ErrConcurrentModification = errors.New("booking was modified concurrently")
)

// TransitionError marks an illegal lifecycle transition or a duplicate
// in-flight submission. A usage fault, not a user-correctable input error.
type TransitionError struct {
	From   string
	To     string
	Reason string
}

func (e *TransitionError) Error() string {
	if e.From != "" || e.To != "" {
		return fmt.Sprintf("illegal transition %s -> %s: %s", e.From, e.To, e.Reason)
	}
	return e.Reason
}

// SubmissionError wraps a remote failure during booking creation.
type SubmissionError struct {
	Kind string // SubmissionTransport or SubmissionRejected
	Err  error
}

const (
	SubmissionTransport = "transport"
	SubmissionRejected  = "rejected"
)

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("booking submission failed (%s): %v", e.Kind, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// ReviewValidationError reports missing rating or comment before any
// external write is attempted.
type ReviewValidationError struct {
	Field string
}

func (e *ReviewValidationError) Error() string {
	return fmt.Sprintf("review validation failed: %s", e.Field)
}

// ReferenceResolutionError means the review flow could not determine
// which car a booking refers to, even after re-fetching the booking.
type ReferenceResolutionError struct {
	BookingID int64
}

func (e *ReferenceResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve car reference for booking %d", e.BookingID)
}
