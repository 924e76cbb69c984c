package photos

import "errors"

// Error taxonomy. Handlers map these onto HTTP statuses; everything else is
// a storage-dependency failure and surfaces as retryable.
var (
	// ErrInvalid rejects bad input before any mutation.
	ErrInvalid = errors.New("invalid request")

	// ErrQuotaExceeded means the farm's approved-photo capacity is full.
	ErrQuotaExceeded = errors.New("photo quota exceeded")

	// ErrNotFound covers missing leases and records; the caller restarts
	// the flow from reservation.
	ErrNotFound = errors.New("not found")

	// ErrLeaseExpired is returned when a confirm arrives after the lease's
	// absolute expiry.
	ErrLeaseExpired = errors.New("upload lease expired")

	// ErrRecoveryExpired means the soft-delete grace window has passed.
	ErrRecoveryExpired = errors.New("recovery window expired")
)
