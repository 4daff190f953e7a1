package service

import "errors"

var (
	// ErrForbidden is returned when the caller is not allowed to act on the
	// resource, for example a non-participant touching a swap.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when the resource is not in a state that allows
	// the operation.
	ErrConflict = errors.New("operation not allowed in the current state")

	// ErrNotEligible is returned when a rating is submitted for a swap that
	// has not completed.
	ErrNotEligible = errors.New("swap is not completed")

	// ErrAlreadyRated is returned on a second rating by the same rater for
	// the same swap.
	ErrAlreadyRated = errors.New("swap already rated by this user")
)
