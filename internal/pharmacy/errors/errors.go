// Package errors defines domain-specific error types for the pharmacy module.
package errors

import "errors"

var (
	// ErrPharmacyNotFound is returned when a pharmacy with the specified ID does not exist.
	ErrPharmacyNotFound = errors.New("pharmacy not found")
)
