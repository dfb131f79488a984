// Package auth implements registration and sign-in against the identity
// provider, plus the role model separating patients from pharmacies.
package auth

import "errors"

var (
	// ErrInvalidCredentials is returned when sign-in fails due to a wrong
	// email or password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserExists is returned when registering an email that is already taken.
	ErrUserExists = errors.New("user already exists")
)
