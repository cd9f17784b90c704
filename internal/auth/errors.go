package auth

import "errors"

var (
	// ErrInvalidCredential is returned when a bearer credential fails signature,
	// structure or temporal validation
	ErrInvalidCredential = errors.New("auth: invalid credential")

	// ErrUnauthorized is returned when no usable identity is attached to a request
	ErrUnauthorized = errors.New("auth: unauthorized")
)
