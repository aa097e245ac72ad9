// Package common defines shared constants and sentinel errors used across
// the identifier engine. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrNotFound = errors.New("not found")

	// Caller-contract errors. These are never converted to "absent".
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// Channel auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
