package otp

import "errors"

var (
	// ErrNotFound is returned when no code is pending for the email.
	ErrNotFound = errors.New("no verification code pending for this email")
	// ErrMismatch is returned when the supplied code differs from the pending one.
	ErrMismatch = errors.New("verification code does not match")
	// ErrExpired is returned when the pending code is past its expiry.
	ErrExpired = errors.New("verification code has expired")
)
