package domain

import "errors"

var (
	ErrDuplicateIdentity  = errors.New("identity already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrSessionNotFound    = errors.New("session not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrNotFound           = errors.New("not found")
	ErrDecryption         = errors.New("decryption failed")
	ErrInvalidInput       = errors.New("invalid input")
	ErrSessionBusy        = errors.New("session update in progress")
	ErrUnsupported        = errors.New("operation not supported for this principal kind")

	// ErrInternal replaces any storage or infrastructure failure at the core boundary.
	ErrInternal = errors.New("internal error")
)
