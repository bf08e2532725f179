package model

import "errors"

// Common errors used across the application
var (
	// Access errors
	ErrUnauthorized    = errors.New("caller is not the ledger owner")
	ErrOwnerNotSet     = errors.New("ledger owner is not set")
	ErrOwnerAlreadySet = errors.New("ledger owner is already set")
	ErrInvalidIdentity = errors.New("identity must not be empty")

	// Ledger errors
	ErrInvalidAmount = errors.New("points must be greater than zero")
	ErrOverflow      = errors.New("balance would overflow")

	// History errors
	ErrRecordNotFound = errors.New("history record not found")
)
