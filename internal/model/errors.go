package model

import "errors"

// Business outcomes are sentinel values so callers can branch with
// errors.Is instead of matching strings. Storage failures are wrapped
// and propagated, never folded into these.
var (
	ErrStationNotFound   = errors.New("station not found")
	ErrCardNotFound      = errors.New("card not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidInput      = errors.New("invalid input")
	ErrAdminAuth         = errors.New("invalid admin credentials")
)
