package user

import "errors"

var (
	ErrNotFound         = errors.New("user not found")
	ErrCustomerIDTaken  = errors.New("billing customer id already linked to another user")
	ErrInvalidProfile   = errors.New("invalid user profile")
	ErrStoreUnavailable = errors.New("user store unavailable")
)
