package errorz

import "errors"

var (
	ErrInvalidCode          = errors.New("invalid verification code")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)
