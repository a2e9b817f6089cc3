package domain

import "errors"

// Authentication and authorization.
var (
	ErrValidation             = errors.New("validation failed")
	ErrInvalidCredentials     = errors.New("invalid username or password")
	ErrRateLimited            = errors.New("too many login attempts")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrInsufficientRole       = errors.New("insufficient role")
	ErrAccountNotFound        = errors.New("account not found")
	ErrAccountExists          = errors.New("account already exists")
	ErrSessionNotFound        = errors.New("session not found")
)

// Deliveries.
var (
	ErrDeliveryNotFound    = errors.New("delivery not found")
	ErrDuplicateDisplayID  = errors.New("display id already taken")
	ErrAllocationExhausted = errors.New("display id allocation exhausted")
	ErrNotAssignee         = errors.New("delivery is assigned to another staff member")
	ErrInvalidStatus       = errors.New("invalid delivery status")
	ErrNoDeliveries        = errors.New("no delivery records found")
)
