package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrOperationFailed    = errors.New("operation failed")

	// Authn/authz
	ErrUnauthenticated = errors.New("caller is not authenticated")
	ErrForbidden       = errors.New("caller does not own this resource")

	// Billing
	ErrConflict            = errors.New("a live subscription already exists for this listing")
	ErrInvalidState        = errors.New("subscription is not in a cancellable state")
	ErrProviderUnavailable = errors.New("payment provider unavailable")

	// Discount codes
	ErrDiscountNotFound  = errors.New("discount code not found")
	ErrDiscountExpired   = errors.New("discount code has expired")
	ErrDiscountInactive  = errors.New("discount code is inactive")
	ErrDiscountExhausted = errors.New("discount code usage cap reached")

	// Webhooks
	ErrMissingEventID   = errors.New("webhook payload carries no derivable event id")
	ErrSignatureInvalid = errors.New("webhook signature verification failed")
)
