package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrAmountTooSmall     = errors.New("amount below minimum")
	ErrInvalidTransition  = errors.New("invalid payment status transition")
	ErrOperationFailed    = errors.New("operation failed")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrLockNotAcquired    = errors.New("lock not acquired")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrNotPaidYet         = errors.New("payment not completed at gateway")
)
