package investment

import "errors"

// Domain-level error values returned by the investment service.
var (
	ErrSignatureMismatch = errors.New("gateway signature mismatch")
	ErrDepositNotFound   = errors.New("deposit not found")
	ErrNotFound          = errors.New("investment not found")
	ErrAlreadyInactive   = errors.New("investment already inactive")
	ErrInvalidPlan       = errors.New("invalid plan")
	ErrInvalidConfig     = errors.New("invalid investment service config")
)
