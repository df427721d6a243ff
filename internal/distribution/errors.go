package distribution

import "errors"

// Domain-level error values returned by the distribution service.
var (
	ErrValidation               = errors.New("invalid distribution input")
	ErrPeriodNotFound           = errors.New("performance period not found")
	ErrPeriodNotLocked          = errors.New("performance period not locked")
	ErrPeriodAlreadyDistributed = errors.New("performance period already distributed")
	ErrPeriodAmountMismatch     = errors.New("declared profit does not match period net profit")
	ErrInvalidConfig            = errors.New("invalid distribution service config")
)
