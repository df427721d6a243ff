package ledger

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the ledger service.
var (
	ErrUnbalancedTransaction = errors.New("unbalanced transaction")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrNegativeBalance       = errors.New("negative resulting balance")
	ErrWalletNotFound        = errors.New("wallet not found")
	ErrWithdrawalNotFound    = errors.New("withdrawal not found")
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrInvalidState          = errors.New("invalid state transition")

	ErrInvalidUserID            = errors.New("invalid user id")
	ErrInvalidAmountCents       = errors.New("invalid amount cents")
	ErrInvalidAccountType       = errors.New("invalid account type")
	ErrInvalidDirection         = errors.New("invalid direction")
	ErrInvalidTransactionType   = errors.New("invalid transaction type")
	ErrInvalidTransactionStatus = errors.New("invalid transaction status")
	ErrInvalidWithdrawalStatus  = errors.New("invalid withdrawal status")
	ErrInvalidMetadataJSON      = errors.New("invalid metadata json")
	ErrInvalidMovement          = errors.New("invalid movement")
	ErrInvalidServiceConfig     = errors.New("invalid service config")
)

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
