package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrRiderNotFound        = errors.New("rider not found")
	ErrRiderNotActive       = errors.New("rider is not active")
	ErrRiderHasOpenLoan     = errors.New("rider already has an active or overdue loan")
	ErrLoanNotFound         = errors.New("loan not found")
	ErrLoanAlreadyPaid      = errors.New("loan already paid")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrAmountExceedsBalance = errors.New("amount exceeds outstanding balance")
	ErrPenaltyExceedsCap    = errors.New("total penalty exceeds penalty cap")

	// ErrTransient marks lock-timeout/deadlock failures. The whole operation
	// is safe to retry from scratch; no side effects survive the rollback.
	ErrTransient = errors.New("transient storage conflict")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeRiderNotFound        = "RIDER_NOT_FOUND"
	ErrCodeRiderNotActive       = "RIDER_NOT_ACTIVE"
	ErrCodeRiderHasOpenLoan     = "RIDER_HAS_OPEN_LOAN"
	ErrCodeLoanNotFound         = "LOAN_NOT_FOUND"
	ErrCodeLoanAlreadyPaid      = "LOAN_ALREADY_PAID"
	ErrCodeInvalidAmount        = "INVALID_AMOUNT"
	ErrCodeAmountExceedsBalance = "AMOUNT_EXCEEDS_BALANCE"
	ErrCodePenaltyExceedsCap    = "PENALTY_EXCEEDS_CAP"
	ErrCodeTransient            = "TRANSIENT_CONFLICT"
	ErrCodeDatabaseError        = "DATABASE_ERROR"
)

// Wrap common errors with business context
func WrapRiderNotFound(riderID int64) *BusinessError {
	return NewBusinessError(
		ErrCodeRiderNotFound,
		fmt.Sprintf("Rider %d not found", riderID),
		ErrRiderNotFound,
	)
}

func WrapRiderNotActive(riderID int64, status string) *BusinessError {
	return NewBusinessError(
		ErrCodeRiderNotActive,
		fmt.Sprintf("Rider %d is %s, not ACTIVE", riderID, status),
		ErrRiderNotActive,
	)
}

func WrapRiderHasOpenLoan(riderID int64) *BusinessError {
	return NewBusinessError(
		ErrCodeRiderHasOpenLoan,
		fmt.Sprintf("Rider %d already has an active or overdue loan", riderID),
		ErrRiderHasOpenLoan,
	)
}

func WrapLoanNotFound(loanID int64) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan %d not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapLoanAlreadyPaid(loanID int64) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanAlreadyPaid,
		fmt.Sprintf("Loan %d is already paid", loanID),
		ErrLoanAlreadyPaid,
	)
}

func WrapInvalidAmount(amount string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidAmount,
		fmt.Sprintf("Invalid payment amount: %s", amount),
		ErrInvalidAmount,
	)
}

func WrapAmountExceedsBalance(amount, outstanding string) *BusinessError {
	return NewBusinessError(
		ErrCodeAmountExceedsBalance,
		fmt.Sprintf("Payment amount %s exceeds outstanding balance %s", amount, outstanding),
		ErrAmountExceedsBalance,
	)
}

func WrapPenaltyExceedsCap(penalty, cap string) *BusinessError {
	return NewBusinessError(
		ErrCodePenaltyExceedsCap,
		fmt.Sprintf("Total penalty %s exceeds penalty cap %s", penalty, cap),
		ErrPenaltyExceedsCap,
	)
}

func WrapTransient(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeTransient,
		"operation hit a lock conflict; retry",
		errors.Join(ErrTransient, err),
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

// IsTransient reports whether err is a retryable lock-conflict failure.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
