package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentMethodCash   = "CASH"
	PaymentMethodMTN    = "MTN"
	PaymentMethodAirtel = "AIRTEL"
	PaymentMethodBank   = "BANK"
	PaymentMethodOther  = "OTHER"
)

// Payment is an immutable record of money applied against a loan's
// outstanding balance. Append-only audit trail.
type Payment struct {
	PaymentID     uuid.UUID       `json:"payment_id" db:"payment_id"`
	LoanID        int64           `json:"loan_id" db:"loan_id"`
	AmountPaid    decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	ReceivedBy    int64           `json:"received_by" db:"received_by"`
	PaymentTime   time.Time       `json:"payment_time" db:"payment_time"`
}

// PenaltyApplication records one successfully applied penalty period.
type PenaltyApplication struct {
	PenaltyID     uuid.UUID       `json:"penalty_id" db:"penalty_id"`
	LoanID        int64           `json:"loan_id" db:"loan_id"`
	PenaltyAmount decimal.Decimal `json:"penalty_amount" db:"penalty_amount"`
	AppliedAt     time.Time       `json:"applied_at" db:"applied_at"`
}

type RecordPaymentRequest struct {
	AmountPaid    decimal.Decimal `json:"amount_paid" validate:"required"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=CASH MTN AIRTEL BANK OTHER"`
	ReceivedBy    int64           `json:"received_by" validate:"required,gt=0"`
}

type RecordPaymentResponse struct {
	NewBalance decimal.Decimal `json:"new_balance"`
	Loan       *Loan           `json:"loan"`
}
