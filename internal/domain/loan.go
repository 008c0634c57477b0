package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	LoanStatusActive  = "ACTIVE"
	LoanStatusOverdue = "OVERDUE"
	LoanStatusPaid    = "PAID"
)

// Loan represents a short-term cash loan issued to a rider. The outstanding
// balance includes accrued penalties; once status reaches PAID it never
// re-opens.
type Loan struct {
	LoanID               int64           `json:"loan_id" db:"loan_id"`
	RiderID              int64           `json:"rider_id" db:"rider_id"`
	AgentID              int64           `json:"agent_id" db:"agent_id"`
	PrincipalAmount      decimal.Decimal `json:"principal_amount" db:"principal_amount"`
	ServiceCharge        decimal.Decimal `json:"service_charge" db:"service_charge"`
	OutstandingBalance   decimal.Decimal `json:"outstanding_balance" db:"outstanding_balance"`
	TotalPenalty         decimal.Decimal `json:"total_penalty" db:"total_penalty"`
	PenaltyCap           decimal.Decimal `json:"penalty_cap" db:"penalty_cap"`
	IssuedAt             time.Time       `json:"issued_at" db:"issued_at"`
	DueAt                time.Time       `json:"due_at" db:"due_at"`
	LastPenaltyAppliedAt *time.Time      `json:"last_penalty_applied_at" db:"last_penalty_applied_at"`
	Status               string          `json:"status" db:"status"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
}

// IsOpen reports whether the loan still accepts payments and penalties.
func (l *Loan) IsOpen() bool {
	return l.Status == LoanStatusActive || l.Status == LoanStatusOverdue
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	RiderID         int64           `json:"rider_id" validate:"required,gt=0"`
	AgentID         int64           `json:"agent_id" validate:"required,gt=0"`
	PrincipalAmount decimal.Decimal `json:"principal_amount" validate:"required"`
}

type LoanListResponse struct {
	Loans []*Loan `json:"loans"`
}

type LoanDetailResponse struct {
	Loan     *Loan      `json:"loan"`
	Payments []*Payment `json:"payments"`
	Rider    *Rider     `json:"rider"`
}

type AdjustLoanRequest struct {
	OutstandingBalance *decimal.Decimal `json:"outstanding_balance"`
	TotalPenalty       *decimal.Decimal `json:"total_penalty"`
	Status             *string          `json:"status" validate:"omitempty,oneof=ACTIVE OVERDUE PAID"`
}
