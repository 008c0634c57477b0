package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/bodacredit/loan-engine/internal/domain"
)

// Locking and mutating methods take a sqlx.ExtContext so the same query can
// run on the shared *sqlx.DB or inside a caller's *sqlx.Tx. Any read of a
// loan's balance with intent to mutate must go through GetForUpdate on the
// transaction that performs the write.

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create inserts a loan and fills in its generated id and timestamps
	Create(ctx context.Context, q sqlx.ExtContext, loan *domain.Loan) error

	// GetByID retrieves a loan without locking (read-committed is enough)
	GetByID(ctx context.Context, loanID int64) (*domain.Loan, error)

	// GetForUpdate acquires an exclusive row lock on the loan, held until
	// the surrounding transaction ends
	GetForUpdate(ctx context.Context, q sqlx.ExtContext, loanID int64) (*domain.Loan, error)

	// HasOpenLoan reports whether the rider has a loan in ACTIVE or OVERDUE
	HasOpenLoan(ctx context.Context, q sqlx.ExtContext, riderID int64) (bool, error)

	// ListByStatus lists loans in one status, optionally filtered by agent
	ListByStatus(ctx context.Context, status string, agentID *int64) ([]*domain.Loan, error)

	// ListDue lists ACTIVE/OVERDUE loans whose due_at is before now
	ListDue(ctx context.Context, now time.Time) ([]*domain.Loan, error)

	// UpdateOutstanding sets the outstanding balance
	UpdateOutstanding(ctx context.Context, q sqlx.ExtContext, loanID int64, outstanding decimal.Decimal) error

	// UpdatePenaltyBalances sets balance, total penalty and the last-applied mark
	UpdatePenaltyBalances(ctx context.Context, q sqlx.ExtContext, loanID int64, outstanding, totalPenalty decimal.Decimal, appliedAt time.Time) error

	// SetStatus transitions the loan status
	SetStatus(ctx context.Context, q sqlx.ExtContext, loanID int64, status string) error

	// SetTotalPenalty sets the accumulated penalty (admin adjustment)
	SetTotalPenalty(ctx context.Context, q sqlx.ExtContext, loanID int64, totalPenalty decimal.Decimal) error
}

// RiderRepository defines the interface for rider data operations
type RiderRepository interface {
	Create(ctx context.Context, rider *domain.Rider) error
	GetByID(ctx context.Context, riderID int64) (*domain.Rider, error)
	GetByPhone(ctx context.Context, phoneNumber string) (*domain.Rider, error)

	// GetForUpdate locks the rider row; used by loan creation so two agents
	// cannot issue concurrent loans to the same rider
	GetForUpdate(ctx context.Context, q sqlx.ExtContext, riderID int64) (*domain.Rider, error)

	List(ctx context.Context, limit, offset int) ([]*domain.Rider, error)
	Search(ctx context.Context, query string) ([]*domain.Rider, error)
	Update(ctx context.Context, rider *domain.Rider) error
	UpdateStatus(ctx context.Context, riderID int64, status string) error

	// SuspendOverdue bulk-suspends ACTIVE riders whose overdue loan fell due
	// before the cutoff; returns how many rows changed
	SuspendOverdue(ctx context.Context, cutoff time.Time) (int64, error)
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	Create(ctx context.Context, q sqlx.ExtContext, payment *domain.Payment) error
	ListByLoanID(ctx context.Context, loanID int64) ([]*domain.Payment, error)
}

// PenaltyRepository records individual penalty applications
type PenaltyRepository interface {
	Create(ctx context.Context, q sqlx.ExtContext, application *domain.PenaltyApplication) error
	ListByLoanID(ctx context.Context, loanID int64) ([]*domain.PenaltyApplication, error)
}

// CallbackRepository stores provider callback audits
type CallbackRepository interface {
	// Create appends an audit row and returns its id
	Create(ctx context.Context, q sqlx.ExtContext, callback *domain.PaymentCallback) (int64, error)

	// LockByRef locks every audit row for (provider, externalRef), ordered
	// by callback_id ascending, for the duration of the transaction
	LockByRef(ctx context.Context, q sqlx.ExtContext, provider, externalRef string) ([]*domain.PaymentCallback, error)

	// MarkProcessed flips the processed flag and records the resolved loan
	MarkProcessed(ctx context.Context, q sqlx.ExtContext, callbackID, loanID int64) error
}
