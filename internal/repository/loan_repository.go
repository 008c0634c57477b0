package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/bodacredit/loan-engine/internal/domain"
)

const loanColumns = `
	loan_id, rider_id, agent_id, principal_amount, service_charge,
	outstanding_balance, total_penalty, penalty_cap, issued_at, due_at,
	last_penalty_applied_at, status, created_at`

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, q sqlx.ExtContext, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (
			rider_id, agent_id, principal_amount, service_charge,
			outstanding_balance, total_penalty, penalty_cap, issued_at, due_at, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING loan_id, created_at
	`

	row := q.QueryRowxContext(ctx, query,
		loan.RiderID,
		loan.AgentID,
		loan.PrincipalAmount,
		loan.ServiceCharge,
		loan.OutstandingBalance,
		loan.TotalPenalty,
		loan.PenaltyCap,
		loan.IssuedAt,
		loan.DueAt,
		loan.Status,
	)

	return row.Scan(&loan.LoanID, &loan.CreatedAt)
}

func (r *loanRepository) GetByID(ctx context.Context, loanID int64) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE loan_id = $1`

	var loan domain.Loan
	if err := r.db.GetContext(ctx, &loan, query, loanID); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) GetForUpdate(ctx context.Context, q sqlx.ExtContext, loanID int64) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE loan_id = $1 FOR UPDATE`

	var loan domain.Loan
	if err := sqlx.GetContext(ctx, q, &loan, query, loanID); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) HasOpenLoan(ctx context.Context, q sqlx.ExtContext, riderID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM loans WHERE rider_id = $1 AND status IN ('ACTIVE', 'OVERDUE')
		)
	`

	var exists bool
	if err := sqlx.GetContext(ctx, q, &exists, query, riderID); err != nil {
		return false, err
	}

	return exists, nil
}

func (r *loanRepository) ListByStatus(ctx context.Context, status string, agentID *int64) ([]*domain.Loan, error) {
	// Overdue listings sort by urgency, active ones by recency.
	order := "created_at DESC"
	if status == domain.LoanStatusOverdue {
		order = "due_at ASC"
	}

	loans := []*domain.Loan{}
	if agentID != nil {
		query := `SELECT ` + loanColumns + ` FROM loans WHERE status = $1 AND agent_id = $2 ORDER BY ` + order
		if err := r.db.SelectContext(ctx, &loans, query, status, *agentID); err != nil {
			return nil, err
		}
		return loans, nil
	}

	query := `SELECT ` + loanColumns + ` FROM loans WHERE status = $1 ORDER BY ` + order
	if err := r.db.SelectContext(ctx, &loans, query, status); err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) ListDue(ctx context.Context, now time.Time) ([]*domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE status IN ('ACTIVE', 'OVERDUE') AND due_at < $1
		ORDER BY loan_id
	`

	loans := []*domain.Loan{}
	if err := r.db.SelectContext(ctx, &loans, query, now); err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) UpdateOutstanding(ctx context.Context, q sqlx.ExtContext, loanID int64, outstanding decimal.Decimal) error {
	query := `UPDATE loans SET outstanding_balance = $2 WHERE loan_id = $1`

	_, err := q.ExecContext(ctx, query, loanID, outstanding)
	return err
}

func (r *loanRepository) UpdatePenaltyBalances(ctx context.Context, q sqlx.ExtContext, loanID int64, outstanding, totalPenalty decimal.Decimal, appliedAt time.Time) error {
	query := `
		UPDATE loans
		SET outstanding_balance = $2, total_penalty = $3, last_penalty_applied_at = $4
		WHERE loan_id = $1
	`

	_, err := q.ExecContext(ctx, query, loanID, outstanding, totalPenalty, appliedAt)
	return err
}

func (r *loanRepository) SetStatus(ctx context.Context, q sqlx.ExtContext, loanID int64, status string) error {
	query := `UPDATE loans SET status = $2 WHERE loan_id = $1`

	_, err := q.ExecContext(ctx, query, loanID, status)
	return err
}

func (r *loanRepository) SetTotalPenalty(ctx context.Context, q sqlx.ExtContext, loanID int64, totalPenalty decimal.Decimal) error {
	query := `UPDATE loans SET total_penalty = $2 WHERE loan_id = $1`

	_, err := q.ExecContext(ctx, query, loanID, totalPenalty)
	return err
}
