package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/bodacredit/loan-engine/internal/domain"
)

type penaltyRepository struct {
	db *sqlx.DB
}

func NewPenaltyRepository(db *sqlx.DB) PenaltyRepository {
	return &penaltyRepository{db: db}
}

func (r *penaltyRepository) Create(ctx context.Context, q sqlx.ExtContext, application *domain.PenaltyApplication) error {
	query := `
		INSERT INTO penalty_applications (penalty_id, loan_id, penalty_amount, applied_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := q.ExecContext(ctx, query,
		application.PenaltyID,
		application.LoanID,
		application.PenaltyAmount,
		application.AppliedAt,
	)

	return err
}

func (r *penaltyRepository) ListByLoanID(ctx context.Context, loanID int64) ([]*domain.PenaltyApplication, error) {
	query := `
		SELECT penalty_id, loan_id, penalty_amount, applied_at
		FROM penalty_applications
		WHERE loan_id = $1
		ORDER BY applied_at
	`

	applications := []*domain.PenaltyApplication{}
	if err := r.db.SelectContext(ctx, &applications, query, loanID); err != nil {
		return nil, err
	}

	return applications, nil
}
