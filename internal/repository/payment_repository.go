package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/bodacredit/loan-engine/internal/domain"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, q sqlx.ExtContext, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (payment_id, loan_id, amount_paid, payment_method, received_by, payment_time)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := q.ExecContext(ctx, query,
		payment.PaymentID,
		payment.LoanID,
		payment.AmountPaid,
		payment.PaymentMethod,
		payment.ReceivedBy,
		payment.PaymentTime,
	)

	return err
}

func (r *paymentRepository) ListByLoanID(ctx context.Context, loanID int64) ([]*domain.Payment, error) {
	query := `
		SELECT payment_id, loan_id, amount_paid, payment_method, received_by, payment_time
		FROM payments
		WHERE loan_id = $1
		ORDER BY payment_time DESC
	`

	payments := []*domain.Payment{}
	if err := r.db.SelectContext(ctx, &payments, query, loanID); err != nil {
		return nil, err
	}

	return payments, nil
}
