package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/bodacredit/loan-engine/internal/domain"
)

type callbackRepository struct {
	db *sqlx.DB
}

func NewCallbackRepository(db *sqlx.DB) CallbackRepository {
	return &callbackRepository{db: db}
}

func (r *callbackRepository) Create(ctx context.Context, q sqlx.ExtContext, callback *domain.PaymentCallback) (int64, error) {
	query := `
		INSERT INTO payment_callbacks (provider, raw_payload, external_ref, amount, status, processed, loan_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING callback_id
	`

	var callbackID int64
	row := q.QueryRowxContext(ctx, query,
		callback.Provider,
		callback.RawPayload,
		callback.ExternalRef,
		callback.Amount,
		callback.Status,
		callback.Processed,
		callback.LoanID,
	)
	if err := row.Scan(&callbackID); err != nil {
		return 0, err
	}

	callback.CallbackID = callbackID
	return callbackID, nil
}

func (r *callbackRepository) LockByRef(ctx context.Context, q sqlx.ExtContext, provider, externalRef string) ([]*domain.PaymentCallback, error) {
	// Stable lock order (callback_id ascending) keeps concurrent deliveries
	// of the same reference from deadlocking each other.
	query := `
		SELECT callback_id, provider, raw_payload, external_ref, amount, status, processed, loan_id, received_at
		FROM payment_callbacks
		WHERE provider = $1 AND external_ref = $2
		ORDER BY callback_id ASC
		FOR UPDATE
	`

	callbacks := []*domain.PaymentCallback{}
	if err := sqlx.SelectContext(ctx, q, &callbacks, query, provider, externalRef); err != nil {
		return nil, err
	}

	return callbacks, nil
}

func (r *callbackRepository) MarkProcessed(ctx context.Context, q sqlx.ExtContext, callbackID, loanID int64) error {
	query := `UPDATE payment_callbacks SET processed = TRUE, loan_id = $2 WHERE callback_id = $1`

	_, err := q.ExecContext(ctx, query, callbackID, loanID)
	return err
}
