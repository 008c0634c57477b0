package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/bodacredit/loan-engine/internal/cache"
	"github.com/bodacredit/loan-engine/internal/config"
	"github.com/bodacredit/loan-engine/internal/domain"
	"github.com/bodacredit/loan-engine/internal/momo"
	"github.com/bodacredit/loan-engine/internal/money"
	"github.com/bodacredit/loan-engine/internal/repository"
	apperrors "github.com/bodacredit/loan-engine/pkg/errors"
)

// CallbackService reconciles inbound provider notifications with loans.
// Every delivery is audited; at most one payment is ever recorded per
// (provider, external reference) group no matter how often the provider
// retries or in what order deliveries land.
type CallbackService struct {
	callbackRepo repository.CallbackRepository
	payments     *PaymentService
	txm          repository.TxManager
	cache        cache.Cache
	config       *config.Config
}

func NewCallbackService(
	callbackRepo repository.CallbackRepository,
	payments *PaymentService,
	txm repository.TxManager,
	cache cache.Cache,
	config *config.Config,
) *CallbackService {
	return &CallbackService{
		callbackRepo: callbackRepo,
		payments:     payments,
		txm:          txm,
		cache:        cache,
		config:       config,
	}
}

// Process handles one inbound callback in a single transaction. The
// returned error means the transaction rolled back (audit row included);
// the HTTP layer acknowledges the provider with success either way.
func (s *CallbackService) Process(ctx context.Context, provider string, raw map[string]interface{}) (*domain.CallbackOutcome, error) {
	note := momo.Extract(provider, raw)
	amount := money.Round2(note.Amount)

	rawPayload, err := json.Marshal(raw)
	if err != nil {
		rawPayload = []byte("{}")
	}

	outcome := &domain.CallbackOutcome{}

	err = s.txm.RunInTx(ctx, func(tx *sqlx.Tx) error {
		// Audit first, before any validation, so junk input leaves a trace.
		audit := &domain.PaymentCallback{
			Provider:    provider,
			RawPayload:  rawPayload,
			ExternalRef: optional(note.ExternalRef),
			Amount:      amount,
			Status:      optional(note.Status),
			Processed:   false,
		}
		callbackID, err := s.callbackRepo.Create(ctx, tx, audit)
		if err != nil {
			return apperrors.WrapDatabaseError(err)
		}
		outcome.CallbackID = callbackID

		if note.ExternalRef == "" {
			// Nothing to reconcile against; keep the audit row.
			return nil
		}

		group, err := s.callbackRepo.LockByRef(ctx, tx, provider, note.ExternalRef)
		if err != nil {
			return apperrors.WrapDatabaseError(err)
		}
		for _, prior := range group {
			if prior.Processed {
				outcome.Duplicate = true
				return nil
			}
		}

		if !momo.IsSuccessStatus(provider, note.Status) {
			// Pending or failed attempt; audited, no action.
			return nil
		}

		loanID, ok := momo.LoanIDFromReference(note.ExternalRef)
		toProcess := firstUnprocessed(group)
		if !ok || !amount.IsPositive() || toProcess == nil {
			return nil
		}

		if _, err := s.payments.RecordPaymentTx(ctx, tx, loanID, amount, provider, s.config.Business.SystemActorID); err != nil {
			if isBusinessRejection(err) {
				// Loan already paid, unknown loan, amount over balance:
				// keep the audit row unprocessed and commit.
				return nil
			}
			return err
		}

		if err := s.callbackRepo.MarkProcessed(ctx, tx, toProcess.CallbackID, loanID); err != nil {
			return apperrors.WrapDatabaseError(err)
		}

		outcome.PaymentApplied = true
		outcome.LoanID = loanID
		return nil
	})
	if err != nil {
		return outcome, err
	}

	if outcome.PaymentApplied {
		s.cache.Del(ctx, LoanCacheKey(outcome.LoanID))
	}

	return outcome, nil
}

func firstUnprocessed(group []*domain.PaymentCallback) *domain.PaymentCallback {
	for _, cb := range group {
		if !cb.Processed {
			return cb
		}
	}
	return nil
}

// isBusinessRejection separates named business-rule refusals (which the
// reconciler absorbs) from storage/transient failures (which roll back).
func isBusinessRejection(err error) bool {
	var businessErr *apperrors.BusinessError
	if !errors.As(err, &businessErr) {
		return false
	}
	switch businessErr.Code {
	case apperrors.ErrCodeDatabaseError, apperrors.ErrCodeTransient:
		return false
	}
	return true
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
