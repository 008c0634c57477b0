package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/bodacredit/loan-engine/internal/cache"
	"github.com/bodacredit/loan-engine/internal/config"
	"github.com/bodacredit/loan-engine/internal/domain"
	"github.com/bodacredit/loan-engine/internal/money"
	"github.com/bodacredit/loan-engine/internal/repository"
	apperrors "github.com/bodacredit/loan-engine/pkg/errors"
)

// PaymentService applies payments against loan balances. The loan row lock
// serializes concurrent payments and accrual on the same loan.
type PaymentService struct {
	loanRepo    repository.LoanRepository
	paymentRepo repository.PaymentRepository
	txm         repository.TxManager
	cache       cache.Cache
	config      *config.Config
	now         func() time.Time
}

func NewPaymentService(
	loanRepo repository.LoanRepository,
	paymentRepo repository.PaymentRepository,
	txm repository.TxManager,
	cache cache.Cache,
	config *config.Config,
) *PaymentService {
	return &PaymentService{
		loanRepo:    loanRepo,
		paymentRepo: paymentRepo,
		txm:         txm,
		cache:       cache,
		config:      config,
		now:         time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *PaymentService) WithClock(now func() time.Time) *PaymentService {
	s.now = now
	return s
}

// RecordPayment applies a payment inside its own transaction and returns
// the new outstanding balance.
func (s *PaymentService) RecordPayment(ctx context.Context, loanID int64, amount decimal.Decimal, method string, receivedBy int64) (decimal.Decimal, error) {
	var newBalance decimal.Decimal

	err := s.txm.RunInTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		newBalance, err = s.RecordPaymentTx(ctx, tx, loanID, amount, method, receivedBy)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.cache.Del(ctx, LoanCacheKey(loanID))
	return newBalance, nil
}

// RecordPaymentTx applies a payment inside the caller's transaction. The
// caller owns commit/rollback; this method never finishes the transaction.
// Used directly by the callback reconciler.
func (s *PaymentService) RecordPaymentTx(ctx context.Context, tx *sqlx.Tx, loanID int64, amount decimal.Decimal, method string, receivedBy int64) (decimal.Decimal, error) {
	amount = money.Round2(amount)
	if !amount.IsPositive() {
		return decimal.Zero, apperrors.WrapInvalidAmount(money.Format(amount))
	}

	loan, err := s.loanRepo.GetForUpdate(ctx, tx, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, apperrors.WrapLoanNotFound(loanID)
		}
		return decimal.Zero, apperrors.WrapDatabaseError(err)
	}
	if loan.Status == domain.LoanStatusPaid {
		return decimal.Zero, apperrors.WrapLoanAlreadyPaid(loanID)
	}

	outstanding := loan.OutstandingBalance
	if amount.GreaterThan(outstanding.Add(s.config.GetOverpaymentTolerance())) {
		return decimal.Zero, apperrors.WrapAmountExceedsBalance(money.Format(amount), money.Format(outstanding))
	}

	// Within the overpayment tolerance the balance settles to exactly zero.
	newBalance := decimal.Zero
	if amount.LessThan(outstanding) {
		newBalance = money.Round2(outstanding.Sub(amount))
	}

	payment := &domain.Payment{
		PaymentID:     uuid.New(),
		LoanID:        loanID,
		AmountPaid:    amount,
		PaymentMethod: method,
		ReceivedBy:    receivedBy,
		PaymentTime:   s.now(),
	}
	if err := s.paymentRepo.Create(ctx, tx, payment); err != nil {
		return decimal.Zero, apperrors.WrapDatabaseError(err)
	}

	if err := s.loanRepo.UpdateOutstanding(ctx, tx, loanID, newBalance); err != nil {
		return decimal.Zero, apperrors.WrapDatabaseError(err)
	}

	if newBalance.IsZero() {
		if err := s.loanRepo.SetStatus(ctx, tx, loanID, domain.LoanStatusPaid); err != nil {
			return decimal.Zero, apperrors.WrapDatabaseError(err)
		}
	}

	return newBalance, nil
}

// GetPaymentsByLoanID returns the append-only payment trail for a loan.
func (s *PaymentService) GetPaymentsByLoanID(ctx context.Context, loanID int64) ([]*domain.Payment, error) {
	payments, err := s.paymentRepo.ListByLoanID(ctx, loanID)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return payments, nil
}
