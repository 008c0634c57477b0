package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/bodacredit/loan-engine/internal/cache"
	"github.com/bodacredit/loan-engine/internal/config"
	"github.com/bodacredit/loan-engine/internal/domain"
	"github.com/bodacredit/loan-engine/internal/money"
	"github.com/bodacredit/loan-engine/internal/repository"
	apperrors "github.com/bodacredit/loan-engine/pkg/errors"
)

// LoanService owns loan issuance and the loan read paths. All balance
// arithmetic is canonicalized through the money package.
type LoanService struct {
	loanRepo    repository.LoanRepository
	riderRepo   repository.RiderRepository
	paymentRepo repository.PaymentRepository
	txm         repository.TxManager
	cache       cache.Cache
	config      *config.Config
	now         func() time.Time
}

func NewLoanService(
	loanRepo repository.LoanRepository,
	riderRepo repository.RiderRepository,
	paymentRepo repository.PaymentRepository,
	txm repository.TxManager,
	cache cache.Cache,
	config *config.Config,
) *LoanService {
	return &LoanService{
		loanRepo:    loanRepo,
		riderRepo:   riderRepo,
		paymentRepo: paymentRepo,
		txm:         txm,
		cache:       cache,
		config:      config,
		now:         time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *LoanService) WithClock(now func() time.Time) *LoanService {
	s.now = now
	return s
}

// ComputeServiceCharge returns the fixed surcharge added to the principal.
func (s *LoanService) ComputeServiceCharge(principal decimal.Decimal) decimal.Decimal {
	return money.Round2(principal.Mul(s.config.GetServiceChargeRate()))
}

// ComputeInitialDue returns principal plus service charge.
func (s *LoanService) ComputeInitialDue(principal decimal.Decimal) decimal.Decimal {
	return money.Round2(principal.Add(principal.Mul(s.config.GetServiceChargeRate())))
}

// ComputePenaltyCap returns the maximum cumulative penalty for a principal,
// fixed at loan creation.
func (s *LoanService) ComputePenaltyCap(principal decimal.Decimal) decimal.Decimal {
	return money.Round2(principal.Mul(s.config.GetPenaltyCapRate()))
}

// CreateLoan issues a loan to an eligible rider. The rider row is locked
// first so the one-open-loan rule holds under concurrent creation.
func (s *LoanService) CreateLoan(ctx context.Context, request *domain.CreateLoanRequest) (*domain.Loan, error) {
	principal := money.Round2(request.PrincipalAmount)
	if !principal.IsPositive() {
		return nil, apperrors.WrapInvalidAmount(money.Format(principal))
	}
	if principal.GreaterThan(s.config.GetMaxPrincipal()) {
		return nil, apperrors.WrapInvalidAmount(money.Format(principal))
	}

	issuedAt := s.now()
	loan := &domain.Loan{
		RiderID:            request.RiderID,
		AgentID:            request.AgentID,
		PrincipalAmount:    principal,
		ServiceCharge:      s.ComputeServiceCharge(principal),
		OutstandingBalance: s.ComputeInitialDue(principal),
		TotalPenalty:       decimal.Zero,
		PenaltyCap:         s.ComputePenaltyCap(principal),
		IssuedAt:           issuedAt,
		DueAt:              issuedAt.Add(s.config.GetLoanDuration()),
		Status:             domain.LoanStatusActive,
	}

	err := s.txm.RunInTx(ctx, func(tx *sqlx.Tx) error {
		rider, err := s.riderRepo.GetForUpdate(ctx, tx, request.RiderID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.WrapRiderNotFound(request.RiderID)
			}
			return apperrors.WrapDatabaseError(err)
		}
		if rider.Status != domain.RiderStatusActive {
			return apperrors.WrapRiderNotActive(rider.RiderID, rider.Status)
		}

		hasOpen, err := s.loanRepo.HasOpenLoan(ctx, tx, request.RiderID)
		if err != nil {
			return apperrors.WrapDatabaseError(err)
		}
		if hasOpen {
			return apperrors.WrapRiderHasOpenLoan(request.RiderID)
		}

		if err := s.loanRepo.Create(ctx, tx, loan); err != nil {
			return apperrors.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return loan, nil
}

// GetLoanByID reads a loan, serving from the Redis cache when fresh.
func (s *LoanService) GetLoanByID(ctx context.Context, loanID int64) (*domain.Loan, error) {
	key := LoanCacheKey(loanID)
	if cached, ok := s.cache.Get(ctx, key); ok {
		var loan domain.Loan
		if err := json.Unmarshal([]byte(cached), &loan); err == nil {
			return &loan, nil
		}
	}

	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.WrapLoanNotFound(loanID)
		}
		return nil, apperrors.WrapDatabaseError(err)
	}

	if encoded, err := json.Marshal(loan); err == nil {
		s.cache.Set(ctx, key, string(encoded), s.config.GetLoanCacheTTL())
	}

	return loan, nil
}

// GetLoanDetail returns a loan with its payment history and rider.
func (s *LoanService) GetLoanDetail(ctx context.Context, loanID int64) (*domain.LoanDetailResponse, error) {
	loan, err := s.GetLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.ListByLoanID(ctx, loanID)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	rider, err := s.riderRepo.GetByID(ctx, loan.RiderID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.WrapDatabaseError(err)
	}

	return &domain.LoanDetailResponse{Loan: loan, Payments: payments, Rider: rider}, nil
}

// GetActiveLoans lists ACTIVE loans, optionally scoped to one agent.
func (s *LoanService) GetActiveLoans(ctx context.Context, agentID *int64) ([]*domain.Loan, error) {
	loans, err := s.loanRepo.ListByStatus(ctx, domain.LoanStatusActive, agentID)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return loans, nil
}

// GetOverdueLoans lists OVERDUE loans, optionally scoped to one agent.
func (s *LoanService) GetOverdueLoans(ctx context.Context, agentID *int64) ([]*domain.Loan, error) {
	loans, err := s.loanRepo.ListByStatus(ctx, domain.LoanStatusOverdue, agentID)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return loans, nil
}

// AdjustLoan applies a bounded manual correction under the loan row lock.
// A PAID loan stays PAID.
func (s *LoanService) AdjustLoan(ctx context.Context, loanID int64, request *domain.AdjustLoanRequest) (*domain.Loan, error) {
	err := s.txm.RunInTx(ctx, func(tx *sqlx.Tx) error {
		loan, err := s.loanRepo.GetForUpdate(ctx, tx, loanID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.WrapLoanNotFound(loanID)
			}
			return apperrors.WrapDatabaseError(err)
		}

		if request.TotalPenalty != nil {
			penalty := money.Round2(*request.TotalPenalty)
			if penalty.IsNegative() {
				return apperrors.WrapInvalidAmount(money.Format(penalty))
			}
			if penalty.GreaterThan(loan.PenaltyCap) {
				return apperrors.WrapPenaltyExceedsCap(money.Format(penalty), money.Format(loan.PenaltyCap))
			}
			if err := s.loanRepo.SetTotalPenalty(ctx, tx, loanID, penalty); err != nil {
				return apperrors.WrapDatabaseError(err)
			}
		}

		if request.OutstandingBalance != nil {
			balance := money.Round2(*request.OutstandingBalance)
			if balance.IsNegative() {
				return apperrors.WrapInvalidAmount(money.Format(balance))
			}
			if err := s.loanRepo.UpdateOutstanding(ctx, tx, loanID, balance); err != nil {
				return apperrors.WrapDatabaseError(err)
			}
		}

		if request.Status != nil {
			if loan.Status == domain.LoanStatusPaid && *request.Status != domain.LoanStatusPaid {
				return apperrors.WrapLoanAlreadyPaid(loanID)
			}
			if err := s.loanRepo.SetStatus(ctx, tx, loanID, *request.Status); err != nil {
				return apperrors.WrapDatabaseError(err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Del(ctx, LoanCacheKey(loanID))

	loan, err := s.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return loan, nil
}

// LoanCacheKey is the Redis key for a cached loan row.
func LoanCacheKey(loanID int64) string {
	return fmt.Sprintf("loan:%d", loanID)
}
