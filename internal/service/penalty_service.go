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

const penaltyPeriod = 24 * time.Hour

// errLoanSettled aborts a tick transaction for a loan that got paid between
// the candidate query and the row lock.
var errLoanSettled = errors.New("loan settled before lock")

// TickSummary reports what one accrual tick did.
type TickSummary struct {
	Processed int `json:"processed"`
	Applied   int `json:"applied"`
	Suspended int `json:"suspended"`
	Failed    int `json:"failed"`
}

// PenaltyService is the periodic accrual engine: it advances penalty
// periods on overdue loans and suspends riders overdue past the cutoff.
type PenaltyService struct {
	loanRepo    repository.LoanRepository
	penaltyRepo repository.PenaltyRepository
	riderRepo   repository.RiderRepository
	txm         repository.TxManager
	cache       cache.Cache
	config      *config.Config
	now         func() time.Time
}

func NewPenaltyService(
	loanRepo repository.LoanRepository,
	penaltyRepo repository.PenaltyRepository,
	riderRepo repository.RiderRepository,
	txm repository.TxManager,
	cache cache.Cache,
	config *config.Config,
) *PenaltyService {
	return &PenaltyService{
		loanRepo:    loanRepo,
		penaltyRepo: penaltyRepo,
		riderRepo:   riderRepo,
		txm:         txm,
		cache:       cache,
		config:      config,
		now:         time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *PenaltyService) WithClock(now func() time.Time) *PenaltyService {
	s.now = now
	return s
}

// ComputeNextPenalty returns one period's penalty: a percentage of the
// current outstanding balance, so penalties compound on earlier ones.
func (s *PenaltyService) ComputeNextPenalty(outstanding decimal.Decimal) decimal.Decimal {
	return money.Round2(outstanding.Mul(s.config.GetPenaltyRate()))
}

// RunTick advances penalties for every due loan, each in its own
// transaction so one failure never aborts the rest, then sweeps rider
// suspensions. Re-running with no elapsed time applies nothing new.
func (s *PenaltyService) RunTick(ctx context.Context) (*TickSummary, error) {
	now := s.now()
	summary := &TickSummary{}

	dueLoans, err := s.loanRepo.ListDue(ctx, now)
	if err != nil {
		return summary, apperrors.WrapDatabaseError(err)
	}

	for _, candidate := range dueLoans {
		applied, err := s.accrueLoan(ctx, candidate.LoanID, now)
		if err != nil {
			if errors.Is(err, errLoanSettled) {
				continue
			}
			// Transient lock conflicts and storage errors alike: skip this
			// loan for this tick, the next tick picks it up again.
			summary.Failed++
			continue
		}
		summary.Processed++
		summary.Applied += applied
		if applied > 0 {
			s.cache.Del(ctx, LoanCacheKey(candidate.LoanID))
		}
	}

	suspended, err := s.riderRepo.SuspendOverdue(ctx, now.Add(-s.config.GetSuspendCutoff()))
	if err != nil {
		return summary, apperrors.WrapDatabaseError(err)
	}
	summary.Suspended = int(suspended)

	return summary, nil
}

// accrueLoan runs one loan's accrual in a single transaction under the loan
// row lock and returns how many penalty applications it made.
func (s *PenaltyService) accrueLoan(ctx context.Context, loanID int64, now time.Time) (int, error) {
	applied := 0

	err := s.txm.RunInTx(ctx, func(tx *sqlx.Tx) error {
		loan, err := s.loanRepo.GetForUpdate(ctx, tx, loanID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errLoanSettled
			}
			return err
		}
		if loan.Status == domain.LoanStatusPaid {
			// Lost the race with a payment; nothing to accrue.
			return errLoanSettled
		}

		if loan.Status != domain.LoanStatusOverdue {
			if err := s.loanRepo.SetStatus(ctx, tx, loanID, domain.LoanStatusOverdue); err != nil {
				return err
			}
		}

		lastApplied := loan.DueAt
		if loan.LastPenaltyAppliedAt != nil {
			lastApplied = *loan.LastPenaltyAppliedAt
		}

		periods := int(now.Sub(lastApplied) / penaltyPeriod)

		outstanding := loan.OutstandingBalance
		totalPenalty := loan.TotalPenalty

		// Strictly sequential: each step shrinks the cap room the next one
		// sees. Once room hits zero the remaining periods are discarded for
		// good, not deferred.
		for i := 0; i < periods; i++ {
			room := money.Round2(loan.PenaltyCap.Sub(totalPenalty))
			if !room.IsPositive() {
				break
			}

			penalty := s.ComputeNextPenalty(outstanding)
			step := money.Round2(decimal.Min(penalty, room))

			outstanding = money.Round2(outstanding.Add(step))
			totalPenalty = money.Round2(totalPenalty.Add(step))

			if err := s.loanRepo.UpdatePenaltyBalances(ctx, tx, loanID, outstanding, totalPenalty, now); err != nil {
				return err
			}
			if err := s.penaltyRepo.Create(ctx, tx, &domain.PenaltyApplication{
				PenaltyID:     uuid.New(),
				LoanID:        loanID,
				PenaltyAmount: step,
				AppliedAt:     now,
			}); err != nil {
				return err
			}
			applied++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return applied, nil
}
