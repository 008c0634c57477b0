package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/bodacredit/loan-engine/internal/config"
	"github.com/bodacredit/loan-engine/internal/domain"
	apperrors "github.com/bodacredit/loan-engine/pkg/errors"
)

func testConfig() *config.Config {
	return &config.Config{
		Business: config.BusinessConfig{
			ServiceChargeRate:    "0.10",
			PenaltyRate:          "0.05",
			PenaltyCapRate:       "0.50",
			MaxPrincipal:         "50000000",
			OverpaymentTolerance: "0.01",
			LoanDurationHours:    24,
			SuspendAfterHours:    72,
			SystemActorID:        1,
			LoanCacheTTL:         "60s",
		},
	}
}

func newLoanServiceForTest(loanRepo *MockLoanRepository, riderRepo *MockRiderRepository, paymentRepo *MockPaymentRepository) (*LoanService, *fakeCache) {
	c := newFakeCache()
	svc := NewLoanService(loanRepo, riderRepo, paymentRepo, fakeTxManager{}, c, testConfig())
	return svc, c
}

func TestLoanArithmetic(t *testing.T) {
	svc, _ := newLoanServiceForTest(new(MockLoanRepository), new(MockRiderRepository), new(MockPaymentRepository))

	tests := []struct {
		name        string
		principal   string
		initialDue  string
		charge      string
		cap         string
	}{
		{name: "principal 100", principal: "100", initialDue: "110.00", charge: "10.00", cap: "50.00"},
		{name: "principal 33333.33", principal: "33333.33", initialDue: "36666.66", charge: "3333.33", cap: "16666.67"},
		{name: "principal 0.01", principal: "0.01", initialDue: "0.01", charge: "0.00", cap: "0.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principal := decimal.RequireFromString(tt.principal)
			assert.Equal(t, tt.initialDue, svc.ComputeInitialDue(principal).StringFixed(2))
			assert.Equal(t, tt.charge, svc.ComputeServiceCharge(principal).StringFixed(2))
			assert.Equal(t, tt.cap, svc.ComputePenaltyCap(principal).StringFixed(2))
		})
	}
}

func TestCreateLoan(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	activeRider := &domain.Rider{RiderID: 5, Status: domain.RiderStatusActive}

	tests := []struct {
		name          string
		request       *domain.CreateLoanRequest
		setupMocks    func(*MockLoanRepository, *MockRiderRepository)
		expectedError error
		validate      func(*testing.T, *domain.Loan)
	}{
		{
			name:    "success with principal 100",
			request: &domain.CreateLoanRequest{RiderID: 5, AgentID: 2, PrincipalAmount: decimal.NewFromInt(100)},
			setupMocks: func(loanRepo *MockLoanRepository, riderRepo *MockRiderRepository) {
				riderRepo.On("GetForUpdate", mock.Anything, mock.Anything, int64(5)).Return(activeRider, nil)
				loanRepo.On("HasOpenLoan", mock.Anything, mock.Anything, int64(5)).Return(false, nil)
				loanRepo.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(loan *domain.Loan) bool {
					return loan.RiderID == 5 && loan.AgentID == 2
				})).Run(func(args mock.Arguments) {
					args.Get(2).(*domain.Loan).LoanID = 77
				}).Return(nil)
			},
			validate: func(t *testing.T, loan *domain.Loan) {
				assert.Equal(t, int64(77), loan.LoanID)
				assert.Equal(t, "110.00", loan.OutstandingBalance.StringFixed(2))
				assert.Equal(t, "10.00", loan.ServiceCharge.StringFixed(2))
				assert.Equal(t, "50.00", loan.PenaltyCap.StringFixed(2))
				assert.True(t, loan.TotalPenalty.IsZero())
				assert.Equal(t, domain.LoanStatusActive, loan.Status)
				assert.Equal(t, issuedAt.Add(24*time.Hour), loan.DueAt)
			},
		},
		{
			name:          "rider not found",
			request:       &domain.CreateLoanRequest{RiderID: 9, AgentID: 2, PrincipalAmount: decimal.NewFromInt(100)},
			expectedError: apperrors.ErrRiderNotFound,
			setupMocks: func(loanRepo *MockLoanRepository, riderRepo *MockRiderRepository) {
				riderRepo.On("GetForUpdate", mock.Anything, mock.Anything, int64(9)).Return(nil, sql.ErrNoRows)
			},
		},
		{
			name:          "rider suspended",
			request:       &domain.CreateLoanRequest{RiderID: 5, AgentID: 2, PrincipalAmount: decimal.NewFromInt(100)},
			expectedError: apperrors.ErrRiderNotActive,
			setupMocks: func(loanRepo *MockLoanRepository, riderRepo *MockRiderRepository) {
				suspended := &domain.Rider{RiderID: 5, Status: domain.RiderStatusSuspended}
				riderRepo.On("GetForUpdate", mock.Anything, mock.Anything, int64(5)).Return(suspended, nil)
			},
		},
		{
			name:          "rider already has open loan",
			request:       &domain.CreateLoanRequest{RiderID: 5, AgentID: 2, PrincipalAmount: decimal.NewFromInt(100)},
			expectedError: apperrors.ErrRiderHasOpenLoan,
			setupMocks: func(loanRepo *MockLoanRepository, riderRepo *MockRiderRepository) {
				riderRepo.On("GetForUpdate", mock.Anything, mock.Anything, int64(5)).Return(activeRider, nil)
				loanRepo.On("HasOpenLoan", mock.Anything, mock.Anything, int64(5)).Return(true, nil)
			},
		},
		{
			name:          "zero principal rejected before any lock",
			request:       &domain.CreateLoanRequest{RiderID: 5, AgentID: 2, PrincipalAmount: decimal.Zero},
			expectedError: apperrors.ErrInvalidAmount,
			setupMocks:    func(*MockLoanRepository, *MockRiderRepository) {},
		},
		{
			name:          "principal above ceiling rejected",
			request:       &domain.CreateLoanRequest{RiderID: 5, AgentID: 2, PrincipalAmount: decimal.NewFromInt(50_000_001)},
			expectedError: apperrors.ErrInvalidAmount,
			setupMocks:    func(*MockLoanRepository, *MockRiderRepository) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loanRepo := new(MockLoanRepository)
			riderRepo := new(MockRiderRepository)
			tt.setupMocks(loanRepo, riderRepo)

			svc, _ := newLoanServiceForTest(loanRepo, riderRepo, new(MockPaymentRepository))
			svc.WithClock(func() time.Time { return issuedAt })

			loan, err := svc.CreateLoan(context.Background(), tt.request)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, loan)
			} else {
				assert.NoError(t, err)
				tt.validate(t, loan)
			}
			loanRepo.AssertExpectations(t)
			riderRepo.AssertExpectations(t)
		})
	}
}

func TestGetLoanByIDCaches(t *testing.T) {
	loanRepo := new(MockLoanRepository)
	loan := &domain.Loan{LoanID: 3, Status: domain.LoanStatusActive, OutstandingBalance: decimal.NewFromInt(110)}
	loanRepo.On("GetByID", mock.Anything, int64(3)).Return(loan, nil).Once()

	svc, c := newLoanServiceForTest(loanRepo, new(MockRiderRepository), new(MockPaymentRepository))

	first, err := svc.GetLoanByID(context.Background(), 3)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), first.LoanID)

	_, cached := c.Get(context.Background(), LoanCacheKey(3))
	assert.True(t, cached)

	// Second read is served from cache; the mock allows only one repo hit.
	second, err := svc.GetLoanByID(context.Background(), 3)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), second.LoanID)

	loanRepo.AssertExpectations(t)
}

func TestGetLoanByIDNotFound(t *testing.T) {
	loanRepo := new(MockLoanRepository)
	loanRepo.On("GetByID", mock.Anything, int64(404)).Return(nil, sql.ErrNoRows)

	svc, _ := newLoanServiceForTest(loanRepo, new(MockRiderRepository), new(MockPaymentRepository))

	_, err := svc.GetLoanByID(context.Background(), 404)
	assert.ErrorIs(t, err, apperrors.ErrLoanNotFound)
}

func TestAdjustLoanBounds(t *testing.T) {
	cap50 := &domain.Loan{
		LoanID:             8,
		Status:             domain.LoanStatusOverdue,
		PenaltyCap:         decimal.NewFromInt(50),
		OutstandingBalance: decimal.NewFromInt(120),
	}

	t.Run("penalty above cap rejected", func(t *testing.T) {
		loanRepo := new(MockLoanRepository)
		loanRepo.On("GetForUpdate", mock.Anything, mock.Anything, int64(8)).Return(cap50, nil)

		svc, _ := newLoanServiceForTest(loanRepo, new(MockRiderRepository), new(MockPaymentRepository))

		over := decimal.RequireFromString("50.01")
		_, err := svc.AdjustLoan(context.Background(), 8, &domain.AdjustLoanRequest{TotalPenalty: &over})
		assert.ErrorIs(t, err, apperrors.ErrPenaltyExceedsCap)
	})

	t.Run("paid loan cannot be reopened", func(t *testing.T) {
		paid := &domain.Loan{LoanID: 8, Status: domain.LoanStatusPaid, PenaltyCap: decimal.NewFromInt(50)}
		loanRepo := new(MockLoanRepository)
		loanRepo.On("GetForUpdate", mock.Anything, mock.Anything, int64(8)).Return(paid, nil)

		svc, _ := newLoanServiceForTest(loanRepo, new(MockRiderRepository), new(MockPaymentRepository))

		active := domain.LoanStatusActive
		_, err := svc.AdjustLoan(context.Background(), 8, &domain.AdjustLoanRequest{Status: &active})
		assert.ErrorIs(t, err, apperrors.ErrLoanAlreadyPaid)
	})
}
