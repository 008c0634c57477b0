package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/bodacredit/loan-engine/internal/domain"
	"github.com/bodacredit/loan-engine/internal/momo"
)

type callbackFixture struct {
	svc          *CallbackService
	cache        *fakeCache
	loanRepo     *MockLoanRepository
	paymentRepo  *MockPaymentRepository
	callbackRepo *MockCallbackRepository
}

func newCallbackFixture() *callbackFixture {
	loanRepo := new(MockLoanRepository)
	paymentRepo := new(MockPaymentRepository)
	callbackRepo := new(MockCallbackRepository)
	c := newFakeCache()
	cfg := testConfig()

	payments := NewPaymentService(loanRepo, paymentRepo, fakeTxManager{}, newFakeCache(), cfg)
	payments.WithClock(func() time.Time { return time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC) })

	return &callbackFixture{
		svc:          NewCallbackService(callbackRepo, payments, fakeTxManager{}, c, cfg),
		cache:        c,
		loanRepo:     loanRepo,
		paymentRepo:  paymentRepo,
		callbackRepo: callbackRepo,
	}
}

func unprocessedCallback(callbackID int64) *domain.PaymentCallback {
	return &domain.PaymentCallback{CallbackID: callbackID, Provider: momo.ProviderNameMTN, Processed: false}
}

func TestProcessCallbackAuditsJunkPayload(t *testing.T) {
	f := newCallbackFixture()
	f.callbackRepo.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(cb *domain.PaymentCallback) bool {
		return cb.Provider == momo.ProviderNameMTN && cb.ExternalRef == nil && !cb.Processed
	})).Return(int64(1), nil)

	outcome, err := f.svc.Process(context.Background(), momo.ProviderNameMTN, map[string]interface{}{"unexpected": "shape"})

	assert.NoError(t, err)
	assert.Equal(t, int64(1), outcome.CallbackID)
	assert.False(t, outcome.PaymentApplied)
	// No reference means no reconciliation attempt, so no lock either.
	f.callbackRepo.AssertNotCalled(t, "LockByRef", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.callbackRepo.AssertExpectations(t)
}

func TestProcessCallbackAppliesSuccessfulPayment(t *testing.T) {
	f := newCallbackFixture()
	payload := map[string]interface{}{
		"referenceId": "loan_7_MTN_1748858400000",
		"status":      "SUCCESSFUL",
		"amount":      "110.00",
	}

	loan := &domain.Loan{LoanID: 7, Status: domain.LoanStatusActive, OutstandingBalance: decimal.RequireFromString("110.00")}

	f.callbackRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(int64(3), nil)
	f.callbackRepo.On("LockByRef", mock.Anything, mock.Anything, momo.ProviderNameMTN, "loan_7_MTN_1748858400000").
		Return([]*domain.PaymentCallback{unprocessedCallback(3)}, nil)
	f.loanRepo.On("GetForUpdate", mock.Anything, mock.Anything, int64(7)).Return(loan, nil)
	f.paymentRepo.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
		return p.LoanID == 7 && p.PaymentMethod == momo.ProviderNameMTN && p.ReceivedBy == 1
	})).Return(nil)
	f.loanRepo.On("UpdateOutstanding", mock.Anything, mock.Anything, int64(7), decimalEq("0")).Return(nil)
	f.loanRepo.On("SetStatus", mock.Anything, mock.Anything, int64(7), domain.LoanStatusPaid).Return(nil)
	f.callbackRepo.On("MarkProcessed", mock.Anything, mock.Anything, int64(3), int64(7)).Return(nil)

	outcome, err := f.svc.Process(context.Background(), momo.ProviderNameMTN, payload)

	assert.NoError(t, err)
	assert.True(t, outcome.PaymentApplied)
	assert.Equal(t, int64(7), outcome.LoanID)
	assert.Contains(t, f.cache.deleted, LoanCacheKey(7))
	f.callbackRepo.AssertExpectations(t)
	f.loanRepo.AssertExpectations(t)
	f.paymentRepo.AssertExpectations(t)
}

func TestProcessCallbackDuplicateReferenceIsNoOp(t *testing.T) {
	f := newCallbackFixture()
	payload := map[string]interface{}{
		"referenceId": "loan_7_MTN_1748858400000",
		"status":      "SUCCESSFUL",
		"amount":      "110.00",
	}

	already := unprocessedCallback(3)
	already.Processed = true

	f.callbackRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(int64(4), nil)
	f.callbackRepo.On("LockByRef", mock.Anything, mock.Anything, momo.ProviderNameMTN, "loan_7_MTN_1748858400000").
		Return([]*domain.PaymentCallback{already, unprocessedCallback(4)}, nil)

	outcome, err := f.svc.Process(context.Background(), momo.ProviderNameMTN, payload)

	assert.NoError(t, err)
	assert.True(t, outcome.Duplicate)
	assert.False(t, outcome.PaymentApplied)
	f.loanRepo.AssertNotCalled(t, "GetForUpdate", mock.Anything, mock.Anything, mock.Anything)
	f.paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessCallbackIgnoresNonSuccessStatus(t *testing.T) {
	f := newCallbackFixture()
	payload := map[string]interface{}{
		"referenceId": "loan_7_MTN_1748858400000",
		"status":      "PENDING",
		"amount":      "110.00",
	}

	f.callbackRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(int64(5), nil)
	f.callbackRepo.On("LockByRef", mock.Anything, mock.Anything, momo.ProviderNameMTN, "loan_7_MTN_1748858400000").
		Return([]*domain.PaymentCallback{unprocessedCallback(5)}, nil)

	outcome, err := f.svc.Process(context.Background(), momo.ProviderNameMTN, payload)

	assert.NoError(t, err)
	assert.False(t, outcome.PaymentApplied)
	f.paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	f.callbackRepo.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessCallbackIgnoresUnparseableReference(t *testing.T) {
	f := newCallbackFixture()
	payload := map[string]interface{}{
		"referenceId": "INV-2231",
		"status":      "SUCCESSFUL",
		"amount":      "110.00",
	}

	f.callbackRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(int64(6), nil)
	f.callbackRepo.On("LockByRef", mock.Anything, mock.Anything, momo.ProviderNameMTN, "INV-2231").
		Return([]*domain.PaymentCallback{unprocessedCallback(6)}, nil)

	outcome, err := f.svc.Process(context.Background(), momo.ProviderNameMTN, payload)

	assert.NoError(t, err)
	assert.False(t, outcome.PaymentApplied)
	f.loanRepo.AssertNotCalled(t, "GetForUpdate", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessCallbackAbsorbsBusinessRejection(t *testing.T) {
	// A success callback for a loan that is already PAID keeps the audit row
	// unprocessed and still commits, so the provider gets acknowledged.
	f := newCallbackFixture()
	payload := map[string]interface{}{
		"reference": "loan_7_AIRTEL_1748858400000",
		"status":    "TS",
		"amount":    "110.00",
	}

	paid := &domain.Loan{LoanID: 7, Status: domain.LoanStatusPaid}

	f.callbackRepo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(int64(8), nil)
	f.callbackRepo.On("LockByRef", mock.Anything, mock.Anything, momo.ProviderNameAirtel, "loan_7_AIRTEL_1748858400000").
		Return([]*domain.PaymentCallback{unprocessedCallback(8)}, nil)
	f.loanRepo.On("GetForUpdate", mock.Anything, mock.Anything, int64(7)).Return(paid, nil)

	outcome, err := f.svc.Process(context.Background(), momo.ProviderNameAirtel, payload)

	assert.NoError(t, err)
	assert.False(t, outcome.PaymentApplied)
	f.callbackRepo.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.paymentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}
