package service

import (
	"context"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/bodacredit/loan-engine/internal/domain"
)

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, q sqlx.ExtContext, loan *domain.Loan) error {
	args := m.Called(ctx, q, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) GetByID(ctx context.Context, loanID int64) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) GetForUpdate(ctx context.Context, q sqlx.ExtContext, loanID int64) (*domain.Loan, error) {
	args := m.Called(ctx, q, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) HasOpenLoan(ctx context.Context, q sqlx.ExtContext, riderID int64) (bool, error) {
	args := m.Called(ctx, q, riderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLoanRepository) ListByStatus(ctx context.Context, status string, agentID *int64) ([]*domain.Loan, error) {
	args := m.Called(ctx, status, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) ListDue(ctx context.Context, now time.Time) ([]*domain.Loan, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) UpdateOutstanding(ctx context.Context, q sqlx.ExtContext, loanID int64, outstanding decimal.Decimal) error {
	args := m.Called(ctx, q, loanID, outstanding)
	return args.Error(0)
}

func (m *MockLoanRepository) UpdatePenaltyBalances(ctx context.Context, q sqlx.ExtContext, loanID int64, outstanding, totalPenalty decimal.Decimal, appliedAt time.Time) error {
	args := m.Called(ctx, q, loanID, outstanding, totalPenalty, appliedAt)
	return args.Error(0)
}

func (m *MockLoanRepository) SetStatus(ctx context.Context, q sqlx.ExtContext, loanID int64, status string) error {
	args := m.Called(ctx, q, loanID, status)
	return args.Error(0)
}

func (m *MockLoanRepository) SetTotalPenalty(ctx context.Context, q sqlx.ExtContext, loanID int64, totalPenalty decimal.Decimal) error {
	args := m.Called(ctx, q, loanID, totalPenalty)
	return args.Error(0)
}

type MockRiderRepository struct {
	mock.Mock
}

func (m *MockRiderRepository) Create(ctx context.Context, rider *domain.Rider) error {
	args := m.Called(ctx, rider)
	return args.Error(0)
}

func (m *MockRiderRepository) GetByID(ctx context.Context, riderID int64) (*domain.Rider, error) {
	args := m.Called(ctx, riderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rider), args.Error(1)
}

func (m *MockRiderRepository) GetByPhone(ctx context.Context, phoneNumber string) (*domain.Rider, error) {
	args := m.Called(ctx, phoneNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rider), args.Error(1)
}

func (m *MockRiderRepository) GetForUpdate(ctx context.Context, q sqlx.ExtContext, riderID int64) (*domain.Rider, error) {
	args := m.Called(ctx, q, riderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rider), args.Error(1)
}

func (m *MockRiderRepository) List(ctx context.Context, limit, offset int) ([]*domain.Rider, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Rider), args.Error(1)
}

func (m *MockRiderRepository) Search(ctx context.Context, query string) ([]*domain.Rider, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Rider), args.Error(1)
}

func (m *MockRiderRepository) Update(ctx context.Context, rider *domain.Rider) error {
	args := m.Called(ctx, rider)
	return args.Error(0)
}

func (m *MockRiderRepository) UpdateStatus(ctx context.Context, riderID int64, status string) error {
	args := m.Called(ctx, riderID, status)
	return args.Error(0)
}

func (m *MockRiderRepository) SuspendOverdue(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, q sqlx.ExtContext, payment *domain.Payment) error {
	args := m.Called(ctx, q, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) ListByLoanID(ctx context.Context, loanID int64) ([]*domain.Payment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payment), args.Error(1)
}

type MockPenaltyRepository struct {
	mock.Mock
}

func (m *MockPenaltyRepository) Create(ctx context.Context, q sqlx.ExtContext, application *domain.PenaltyApplication) error {
	args := m.Called(ctx, q, application)
	return args.Error(0)
}

func (m *MockPenaltyRepository) ListByLoanID(ctx context.Context, loanID int64) ([]*domain.PenaltyApplication, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PenaltyApplication), args.Error(1)
}

type MockCallbackRepository struct {
	mock.Mock
}

func (m *MockCallbackRepository) Create(ctx context.Context, q sqlx.ExtContext, callback *domain.PaymentCallback) (int64, error) {
	args := m.Called(ctx, q, callback)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCallbackRepository) LockByRef(ctx context.Context, q sqlx.ExtContext, provider, externalRef string) ([]*domain.PaymentCallback, error) {
	args := m.Called(ctx, q, provider, externalRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PaymentCallback), args.Error(1)
}

func (m *MockCallbackRepository) MarkProcessed(ctx context.Context, q sqlx.ExtContext, callbackID, loanID int64) error {
	args := m.Called(ctx, q, callbackID, loanID)
	return args.Error(0)
}

// decimalEq matches a decimal argument by value, ignoring exponent
// representation.
func decimalEq(want string) interface{} {
	expected := decimal.RequireFromString(want)
	return mock.MatchedBy(func(actual decimal.Decimal) bool {
		return actual.Equal(expected)
	})
}

// fakeTxManager runs the unit of work without a database. The nil *sqlx.Tx
// is never dereferenced because the repositories are mocks.
type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return fn(nil)
}

// fakeCache records invalidations so tests can assert on them.
type fakeCache struct {
	mu      sync.Mutex
	store   map[string]string
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: map[string]string{}}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.store[key]
	return value, ok
}

func (c *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = value
}

func (c *fakeCache) Del(_ context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.store, key)
		c.deleted = append(c.deleted, key)
	}
}
