package finance

import (
	"context"
	"time"

	"github.com/bizledger/backend/internal/domain/installment"
	"github.com/bizledger/backend/internal/domain/ledger"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockCashBoxRepository is a mock implementation of ledger.CashBoxRepository
type MockCashBoxRepository struct {
	mock.Mock
}

func (m *MockCashBoxRepository) Create(ctx context.Context, cashBox *ledger.CashBox) error {
	args := m.Called(ctx, cashBox)
	return args.Error(0)
}

func (m *MockCashBoxRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.CashBox, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.CashBox), args.Error(1)
}

func (m *MockCashBoxRepository) FindDefault(ctx context.Context, tenantID, ownerID uuid.UUID, boxType ledger.CashBoxType) (*ledger.CashBox, error) {
	args := m.Called(ctx, tenantID, ownerID, boxType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.CashBox), args.Error(1)
}

func (m *MockCashBoxRepository) FindByOwner(ctx context.Context, tenantID, ownerID uuid.UUID) ([]*ledger.CashBox, error) {
	args := m.Called(ctx, tenantID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.CashBox), args.Error(1)
}

func (m *MockCashBoxRepository) Save(ctx context.Context, cashBox *ledger.CashBox) error {
	args := m.Called(ctx, cashBox)
	return args.Error(0)
}

func (m *MockCashBoxRepository) SaveWithLock(ctx context.Context, cashBox *ledger.CashBox) error {
	args := m.Called(ctx, cashBox)
	return args.Error(0)
}

func (m *MockCashBoxRepository) ClearDefault(ctx context.Context, tenantID, ownerID uuid.UUID, boxType ledger.CashBoxType) error {
	args := m.Called(ctx, tenantID, ownerID, boxType)
	return args.Error(0)
}

// MockTransactionRepository is a mock implementation of ledger.TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, transaction *ledger.Transaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Transaction, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) MarkReversed(ctx context.Context, transaction *ledger.Transaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) List(ctx context.Context, tenantID uuid.UUID, filter ledger.TransactionFilter) ([]*ledger.Transaction, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*ledger.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepository) FindByCashBox(ctx context.Context, tenantID, cashBoxID uuid.UUID) ([]*ledger.Transaction, error) {
	args := m.Called(ctx, tenantID, cashBoxID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Transaction), args.Error(1)
}

// MockPlanRepository is a mock implementation of installment.PlanRepository
type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) Create(ctx context.Context, plan *installment.InstallmentPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*installment.InstallmentPlan, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*installment.InstallmentPlan), args.Error(1)
}

func (m *MockPlanRepository) FindByDebtor(ctx context.Context, tenantID, debtorID uuid.UUID, filter installment.PlanFilter) (*shared.Paginated[*installment.InstallmentPlan], error) {
	args := m.Called(ctx, tenantID, debtorID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*installment.InstallmentPlan]), args.Error(1)
}

func (m *MockPlanRepository) Save(ctx context.Context, plan *installment.InstallmentPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) SaveWithLock(ctx context.Context, plan *installment.InstallmentPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) List(ctx context.Context, tenantID uuid.UUID, filter installment.PlanFilter) (*shared.Paginated[*installment.InstallmentPlan], error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*installment.InstallmentPlan]), args.Error(1)
}

// MockPaymentRepository is a mock implementation of installment.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *installment.InstallmentPayment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*installment.InstallmentPayment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*installment.InstallmentPayment), args.Error(1)
}

func (m *MockPaymentRepository) FindByPlan(ctx context.Context, tenantID, planID uuid.UUID) ([]*installment.InstallmentPayment, error) {
	args := m.Called(ctx, tenantID, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*installment.InstallmentPayment), args.Error(1)
}

// =============================================================================
// Test Doubles
// =============================================================================

// passthroughTxManager runs the unit of work directly, without a database
type passthroughTxManager struct{}

func (passthroughTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// mapIdempotencyStore is an in-process idempotency store for tests
type mapIdempotencyStore struct {
	keys map[string]bool
}

func newMapIdempotencyStore() *mapIdempotencyStore {
	return &mapIdempotencyStore{keys: make(map[string]bool)}
}

func (s *mapIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *mapIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	return s.keys[key], nil
}

func (s *mapIdempotencyStore) Close() error { return nil }
