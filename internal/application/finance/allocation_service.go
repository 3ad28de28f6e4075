package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/bizledger/backend/internal/domain/installment"
	"github.com/bizledger/backend/internal/domain/ledger"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// idempotencyTTL bounds how long a processed allocation key is remembered
const idempotencyTTL = 24 * time.Hour

// AllocationService distributes an incoming payment over the installments
// of a plan and books the matching cash movements. The plan mutation, the
// payment record with its detail rows, and the ledger deposits all commit in
// one unit of work.
type AllocationService struct {
	planRepo    installment.PlanRepository
	paymentRepo installment.PaymentRepository
	balanceSvc  *BalanceService
	txManager   shared.TxManager
	eventBus    shared.EventBus
	idempotency shared.IdempotencyStore
	logger      *zap.Logger
}

// NewAllocationService creates a new AllocationService. The idempotency
// store may be nil, in which case keys are not checked.
func NewAllocationService(
	planRepo installment.PlanRepository,
	paymentRepo installment.PaymentRepository,
	balanceSvc *BalanceService,
	txManager shared.TxManager,
	eventBus shared.EventBus,
	idempotency shared.IdempotencyStore,
	logger *zap.Logger,
) *AllocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationService{
		planRepo:    planRepo,
		paymentRepo: paymentRepo,
		balanceSvc:  balanceSvc,
		txManager:   txManager,
		eventBus:    eventBus,
		idempotency: idempotency,
		logger:      logger,
	}
}

// AllocationRequest represents an incoming payment against a plan
type AllocationRequest struct {
	TenantID               uuid.UUID
	PlanID                 uuid.UUID
	PayerID                uuid.UUID  // The debtor making the payment
	PayeeID                uuid.UUID  // The staff member collecting it
	OperatorID             uuid.UUID
	SelectedInstallmentIDs []uuid.UUID
	Amount                 decimal.Decimal
	Method                 installment.PaymentMethod
	Notes                  string
	PayerCashBoxID         *uuid.UUID // Nil resolves the payer's default box
	PayeeCashBoxID         *uuid.UUID // Nil resolves the payee's default box
	IdempotencyKey         string
}

// AllocationResult represents the outcome of a payment allocation
type AllocationResult struct {
	Payment      *installment.InstallmentPayment `json:"payment"`
	Plan         *installment.InstallmentPlan    `json:"plan"`
	TotalApplied decimal.Decimal                 `json:"total_applied"`
	ExcessAmount decimal.Decimal                 `json:"excess_amount"`
	Transactions []*ledger.Transaction           `json:"transactions"`
}

// AllocatePayment distributes a payment over the plan's installments.
//
// Explicitly selected installments are settled first, then the rest of the
// plan's outstanding installments absorb whatever remains, earliest due date
// first. Whatever the plan cannot absorb is returned as ExcessAmount; it is
// never silently deposited anywhere. TotalApplied plus ExcessAmount always
// equals the requested amount.
func (s *AllocationService) AllocatePayment(ctx context.Context, req AllocationRequest) (*AllocationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "installment", "allocate_payment")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, req.TenantID.String(),
		telemetry.SpanAttrPlanID, req.PlanID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
		"selected_count", len(req.SelectedInstallmentIDs),
	)

	if req.IdempotencyKey != "" && s.idempotency != nil {
		processed, err := s.idempotency.IsProcessed(ctx, req.IdempotencyKey)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if processed {
			err := shared.NewDomainError("DUPLICATE_REQUEST", "Payment has already been processed")
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if req.Amount.IsNegative() || req.Amount.IsZero() {
		err := shared.NewDomainError("VALIDATION_FAILED", "Payment amount must be positive")
		telemetry.RecordError(span, err)
		return nil, err
	}

	var result *AllocationResult
	err := s.txManager.RunInTx(ctx, func(ctx context.Context) error {
		plan, err := s.planRepo.FindByIDForTenant(ctx, req.TenantID, req.PlanID)
		if err != nil {
			return fmt.Errorf("failed to load plan: %w", err)
		}
		if plan == nil {
			return shared.NewDomainError("NOT_FOUND", "Installment plan not found")
		}

		outcome, err := plan.Allocate(req.Amount, req.SelectedInstallmentIDs)
		if err != nil {
			return err
		}

		payment, err := installment.NewInstallmentPayment(
			req.TenantID, plan.ID, req.PayerID, req.Amount, req.Method, req.Notes)
		if err != nil {
			return err
		}
		for _, entry := range outcome.Entries {
			payment.AddDetail(entry.InstallmentID, entry.Applied)
		}
		payment.Finalize(outcome.TotalApplied)

		if err := s.planRepo.SaveWithLock(ctx, plan); err != nil {
			return err
		}
		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}

		transactions, err := s.bookCashMovements(ctx, req, outcome.TotalApplied)
		if err != nil {
			return err
		}

		result = &AllocationResult{
			Payment:      payment,
			Plan:         plan,
			TotalApplied: outcome.TotalApplied,
			ExcessAmount: outcome.Excess,
			Transactions: transactions,
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Payment allocation failed",
			zap.String("plan_id", req.PlanID.String()),
			zap.Error(err))
		return nil, err
	}

	if req.IdempotencyKey != "" && s.idempotency != nil {
		if _, err := s.idempotency.MarkProcessed(ctx, req.IdempotencyKey, idempotencyTTL); err != nil {
			telemetry.RecordError(span, err)
		}
	}

	_ = s.eventBus.Publish(ctx, result.Plan.GetDomainEvents()...)
	result.Plan.ClearDomainEvents()
	telemetry.SetAttributes(span,
		"total_applied", result.TotalApplied.String(),
		"excess", result.ExcessAmount.String(),
	)

	s.logger.Info("Payment allocated",
		zap.String("plan_id", req.PlanID.String()),
		zap.String("payment_id", result.Payment.ID.String()),
		zap.String("total_applied", result.TotalApplied.String()),
		zap.String("excess", result.ExcessAmount.String()))

	return result, nil
}

// ListPayments returns a plan's allocation history, oldest payment first
func (s *AllocationService) ListPayments(ctx context.Context, tenantID, planID uuid.UUID) ([]*installment.InstallmentPayment, error) {
	return s.paymentRepo.FindByPlan(ctx, tenantID, planID)
}

// bookCashMovements records the applied total in the cash ledger: the payee
// staff member receives the money, and the payer's box books the same amount
// as a debt-reduction deposit. Runs inside the caller's unit of work.
func (s *AllocationService) bookCashMovements(ctx context.Context, req AllocationRequest, totalApplied decimal.Decimal) ([]*ledger.Transaction, error) {
	if totalApplied.IsZero() {
		return nil, nil
	}

	method := cashBoxTypeForMethod(req.Method)

	payeeResult, err := s.balanceSvc.depositInTx(ctx, DepositRequest{
		TenantID:   req.TenantID,
		UserID:     req.PayeeID,
		OperatorID: req.OperatorID,
		CashBoxID:  req.PayeeCashBoxID,
		Method:     method,
		Amount:     totalApplied,
		Reference:  req.PlanID.String(),
		Remark:     "Installment payment received",
	})
	if err != nil {
		return nil, err
	}

	payerResult, err := s.balanceSvc.depositInTx(ctx, DepositRequest{
		TenantID:   req.TenantID,
		UserID:     req.PayerID,
		OperatorID: req.OperatorID,
		CashBoxID:  req.PayerCashBoxID,
		Method:     ledger.CashBoxTypeWallet,
		Amount:     totalApplied,
		Reference:  req.PlanID.String(),
		Remark:     "Installment debt reduction",
	})
	if err != nil {
		return nil, err
	}

	return []*ledger.Transaction{payeeResult.Transaction, payerResult.Transaction}, nil
}

// cashBoxTypeForMethod maps a payment method to the cashbox type that
// should receive the funds
func cashBoxTypeForMethod(method installment.PaymentMethod) ledger.CashBoxType {
	switch method {
	case installment.PaymentMethodBank:
		return ledger.CashBoxTypeBank
	case installment.PaymentMethodWallet:
		return ledger.CashBoxTypeWallet
	default:
		return ledger.CashBoxTypeCash
	}
}
