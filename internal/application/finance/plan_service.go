package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/bizledger/backend/internal/domain/installment"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PlanService manages the lifecycle of installment plans
type PlanService struct {
	planRepo  installment.PlanRepository
	txManager shared.TxManager
	eventBus  shared.EventBus
	roundStep decimal.Decimal
	logger    *zap.Logger
}

// NewPlanService creates a new PlanService. roundStep is the fallback
// rounding granularity for plans created without one.
func NewPlanService(
	planRepo installment.PlanRepository,
	txManager shared.TxManager,
	eventBus shared.EventBus,
	roundStep decimal.Decimal,
	logger *zap.Logger,
) *PlanService {
	if !roundStep.IsPositive() {
		roundStep = installment.DefaultRoundStep
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanService{
		planRepo:  planRepo,
		txManager: txManager,
		eventBus:  eventBus,
		roundStep: roundStep,
		logger:    logger,
	}
}

// CreatePlanRequest represents a request to generate an installment plan
type CreatePlanRequest struct {
	TenantID             uuid.UUID
	DebtorID             uuid.UUID
	OperatorID           uuid.UUID
	TotalAmount          decimal.Decimal
	DownPayment          decimal.Decimal
	NumberOfInstallments int
	StartDate            time.Time
	RoundStep            decimal.Decimal // Zero falls back to the configured step
}

// CreatePlan generates a plan with its full installment schedule and
// persists everything atomically.
func (s *PlanService) CreatePlan(ctx context.Context, req CreatePlanRequest) (*installment.InstallmentPlan, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "installment", "create_plan")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, req.TenantID.String(),
		telemetry.SpanAttrAmount, req.TotalAmount.String(),
		"installments_requested", req.NumberOfInstallments,
	)

	roundStep := req.RoundStep
	if roundStep.IsZero() {
		roundStep = s.roundStep
	}

	plan, err := installment.NewInstallmentPlan(
		req.TenantID, req.DebtorID,
		req.TotalAmount, req.DownPayment,
		req.NumberOfInstallments, req.StartDate, roundStep,
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if req.OperatorID != uuid.Nil {
		plan.SetCreatedBy(req.OperatorID)
	}

	err = s.txManager.RunInTx(ctx, func(ctx context.Context) error {
		return s.planRepo.Create(ctx, plan)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to create installment plan", zap.Error(err))
		return nil, fmt.Errorf("failed to persist plan: %w", err)
	}

	_ = s.eventBus.Publish(ctx, plan.GetDomainEvents()...)
	plan.ClearDomainEvents()
	telemetry.SetAttribute(span, telemetry.SpanAttrPlanID, plan.ID.String())

	s.logger.Info("Installment plan created",
		zap.String("plan_id", plan.ID.String()),
		zap.String("debtor_id", plan.DebtorID.String()),
		zap.Int("installments", plan.NumberOfInstallments),
		zap.String("remaining", plan.RemainingAmount.String()))

	return plan, nil
}

// GetPlan returns a plan with its installments
func (s *PlanService) GetPlan(ctx context.Context, tenantID, planID uuid.UUID) (*installment.InstallmentPlan, error) {
	plan, err := s.planRepo.FindByIDForTenant(ctx, tenantID, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Installment plan not found")
	}
	return plan, nil
}

// ListPlans returns a filtered page of plans
func (s *PlanService) ListPlans(ctx context.Context, tenantID uuid.UUID, filter installment.PlanFilter) (*shared.Paginated[*installment.InstallmentPlan], error) {
	return s.planRepo.List(ctx, tenantID, filter)
}

// CancelPlan voids a plan that has received no payments yet
func (s *PlanService) CancelPlan(ctx context.Context, tenantID, planID uuid.UUID, reason string, operatorID uuid.UUID) (*installment.InstallmentPlan, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "installment", "cancel_plan")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrPlanID, planID.String(),
		telemetry.SpanAttrUserID, operatorID.String(),
	)

	var plan *installment.InstallmentPlan
	err := s.txManager.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		plan, err = s.planRepo.FindByIDForTenant(ctx, tenantID, planID)
		if err != nil {
			return err
		}
		if plan == nil {
			return shared.NewDomainError("NOT_FOUND", "Installment plan not found")
		}
		if err := plan.Cancel(reason); err != nil {
			return err
		}
		return s.planRepo.SaveWithLock(ctx, plan)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to cancel installment plan",
			zap.String("plan_id", planID.String()), zap.Error(err))
		return nil, err
	}

	_ = s.eventBus.Publish(ctx, plan.GetDomainEvents()...)
	plan.ClearDomainEvents()

	s.logger.Info("Installment plan canceled",
		zap.String("plan_id", plan.ID.String()),
		zap.String("reason", reason))

	return plan, nil
}
