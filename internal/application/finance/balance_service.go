package finance

import (
	"context"
	"fmt"

	"github.com/bizledger/backend/internal/domain/ledger"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/bizledger/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BalanceService executes balance movements on cashboxes. Every movement
// mutates the cashbox balance and appends the audit transaction in the same
// unit of work, so neither can exist without the other.
type BalanceService struct {
	cashBoxRepo ledger.CashBoxRepository
	txRepo      ledger.TransactionRepository
	txManager   shared.TxManager
	eventBus    shared.EventBus
	policy      ledger.NegativeBalancePolicy
	logger      *zap.Logger
}

// NewBalanceService creates a new BalanceService. The negative balance policy
// applies uniformly to every withdrawal the service performs.
func NewBalanceService(
	cashBoxRepo ledger.CashBoxRepository,
	txRepo ledger.TransactionRepository,
	txManager shared.TxManager,
	eventBus shared.EventBus,
	policy ledger.NegativeBalancePolicy,
	logger *zap.Logger,
) *BalanceService {
	if !policy.IsValid() {
		policy = ledger.NegativeBalanceForbid
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BalanceService{
		cashBoxRepo: cashBoxRepo,
		txRepo:      txRepo,
		txManager:   txManager,
		eventBus:    eventBus,
		policy:      policy,
		logger:      logger,
	}
}

// CreateCashBoxRequest represents a request to open a new cashbox
type CreateCashBoxRequest struct {
	TenantID  uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Type      ledger.CashBoxType
	IsDefault bool
}

// DepositRequest represents a request to increase a cashbox balance
type DepositRequest struct {
	TenantID   uuid.UUID
	UserID     uuid.UUID  // Account owner
	OperatorID uuid.UUID  // Acting user
	CashBoxID  *uuid.UUID // Nil resolves the owner's default CASH box
	Method     ledger.CashBoxType
	Amount     decimal.Decimal
	Reference  string
	Remark     string
}

// WithdrawRequest represents a request to decrease a cashbox balance
type WithdrawRequest struct {
	TenantID   uuid.UUID
	UserID     uuid.UUID
	OperatorID uuid.UUID
	CashBoxID  *uuid.UUID
	Method     ledger.CashBoxType
	Amount     decimal.Decimal
	Reference  string
	Remark     string
}

// TransferRequest represents a request to move funds between two cashboxes
type TransferRequest struct {
	TenantID        uuid.UUID
	SourceUserID    uuid.UUID
	TargetUserID    uuid.UUID
	OperatorID      uuid.UUID
	SourceCashBoxID *uuid.UUID
	TargetCashBoxID *uuid.UUID
	Method          ledger.CashBoxType
	Amount          decimal.Decimal
	Reference       string
	Remark          string
}

// BalanceOperationResult represents the outcome of a deposit or withdrawal
type BalanceOperationResult struct {
	Transaction   *ledger.Transaction `json:"transaction"`
	CashBoxID     uuid.UUID           `json:"cashbox_id"`
	BalanceBefore decimal.Decimal     `json:"balance_before"`
	BalanceAfter  decimal.Decimal     `json:"balance_after"`
}

// TransferResult represents the outcome of a transfer, with both sides'
// balance movement
type TransferResult struct {
	Transaction         *ledger.Transaction `json:"transaction"`
	SourceCashBoxID     uuid.UUID           `json:"source_cashbox_id"`
	TargetCashBoxID     uuid.UUID           `json:"target_cashbox_id"`
	SourceBalanceBefore decimal.Decimal     `json:"source_balance_before"`
	SourceBalanceAfter  decimal.Decimal     `json:"source_balance_after"`
	TargetBalanceBefore decimal.Decimal     `json:"target_balance_before"`
	TargetBalanceAfter  decimal.Decimal     `json:"target_balance_after"`
}

// CreateCashBox opens a new cashbox for an owner. When the box is flagged as
// default, the previous default of the same (owner, type) pair is cleared in
// the same unit of work.
func (s *BalanceService) CreateCashBox(ctx context.Context, req CreateCashBoxRequest) (*ledger.CashBox, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "create_cashbox")
	defer span.End()

	cashBox, err := ledger.NewCashBox(req.TenantID, req.OwnerID, req.Name, req.Type, req.IsDefault)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(ctx context.Context) error {
		if req.IsDefault {
			if err := s.cashBoxRepo.ClearDefault(ctx, req.TenantID, req.OwnerID, req.Type); err != nil {
				return fmt.Errorf("failed to clear previous default: %w", err)
			}
		}
		return s.cashBoxRepo.Create(ctx, cashBox)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to create cashbox", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Cashbox created",
		zap.String("cashbox_id", cashBox.ID.String()),
		zap.String("owner_id", req.OwnerID.String()),
		zap.String("type", req.Type.String()))

	s.publishEvents(ctx, cashBox.GetDomainEvents())
	cashBox.ClearDomainEvents()

	return cashBox, nil
}

// Deposit increases a cashbox balance and appends the audit transaction
func (s *BalanceService) Deposit(ctx context.Context, req DepositRequest) (*BalanceOperationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "deposit")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, req.TenantID.String(),
		telemetry.SpanAttrUserID, req.UserID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	if req.Amount.IsNegative() || req.Amount.IsZero() {
		err := shared.NewDomainError("VALIDATION_FAILED", "Deposit amount must be positive")
		telemetry.RecordError(span, err)
		return nil, err
	}

	var result *BalanceOperationResult
	err := s.txManager.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.depositInTx(ctx, req)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Deposit failed", zap.String("user_id", req.UserID.String()), zap.Error(err))
		return nil, err
	}

	_ = s.eventBus.Publish(ctx, ledger.NewTransactionRecordedEvent(result.Transaction))
	telemetry.SetAttribute(span, telemetry.SpanAttrTransactionID, result.Transaction.ID.String())

	s.logger.Info("Deposit recorded",
		zap.String("transaction_id", result.Transaction.ID.String()),
		zap.String("cashbox_id", result.CashBoxID.String()),
		zap.String("amount", req.Amount.String()))

	return result, nil
}

// depositInTx performs the deposit against the unit of work already carried
// by ctx. Services composing larger atomic operations call this directly
// instead of Deposit.
func (s *BalanceService) depositInTx(ctx context.Context, req DepositRequest) (*BalanceOperationResult, error) {
	cashBox, err := s.resolveCashBox(ctx, req.TenantID, req.UserID, req.CashBoxID, req.Method)
	if err != nil {
		return nil, err
	}

	balanceBefore := cashBox.Balance
	if err := cashBox.Deposit(req.Amount); err != nil {
		return nil, err
	}

	transaction, err := ledger.NewDepositTransaction(
		req.TenantID, req.UserID, cashBox.ID, req.Amount, balanceBefore)
	if err != nil {
		return nil, err
	}
	transaction.WithReference(req.Reference).WithRemark(req.Remark).WithOperator(req.OperatorID)

	if err := s.cashBoxRepo.SaveWithLock(ctx, cashBox); err != nil {
		return nil, err
	}
	if err := s.txRepo.Create(ctx, transaction); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	return &BalanceOperationResult{
		Transaction:   transaction,
		CashBoxID:     cashBox.ID,
		BalanceBefore: balanceBefore,
		BalanceAfter:  cashBox.Balance,
	}, nil
}

// Withdraw decreases a cashbox balance and appends the audit transaction.
// Under the forbid policy a withdrawal beyond the balance fails with
// INSUFFICIENT_FUNDS and nothing is persisted.
func (s *BalanceService) Withdraw(ctx context.Context, req WithdrawRequest) (*BalanceOperationResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "withdraw")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, req.TenantID.String(),
		telemetry.SpanAttrUserID, req.UserID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	if req.Amount.IsNegative() || req.Amount.IsZero() {
		err := shared.NewDomainError("VALIDATION_FAILED", "Withdrawal amount must be positive")
		telemetry.RecordError(span, err)
		return nil, err
	}

	var result *BalanceOperationResult
	err := s.txManager.RunInTx(ctx, func(ctx context.Context) error {
		cashBox, err := s.resolveCashBox(ctx, req.TenantID, req.UserID, req.CashBoxID, req.Method)
		if err != nil {
			return err
		}

		balanceBefore := cashBox.Balance
		if err := cashBox.Withdraw(req.Amount, s.policy); err != nil {
			return err
		}

		transaction, err := ledger.NewWithdrawTransaction(
			req.TenantID, req.UserID, cashBox.ID, req.Amount, balanceBefore)
		if err != nil {
			return err
		}
		transaction.WithReference(req.Reference).WithRemark(req.Remark).WithOperator(req.OperatorID)

		if err := s.cashBoxRepo.SaveWithLock(ctx, cashBox); err != nil {
			return err
		}
		if err := s.txRepo.Create(ctx, transaction); err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}

		result = &BalanceOperationResult{
			Transaction:   transaction,
			CashBoxID:     cashBox.ID,
			BalanceBefore: balanceBefore,
			BalanceAfter:  cashBox.Balance,
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Withdrawal failed", zap.String("user_id", req.UserID.String()), zap.Error(err))
		return nil, err
	}

	_ = s.eventBus.Publish(ctx, ledger.NewTransactionRecordedEvent(result.Transaction))
	telemetry.SetAttribute(span, telemetry.SpanAttrTransactionID, result.Transaction.ID.String())

	s.logger.Info("Withdrawal recorded",
		zap.String("transaction_id", result.Transaction.ID.String()),
		zap.String("cashbox_id", result.CashBoxID.String()),
		zap.String("amount", req.Amount.String()))

	return result, nil
}

// Transfer moves funds from one cashbox to another. Both balance changes and
// the single TRANSFER audit row commit together.
func (s *BalanceService) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "transfer")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, req.TenantID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	if req.Amount.IsNegative() || req.Amount.IsZero() {
		err := shared.NewDomainError("VALIDATION_FAILED", "Transfer amount must be positive")
		telemetry.RecordError(span, err)
		return nil, err
	}

	var result *TransferResult
	err := s.txManager.RunInTx(ctx, func(ctx context.Context) error {
		source, err := s.resolveCashBox(ctx, req.TenantID, req.SourceUserID, req.SourceCashBoxID, req.Method)
		if err != nil {
			return err
		}
		target, err := s.resolveCashBox(ctx, req.TenantID, req.TargetUserID, req.TargetCashBoxID, req.Method)
		if err != nil {
			return err
		}
		if source.ID == target.ID {
			return shared.NewDomainError("VALIDATION_FAILED", "Cannot transfer to the same cashbox")
		}

		sourceBefore := source.Balance
		targetBefore := target.Balance

		if err := source.Withdraw(req.Amount, s.policy); err != nil {
			return err
		}
		if err := target.Deposit(req.Amount); err != nil {
			return err
		}

		transaction, err := ledger.NewTransferTransaction(
			req.TenantID, req.SourceUserID, req.TargetUserID,
			source.ID, target.ID, req.Amount, sourceBefore)
		if err != nil {
			return err
		}
		transaction.WithReference(req.Reference).WithRemark(req.Remark).WithOperator(req.OperatorID)

		if err := s.cashBoxRepo.SaveWithLock(ctx, source); err != nil {
			return err
		}
		if err := s.cashBoxRepo.SaveWithLock(ctx, target); err != nil {
			return err
		}
		if err := s.txRepo.Create(ctx, transaction); err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}

		result = &TransferResult{
			Transaction:         transaction,
			SourceCashBoxID:     source.ID,
			TargetCashBoxID:     target.ID,
			SourceBalanceBefore: sourceBefore,
			SourceBalanceAfter:  source.Balance,
			TargetBalanceBefore: targetBefore,
			TargetBalanceAfter:  target.Balance,
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Transfer failed",
			zap.String("source_user_id", req.SourceUserID.String()),
			zap.String("target_user_id", req.TargetUserID.String()),
			zap.Error(err))
		return nil, err
	}

	_ = s.eventBus.Publish(ctx, ledger.NewTransactionRecordedEvent(result.Transaction))
	telemetry.SetAttribute(span, telemetry.SpanAttrTransactionID, result.Transaction.ID.String())

	s.logger.Info("Transfer recorded",
		zap.String("transaction_id", result.Transaction.ID.String()),
		zap.String("source_cashbox_id", result.SourceCashBoxID.String()),
		zap.String("target_cashbox_id", result.TargetCashBoxID.String()),
		zap.String("amount", req.Amount.String()))

	return result, nil
}

// GetCashBox returns a single cashbox by id
func (s *BalanceService) GetCashBox(ctx context.Context, tenantID, cashBoxID uuid.UUID) (*ledger.CashBox, error) {
	cashBox, err := s.cashBoxRepo.FindByIDForTenant(ctx, tenantID, cashBoxID)
	if err != nil {
		return nil, err
	}
	if cashBox == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Cashbox not found")
	}
	return cashBox, nil
}

// ListCashBoxes returns every cashbox of an owner
func (s *BalanceService) ListCashBoxes(ctx context.Context, tenantID, ownerID uuid.UUID) ([]*ledger.CashBox, error) {
	return s.cashBoxRepo.FindByOwner(ctx, tenantID, ownerID)
}

// ListTransactions returns a filtered page of audit transactions
func (s *BalanceService) ListTransactions(ctx context.Context, tenantID uuid.UUID, filter ledger.TransactionFilter) ([]*ledger.Transaction, int64, error) {
	return s.txRepo.List(ctx, tenantID, filter)
}

// resolveCashBox loads the requested cashbox, or the owner's default box when
// no id was given. The box must belong to the owner and be active.
func (s *BalanceService) resolveCashBox(
	ctx context.Context,
	tenantID, ownerID uuid.UUID,
	cashBoxID *uuid.UUID,
	method ledger.CashBoxType,
) (*ledger.CashBox, error) {
	var cashBox *ledger.CashBox
	var err error

	if cashBoxID != nil {
		cashBox, err = s.cashBoxRepo.FindByIDForTenant(ctx, tenantID, *cashBoxID)
	} else {
		if !method.IsValid() {
			method = ledger.CashBoxTypeCash
		}
		cashBox, err = s.cashBoxRepo.FindDefault(ctx, tenantID, ownerID, method)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cashbox: %w", err)
	}
	if cashBox == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Cashbox not found")
	}
	if cashBox.OwnerID != ownerID {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Cashbox does not belong to this user")
	}
	if !cashBox.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cashbox is archived")
	}
	return cashBox, nil
}

func (s *BalanceService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	_ = s.eventBus.Publish(ctx, events...)
}
