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

// ReversalService undoes a previously recorded transaction. The inverse
// balance movement, the REVERSAL audit row, and the reversed-at stamp on the
// original all commit in one unit of work. A transaction can be reversed at
// most once, and reversal rows themselves can never be reversed.
type ReversalService struct {
	cashBoxRepo ledger.CashBoxRepository
	txRepo      ledger.TransactionRepository
	txManager   shared.TxManager
	eventBus    shared.EventBus
	logger      *zap.Logger
}

// NewReversalService creates a new ReversalService
func NewReversalService(
	cashBoxRepo ledger.CashBoxRepository,
	txRepo ledger.TransactionRepository,
	txManager shared.TxManager,
	eventBus shared.EventBus,
	logger *zap.Logger,
) *ReversalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReversalService{
		cashBoxRepo: cashBoxRepo,
		txRepo:      txRepo,
		txManager:   txManager,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// ReversalRequest represents a request to undo a transaction
type ReversalRequest struct {
	TenantID      uuid.UUID
	TransactionID uuid.UUID
	OperatorID    uuid.UUID
	Reason        string
}

// ReversalResult represents the outcome of a reversal
type ReversalResult struct {
	Original *ledger.Transaction `json:"original"`
	Reversal *ledger.Transaction `json:"reversal"`
}

// ReverseTransaction undoes the balance effect of a prior transaction.
//
// The inverse movement is dispatched on the original type: a DEPOSIT is
// withdrawn back, a WITHDRAW is deposited back, and a TRANSFER moves the
// amount from the target cashbox back to the source. Reversal withdrawals
// always allow the balance to go negative: an undo must succeed even when
// the funds already moved on.
func (s *ReversalService) ReverseTransaction(ctx context.Context, req ReversalRequest) (*ReversalResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "reverse_transaction")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, req.TenantID.String(),
		telemetry.SpanAttrTransactionID, req.TransactionID.String(),
	)

	if req.Reason == "" {
		err := shared.NewDomainError("VALIDATION_FAILED", "Reversal reason is required")
		telemetry.RecordError(span, err)
		return nil, err
	}

	var result *ReversalResult
	err := s.txManager.RunInTx(ctx, func(ctx context.Context) error {
		original, err := s.txRepo.FindByIDForTenant(ctx, req.TenantID, req.TransactionID)
		if err != nil {
			return fmt.Errorf("failed to load transaction: %w", err)
		}
		if original == nil {
			return shared.NewDomainError("NOT_FOUND", "Transaction not found")
		}
		if err := original.CanReverse(); err != nil {
			return err
		}

		balanceBefore, balanceAfter, err := s.undoMovement(ctx, original)
		if err != nil {
			return err
		}

		reversal, err := ledger.NewReversalTransaction(original, balanceBefore, balanceAfter, req.Reason)
		if err != nil {
			return err
		}
		reversal.WithOperator(req.OperatorID)

		if err := original.MarkReversed(req.Reason); err != nil {
			return err
		}
		if err := s.txRepo.MarkReversed(ctx, original); err != nil {
			return err
		}
		if err := s.txRepo.Create(ctx, reversal); err != nil {
			return fmt.Errorf("failed to record reversal: %w", err)
		}

		result = &ReversalResult{Original: original, Reversal: reversal}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Reversal failed",
			zap.String("transaction_id", req.TransactionID.String()),
			zap.Error(err))
		return nil, err
	}

	_ = s.eventBus.Publish(ctx, ledger.NewTransactionReversedEvent(result.Original, result.Reversal))
	telemetry.SetAttribute(span, "reversal_id", result.Reversal.ID.String())

	s.logger.Info("Transaction reversed",
		zap.String("transaction_id", result.Original.ID.String()),
		zap.String("reversal_id", result.Reversal.ID.String()),
		zap.String("type", result.Original.Type.String()))

	return result, nil
}

// undoMovement applies the inverse balance effect of the original
// transaction and returns the before/after pair of the original source
// cashbox, which is the side the reversal row reports on.
func (s *ReversalService) undoMovement(ctx context.Context, original *ledger.Transaction) (decimal.Decimal, decimal.Decimal, error) {
	switch original.Type {
	case ledger.TransactionTypeDeposit:
		cashBox, err := s.loadCashBox(ctx, original.TenantID, original.CashBoxID)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		before := cashBox.Balance
		if err := cashBox.Withdraw(original.Amount, ledger.NegativeBalanceAllow); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		if err := s.cashBoxRepo.SaveWithLock(ctx, cashBox); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		return before, cashBox.Balance, nil

	case ledger.TransactionTypeWithdraw:
		cashBox, err := s.loadCashBox(ctx, original.TenantID, original.CashBoxID)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		before := cashBox.Balance
		if err := cashBox.Deposit(original.Amount); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		if err := s.cashBoxRepo.SaveWithLock(ctx, cashBox); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		return before, cashBox.Balance, nil

	case ledger.TransactionTypeTransfer:
		if original.TargetCashBoxID == nil {
			return decimal.Zero, decimal.Zero, shared.NewDomainError(
				"INVALID_STATE", "Transfer transaction has no target cashbox")
		}
		target, err := s.loadCashBox(ctx, original.TenantID, *original.TargetCashBoxID)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		if err := target.Withdraw(original.Amount, ledger.NegativeBalanceAllow); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		source, err := s.loadCashBox(ctx, original.TenantID, original.CashBoxID)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		before := source.Balance
		if err := source.Deposit(original.Amount); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		if err := s.cashBoxRepo.SaveWithLock(ctx, target); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		if err := s.cashBoxRepo.SaveWithLock(ctx, source); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		return before, source.Balance, nil

	default:
		// CanReverse already rejected these; kept as a safety net.
		return decimal.Zero, decimal.Zero, shared.NewDomainError(
			"UNSUPPORTED_REVERSAL_TYPE", "Transactions of type "+original.Type.String()+" cannot be reversed")
	}
}

func (s *ReversalService) loadCashBox(ctx context.Context, tenantID, id uuid.UUID) (*ledger.CashBox, error) {
	cashBox, err := s.cashBoxRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load cashbox: %w", err)
	}
	if cashBox == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Cashbox not found")
	}
	return cashBox, nil
}
