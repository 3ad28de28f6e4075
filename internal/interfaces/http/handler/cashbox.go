package handler

import (
	"time"

	financeapp "github.com/bizledger/backend/internal/application/finance"
	"github.com/bizledger/backend/internal/domain/ledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashBoxHandler handles cashbox and balance operation API endpoints
type CashBoxHandler struct {
	BaseHandler
	balanceService  *financeapp.BalanceService
	reversalService *financeapp.ReversalService
}

// NewCashBoxHandler creates a new CashBoxHandler
func NewCashBoxHandler(balanceService *financeapp.BalanceService, reversalService *financeapp.ReversalService) *CashBoxHandler {
	return &CashBoxHandler{
		balanceService:  balanceService,
		reversalService: reversalService,
	}
}

// CreateCashBoxRequest represents a request to open a cashbox
// @Description Request body for creating a cashbox
type CreateCashBoxRequest struct {
	OwnerID   string `json:"owner_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name      string `json:"name" binding:"required,min=1,max=100" example:"Front desk cash drawer"`
	Type      string `json:"type" binding:"required,oneof=CASH BANK WALLET" example:"CASH"`
	IsDefault bool   `json:"is_default" example:"true"`
}

// DepositRequest represents a request to add funds to a cashbox
// @Description Request body for a deposit
type DepositRequest struct {
	UserID    string  `json:"user_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	CashBoxID *string `json:"cashbox_id" binding:"omitempty,uuid"`
	Method    string  `json:"method" binding:"omitempty,oneof=CASH BANK WALLET" example:"CASH"`
	Amount    float64 `json:"amount" binding:"required,gt=0" example:"100.00"`
	Reference string  `json:"reference" binding:"max=100" example:"DEP-20260110-001"`
	Remark    string  `json:"remark" binding:"max=500"`
}

// WithdrawRequest represents a request to remove funds from a cashbox
// @Description Request body for a withdrawal
type WithdrawRequest struct {
	UserID    string  `json:"user_id" binding:"required,uuid"`
	CashBoxID *string `json:"cashbox_id" binding:"omitempty,uuid"`
	Method    string  `json:"method" binding:"omitempty,oneof=CASH BANK WALLET" example:"CASH"`
	Amount    float64 `json:"amount" binding:"required,gt=0" example:"50.00"`
	Reference string  `json:"reference" binding:"max=100"`
	Remark    string  `json:"remark" binding:"max=500"`
}

// TransferRequest represents a request to move funds between cashboxes
// @Description Request body for a transfer
type TransferRequest struct {
	SourceUserID    string  `json:"source_user_id" binding:"required,uuid"`
	TargetUserID    string  `json:"target_user_id" binding:"required,uuid"`
	SourceCashBoxID *string `json:"source_cashbox_id" binding:"omitempty,uuid"`
	TargetCashBoxID *string `json:"target_cashbox_id" binding:"omitempty,uuid"`
	Method          string  `json:"method" binding:"omitempty,oneof=CASH BANK WALLET" example:"CASH"`
	Amount          float64 `json:"amount" binding:"required,gt=0" example:"25.00"`
	Reference       string  `json:"reference" binding:"max=100"`
	Remark          string  `json:"remark" binding:"max=500"`
}

// ReverseTransactionRequest represents a request to undo a transaction
// @Description Request body for reversing a transaction
type ReverseTransactionRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500" example:"Posted against the wrong account"`
}

// TransactionListFilter represents filter options for the transaction list
// @Description Filter options for listing ledger transactions
type TransactionListFilter struct {
	CashBoxID string `form:"cashbox_id" binding:"omitempty,uuid"`
	UserID    string `form:"user_id" binding:"omitempty,uuid"`
	Type      string `form:"type" binding:"omitempty,oneof=DEPOSIT WITHDRAW TRANSFER REVERSAL"`
	DateFrom  string `form:"date_from" example:"2026-01-01"`
	DateTo    string `form:"date_to" example:"2026-01-31"`
	Page      int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
}

// CreateCashBox godoc
// @ID           createCashBox
// @Summary      Create a cashbox
// @Description  Open a new cashbox for an owner, optionally as the default for its type
// @Tags         cashboxes
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body CreateCashBoxRequest true "Cashbox to create"
// @Success      201 {object} APIResponse[any]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /finance/cashboxes [post]
func (h *CashBoxHandler) CreateCashBox(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req CreateCashBoxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		h.BadRequest(c, "Invalid owner ID format")
		return
	}

	box, err := h.balanceService.CreateCashBox(c.Request.Context(), financeapp.CreateCashBoxRequest{
		TenantID:  tenantID,
		OwnerID:   ownerID,
		Name:      req.Name,
		Type:      ledger.CashBoxType(req.Type),
		IsDefault: req.IsDefault,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, box)
}

// GetCashBox godoc
// @ID           getCashBox
// @Summary      Get cashbox by ID
// @Tags         cashboxes
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Cashbox ID" format(uuid)
// @Success      200 {object} APIResponse[any]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Router       /finance/cashboxes/{id} [get]
func (h *CashBoxHandler) GetCashBox(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	boxID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid cashbox ID format")
		return
	}

	box, err := h.balanceService.GetCashBox(c.Request.Context(), tenantID, boxID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, box)
}

// ListCashBoxes godoc
// @ID           listCashBoxes
// @Summary      List cashboxes for an owner
// @Tags         cashboxes
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        owner_id query string true "Owner ID" format(uuid)
// @Success      200 {object} APIResponse[any]
// @Failure      400 {object} dto.ErrorResponse
// @Router       /finance/cashboxes [get]
func (h *CashBoxHandler) ListCashBoxes(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	ownerID, err := uuid.Parse(c.Query("owner_id"))
	if err != nil {
		h.BadRequest(c, "Invalid owner ID format")
		return
	}

	boxes, err := h.balanceService.ListCashBoxes(c.Request.Context(), tenantID, ownerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, boxes)
}

// Deposit godoc
// @ID           depositFunds
// @Summary      Deposit funds
// @Description  Record a deposit into a cashbox and mutate its balance atomically
// @Tags         balance
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body DepositRequest true "Deposit request"
// @Success      201 {object} APIResponse[any]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Router       /finance/deposits [post]
func (h *CashBoxHandler) Deposit(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	cashBoxID, err := parseOptionalUUID(req.CashBoxID)
	if err != nil {
		h.BadRequest(c, "Invalid cashbox ID format")
		return
	}

	operatorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Operator identification required")
		return
	}

	result, err := h.balanceService.Deposit(c.Request.Context(), financeapp.DepositRequest{
		TenantID:   tenantID,
		UserID:     userID,
		OperatorID: operatorID,
		CashBoxID:  cashBoxID,
		Method:     methodOrDefault(req.Method),
		Amount:     decimal.NewFromFloat(req.Amount),
		Reference:  req.Reference,
		Remark:     req.Remark,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// Withdraw godoc
// @ID           withdrawFunds
// @Summary      Withdraw funds
// @Description  Record a withdrawal from a cashbox and mutate its balance atomically
// @Tags         balance
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body WithdrawRequest true "Withdrawal request"
// @Success      201 {object} APIResponse[any]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Router       /finance/withdrawals [post]
func (h *CashBoxHandler) Withdraw(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	cashBoxID, err := parseOptionalUUID(req.CashBoxID)
	if err != nil {
		h.BadRequest(c, "Invalid cashbox ID format")
		return
	}

	operatorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Operator identification required")
		return
	}

	result, err := h.balanceService.Withdraw(c.Request.Context(), financeapp.WithdrawRequest{
		TenantID:   tenantID,
		UserID:     userID,
		OperatorID: operatorID,
		CashBoxID:  cashBoxID,
		Method:     methodOrDefault(req.Method),
		Amount:     decimal.NewFromFloat(req.Amount),
		Reference:  req.Reference,
		Remark:     req.Remark,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// Transfer godoc
// @ID           transferFunds
// @Summary      Transfer funds between cashboxes
// @Description  Move funds from one cashbox to another in a single atomic operation
// @Tags         balance
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body TransferRequest true "Transfer request"
// @Success      201 {object} APIResponse[any]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Router       /finance/transfers [post]
func (h *CashBoxHandler) Transfer(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sourceUserID, err := uuid.Parse(req.SourceUserID)
	if err != nil {
		h.BadRequest(c, "Invalid source user ID format")
		return
	}

	targetUserID, err := uuid.Parse(req.TargetUserID)
	if err != nil {
		h.BadRequest(c, "Invalid target user ID format")
		return
	}

	sourceCashBoxID, err := parseOptionalUUID(req.SourceCashBoxID)
	if err != nil {
		h.BadRequest(c, "Invalid source cashbox ID format")
		return
	}

	targetCashBoxID, err := parseOptionalUUID(req.TargetCashBoxID)
	if err != nil {
		h.BadRequest(c, "Invalid target cashbox ID format")
		return
	}

	operatorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Operator identification required")
		return
	}

	result, err := h.balanceService.Transfer(c.Request.Context(), financeapp.TransferRequest{
		TenantID:        tenantID,
		SourceUserID:    sourceUserID,
		TargetUserID:    targetUserID,
		OperatorID:      operatorID,
		SourceCashBoxID: sourceCashBoxID,
		TargetCashBoxID: targetCashBoxID,
		Method:          methodOrDefault(req.Method),
		Amount:          decimal.NewFromFloat(req.Amount),
		Reference:       req.Reference,
		Remark:          req.Remark,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// ListTransactions godoc
// @ID           listLedgerTransactions
// @Summary      List ledger transactions
// @Description  List audit transactions with optional filtering by cashbox, user, type and date range
// @Tags         transactions
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        cashbox_id query string false "Cashbox ID" format(uuid)
// @Param        user_id query string false "User ID" format(uuid)
// @Param        type query string false "Transaction type" Enums(DEPOSIT, WITHDRAW, TRANSFER, REVERSAL)
// @Param        date_from query string false "Start date (YYYY-MM-DD)"
// @Param        date_to query string false "End date (YYYY-MM-DD)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[any]
// @Failure      400 {object} dto.ErrorResponse
// @Router       /finance/transactions [get]
func (h *CashBoxHandler) ListTransactions(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter TransactionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := ledger.TransactionFilter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}

	if filter.CashBoxID != "" {
		id, err := uuid.Parse(filter.CashBoxID)
		if err != nil {
			h.BadRequest(c, "Invalid cashbox ID format")
			return
		}
		domainFilter.CashBoxID = &id
	}
	if filter.UserID != "" {
		id, err := uuid.Parse(filter.UserID)
		if err != nil {
			h.BadRequest(c, "Invalid user ID format")
			return
		}
		domainFilter.UserID = &id
	}
	if filter.Type != "" {
		txType := ledger.TransactionType(filter.Type)
		domainFilter.Type = &txType
	}
	if filter.DateFrom != "" {
		from, err := time.Parse("2006-01-02", filter.DateFrom)
		if err != nil {
			h.BadRequest(c, "Invalid date_from format, expected YYYY-MM-DD")
			return
		}
		domainFilter.DateFrom = &from
	}
	if filter.DateTo != "" {
		to, err := time.Parse("2006-01-02", filter.DateTo)
		if err != nil {
			h.BadRequest(c, "Invalid date_to format, expected YYYY-MM-DD")
			return
		}
		// Inclusive end of day
		to = to.Add(24*time.Hour - time.Nanosecond)
		domainFilter.DateTo = &to
	}

	transactions, total, err := h.balanceService.ListTransactions(c.Request.Context(), tenantID, domainFilter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, transactions, total, filter.Page, filter.PageSize)
}

// ReverseTransaction godoc
// @ID           reverseTransaction
// @Summary      Reverse a transaction
// @Description  Undo a posted transaction by recording a compensating reversal linked to the original
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Transaction ID" format(uuid)
// @Param        request body ReverseTransactionRequest true "Reversal request"
// @Success      201 {object} APIResponse[any]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Router       /finance/transactions/{id}/reverse [post]
func (h *CashBoxHandler) ReverseTransaction(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID format")
		return
	}

	var req ReverseTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	operatorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Operator identification required")
		return
	}

	result, err := h.reversalService.ReverseTransaction(c.Request.Context(), financeapp.ReversalRequest{
		TenantID:      tenantID,
		TransactionID: transactionID,
		OperatorID:    operatorID,
		Reason:        req.Reason,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// parseOptionalUUID parses a nullable UUID string from a request body
func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// methodOrDefault maps a request method string to a cashbox type, defaulting to CASH
func methodOrDefault(method string) ledger.CashBoxType {
	if method == "" {
		return ledger.CashBoxTypeCash
	}
	return ledger.CashBoxType(method)
}
