package handler

import (
	"time"

	financeapp "github.com/bizledger/backend/internal/application/finance"
	"github.com/bizledger/backend/internal/domain/installment"
	"github.com/bizledger/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstallmentHandler handles installment plan and payment API endpoints
type InstallmentHandler struct {
	BaseHandler
	planService       *financeapp.PlanService
	allocationService *financeapp.AllocationService
}

// NewInstallmentHandler creates a new InstallmentHandler
func NewInstallmentHandler(planService *financeapp.PlanService, allocationService *financeapp.AllocationService) *InstallmentHandler {
	return &InstallmentHandler{
		planService:       planService,
		allocationService: allocationService,
	}
}

// CreatePlanRequest represents a request to generate an installment plan
// @Description Request body for creating an installment plan
type CreatePlanRequest struct {
	DebtorID             string  `json:"debtor_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	TotalAmount          float64 `json:"total_amount" binding:"required,gt=0" example:"1000.00"`
	DownPayment          float64 `json:"down_payment" binding:"gte=0" example:"200.00"`
	NumberOfInstallments int     `json:"number_of_installments" binding:"required,min=1,max=360" example:"8"`
	StartDate            string  `json:"start_date" binding:"required" example:"2026-03-01"`
	RoundStep            float64 `json:"round_step" binding:"gte=0" example:"10"`
}

// CancelPlanRequest represents a request to cancel a plan
// @Description Request body for canceling an installment plan
type CancelPlanRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500" example:"Debt settled out of band"`
}

// AllocatePaymentRequest represents a payment against a plan
// @Description Request body for allocating a payment to a plan
type AllocatePaymentRequest struct {
	PayerID                string   `json:"payer_id" binding:"required,uuid"`
	PayeeID                string   `json:"payee_id" binding:"required,uuid"`
	Amount                 float64  `json:"amount" binding:"required,gt=0" example:"250.00"`
	Method                 string   `json:"method" binding:"omitempty,oneof=CASH BANK WALLET OTHER" example:"CASH"`
	SelectedInstallmentIDs []string `json:"selected_installment_ids" binding:"omitempty,dive,uuid"`
	PayerCashBoxID         *string  `json:"payer_cashbox_id" binding:"omitempty,uuid"`
	PayeeCashBoxID         *string  `json:"payee_cashbox_id" binding:"omitempty,uuid"`
	Notes                  string   `json:"notes" binding:"max=500"`
}

// PlanListFilter represents filter options for the plan list
// @Description Filter options for listing installment plans
type PlanListFilter struct {
	DebtorID string `form:"debtor_id" binding:"omitempty,uuid"`
	Status   string `form:"status" binding:"omitempty,oneof=PENDING ACTIVE COMPLETED CANCELED"`
	Page     int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
}

// CreatePlan godoc
// @ID           createInstallmentPlan
// @Summary      Create an installment plan
// @Description  Generate an amortized schedule for a debt and persist it with its installments
// @Tags         installments
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body CreatePlanRequest true "Plan to create"
// @Success      201 {object} APIResponse[any]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Router       /finance/installment-plans [post]
func (h *InstallmentHandler) CreatePlan(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	debtorID, err := uuid.Parse(req.DebtorID)
	if err != nil {
		h.BadRequest(c, "Invalid debtor ID format")
		return
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		h.BadRequest(c, "Invalid start_date format, expected YYYY-MM-DD")
		return
	}

	operatorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Operator identification required")
		return
	}

	plan, err := h.planService.CreatePlan(c.Request.Context(), financeapp.CreatePlanRequest{
		TenantID:             tenantID,
		DebtorID:             debtorID,
		OperatorID:           operatorID,
		TotalAmount:          decimal.NewFromFloat(req.TotalAmount),
		DownPayment:          decimal.NewFromFloat(req.DownPayment),
		NumberOfInstallments: req.NumberOfInstallments,
		StartDate:            startDate,
		RoundStep:            decimal.NewFromFloat(req.RoundStep),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, plan)
}

// GetPlan godoc
// @ID           getInstallmentPlan
// @Summary      Get installment plan by ID
// @Description  Get a plan with its full installment schedule
// @Tags         installments
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Plan ID" format(uuid)
// @Success      200 {object} APIResponse[any]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Router       /finance/installment-plans/{id} [get]
func (h *InstallmentHandler) GetPlan(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid plan ID format")
		return
	}

	plan, err := h.planService.GetPlan(c.Request.Context(), tenantID, planID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, plan)
}

// ListPlans godoc
// @ID           listInstallmentPlans
// @Summary      List installment plans
// @Description  List plans with optional filtering by debtor and status
// @Tags         installments
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        debtor_id query string false "Debtor ID" format(uuid)
// @Param        status query string false "Plan status" Enums(PENDING, ACTIVE, COMPLETED, CANCELED)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[any]
// @Failure      400 {object} dto.ErrorResponse
// @Router       /finance/installment-plans [get]
func (h *InstallmentHandler) ListPlans(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter PlanListFilter
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

	domainFilter := installment.PlanFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
		},
	}

	if filter.DebtorID != "" {
		id, err := uuid.Parse(filter.DebtorID)
		if err != nil {
			h.BadRequest(c, "Invalid debtor ID format")
			return
		}
		domainFilter.DebtorID = &id
	}
	if filter.Status != "" {
		status := installment.PlanStatus(filter.Status)
		domainFilter.Status = &status
	}

	page, err := h.planService.ListPlans(c.Request.Context(), tenantID, domainFilter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, filter.Page, filter.PageSize)
}

// CancelPlan godoc
// @ID           cancelInstallmentPlan
// @Summary      Cancel an installment plan
// @Description  Cancel a plan and void its outstanding installments
// @Tags         installments
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Plan ID" format(uuid)
// @Param        request body CancelPlanRequest true "Cancellation request"
// @Success      200 {object} APIResponse[any]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Router       /finance/installment-plans/{id}/cancel [post]
func (h *InstallmentHandler) CancelPlan(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid plan ID format")
		return
	}

	var req CancelPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	operatorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Operator identification required")
		return
	}

	plan, err := h.planService.CancelPlan(c.Request.Context(), tenantID, planID, req.Reason, operatorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, plan)
}

// AllocatePayment godoc
// @ID           allocateInstallmentPayment
// @Summary      Allocate a payment to a plan
// @Description  Distribute a payment across a plan's installments, selected ones first, then the rest oldest-first
// @Tags         installments
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        Idempotency-Key header string false "Idempotency key for safe retries"
// @Param        id path string true "Plan ID" format(uuid)
// @Param        request body AllocatePaymentRequest true "Payment to allocate"
// @Success      201 {object} APIResponse[any]
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Failure      422 {object} dto.ErrorResponse
// @Router       /finance/installment-plans/{id}/payments [post]
func (h *InstallmentHandler) AllocatePayment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid plan ID format")
		return
	}

	var req AllocatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payerID, err := uuid.Parse(req.PayerID)
	if err != nil {
		h.BadRequest(c, "Invalid payer ID format")
		return
	}

	payeeID, err := uuid.Parse(req.PayeeID)
	if err != nil {
		h.BadRequest(c, "Invalid payee ID format")
		return
	}

	selected := make([]uuid.UUID, 0, len(req.SelectedInstallmentIDs))
	for _, raw := range req.SelectedInstallmentIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid installment ID format")
			return
		}
		selected = append(selected, id)
	}

	payerCashBoxID, err := parseOptionalUUID(req.PayerCashBoxID)
	if err != nil {
		h.BadRequest(c, "Invalid payer cashbox ID format")
		return
	}

	payeeCashBoxID, err := parseOptionalUUID(req.PayeeCashBoxID)
	if err != nil {
		h.BadRequest(c, "Invalid payee cashbox ID format")
		return
	}

	operatorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Operator identification required")
		return
	}

	method := installment.PaymentMethodCash
	if req.Method != "" {
		method = installment.PaymentMethod(req.Method)
	}

	result, err := h.allocationService.AllocatePayment(c.Request.Context(), financeapp.AllocationRequest{
		TenantID:               tenantID,
		PlanID:                 planID,
		PayerID:                payerID,
		PayeeID:                payeeID,
		OperatorID:             operatorID,
		SelectedInstallmentIDs: selected,
		Amount:                 decimal.NewFromFloat(req.Amount),
		Method:                 method,
		Notes:                  req.Notes,
		PayerCashBoxID:         payerCashBoxID,
		PayeeCashBoxID:         payeeCashBoxID,
		IdempotencyKey:         c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// ListPayments godoc
// @ID           listInstallmentPayments
// @Summary      List payments for a plan
// @Description  List a plan's allocation history, oldest payment first
// @Tags         installments
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Plan ID" format(uuid)
// @Success      200 {object} APIResponse[any]
// @Failure      400 {object} dto.ErrorResponse
// @Router       /finance/installment-plans/{id}/payments [get]
func (h *InstallmentHandler) ListPayments(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid plan ID format")
		return
	}

	payments, err := h.allocationService.ListPayments(c.Request.Context(), tenantID, planID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, payments)
}
