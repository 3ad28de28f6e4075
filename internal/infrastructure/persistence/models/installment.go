package models

import (
	"time"

	"github.com/bizledger/backend/internal/domain/installment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstallmentPlanModel is the persistence model for installment.InstallmentPlan
type InstallmentPlanModel struct {
	TenantAggregateModel
	DebtorID              uuid.UUID       `gorm:"type:uuid;not null;index:idx_plans_debtor"`
	TotalAmount           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DownPayment           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	RemainingAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	RequestedInstallments int             `gorm:"not null"`
	NumberOfInstallments  int             `gorm:"not null"`
	InstallmentAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	RoundStep             decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	StartDate             time.Time       `gorm:"not null"`
	EndDate               time.Time       `gorm:"not null"`
	Status                string          `gorm:"size:20;not null;index:idx_plans_status"`
	CanceledAt            *time.Time
	CancelReason          string             `gorm:"size:500"`
	Installments          []InstallmentModel `gorm:"foreignKey:PlanID"`
}

// TableName returns the table name for InstallmentPlanModel
func (InstallmentPlanModel) TableName() string {
	return "installment_plans"
}

// InstallmentPlanModelFromDomain converts a domain plan to its persistence model
func InstallmentPlanModelFromDomain(p *installment.InstallmentPlan) *InstallmentPlanModel {
	model := &InstallmentPlanModel{
		DebtorID:              p.DebtorID,
		TotalAmount:           p.TotalAmount,
		DownPayment:           p.DownPayment,
		RemainingAmount:       p.RemainingAmount,
		RequestedInstallments: p.RequestedInstallments,
		NumberOfInstallments:  p.NumberOfInstallments,
		InstallmentAmount:     p.InstallmentAmount,
		RoundStep:             p.RoundStep,
		StartDate:             p.StartDate,
		EndDate:               p.EndDate,
		Status:                p.Status.String(),
		CanceledAt:            p.CanceledAt,
		CancelReason:          p.CancelReason,
	}
	model.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	model.Installments = make([]InstallmentModel, len(p.Installments))
	for i, inst := range p.Installments {
		model.Installments[i] = *InstallmentModelFromDomain(inst)
	}
	return model
}

// ToDomain converts the persistence model to a domain plan
func (m *InstallmentPlanModel) ToDomain() *installment.InstallmentPlan {
	p := &installment.InstallmentPlan{
		DebtorID:              m.DebtorID,
		TotalAmount:           m.TotalAmount,
		DownPayment:           m.DownPayment,
		RemainingAmount:       m.RemainingAmount,
		RequestedInstallments: m.RequestedInstallments,
		NumberOfInstallments:  m.NumberOfInstallments,
		InstallmentAmount:     m.InstallmentAmount,
		RoundStep:             m.RoundStep,
		StartDate:             m.StartDate,
		EndDate:               m.EndDate,
		Status:                installment.PlanStatus(m.Status),
		CanceledAt:            m.CanceledAt,
		CancelReason:          m.CancelReason,
	}
	m.PopulateTenantAggregateRoot(&p.TenantAggregateRoot)
	p.Installments = make([]*installment.Installment, len(m.Installments))
	for i := range m.Installments {
		p.Installments[i] = m.Installments[i].ToDomain()
	}
	return p
}

// InstallmentModel is the persistence model for installment.Installment
type InstallmentModel struct {
	BaseModel
	PlanID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_installments_plan"`
	Number    int             `gorm:"not null"`
	DueDate   time.Time       `gorm:"not null;index:idx_installments_due"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Remaining decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Status    string          `gorm:"size:20;not null"`
}

// TableName returns the table name for InstallmentModel
func (InstallmentModel) TableName() string {
	return "installments"
}

// InstallmentModelFromDomain converts a domain installment to its persistence model
func InstallmentModelFromDomain(inst *installment.Installment) *InstallmentModel {
	model := &InstallmentModel{
		PlanID:    inst.PlanID,
		Number:    inst.Number,
		DueDate:   inst.DueDate,
		Amount:    inst.Amount,
		Remaining: inst.Remaining,
		Status:    inst.Status.String(),
	}
	model.FromDomainBaseEntity(inst.BaseEntity)
	return model
}

// ToDomain converts the persistence model to a domain installment
func (m *InstallmentModel) ToDomain() *installment.Installment {
	return &installment.Installment{
		BaseEntity: m.BaseModel.ToDomain(),
		PlanID:     m.PlanID,
		Number:     m.Number,
		DueDate:    m.DueDate,
		Amount:     m.Amount,
		Remaining:  m.Remaining,
		Status:     installment.InstallmentStatus(m.Status),
	}
}

// InstallmentPaymentModel is the persistence model for installment.InstallmentPayment
type InstallmentPaymentModel struct {
	BaseModel
	TenantID   uuid.UUID                       `gorm:"type:uuid;not null;index:idx_payments_tenant"`
	PlanID     uuid.UUID                       `gorm:"type:uuid;not null;index:idx_payments_plan"`
	PayerID    uuid.UUID                       `gorm:"type:uuid;not null"`
	AmountPaid decimal.Decimal                 `gorm:"type:decimal(18,4);not null"`
	Method     string                          `gorm:"size:20;not null"`
	Notes      string                          `gorm:"size:500"`
	PaidAt     time.Time                       `gorm:"not null"`
	Details    []InstallmentPaymentDetailModel `gorm:"foreignKey:PaymentID"`
}

// TableName returns the table name for InstallmentPaymentModel
func (InstallmentPaymentModel) TableName() string {
	return "installment_payments"
}

// InstallmentPaymentModelFromDomain converts a domain payment to its persistence model
func InstallmentPaymentModelFromDomain(p *installment.InstallmentPayment) *InstallmentPaymentModel {
	model := &InstallmentPaymentModel{
		TenantID:   p.TenantID,
		PlanID:     p.PlanID,
		PayerID:    p.PayerID,
		AmountPaid: p.AmountPaid,
		Method:     p.Method.String(),
		Notes:      p.Notes,
		PaidAt:     p.PaidAt,
	}
	model.FromDomainBaseEntity(p.BaseEntity)
	model.Details = make([]InstallmentPaymentDetailModel, len(p.Details))
	for i, d := range p.Details {
		detail := InstallmentPaymentDetailModel{
			PaymentID:     d.PaymentID,
			InstallmentID: d.InstallmentID,
			AmountPaid:    d.AmountPaid,
		}
		detail.FromDomainBaseEntity(d.BaseEntity)
		model.Details[i] = detail
	}
	return model
}

// ToDomain converts the persistence model to a domain payment
func (m *InstallmentPaymentModel) ToDomain() *installment.InstallmentPayment {
	p := &installment.InstallmentPayment{
		BaseEntity: m.BaseModel.ToDomain(),
		TenantID:   m.TenantID,
		PlanID:     m.PlanID,
		PayerID:    m.PayerID,
		AmountPaid: m.AmountPaid,
		Method:     installment.PaymentMethod(m.Method),
		Notes:      m.Notes,
		PaidAt:     m.PaidAt,
	}
	p.Details = make([]*installment.InstallmentPaymentDetail, len(m.Details))
	for i := range m.Details {
		d := m.Details[i]
		p.Details[i] = &installment.InstallmentPaymentDetail{
			BaseEntity:    d.BaseModel.ToDomain(),
			PaymentID:     d.PaymentID,
			InstallmentID: d.InstallmentID,
			AmountPaid:    d.AmountPaid,
		}
	}
	return p
}

// InstallmentPaymentDetailModel is the persistence model for one payment's
// per-installment breakdown
type InstallmentPaymentDetailModel struct {
	BaseModel
	PaymentID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_payment_details_payment"`
	InstallmentID uuid.UUID       `gorm:"type:uuid;not null;index:idx_payment_details_installment"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for InstallmentPaymentDetailModel
func (InstallmentPaymentDetailModel) TableName() string {
	return "installment_payment_details"
}
