package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DebtBalanceModel holds the money columns shared by both debt tables
type DebtBalanceModel struct {
	Amount          decimal.Decimal                            `gorm:"type:decimal(18,4);not null"`
	PaidAmount      decimal.Decimal                            `gorm:"type:decimal(18,4);not null;default:0"`
	RemainingAmount decimal.Decimal                            `gorm:"type:decimal(18,4);not null"`
	Status          finance.DebtStatus                         `gorm:"type:varchar(20);not null;default:'UNPAID';index"`
	Payments        datatypes.JSONSlice[finance.PaymentRecord] `gorm:"not null"`
	DueDate         *time.Time
	Description     string `gorm:"type:text"`
}

func (m *DebtBalanceModel) fromDomain(b finance.DebtBalance) {
	m.Amount = b.Amount
	m.PaidAmount = b.PaidAmount
	m.RemainingAmount = b.RemainingAmount
	m.Status = b.Status
	payments := b.Payments
	if payments == nil {
		payments = []finance.PaymentRecord{}
	}
	m.Payments = datatypes.NewJSONSlice(payments)
}

func (m *DebtBalanceModel) toDomain() finance.DebtBalance {
	payments := make([]finance.PaymentRecord, len(m.Payments))
	copy(payments, m.Payments)
	return finance.DebtBalance{
		Amount:          m.Amount,
		PaidAmount:      m.PaidAmount,
		RemainingAmount: m.RemainingAmount,
		Status:          m.Status,
		Payments:        payments,
	}
}

// CustomerDebtModel is the persistence model for DebtToBePaid
type CustomerDebtModel struct {
	ShopAggregateModel
	DebtBalanceModel
	CustomerID uuid.UUID  `gorm:"type:uuid;not null;index"`
	OrderID    *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (CustomerDebtModel) TableName() string {
	return "debts_to_be_paid"
}

// ToDomain converts the persistence model to a domain DebtToBePaid
func (m *CustomerDebtModel) ToDomain() *finance.DebtToBePaid {
	return &finance.DebtToBePaid{
		ShopAggregateRoot: m.ToShopAggregateRoot(),
		DebtBalance:       m.DebtBalanceModel.toDomain(),
		CustomerID:        m.CustomerID,
		OrderID:           m.OrderID,
		DueDate:           m.DueDate,
		Description:       m.Description,
	}
}

// FromDomain populates the persistence model from a domain DebtToBePaid
func (m *CustomerDebtModel) FromDomain(d *finance.DebtToBePaid) {
	m.FromDomainShopAggregateRoot(d.ShopAggregateRoot)
	m.DebtBalanceModel.fromDomain(d.DebtBalance)
	m.DueDate = d.DueDate
	m.Description = d.Description
	m.CustomerID = d.CustomerID
	m.OrderID = d.OrderID
}

// CustomerDebtModelFromDomain creates a new persistence model from a domain DebtToBePaid
func CustomerDebtModelFromDomain(d *finance.DebtToBePaid) *CustomerDebtModel {
	m := &CustomerDebtModel{}
	m.FromDomain(d)
	return m
}

// SupplierDebtModel is the persistence model for DebtToPay
type SupplierDebtModel struct {
	ShopAggregateModel
	DebtBalanceModel
	SupplierID uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductID  *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (SupplierDebtModel) TableName() string {
	return "debts_to_pay"
}

// ToDomain converts the persistence model to a domain DebtToPay
func (m *SupplierDebtModel) ToDomain() *finance.DebtToPay {
	return &finance.DebtToPay{
		ShopAggregateRoot: m.ToShopAggregateRoot(),
		DebtBalance:       m.DebtBalanceModel.toDomain(),
		SupplierID:        m.SupplierID,
		ProductID:         m.ProductID,
		DueDate:           m.DueDate,
		Description:       m.Description,
	}
}

// FromDomain populates the persistence model from a domain DebtToPay
func (m *SupplierDebtModel) FromDomain(d *finance.DebtToPay) {
	m.FromDomainShopAggregateRoot(d.ShopAggregateRoot)
	m.DebtBalanceModel.fromDomain(d.DebtBalance)
	m.DueDate = d.DueDate
	m.Description = d.Description
	m.SupplierID = d.SupplierID
	m.ProductID = d.ProductID
}

// SupplierDebtModelFromDomain creates a new persistence model from a domain DebtToPay
func SupplierDebtModelFromDomain(d *finance.DebtToPay) *SupplierDebtModel {
	m := &SupplierDebtModel{}
	m.FromDomain(d)
	return m
}

// ExpenseModel is the persistence model for Expense
type ExpenseModel struct {
	ShopAggregateModel
	Date        time.Time               `gorm:"not null;index"`
	Amount      decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	Description string                  `gorm:"type:text"`
	Category    finance.ExpenseCategory `gorm:"type:varchar(20);not null;default:'OTHER'"`
	RecordedBy  uuid.UUID               `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the persistence model to a domain Expense
func (m *ExpenseModel) ToDomain() *finance.Expense {
	return &finance.Expense{
		ShopAggregateRoot: m.ToShopAggregateRoot(),
		Date:              m.Date.UTC(),
		Amount:            m.Amount,
		Description:       m.Description,
		Category:          m.Category,
		RecordedBy:        m.RecordedBy,
	}
}

// ExpenseModelFromDomain creates a new persistence model from a domain Expense
func ExpenseModelFromDomain(e *finance.Expense) *ExpenseModel {
	m := &ExpenseModel{
		Date:        e.Date.UTC(),
		Amount:      e.Amount,
		Description: e.Description,
		Category:    e.Category,
		RecordedBy:  e.RecordedBy,
	}
	m.FromDomainShopAggregateRoot(e.ShopAggregateRoot)
	return m
}

// AdjustmentModel is the persistence model for Adjustment
type AdjustmentModel struct {
	ShopAggregateModel
	Date        time.Time              `gorm:"not null;index"`
	Amount      decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Type        finance.AdjustmentType `gorm:"type:varchar(20);not null"`
	Description string                 `gorm:"type:text"`
	RecordedBy  uuid.UUID              `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (AdjustmentModel) TableName() string {
	return "adjustments"
}

// ToDomain converts the persistence model to a domain Adjustment
func (m *AdjustmentModel) ToDomain() *finance.Adjustment {
	return &finance.Adjustment{
		ShopAggregateRoot: m.ToShopAggregateRoot(),
		Date:              m.Date.UTC(),
		Amount:            m.Amount,
		Type:              m.Type,
		Description:       m.Description,
		RecordedBy:        m.RecordedBy,
	}
}

// AdjustmentModelFromDomain creates a new persistence model from a domain Adjustment
func AdjustmentModelFromDomain(a *finance.Adjustment) *AdjustmentModel {
	m := &AdjustmentModel{
		Date:        a.Date.UTC(),
		Amount:      a.Amount,
		Type:        a.Type,
		Description: a.Description,
		RecordedBy:  a.RecordedBy,
	}
	m.FromDomainShopAggregateRoot(a.ShopAggregateRoot)
	return m
}
