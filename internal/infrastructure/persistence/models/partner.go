package models

import (
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// ContactColumns are the contact fields shared by the customers and suppliers tables.
type ContactColumns struct {
	Name    string `gorm:"type:varchar(200);not null"`
	Phone   string `gorm:"type:varchar(50);index"`
	Email   string `gorm:"type:varchar(200)"`
	Address string `gorm:"type:text"`
}

func contactColumns(c partner.Contact) ContactColumns {
	return ContactColumns{Name: c.Name, Phone: c.Phone, Email: c.Email, Address: c.Address}
}

func (c ContactColumns) contact() partner.Contact {
	return partner.Contact{Name: c.Name, Phone: c.Phone, Email: c.Email, Address: c.Address}
}

// CustomerModel maps partner.Customer. TotalDebt is the cached sum of the
// customer's open debts.
type CustomerModel struct {
	ShopAggregateModel
	ContactColumns `gorm:"embedded"`
	TotalDebt      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

func (CustomerModel) TableName() string { return "customers" }

func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		ShopAggregateRoot: m.ToShopAggregateRoot(),
		Contact:           m.contact(),
		TotalDebt:         m.TotalDebt,
	}
}

func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainShopAggregateRoot(c.ShopAggregateRoot)
	m.ContactColumns = contactColumns(c.Contact)
	m.TotalDebt = c.TotalDebt
}

func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}

// SupplierModel maps partner.Supplier. Its balance is always summed from debts_to_pay.
type SupplierModel struct {
	ShopAggregateModel
	ContactColumns `gorm:"embedded"`
}

func (SupplierModel) TableName() string { return "suppliers" }

func (m *SupplierModel) ToDomain() *partner.Supplier {
	return &partner.Supplier{
		ShopAggregateRoot: m.ToShopAggregateRoot(),
		Contact:           m.contact(),
	}
}

func (m *SupplierModel) FromDomain(s *partner.Supplier) {
	m.FromDomainShopAggregateRoot(s.ShopAggregateRoot)
	m.ContactColumns = contactColumns(s.Contact)
}

func SupplierModelFromDomain(s *partner.Supplier) *SupplierModel {
	m := &SupplierModel{}
	m.FromDomain(s)
	return m
}
