package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Store column limits: counts are INTEGER, money is NUMERIC(14,2).
const MaxCount = math.MaxInt32

var MaxMoney = decimal.RequireFromString("999999999999.99")

type StockStatus string

const (
	StockInStock    StockStatus = "in-stock"
	StockLow        StockStatus = "low-stock"
	StockOutOfStock StockStatus = "out-of-stock"
)

// StockStatusOf classifies a quantity against its minimum threshold.
// Zero stock is out-of-stock even though 0 <= minStock.
func StockStatusOf(quantity, minStock int) StockStatus {
	if quantity <= 0 {
		return StockOutOfStock
	}
	if quantity <= minStock {
		return StockLow
	}
	return StockInStock
}

func ParseStockStatus(raw string) (StockStatus, bool) {
	switch StockStatus(raw) {
	case StockInStock, StockLow, StockOutOfStock:
		return StockStatus(raw), true
	}
	return "", false
}

type Product struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"-"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Category  string          `json:"category"`
	Quantity  int             `json:"quantity"`
	MinStock  int             `json:"min_stock"`
	Price     decimal.Decimal `json:"price"`
	CostPrice decimal.Decimal `json:"cost_price"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Supersedes reports whether p is at least as new as other. The store bumps
// Version on every write, so versions decide and the update time only breaks
// ties between equal versions.
func (p Product) Supersedes(other Product) bool {
	if p.Version != other.Version {
		return p.Version > other.Version
	}
	return !p.UpdatedAt.Before(other.UpdatedAt)
}

func (p Product) StockStatus() StockStatus {
	return StockStatusOf(p.Quantity, p.MinStock)
}

func (p Product) IsLowStock() bool {
	return p.StockStatus() == StockLow
}

func (p Product) IsOutOfStock() bool {
	return p.StockStatus() == StockOutOfStock
}

// StockValue is the product's inventory value at cost.
func (p Product) StockValue() decimal.Decimal {
	return p.CostPrice.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// RetailValue is the product's inventory value at its selling price.
func (p Product) RetailValue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// ProductPatch carries a partial update; nil fields are left untouched.
type ProductPatch struct {
	Name      *string          `json:"name" validate:"omitempty,min=1,max=200"`
	SKU       *string          `json:"sku" validate:"omitempty,min=1,max=100"`
	Category  *string          `json:"category" validate:"omitempty,max=100"`
	Quantity  *int             `json:"quantity" validate:"omitempty,min=0,max=2147483647"`
	MinStock  *int             `json:"min_stock" validate:"omitempty,min=0,max=2147483647"`
	Price     *decimal.Decimal `json:"price"`
	CostPrice *decimal.Decimal `json:"cost_price"`
}

func (patch ProductPatch) IsEmpty() bool {
	return patch.Name == nil &&
		patch.SKU == nil &&
		patch.Category == nil &&
		patch.Quantity == nil &&
		patch.MinStock == nil &&
		patch.Price == nil &&
		patch.CostPrice == nil
}

// Apply copies the set fields of patch onto p and stamps UpdatedAt.
func (p *Product) Apply(patch ProductPatch, now time.Time) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.SKU != nil {
		p.SKU = *patch.SKU
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Quantity != nil {
		p.Quantity = *patch.Quantity
	}
	if patch.MinStock != nil {
		p.MinStock = *patch.MinStock
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.CostPrice != nil {
		p.CostPrice = *patch.CostPrice
	}
	p.UpdatedAt = now
}

type Sale struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"-"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	SoldAt      time.Time       `json:"sold_at"`
}

type Tenant struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	BusinessName *string   `json:"business_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type TenantStats struct {
	Tenant
	ProductsCount int             `json:"products_count"`
	SalesCount    int             `json:"sales_count"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}

type SupportStatus string

const (
	SupportPending    SupportStatus = "pending"
	SupportInProgress SupportStatus = "in-progress"
	SupportResolved   SupportStatus = "resolved"
)

func ParseSupportStatus(raw string) (SupportStatus, bool) {
	switch SupportStatus(raw) {
	case SupportPending, SupportInProgress, SupportResolved:
		return SupportStatus(raw), true
	}
	return "", false
}

type SupportTicket struct {
	ID                 string        `json:"id"`
	TenantID           string        `json:"tenant_id"`
	UserEmail          string        `json:"user_email"`
	UserDisplayName    string        `json:"user_display_name"`
	Subject            string        `json:"subject"`
	Message            string        `json:"message"`
	Status             SupportStatus `json:"status"`
	TenantBusinessName *string       `json:"tenant_business_name,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

type SupportFilter struct {
	TenantID string
	Status   SupportStatus
	Limit    int
	Offset   int
}

type ActivityEntry struct {
	ID         int64     `json:"id"`
	TenantID   *string   `json:"tenant_id,omitempty"`
	Actor      string    `json:"actor"`
	ActionType string    `json:"action_type"`
	Title      string    `json:"title"`
	Details    string    `json:"details"`
	CreatedAt  time.Time `json:"created_at"`
}

type ActivityFilter struct {
	TenantID *string
	Search   string
	Limit    int
	Offset   int
}

// ProductImportRow is one validated spreadsheet row.
type ProductImportRow struct {
	Row       int             `json:"row"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Category  string          `json:"category"`
	Quantity  int             `json:"quantity"`
	MinStock  int             `json:"min_stock"`
	Price     decimal.Decimal `json:"price"`
	CostPrice decimal.Decimal `json:"cost_price"`
}

type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportResult struct {
	TotalRows      int              `json:"total_rows"`
	Created        int              `json:"created"`
	Updated        int              `json:"updated"`
	Errors         []ImportRowError `json:"errors,omitempty"`
	IgnoredColumns []string         `json:"ignored_columns,omitempty"`
}
