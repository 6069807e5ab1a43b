// Package orders manages order headers and their line items.
package orders

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses. Only completed orders count toward revenue.
const (
	StatusDraft     = "draft"
	StatusCompleted = "completed"
	StatusRefunded  = "refunded"
	StatusCancelled = "cancelled"
)

// ErrNotDraft indicates a mutation allowed only on draft orders.
var ErrNotDraft = errors.New("orders: only draft orders may be deleted")

// ErrBadTransition indicates an illegal status change.
var ErrBadTransition = errors.New("orders: illegal status transition")

// Order is one order header with its items.
type Order struct {
	ID             int64           `json:"id"`
	OrderNo        string          `json:"order_no"`
	StoreID        int64           `json:"store_id"`
	BizDate        time.Time       `json:"biz_date"`
	Channel        string          `json:"channel"`
	Status         string          `json:"status"`
	GrossAmount    decimal.Decimal `json:"gross_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	NetAmount      decimal.Decimal `json:"net_amount"`
	Remark         string          `json:"remark,omitempty"`
	Items          []Item          `json:"items,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Item is one order line.
type Item struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"product_name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

// ListFilters narrows the order listing.
type ListFilters struct {
	StoreID  *int64
	Channel  string
	Status   string
	OrderNo  string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PerPage  int
}

// CreateItemInput is one requested line.
type CreateItemInput struct {
	ProductID int64           `json:"product_id" validate:"required"`
	Name      string          `json:"product_name" validate:"required,max=128"`
	Quantity  int             `json:"quantity" validate:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateOrderInput carries a new order with its items.
type CreateOrderInput struct {
	OrderNo        string            `json:"order_no" validate:"required,max=64"`
	StoreID        int64             `json:"store_id" validate:"required"`
	BizDate        string            `json:"biz_date" validate:"required"`
	Channel        string            `json:"channel" validate:"required,oneof=dine_in takeout delivery online"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
	Remark         string            `json:"remark" validate:"max=256"`
	Items          []CreateItemInput `json:"items" validate:"required,min=1,dive"`
}
