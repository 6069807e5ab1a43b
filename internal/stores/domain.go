// Package stores holds the store and product master data.
package stores

import (
	"time"

	"github.com/shopspring/decimal"
)

// Store is one physical location of the chain.
type Store struct {
	ID        int64      `json:"id"`
	Code      string     `json:"code"`
	Name      string     `json:"name"`
	Region    string     `json:"region,omitempty"`
	Address   string     `json:"address,omitempty"`
	Status    string     `json:"status"`
	OpenedAt  *time.Time `json:"opened_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Store statuses.
const (
	StoreActive = "active"
	StoreClosed = "closed"
)

// Product is one chain-wide menu item.
type Product struct {
	ID        int64           `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Category  string          `json:"category,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Cost      decimal.Decimal `json:"cost"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CreateStoreInput carries a new store.
type CreateStoreInput struct {
	Code     string     `json:"code" validate:"required,max=32"`
	Name     string     `json:"name" validate:"required,max=128"`
	Region   string     `json:"region" validate:"max=64"`
	Address  string     `json:"address" validate:"max=256"`
	OpenedAt *time.Time `json:"opened_at"`
}

// UpdateStoreInput carries partial store changes.
type UpdateStoreInput struct {
	Name    *string `json:"name" validate:"omitempty,max=128"`
	Region  *string `json:"region" validate:"omitempty,max=64"`
	Address *string `json:"address" validate:"omitempty,max=256"`
	Status  *string `json:"status" validate:"omitempty,oneof=active closed"`
}

// CreateProductInput carries a new product.
type CreateProductInput struct {
	Code     string          `json:"code" validate:"required,max=32"`
	Name     string          `json:"name" validate:"required,max=128"`
	Category string          `json:"category" validate:"max=64"`
	Price    decimal.Decimal `json:"price"`
	Cost     decimal.Decimal `json:"cost"`
}

// UpdateProductInput carries partial product changes.
type UpdateProductInput struct {
	Name     *string          `json:"name" validate:"omitempty,max=128"`
	Category *string          `json:"category" validate:"omitempty,max=64"`
	Price    *decimal.Decimal `json:"price"`
	Cost     *decimal.Decimal `json:"cost"`
	IsActive *bool            `json:"is_active"`
}
