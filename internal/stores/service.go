package stores

import (
	"context"
	"strings"
)

// Service orchestrates master-data maintenance.
type Service struct {
	repo *Repository
}

// NewService builds the service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// ListStores returns stores filtered by status ("" for all).
func (s *Service) ListStores(ctx context.Context, status string) ([]Store, error) {
	return s.repo.ListStores(ctx, status)
}

// GetStore fetches a store by id.
func (s *Service) GetStore(ctx context.Context, id int64) (Store, error) {
	return s.repo.GetStore(ctx, id)
}

// CreateStore registers a new store, active by default.
func (s *Service) CreateStore(ctx context.Context, input CreateStoreInput) (Store, error) {
	return s.repo.InsertStore(ctx, Store{
		Code:     strings.TrimSpace(input.Code),
		Name:     strings.TrimSpace(input.Name),
		Region:   strings.TrimSpace(input.Region),
		Address:  strings.TrimSpace(input.Address),
		Status:   StoreActive,
		OpenedAt: input.OpenedAt,
	})
}

// UpdateStore applies partial changes to a store.
func (s *Service) UpdateStore(ctx context.Context, id int64, input UpdateStoreInput) (Store, error) {
	st, err := s.repo.GetStore(ctx, id)
	if err != nil {
		return Store{}, err
	}
	if input.Name != nil {
		st.Name = strings.TrimSpace(*input.Name)
	}
	if input.Region != nil {
		st.Region = strings.TrimSpace(*input.Region)
	}
	if input.Address != nil {
		st.Address = strings.TrimSpace(*input.Address)
	}
	if input.Status != nil {
		st.Status = *input.Status
	}
	return s.repo.UpdateStore(ctx, st)
}

// ListProducts returns products.
func (s *Service) ListProducts(ctx context.Context, category string, activeOnly bool) ([]Product, error) {
	return s.repo.ListProducts(ctx, category, activeOnly)
}

// GetProduct fetches a product by id.
func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// CreateProduct registers a new product, active by default.
func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput) (Product, error) {
	return s.repo.InsertProduct(ctx, Product{
		Code:     strings.TrimSpace(input.Code),
		Name:     strings.TrimSpace(input.Name),
		Category: strings.TrimSpace(input.Category),
		Price:    input.Price,
		Cost:     input.Cost,
		IsActive: true,
	})
}

// UpdateProduct applies partial changes to a product.
func (s *Service) UpdateProduct(ctx context.Context, id int64, input UpdateProductInput) (Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if input.Name != nil {
		p.Name = strings.TrimSpace(*input.Name)
	}
	if input.Category != nil {
		p.Category = strings.TrimSpace(*input.Category)
	}
	if input.Price != nil {
		p.Price = *input.Price
	}
	if input.Cost != nil {
		p.Cost = *input.Cost
	}
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}
	return s.repo.UpdateProduct(ctx, p)
}
