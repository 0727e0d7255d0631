package service

import (
	"context"
	"fmt"
	"strings"

	"shoptracker/internal/domain"
	"shoptracker/internal/excel"
	"shoptracker/internal/inventory"

	"github.com/shopspring/decimal"
)

// stockedProduct stands in for the previous state of a new product.
var stockedProduct = domain.Product{Quantity: 1}

type CreateProductInput struct {
	Name      string          `json:"name" validate:"required,max=200"`
	SKU       string          `json:"sku" validate:"required,max=100"`
	Category  string          `json:"category" validate:"max=100"`
	Quantity  int             `json:"quantity" validate:"min=0,max=2147483647"`
	MinStock  *int            `json:"min_stock" validate:"omitempty,min=0,max=2147483647"`
	Price     decimal.Decimal `json:"price"`
	CostPrice decimal.Decimal `json:"cost_price"`
}

func (s *Service) QueryProducts(ctx context.Context, tenantID string, query inventory.ProductQuery) (inventory.ProductPage, error) {
	if err := requireTenant(tenantID); err != nil {
		return inventory.ProductPage{}, err
	}
	if query.Sort != "" && !inventory.IsProductSortField(query.Sort) {
		return inventory.ProductPage{}, fmt.Errorf("%w: unknown sort field %q", domain.ErrValidation, query.Sort)
	}
	snap, err := s.snapshot(ctx, tenantID)
	if err != nil {
		return inventory.ProductPage{}, err
	}
	return inventory.QueryProducts(snap.Products, query), nil
}

func (s *Service) Categories(ctx context.Context, tenantID string) ([]string, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	snap, err := s.snapshot(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return inventory.Categories(snap.Products), nil
}

// GetProduct reads through to the store so a product created on another
// instance is visible before its change event arrives.
func (s *Service) GetProduct(ctx context.Context, tenantID, id string) (domain.Product, error) {
	if err := requireTenant(tenantID); err != nil {
		return domain.Product{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, domain.ErrNotFound
	}
	return s.repo.GetProduct(ctx, tenantID, id)
}

func (s *Service) CreateProduct(ctx context.Context, tenantID, actor string, input CreateProductInput) (domain.Product, error) {
	if err := requireTenant(tenantID); err != nil {
		return domain.Product{}, err
	}
	input.Name = strings.TrimSpace(input.Name)
	input.SKU = strings.TrimSpace(input.SKU)
	input.Category = strings.TrimSpace(input.Category)
	if err := s.validateInput(input); err != nil {
		return domain.Product{}, err
	}
	if err := validateMoney(input.Price, input.CostPrice); err != nil {
		return domain.Product{}, err
	}

	p := domain.Product{
		ID:        s.opts.NewID(),
		TenantID:  tenantID,
		Name:      input.Name,
		SKU:       input.SKU,
		Category:  input.Category,
		Quantity:  input.Quantity,
		MinStock:  s.opts.DefaultMinStock,
		Price:     input.Price.Round(2),
		CostPrice: input.CostPrice.Round(2),
	}
	if p.Category == "" {
		p.Category = excel.DefaultCategory
	}
	if input.MinStock != nil {
		p.MinStock = *input.MinStock
	}

	created, err := s.repo.CreateProduct(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}
	s.emit(ctx, domain.ProductUpsertedEvent(tenantID, created, created.UpdatedAt))
	s.alertOnTransition(ctx, tenantID, stockedProduct, created)
	s.recordActivity(ctx, tenantActivity(tenantID, actor, "product_created", "Product added",
		fmt.Sprintf("%s (%s), quantity %d", created.Name, created.SKU, created.Quantity)))
	return created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, tenantID, actor, id string, patch domain.ProductPatch) (domain.Product, error) {
	if err := requireTenant(tenantID); err != nil {
		return domain.Product{}, err
	}
	patch = trimPatch(patch)
	if patch.IsEmpty() {
		return domain.Product{}, fmt.Errorf("%w: no fields to update", domain.ErrValidation)
	}
	if err := s.validateInput(patch); err != nil {
		return domain.Product{}, err
	}
	if patch.Name != nil && *patch.Name == "" {
		return domain.Product{}, fmt.Errorf("%w: name cannot be empty", domain.ErrValidation)
	}
	if patch.SKU != nil && *patch.SKU == "" {
		return domain.Product{}, fmt.Errorf("%w: sku cannot be empty", domain.ErrValidation)
	}
	if patch.Price != nil {
		if err := validateMoney(*patch.Price); err != nil {
			return domain.Product{}, err
		}
		rounded := patch.Price.Round(2)
		patch.Price = &rounded
	}
	if patch.CostPrice != nil {
		if err := validateMoney(*patch.CostPrice); err != nil {
			return domain.Product{}, err
		}
		rounded := patch.CostPrice.Round(2)
		patch.CostPrice = &rounded
	}

	before, after, err := s.repo.UpdateProduct(ctx, tenantID, strings.TrimSpace(id), patch)
	if err != nil {
		return domain.Product{}, err
	}
	s.emit(ctx, domain.ProductUpsertedEvent(tenantID, after, after.UpdatedAt))
	s.alertOnTransition(ctx, tenantID, before, after)
	s.recordActivity(ctx, tenantActivity(tenantID, actor, "product_updated", "Product updated",
		fmt.Sprintf("%s (%s)", after.Name, after.SKU)))
	return after, nil
}

func (s *Service) DeleteProduct(ctx context.Context, tenantID, actor, id string) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.ErrNotFound
	}
	if err := s.repo.DeleteProduct(ctx, tenantID, id); err != nil {
		return err
	}
	s.emit(ctx, domain.ProductDeletedEvent(tenantID, id, s.opts.Now()))
	s.recordActivity(ctx, tenantActivity(tenantID, actor, "product_deleted", "Product deleted", id))
	return nil
}

func trimPatch(patch domain.ProductPatch) domain.ProductPatch {
	trim := func(value *string) *string {
		if value == nil {
			return nil
		}
		trimmed := strings.TrimSpace(*value)
		return &trimmed
	}
	patch.Name = trim(patch.Name)
	patch.SKU = trim(patch.SKU)
	patch.Category = trim(patch.Category)
	return patch
}

func validateMoney(values ...decimal.Decimal) error {
	for _, value := range values {
		if value.IsNegative() {
			return fmt.Errorf("%w: prices cannot be negative", domain.ErrValidation)
		}
		if value.Round(2).GreaterThan(domain.MaxMoney) {
			return fmt.Errorf("%w: prices cannot exceed %s", domain.ErrValidation, domain.MaxMoney)
		}
	}
	return nil
}
