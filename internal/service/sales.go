package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shoptracker/internal/domain"
	"shoptracker/internal/inventory"
	"shoptracker/internal/repository"

	"go.uber.org/zap"
)

type SellResult struct {
	Product domain.Product `json:"product"`
	Sale    domain.Sale    `json:"sale"`
}

// SellProduct records a sale and decrements stock atomically. Quantity must
// be positive and may not exceed the product's stock.
func (s *Service) SellProduct(ctx context.Context, tenantID, actor, productID string, quantity int) (SellResult, error) {
	if err := requireTenant(tenantID); err != nil {
		return SellResult{}, err
	}
	if quantity <= 0 {
		return SellResult{}, domain.ErrInvalidQuantity
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return SellResult{}, domain.ErrNotFound
	}

	product, sale, err := s.repo.SellProduct(ctx, repository.SellInput{
		TenantID:  tenantID,
		ProductID: productID,
		SaleID:    s.opts.NewID(),
		Quantity:  quantity,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) && s.metrics != nil {
			s.metrics.StockConflict()
		}
		return SellResult{}, err
	}
	if s.metrics != nil {
		s.metrics.SaleRecorded()
	}

	s.emit(ctx,
		domain.ProductUpsertedEvent(tenantID, product, product.UpdatedAt),
		domain.SaleCreatedEvent(tenantID, sale, sale.SoldAt),
	)

	before := product
	before.Quantity += quantity
	s.alertOnTransition(ctx, tenantID, before, product)

	s.recordActivity(ctx, tenantActivity(tenantID, actor, "sale_recorded", "Sale recorded",
		fmt.Sprintf("%d x %s for %s", sale.Quantity, sale.ProductName, sale.TotalAmount.StringFixed(2))))
	s.logger.Info("sale recorded",
		zap.String("tenant_id", tenantID),
		zap.String("product_id", product.ID),
		zap.Int("quantity", quantity),
		zap.Int("remaining", product.Quantity),
	)
	return SellResult{Product: product, Sale: sale}, nil
}

func (s *Service) QuerySales(ctx context.Context, tenantID string, query inventory.SaleQuery) (inventory.SalePage, error) {
	if err := requireTenant(tenantID); err != nil {
		return inventory.SalePage{}, err
	}
	if query.From != nil && query.To != nil && query.To.Before(*query.From) {
		return inventory.SalePage{}, fmt.Errorf("%w: to must not be before from", domain.ErrValidation)
	}
	snap, err := s.snapshot(ctx, tenantID)
	if err != nil {
		return inventory.SalePage{}, err
	}
	return inventory.QuerySales(snap.Sales, query), nil
}

func (s *Service) SalesStats(ctx context.Context, tenantID string) (inventory.SalesStats, error) {
	if err := requireTenant(tenantID); err != nil {
		return inventory.SalesStats{}, err
	}
	snap, err := s.snapshot(ctx, tenantID)
	if err != nil {
		return inventory.SalesStats{}, err
	}
	return inventory.ComputeSalesStats(snap.Sales, s.opts.Now()), nil
}
