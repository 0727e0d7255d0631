package repository

import (
	"context"
	"errors"
	"fmt"

	"shoptracker/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type SellInput struct {
	TenantID  string
	ProductID string
	SaleID    string
	Quantity  int
}

// ListSales returns every sale of a tenant, newest first.
func (r *Repository) ListSales(ctx context.Context, tenantID string) ([]domain.Sale, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+saleColumns+`
		FROM sales
		WHERE tenant_id = $1
		ORDER BY sold_at DESC, id DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	sales, err := pgx.CollectRows(rows, scanSale)
	if err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}
	return sales, nil
}

// SellProduct decrements stock and records the sale in one transaction.
// The decrement only matches when enough stock remains, so concurrent sales
// of the same product cannot drive quantity below zero.
func (r *Repository) SellProduct(ctx context.Context, input SellInput) (domain.Product, domain.Sale, error) {
	if input.Quantity <= 0 {
		return domain.Product{}, domain.Sale{}, domain.ErrInvalidQuantity
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Product{}, domain.Sale{}, fmt.Errorf("begin sell tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE products
		SET
			quantity = quantity - $3,
			version = version + 1,
			updated_at = clock_timestamp()
		WHERE tenant_id = $1 AND id = $2 AND quantity >= $3
		RETURNING `+productColumns,
		input.TenantID,
		input.ProductID,
		input.Quantity,
	)
	product, err := scanProductRow(row)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, domain.Sale{}, fmt.Errorf("decrement stock: %w", err)
		}
		var exists bool
		if err := tx.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM products WHERE tenant_id = $1 AND id = $2)",
			input.TenantID, input.ProductID,
		).Scan(&exists); err != nil {
			return domain.Product{}, domain.Sale{}, fmt.Errorf("check product %s: %w", input.ProductID, err)
		}
		if !exists {
			return domain.Product{}, domain.Sale{}, domain.ErrNotFound
		}
		return domain.Product{}, domain.Sale{}, domain.ErrInsufficientStock
	}

	total := product.Price.Mul(decimal.NewFromInt(int64(input.Quantity)))
	if total.GreaterThan(domain.MaxMoney) {
		return domain.Product{}, domain.Sale{}, fmt.Errorf("%w: sale total exceeds %s", domain.ErrValidation, domain.MaxMoney)
	}
	row = tx.QueryRow(ctx, `
		INSERT INTO sales (
			id,
			tenant_id,
			product_id,
			product_name,
			quantity,
			unit_price,
			total_amount,
			sold_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, clock_timestamp())
		RETURNING `+saleColumns,
		input.SaleID,
		input.TenantID,
		product.ID,
		product.Name,
		input.Quantity,
		product.Price,
		total,
	)
	sale, err := scanSaleRow(row)
	if err != nil {
		return domain.Product{}, domain.Sale{}, fmt.Errorf("insert sale: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Product{}, domain.Sale{}, fmt.Errorf("commit sell tx: %w", err)
	}
	return product, sale, nil
}
