package repository

import (
	"context"
	"errors"
	"fmt"

	"shoptracker/internal/domain"

	"github.com/jackc/pgx/v5"
)

// ListProducts returns every product of a tenant, newest first.
func (r *Repository) ListProducts(ctx context.Context, tenantID string) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func (r *Repository) GetProduct(ctx context.Context, tenantID, id string) (domain.Product, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, id)
	product, err := scanProductRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, domain.ErrNotFound
		}
		return domain.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return product, nil
}

func (r *Repository) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (
			id,
			tenant_id,
			name,
			sku,
			category,
			quantity,
			min_stock,
			price,
			cost_price
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+productColumns,
		p.ID,
		p.TenantID,
		p.Name,
		p.SKU,
		p.Category,
		p.Quantity,
		p.MinStock,
		p.Price,
		p.CostPrice,
	)
	created, err := scanProductRow(row)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Product{}, domain.ErrDuplicateSKU
		}
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

// UpdateProduct applies patch under a row lock and returns the product as it
// was before and after the update.
func (r *Repository) UpdateProduct(
	ctx context.Context,
	tenantID, id string,
	patch domain.ProductPatch,
) (domain.Product, domain.Product, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Product{}, domain.Product{}, fmt.Errorf("begin update product tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE tenant_id = $1 AND id = $2
		FOR UPDATE
	`, tenantID, id)
	before, err := scanProductRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, domain.Product{}, domain.ErrNotFound
		}
		return domain.Product{}, domain.Product{}, fmt.Errorf("load product for update: %w", err)
	}

	product := before
	product.Apply(patch, before.UpdatedAt)

	row = tx.QueryRow(ctx, `
		UPDATE products
		SET
			name = $3,
			sku = $4,
			category = $5,
			quantity = $6,
			min_stock = $7,
			price = $8,
			cost_price = $9,
			version = version + 1,
			updated_at = clock_timestamp()
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+productColumns,
		tenantID,
		id,
		product.Name,
		product.SKU,
		product.Category,
		product.Quantity,
		product.MinStock,
		product.Price,
		product.CostPrice,
	)
	after, err := scanProductRow(row)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Product{}, domain.Product{}, domain.ErrDuplicateSKU
		}
		return domain.Product{}, domain.Product{}, fmt.Errorf("update product: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Product{}, domain.Product{}, fmt.Errorf("commit update product tx: %w", err)
	}
	return before, after, nil
}

func (r *Repository) DeleteProduct(ctx context.Context, tenantID, id string) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM products WHERE tenant_id = $1 AND id = $2", tenantID, id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type UpsertResult struct {
	Created  int
	Updated  int
	Products []domain.Product
}

// UpsertProducts inserts or updates imported rows by (tenant, sku) in one
// transaction. newID supplies ids for rows that end up inserted.
func (r *Repository) UpsertProducts(
	ctx context.Context,
	tenantID string,
	rows []domain.ProductImportRow,
	newID func() string,
) (UpsertResult, error) {
	if len(rows) == 0 {
		return UpsertResult{}, nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("begin import tx: %w", err)
	}
	defer tx.Rollback(ctx)

	result := UpsertResult{Products: make([]domain.Product, 0, len(rows))}
	for _, line := range rows {
		var inserted bool
		row := tx.QueryRow(ctx, `
			INSERT INTO products (
				id,
				tenant_id,
				name,
				sku,
				category,
				quantity,
				min_stock,
				price,
				cost_price
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (tenant_id, sku)
			DO UPDATE SET
				name = EXCLUDED.name,
				category = EXCLUDED.category,
				quantity = EXCLUDED.quantity,
				min_stock = EXCLUDED.min_stock,
				price = EXCLUDED.price,
				cost_price = EXCLUDED.cost_price,
				version = products.version + 1,
				updated_at = clock_timestamp()
			RETURNING `+productColumns+`, (xmax = 0) AS inserted`,
			newID(),
			tenantID,
			line.Name,
			line.SKU,
			line.Category,
			line.Quantity,
			line.MinStock,
			line.Price,
			line.CostPrice,
		)
		var p domain.Product
		if err := row.Scan(
			&p.ID,
			&p.TenantID,
			&p.Name,
			&p.SKU,
			&p.Category,
			&p.Quantity,
			&p.MinStock,
			&p.Price,
			&p.CostPrice,
			&p.Version,
			&p.CreatedAt,
			&p.UpdatedAt,
			&inserted,
		); err != nil {
			return UpsertResult{}, fmt.Errorf("upsert imported product %q (row %d): %w", line.SKU, line.Row, err)
		}
		if inserted {
			result.Created++
		} else {
			result.Updated++
		}
		result.Products = append(result.Products, p)
	}

	if err := tx.Commit(ctx); err != nil {
		return UpsertResult{}, fmt.Errorf("commit import tx: %w", err)
	}
	return result, nil
}
