package repository

import (
	"database/sql"
	"errors"

	"shoptracker/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const productColumns = `
	id,
	tenant_id,
	name,
	sku,
	category,
	quantity,
	min_stock,
	price,
	cost_price,
	version,
	created_at,
	updated_at
`

const saleColumns = `
	id,
	tenant_id,
	product_id,
	product_name,
	quantity,
	unit_price,
	total_amount,
	sold_at
`

func scanProduct(rows pgx.CollectableRow) (domain.Product, error) {
	return scanProductRow(rows)
}

func scanProductRow(row pgx.Row) (domain.Product, error) {
	var product domain.Product
	if err := row.Scan(
		&product.ID,
		&product.TenantID,
		&product.Name,
		&product.SKU,
		&product.Category,
		&product.Quantity,
		&product.MinStock,
		&product.Price,
		&product.CostPrice,
		&product.Version,
		&product.CreatedAt,
		&product.UpdatedAt,
	); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func scanSale(rows pgx.CollectableRow) (domain.Sale, error) {
	return scanSaleRow(rows)
}

func scanSaleRow(row pgx.Row) (domain.Sale, error) {
	var sale domain.Sale
	if err := row.Scan(
		&sale.ID,
		&sale.TenantID,
		&sale.ProductID,
		&sale.ProductName,
		&sale.Quantity,
		&sale.UnitPrice,
		&sale.TotalAmount,
		&sale.SoldAt,
	); err != nil {
		return domain.Sale{}, err
	}
	return sale, nil
}

func nullableString(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 200
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
