package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shoptracker/internal/domain"

	"github.com/jackc/pgx/v5"
)

// UpsertTenant registers a tenant or refreshes its profile. A nil business
// name keeps the stored one.
func (r *Repository) UpsertTenant(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tenants (id, email, display_name, business_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			email = CASE WHEN EXCLUDED.email = '' THEN tenants.email ELSE EXCLUDED.email END,
			display_name = CASE WHEN EXCLUDED.display_name = '' THEN tenants.display_name ELSE EXCLUDED.display_name END,
			business_name = COALESCE(EXCLUDED.business_name, tenants.business_name),
			updated_at = NOW()
		RETURNING id, email, display_name, business_name, created_at, updated_at
	`, tenant.ID, tenant.Email, tenant.DisplayName, tenant.BusinessName)

	saved, err := scanTenantRow(row)
	if err != nil {
		return domain.Tenant{}, fmt.Errorf("upsert tenant %s: %w", tenant.ID, err)
	}
	return saved, nil
}

const tenantStatsQuery = `
	SELECT
		t.id,
		t.email,
		t.display_name,
		t.business_name,
		t.created_at,
		t.updated_at,
		COALESCE(p.products_count, 0)::int,
		COALESCE(s.sales_count, 0)::int,
		COALESCE(s.revenue, 0)
	FROM tenants t
	LEFT JOIN (
		SELECT tenant_id, COUNT(*) AS products_count
		FROM products
		GROUP BY tenant_id
	) p ON p.tenant_id = t.id
	LEFT JOIN (
		SELECT tenant_id, COUNT(*) AS sales_count, SUM(total_amount) AS revenue
		FROM sales
		GROUP BY tenant_id
	) s ON s.tenant_id = t.id
`

func (r *Repository) ListTenantStats(ctx context.Context, limit, offset int) ([]domain.TenantStats, error) {
	limit = normalizeLimit(limit)
	offset = normalizeOffset(offset)

	rows, err := r.pool.Query(ctx, tenantStatsQuery+`
		ORDER BY t.created_at DESC, t.id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	list := make([]domain.TenantStats, 0, limit)
	for rows.Next() {
		stats, err := scanTenantStatsRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		list = append(list, stats)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenants: %w", err)
	}
	return list, nil
}

func (r *Repository) GetTenantStats(ctx context.Context, tenantID string) (domain.TenantStats, error) {
	row := r.pool.QueryRow(ctx, tenantStatsQuery+" WHERE t.id = $1", tenantID)
	stats, err := scanTenantStatsRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TenantStats{}, domain.ErrNotFound
		}
		return domain.TenantStats{}, fmt.Errorf("get tenant %s: %w", tenantID, err)
	}
	return stats, nil
}

func (r *Repository) CountTenants(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*)::int FROM tenants").Scan(&total); err != nil {
		return 0, fmt.Errorf("count tenants: %w", err)
	}
	return total, nil
}

func scanTenantRow(row pgx.Row) (domain.Tenant, error) {
	var (
		tenant   domain.Tenant
		business sql.NullString
	)
	if err := row.Scan(
		&tenant.ID,
		&tenant.Email,
		&tenant.DisplayName,
		&business,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	); err != nil {
		return domain.Tenant{}, err
	}
	tenant.BusinessName = nullableString(business)
	return tenant, nil
}

func scanTenantStatsRow(row pgx.Row) (domain.TenantStats, error) {
	var (
		stats    domain.TenantStats
		business sql.NullString
	)
	if err := row.Scan(
		&stats.ID,
		&stats.Email,
		&stats.DisplayName,
		&business,
		&stats.CreatedAt,
		&stats.UpdatedAt,
		&stats.ProductsCount,
		&stats.SalesCount,
		&stats.TotalRevenue,
	); err != nil {
		return domain.TenantStats{}, err
	}
	stats.BusinessName = nullableString(business)
	return stats, nil
}
