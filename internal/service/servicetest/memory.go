// Package servicetest provides an in-memory store for exercising the service
// layer without Postgres.
package servicetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"shoptracker/internal/domain"
	"shoptracker/internal/repository"

	"github.com/shopspring/decimal"
)

// MemoryRepo implements service.Repository over maps. Timestamps advance one
// second per write from the starting time.
type MemoryRepo struct {
	mu       sync.Mutex
	now      time.Time
	tenants  map[string]domain.Tenant
	products map[string]domain.Product
	sales    []domain.Sale
	tickets  []domain.SupportTicket
	activity []domain.ActivityEntry
}

func NewMemoryRepo(now time.Time) *MemoryRepo {
	return &MemoryRepo{
		now:      now,
		tenants:  make(map[string]domain.Tenant),
		products: make(map[string]domain.Product),
	}
}

func (r *MemoryRepo) tick() time.Time {
	r.now = r.now.Add(time.Second)
	return r.now
}

func (r *MemoryRepo) ListProducts(_ context.Context, tenantID string) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Product, 0)
	for _, p := range r.products {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) GetProduct(_ context.Context, tenantID, id string) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.TenantID != tenantID {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepo) skuTaken(tenantID, sku, exceptID string) bool {
	for _, p := range r.products {
		if p.TenantID == tenantID && p.ID != exceptID && p.SKU == sku {
			return true
		}
	}
	return false
}

func (r *MemoryRepo) CreateProduct(_ context.Context, p domain.Product) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.skuTaken(p.TenantID, p.SKU, "") {
		return domain.Product{}, domain.ErrDuplicateSKU
	}
	p.Version = 1
	p.CreatedAt = r.tick()
	p.UpdatedAt = p.CreatedAt
	r.products[p.ID] = p
	return p, nil
}

func (r *MemoryRepo) UpdateProduct(_ context.Context, tenantID, id string, patch domain.ProductPatch) (domain.Product, domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	before, ok := r.products[id]
	if !ok || before.TenantID != tenantID {
		return domain.Product{}, domain.Product{}, domain.ErrNotFound
	}
	after := before
	after.Apply(patch, r.tick())
	after.Version++
	if r.skuTaken(tenantID, after.SKU, id) {
		return domain.Product{}, domain.Product{}, domain.ErrDuplicateSKU
	}
	r.products[id] = after
	return before, after, nil
}

func (r *MemoryRepo) DeleteProduct(_ context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.TenantID != tenantID {
		return domain.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *MemoryRepo) UpsertProducts(_ context.Context, tenantID string, rows []domain.ProductImportRow, newID func() string) (repository.UpsertResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := repository.UpsertResult{}
	for _, row := range rows {
		var existing *domain.Product
		for id, p := range r.products {
			if p.TenantID == tenantID && p.SKU == row.SKU {
				found := r.products[id]
				existing = &found
				break
			}
		}
		now := r.tick()
		p := domain.Product{
			ID:        newID(),
			TenantID:  tenantID,
			Name:      row.Name,
			SKU:       row.SKU,
			Category:  row.Category,
			Quantity:  row.Quantity,
			MinStock:  row.MinStock,
			Price:     row.Price,
			CostPrice: row.CostPrice,
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if existing != nil {
			p.ID = existing.ID
			p.CreatedAt = existing.CreatedAt
			p.Version = existing.Version + 1
			result.Updated++
		} else {
			result.Created++
		}
		r.products[p.ID] = p
		result.Products = append(result.Products, p)
	}
	return result, nil
}

func (r *MemoryRepo) ListSales(_ context.Context, tenantID string) ([]domain.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Sale, 0)
	for i := len(r.sales) - 1; i >= 0; i-- {
		if r.sales[i].TenantID == tenantID {
			out = append(out, r.sales[i])
		}
	}
	return out, nil
}

func (r *MemoryRepo) SellProduct(_ context.Context, input repository.SellInput) (domain.Product, domain.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[input.ProductID]
	if !ok || p.TenantID != input.TenantID {
		return domain.Product{}, domain.Sale{}, domain.ErrNotFound
	}
	if p.Quantity < input.Quantity {
		return domain.Product{}, domain.Sale{}, domain.ErrInsufficientStock
	}
	if p.Price.Mul(decimal.NewFromInt(int64(input.Quantity))).GreaterThan(domain.MaxMoney) {
		return domain.Product{}, domain.Sale{}, fmt.Errorf("%w: sale total exceeds %s", domain.ErrValidation, domain.MaxMoney)
	}
	now := r.tick()
	p.Quantity -= input.Quantity
	p.Version++
	p.UpdatedAt = now
	r.products[p.ID] = p
	sale := domain.Sale{
		ID:          input.SaleID,
		TenantID:    input.TenantID,
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    input.Quantity,
		UnitPrice:   p.Price,
		TotalAmount: p.Price.Mul(decimal.NewFromInt(int64(input.Quantity))),
		SoldAt:      now,
	}
	r.sales = append(r.sales, sale)
	return p, sale, nil
}

func (r *MemoryRepo) UpsertTenant(_ context.Context, tenant domain.Tenant) (domain.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.tick()
	stored, ok := r.tenants[tenant.ID]
	if !ok {
		tenant.CreatedAt = now
		tenant.UpdatedAt = now
		r.tenants[tenant.ID] = tenant
		return tenant, nil
	}
	if tenant.Email != "" {
		stored.Email = tenant.Email
	}
	if tenant.DisplayName != "" {
		stored.DisplayName = tenant.DisplayName
	}
	if tenant.BusinessName != nil {
		stored.BusinessName = tenant.BusinessName
	}
	stored.UpdatedAt = now
	r.tenants[tenant.ID] = stored
	return stored, nil
}

func (r *MemoryRepo) tenantStats(t domain.Tenant) domain.TenantStats {
	stats := domain.TenantStats{Tenant: t, TotalRevenue: decimal.Zero}
	for _, p := range r.products {
		if p.TenantID == t.ID {
			stats.ProductsCount++
		}
	}
	for _, s := range r.sales {
		if s.TenantID == t.ID {
			stats.SalesCount++
			stats.TotalRevenue = stats.TotalRevenue.Add(s.TotalAmount)
		}
	}
	return stats
}

func (r *MemoryRepo) ListTenantStats(_ context.Context, limit, offset int) ([]domain.TenantStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]domain.TenantStats, 0, len(r.tenants))
	for _, t := range r.tenants {
		all = append(all, r.tenantStats(t))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return window(all, limit, offset), nil
}

func (r *MemoryRepo) GetTenantStats(_ context.Context, tenantID string) (domain.TenantStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[tenantID]
	if !ok {
		return domain.TenantStats{}, domain.ErrNotFound
	}
	return r.tenantStats(t), nil
}

func (r *MemoryRepo) CountTenants(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tenants), nil
}

func (r *MemoryRepo) CreateSupportTicket(_ context.Context, ticket domain.SupportTicket) (domain.SupportTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket.CreatedAt = r.tick()
	ticket.UpdatedAt = ticket.CreatedAt
	if t, ok := r.tenants[ticket.TenantID]; ok {
		ticket.TenantBusinessName = t.BusinessName
	}
	r.tickets = append(r.tickets, ticket)
	return ticket, nil
}

func (r *MemoryRepo) filterTickets(filter domain.SupportFilter) []domain.SupportTicket {
	out := make([]domain.SupportTicket, 0)
	for i := len(r.tickets) - 1; i >= 0; i-- {
		t := r.tickets[i]
		if filter.TenantID != "" && t.TenantID != filter.TenantID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (r *MemoryRepo) ListSupportTickets(_ context.Context, filter domain.SupportFilter) ([]domain.SupportTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return window(r.filterTickets(filter), filter.Limit, filter.Offset), nil
}

func (r *MemoryRepo) CountSupportTickets(_ context.Context, filter domain.SupportFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.filterTickets(filter)), nil
}

func (r *MemoryRepo) SupportStatusCounts(context.Context) (map[domain.SupportStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[domain.SupportStatus]int{
		domain.SupportPending:    0,
		domain.SupportInProgress: 0,
		domain.SupportResolved:   0,
	}
	for _, t := range r.tickets {
		counts[t.Status]++
	}
	return counts, nil
}

func (r *MemoryRepo) UpdateSupportStatus(_ context.Context, id string, status domain.SupportStatus) (domain.SupportTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.tickets {
		if r.tickets[i].ID == id {
			r.tickets[i].Status = status
			r.tickets[i].UpdatedAt = r.tick()
			return r.tickets[i], nil
		}
	}
	return domain.SupportTicket{}, domain.ErrNotFound
}

func (r *MemoryRepo) LogActivity(_ context.Context, entry domain.ActivityEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = int64(len(r.activity) + 1)
	entry.CreatedAt = r.tick()
	r.activity = append(r.activity, entry)
	return nil
}

func (r *MemoryRepo) filterActivity(filter domain.ActivityFilter) []domain.ActivityEntry {
	out := make([]domain.ActivityEntry, 0)
	for i := len(r.activity) - 1; i >= 0; i-- {
		e := r.activity[i]
		if filter.TenantID != nil && (e.TenantID == nil || *e.TenantID != *filter.TenantID) {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(e.Title+" "+e.Details), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (r *MemoryRepo) ListActivity(_ context.Context, filter domain.ActivityFilter) ([]domain.ActivityEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return window(r.filterActivity(filter), filter.Limit, filter.Offset), nil
}

func (r *MemoryRepo) CountActivity(_ context.Context, filter domain.ActivityFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.filterActivity(filter)), nil
}

// Actions lists the recorded activity types, oldest first.
func (r *MemoryRepo) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.activity))
	for _, e := range r.activity {
		out = append(out, e.ActionType)
	}
	return out
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
