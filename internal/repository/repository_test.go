package repository

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"shoptracker/internal/db"
	"shoptracker/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) (*Repository, *pgxpool.Pool) {
	t.Helper()
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, databaseURL, db.DefaultPoolOptions())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = db.RunMigrations(ctx, pool)
	require.NoError(t, err)
	return New(pool), pool
}

func newTenantID() string {
	return "tenant-" + uuid.NewString()
}

func seedProduct(t *testing.T, repo *Repository, tenantID string, quantity int, price string) domain.Product {
	t.Helper()
	p, err := repo.CreateProduct(context.Background(), domain.Product{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Name:      "Widget",
		SKU:       "W-" + uuid.NewString()[:8],
		Category:  "Parts",
		Quantity:  quantity,
		MinStock:  10,
		Price:     decimal.RequireFromString(price),
		CostPrice: decimal.RequireFromString("5"),
	})
	require.NoError(t, err)
	return p
}

func TestSellProductDecrementsAndRecordsSale(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	tenantID := newTenantID()
	product := seedProduct(t, repo, tenantID, 5, "20")

	updated, sale, err := repo.SellProduct(ctx, SellInput{
		TenantID:  tenantID,
		ProductID: product.ID,
		SaleID:    uuid.NewString(),
		Quantity:  3,
	})
	require.NoError(t, err)
	require.Equal(t, 2, updated.Quantity)
	require.True(t, updated.IsLowStock())
	require.Equal(t, 3, sale.Quantity)
	require.True(t, sale.TotalAmount.Equal(decimal.NewFromInt(60)))
	require.Equal(t, product.Name, sale.ProductName)

	sales, err := repo.ListSales(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, sales, 1)
}

func TestSellProductRejections(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	tenantID := newTenantID()
	product := seedProduct(t, repo, tenantID, 2, "20")

	_, _, err := repo.SellProduct(ctx, SellInput{TenantID: tenantID, ProductID: product.ID, SaleID: uuid.NewString(), Quantity: 3})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, _, err = repo.SellProduct(ctx, SellInput{TenantID: tenantID, ProductID: uuid.NewString(), SaleID: uuid.NewString(), Quantity: 1})
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, _, err = repo.SellProduct(ctx, SellInput{TenantID: newTenantID(), ProductID: product.ID, SaleID: uuid.NewString(), Quantity: 1})
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, _, err = repo.SellProduct(ctx, SellInput{TenantID: tenantID, ProductID: product.ID, SaleID: uuid.NewString(), Quantity: 0})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	got, err := repo.GetProduct(ctx, tenantID, product.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.Quantity)

	sales, err := repo.ListSales(ctx, tenantID)
	require.NoError(t, err)
	require.Empty(t, sales)
}

func TestSellProductConcurrentNeverOversells(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	tenantID := newTenantID()
	product := seedProduct(t, repo, tenantID, 5, "1")

	type outcome struct {
		product domain.Product
		sale    domain.Sale
		err     error
	}
	var wg sync.WaitGroup
	results := make(chan outcome, 10)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			updated, sale, err := repo.SellProduct(ctx, SellInput{TenantID: tenantID, ProductID: product.ID, SaleID: uuid.NewString(), Quantity: 1})
			results <- outcome{product: updated, sale: sale, err: err}
		}()
	}
	wg.Wait()
	close(results)

	var latest domain.Product
	versions := make(map[int64]domain.Product)
	soldAt := make(map[int64]time.Time)
	for res := range results {
		if res.err != nil {
			require.ErrorIs(t, res.err, domain.ErrInsufficientStock)
			continue
		}
		versions[res.product.Version] = res.product
		soldAt[res.product.Version] = res.sale.SoldAt
		if res.product.Supersedes(latest) {
			latest = res.product
		}
	}

	require.Len(t, versions, 5)
	for v := product.Version + 1; v <= product.Version+5; v++ {
		require.Contains(t, versions, v)
		if prev, ok := versions[v-1]; ok {
			require.False(t, versions[v].UpdatedAt.Before(prev.UpdatedAt))
			require.False(t, soldAt[v].Before(soldAt[v-1]))
		}
	}
	require.Equal(t, 0, latest.Quantity)

	got, err := repo.GetProduct(ctx, tenantID, product.ID)
	require.NoError(t, err)
	require.Equal(t, 0, got.Quantity)
	require.Equal(t, latest.Version, got.Version)
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	tenantID := newTenantID()
	product := seedProduct(t, repo, tenantID, 1, "1")

	dup := product
	dup.ID = uuid.NewString()
	_, err := repo.CreateProduct(ctx, dup)
	require.ErrorIs(t, err, domain.ErrDuplicateSKU)

	dup.TenantID = newTenantID()
	_, err = repo.CreateProduct(ctx, dup)
	require.NoError(t, err)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	tenantID := newTenantID()
	product := seedProduct(t, repo, tenantID, 1, "1")

	qty := 40
	before, after, err := repo.UpdateProduct(ctx, tenantID, product.ID, domain.ProductPatch{Quantity: &qty})
	require.NoError(t, err)
	require.Equal(t, 1, before.Quantity)
	require.Equal(t, 40, after.Quantity)
	require.Equal(t, product.SKU, after.SKU)

	_, _, err = repo.UpdateProduct(ctx, newTenantID(), product.ID, domain.ProductPatch{Quantity: &qty})
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.DeleteProduct(ctx, tenantID, product.ID))
	require.ErrorIs(t, repo.DeleteProduct(ctx, tenantID, product.ID), domain.ErrNotFound)
}

func TestUpsertProductsCountsCreatedAndUpdated(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	tenantID := newTenantID()
	existing := seedProduct(t, repo, tenantID, 1, "1")

	result, err := repo.UpsertProducts(ctx, tenantID, []domain.ProductImportRow{
		{Row: 2, Name: "Renamed", SKU: existing.SKU, Category: "Parts", Quantity: 7},
		{Row: 3, Name: "New", SKU: "NEW-1", Category: "Uncategorized", Quantity: 3, MinStock: 10},
	}, uuid.NewString)
	require.NoError(t, err)
	require.Equal(t, 1, result.Created)
	require.Equal(t, 1, result.Updated)
	require.Len(t, result.Products, 2)
	require.Equal(t, existing.ID, result.Products[0].ID)

	products, err := repo.ListProducts(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, products, 2)
}

func TestTenantStatsAndSupport(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	tenantID := newTenantID()
	business := "Corner Shop"

	_, err := repo.UpsertTenant(ctx, domain.Tenant{ID: tenantID, Email: "a@b.c", DisplayName: "Ann", BusinessName: &business})
	require.NoError(t, err)
	saved, err := repo.UpsertTenant(ctx, domain.Tenant{ID: tenantID, DisplayName: "Ann B"})
	require.NoError(t, err)
	require.Equal(t, "a@b.c", saved.Email)
	require.Equal(t, "Ann B", saved.DisplayName)
	require.NotNil(t, saved.BusinessName)

	product := seedProduct(t, repo, tenantID, 5, "20")
	_, _, err = repo.SellProduct(ctx, SellInput{TenantID: tenantID, ProductID: product.ID, SaleID: uuid.NewString(), Quantity: 2})
	require.NoError(t, err)

	stats, err := repo.GetTenantStats(ctx, tenantID)
	require.NoError(t, err)
	require.Equal(t, 1, stats.ProductsCount)
	require.Equal(t, 1, stats.SalesCount)
	require.True(t, stats.TotalRevenue.Equal(decimal.NewFromInt(40)))

	ticket, err := repo.CreateSupportTicket(ctx, domain.SupportTicket{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		Subject:  "Help",
		Message:  "Import failed",
		Status:   domain.SupportPending,
	})
	require.NoError(t, err)
	require.Equal(t, business, *ticket.TenantBusinessName)

	updated, err := repo.UpdateSupportStatus(ctx, ticket.ID, domain.SupportResolved)
	require.NoError(t, err)
	require.Equal(t, domain.SupportResolved, updated.Status)

	count, err := repo.CountSupportTickets(ctx, domain.SupportFilter{TenantID: tenantID, Status: domain.SupportResolved})
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.NoError(t, repo.LogActivity(ctx, domain.ActivityEntry{TenantID: &tenantID, Actor: "Ann", ActionType: "sale", Title: "Sale recorded"}))
	entries, err := repo.ListActivity(ctx, domain.ActivityFilter{TenantID: &tenantID, Search: "sale"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "-", entries[0].Details)
}
