package inventory

import (
	"math"
	"testing"
	"time"

	"shoptracker/internal/domain"

	"github.com/stretchr/testify/require"
)

func catalog() []domain.Product {
	return []domain.Product{
		{ID: "1", Name: "Green Tea", SKU: "TEA-001", Category: "Drinks", Quantity: 0, MinStock: 5, Price: dec("4")},
		{ID: "2", Name: "Coffee Beans", SKU: "COF-002", Category: "Drinks", Quantity: 3, MinStock: 5, Price: dec("12")},
		{ID: "3", Name: "Chocolate", SKU: "SWT-003", Category: "Snacks", Quantity: 40, MinStock: 5, Price: dec("2.5")},
		{ID: "4", Name: "Tea Cups", SKU: "KIT-004", Category: "Kitchen", Quantity: 8, MinStock: 2, Price: dec("9")},
	}
}

func ids(products []domain.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestQueryProductsSearchNameAndSKU(t *testing.T) {
	page := QueryProducts(catalog(), ProductQuery{Search: "tea"})
	require.Equal(t, []string{"1", "4"}, ids(page.Items))

	page = QueryProducts(catalog(), ProductQuery{Search: "cof-"})
	require.Equal(t, []string{"2"}, ids(page.Items))
}

func TestQueryProductsFilters(t *testing.T) {
	page := QueryProducts(catalog(), ProductQuery{Category: "Drinks"})
	require.Equal(t, []string{"1", "2"}, ids(page.Items))

	page = QueryProducts(catalog(), ProductQuery{Category: "all"})
	require.Len(t, page.Items, 4)

	page = QueryProducts(catalog(), ProductQuery{Status: domain.StockLow})
	require.Equal(t, []string{"2"}, ids(page.Items))

	page = QueryProducts(catalog(), ProductQuery{Status: domain.StockOutOfStock})
	require.Equal(t, []string{"1"}, ids(page.Items))
}

func TestQueryProductsSort(t *testing.T) {
	page := QueryProducts(catalog(), ProductQuery{Sort: "name"})
	require.Equal(t, []string{"3", "2", "1", "4"}, ids(page.Items))

	page = QueryProducts(catalog(), ProductQuery{Sort: "price", Dir: SortDesc})
	require.Equal(t, []string{"2", "4", "1", "3"}, ids(page.Items))

	page = QueryProducts(catalog(), ProductQuery{Sort: "quantity"})
	require.Equal(t, []string{"1", "2", "4", "3"}, ids(page.Items))

	page = QueryProducts(catalog(), ProductQuery{Sort: "bogus"})
	require.Equal(t, []string{"1", "2", "3", "4"}, ids(page.Items))
	require.False(t, IsProductSortField("bogus"))
	require.True(t, IsProductSortField("min_stock"))
}

func TestQueryProductsPagination(t *testing.T) {
	page := QueryProducts(catalog(), ProductQuery{Page: 2, PerPage: 3})
	require.Equal(t, []string{"4"}, ids(page.Items))
	require.Equal(t, Pagination{Page: 2, PerPage: 3, Total: 4, TotalPages: 2}, page.Pagination)

	page = QueryProducts(catalog(), ProductQuery{Page: 5, PerPage: 3})
	require.NotNil(t, page.Items)
	require.Empty(t, page.Items)
}

func TestQueryProductsHugePageIsEmpty(t *testing.T) {
	for _, page := range []int{math.MaxInt, math.MaxInt / 2, math.MaxInt32 + 1} {
		result := QueryProducts(catalog(), ProductQuery{Page: page, PerPage: MaxPerPage})
		require.NotNil(t, result.Items)
		require.Empty(t, result.Items, page)
		require.Equal(t, 4, result.Pagination.Total)
	}
}

func TestPaginationOffsetSaturates(t *testing.T) {
	require.Equal(t, 0, NewPagination(1, 20, 0).Offset())
	require.Equal(t, 40, NewPagination(3, 20, 0).Offset())
	require.Equal(t, MaxOffset, NewPagination(math.MaxInt, MaxPerPage, 0).Offset())
	require.Equal(t, 0, Pagination{}.Offset())
}

func TestNewPaginationDefaults(t *testing.T) {
	require.Equal(t, Pagination{Page: 1, PerPage: DefaultPerPage, Total: 0, TotalPages: 0}, NewPagination(0, 0, 0))
	require.Equal(t, MaxPerPage, NewPagination(1, 10_000, 1).PerPage)
}

func TestQuerySales(t *testing.T) {
	sales := []domain.Sale{
		{ID: "s3", ProductID: "2", ProductName: "Coffee Beans", SoldAt: base.Add(48 * time.Hour)},
		{ID: "s2", ProductID: "1", ProductName: "Green Tea", SoldAt: base.Add(24 * time.Hour)},
		{ID: "s1", ProductID: "1", ProductName: "Green Tea", SoldAt: base},
	}

	page := QuerySales(sales, SaleQuery{Search: "TEA"})
	require.Len(t, page.Items, 2)

	page = QuerySales(sales, SaleQuery{ProductID: "2"})
	require.Len(t, page.Items, 1)

	from := base.Add(time.Hour)
	to := base.Add(24 * time.Hour)
	page = QuerySales(sales, SaleQuery{From: &from, To: &to})
	require.Len(t, page.Items, 1)
	require.Equal(t, "s2", page.Items[0].ID)
}

func TestCategories(t *testing.T) {
	products := append(catalog(), domain.Product{Category: ""})
	require.Equal(t, []string{"Drinks", "Kitchen", "Snacks"}, Categories(products))
}

func TestBuildAlerts(t *testing.T) {
	alerts := BuildAlerts(catalog())
	require.Equal(t, []string{"2"}, ids(alerts.LowStock))
	require.Equal(t, []string{"1"}, ids(alerts.OutOfStock))
}
