package inventory

import (
	"testing"
	"time"

	"shoptracker/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLowAndOutOfStock(t *testing.T) {
	products := []domain.Product{
		product("empty", 0, 10, "1", base),
		product("low", 2, 10, "1", base),
		product("edge", 10, 10, "1", base),
		product("fine", 11, 10, "1", base),
	}

	low := LowStock(products)
	require.Len(t, low, 2)
	require.Equal(t, "low", low[0].ID)
	require.Equal(t, "edge", low[1].ID)

	out := OutOfStock(products)
	require.Len(t, out, 1)
	require.Equal(t, "empty", out[0].ID)
}

func TestValues(t *testing.T) {
	products := []domain.Product{
		{Quantity: 3, Price: dec("20"), CostPrice: dec("12.50")},
		{Quantity: 0, Price: dec("99"), CostPrice: dec("50")},
		{Quantity: 2, Price: dec("5"), CostPrice: dec("1.25")},
	}
	require.True(t, InventoryValue(products).Equal(dec("40")))
	require.True(t, RetailValue(products).Equal(dec("70")))

	sales := []domain.Sale{{TotalAmount: dec("60")}, {TotalAmount: dec("0.5")}}
	require.True(t, SalesTotal(sales).Equal(dec("60.5")))
	require.True(t, SalesTotal(nil).IsZero())
}

func TestSummarize(t *testing.T) {
	products := []domain.Product{
		product("a", 0, 10, "10", base),
		product("b", 2, 10, "10", base),
		product("c", 50, 10, "10", base),
	}
	sales := make([]domain.Sale, 0, 7)
	for i := range 7 {
		sales = append(sales, domain.Sale{ID: string(rune('a' + i)), TotalAmount: dec("10")})
	}

	summary := Summarize(products, sales, 0)
	require.Equal(t, 3, summary.TotalProducts)
	require.Equal(t, 52, summary.TotalUnits)
	require.Equal(t, 1, summary.LowStockCount)
	require.Equal(t, 1, summary.OutOfStockCount)
	require.Equal(t, 2, summary.AlertCount)
	require.Equal(t, 7, summary.SalesCount)
	require.True(t, summary.SalesTotal.Equal(dec("70")))
	require.Len(t, summary.RecentSales, DefaultRecentSales)
	require.Equal(t, "a", summary.RecentSales[0].ID)

	empty := Summarize(nil, nil, 5)
	require.NotNil(t, empty.RecentSales)
	require.Empty(t, empty.RecentSales)
}

func TestCategoryBreakdown(t *testing.T) {
	products := []domain.Product{
		{Category: "Drinks", Quantity: 2, Price: dec("3")},
		{Category: "Snacks", Quantity: 10, Price: dec("2")},
		{Category: "Drinks", Quantity: 4, Price: dec("1")},
	}
	stats := CategoryBreakdown(products)
	require.Len(t, stats, 2)
	require.Equal(t, "Snacks", stats[0].Category)
	require.True(t, stats[0].Value.Equal(dec("20")))
	require.Equal(t, "Drinks", stats[1].Category)
	require.Equal(t, 2, stats[1].ProductCount)
	require.Equal(t, 6, stats[1].Units)
	require.True(t, stats[1].Value.Equal(dec("10")))
}

func TestTopProducts(t *testing.T) {
	var sales []domain.Sale
	for i, revenue := range []string{"5", "60", "10", "1", "30", "2"} {
		id := string(rune('a' + i))
		sales = append(sales, domain.Sale{ProductID: id, ProductName: "P" + id, Quantity: 1, TotalAmount: dec(revenue)})
	}
	sales = append(sales, domain.Sale{ProductID: "a", ProductName: "old name", Quantity: 2, TotalAmount: dec("100")})

	top := TopProducts(sales, 0)
	require.Len(t, top, DefaultTopProducts)
	require.Equal(t, "a", top[0].ProductID)
	require.Equal(t, "Pa", top[0].ProductName)
	require.Equal(t, 3, top[0].UnitsSold)
	require.True(t, top[0].Revenue.Equal(dec("105")))
	require.Equal(t, "b", top[1].ProductID)
}

func TestProfit(t *testing.T) {
	products := []domain.Product{
		{Quantity: 3, Price: dec("10"), CostPrice: dec("7")},
	}
	profit := Profit(products)
	require.True(t, profit.TotalValue.Equal(dec("30")))
	require.True(t, profit.TotalCost.Equal(dec("21")))
	require.True(t, profit.PotentialProfit.Equal(dec("9")))
	require.True(t, profit.MarginPercent.Equal(dec("30")))

	products = []domain.Product{{Quantity: 3, Price: dec("3"), CostPrice: dec("2")}}
	require.Equal(t, "33.3", Profit(products).MarginPercent.String())

	require.True(t, Profit(nil).MarginPercent.IsZero())
}

func TestComputeSalesStats(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	sales := []domain.Sale{
		{TotalAmount: dec("60"), SoldAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{TotalAmount: dec("40"), SoldAt: time.Date(2026, 3, 31, 23, 59, 0, 0, time.UTC)},
		{TotalAmount: dec("10"), SoldAt: time.Date(2026, 2, 28, 23, 59, 0, 0, time.UTC)},
	}
	stats := ComputeSalesStats(sales, now)
	require.True(t, stats.TotalRevenue.Equal(dec("110")))
	require.True(t, stats.MonthlyRevenue.Equal(dec("100")))
	require.Equal(t, 3, stats.TotalTransactions)
	require.Equal(t, "36.67", stats.AverageOrderValue.StringFixed(2))

	empty := ComputeSalesStats(nil, now)
	require.True(t, empty.AverageOrderValue.IsZero())
}

func TestSellingThreeOfFiveLeavesLowStock(t *testing.T) {
	p := domain.Product{Quantity: 5, MinStock: 10, Price: dec("20")}
	q := 3
	p.Quantity -= q
	sale := domain.Sale{Quantity: q, UnitPrice: p.Price, TotalAmount: p.Price.Mul(decimal.NewFromInt(int64(q)))}

	require.Equal(t, 2, p.Quantity)
	require.True(t, p.IsLowStock())
	require.True(t, sale.TotalAmount.Equal(dec("60")))

	empty := domain.Product{Quantity: 0, MinStock: 10}
	require.True(t, empty.IsOutOfStock())
	require.False(t, empty.IsLowStock())
}
