package inventory

import (
	"sort"
	"time"

	"shoptracker/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	DefaultTopProducts = 5
	DefaultRecentSales = 5
)

func LowStock(products []domain.Product) []domain.Product {
	out := make([]domain.Product, 0)
	for _, p := range products {
		if p.IsLowStock() {
			out = append(out, p)
		}
	}
	return out
}

func OutOfStock(products []domain.Product) []domain.Product {
	out := make([]domain.Product, 0)
	for _, p := range products {
		if p.IsOutOfStock() {
			out = append(out, p)
		}
	}
	return out
}

// InventoryValue is the sum of quantity × cost price.
func InventoryValue(products []domain.Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.StockValue())
	}
	return total
}

// RetailValue is the sum of quantity × selling price.
func RetailValue(products []domain.Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.RetailValue())
	}
	return total
}

func SalesTotal(sales []domain.Sale) decimal.Decimal {
	total := decimal.Zero
	for _, s := range sales {
		total = total.Add(s.TotalAmount)
	}
	return total
}

type Summary struct {
	TotalProducts   int             `json:"total_products"`
	TotalUnits      int             `json:"total_units"`
	LowStockCount   int             `json:"low_stock_count"`
	OutOfStockCount int             `json:"out_of_stock_count"`
	AlertCount      int             `json:"alert_count"`
	InventoryValue  decimal.Decimal `json:"inventory_value"`
	RetailValue     decimal.Decimal `json:"retail_value"`
	SalesTotal      decimal.Decimal `json:"sales_total"`
	SalesCount      int             `json:"sales_count"`
	RecentSales     []domain.Sale   `json:"recent_sales"`
}

// Summarize builds the dashboard figures. sales must be newest first.
func Summarize(products []domain.Product, sales []domain.Sale, recent int) Summary {
	if recent <= 0 {
		recent = DefaultRecentSales
	}
	summary := Summary{
		TotalProducts:  len(products),
		InventoryValue: InventoryValue(products),
		RetailValue:    RetailValue(products),
		SalesTotal:     SalesTotal(sales),
		SalesCount:     len(sales),
		RecentSales:    append([]domain.Sale(nil), sales[:min(recent, len(sales))]...),
	}
	for _, p := range products {
		summary.TotalUnits += p.Quantity
		switch p.StockStatus() {
		case domain.StockLow:
			summary.LowStockCount++
		case domain.StockOutOfStock:
			summary.OutOfStockCount++
		}
	}
	summary.AlertCount = summary.LowStockCount + summary.OutOfStockCount
	if summary.RecentSales == nil {
		summary.RecentSales = []domain.Sale{}
	}
	return summary
}

type CategoryStat struct {
	Category     string          `json:"category"`
	ProductCount int             `json:"product_count"`
	Units        int             `json:"units"`
	Value        decimal.Decimal `json:"value"`
}

// CategoryBreakdown groups products by category with Σ quantity × price,
// largest value first.
func CategoryBreakdown(products []domain.Product) []CategoryStat {
	byCategory := make(map[string]*CategoryStat)
	for _, p := range products {
		stat, ok := byCategory[p.Category]
		if !ok {
			stat = &CategoryStat{Category: p.Category, Value: decimal.Zero}
			byCategory[p.Category] = stat
		}
		stat.ProductCount++
		stat.Units += p.Quantity
		stat.Value = stat.Value.Add(p.RetailValue())
	}

	out := make([]CategoryStat, 0, len(byCategory))
	for _, stat := range byCategory {
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Value.Cmp(out[j].Value); cmp != 0 {
			return cmp > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

type ProductRevenue struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitsSold   int             `json:"units_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// TopProducts ranks products by sales revenue. The name is taken from the
// newest sale, so sales must be newest first.
func TopProducts(sales []domain.Sale, limit int) []ProductRevenue {
	if limit <= 0 {
		limit = DefaultTopProducts
	}
	byProduct := make(map[string]*ProductRevenue)
	for _, s := range sales {
		entry, ok := byProduct[s.ProductID]
		if !ok {
			entry = &ProductRevenue{ProductID: s.ProductID, ProductName: s.ProductName, Revenue: decimal.Zero}
			byProduct[s.ProductID] = entry
		}
		entry.UnitsSold += s.Quantity
		entry.Revenue = entry.Revenue.Add(s.TotalAmount)
	}

	out := make([]ProductRevenue, 0, len(byProduct))
	for _, entry := range byProduct {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Revenue.Cmp(out[j].Revenue); cmp != 0 {
			return cmp > 0
		}
		return out[i].ProductID < out[j].ProductID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

type ProfitSummary struct {
	TotalCost       decimal.Decimal `json:"total_cost"`
	TotalValue      decimal.Decimal `json:"total_value"`
	PotentialProfit decimal.Decimal `json:"potential_profit"`
	MarginPercent   decimal.Decimal `json:"margin_percent"`
}

// Profit compares stock at cost against stock at selling price. The margin
// is a percentage of retail value rounded to one decimal, zero when there
// is no retail value.
func Profit(products []domain.Product) ProfitSummary {
	cost := InventoryValue(products)
	value := RetailValue(products)
	profit := value.Sub(cost)
	margin := decimal.Zero
	if value.IsPositive() {
		margin = profit.Div(value).Mul(decimal.NewFromInt(100)).Round(1)
	}
	return ProfitSummary{
		TotalCost:       cost,
		TotalValue:      value,
		PotentialProfit: profit,
		MarginPercent:   margin,
	}
}

type SalesStats struct {
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	MonthlyRevenue    decimal.Decimal `json:"monthly_revenue"`
	TotalTransactions int             `json:"total_transactions"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

// ComputeSalesStats totals revenue overall and for the calendar month that
// contains now, in now's location.
func ComputeSalesStats(sales []domain.Sale, now time.Time) SalesStats {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	stats := SalesStats{
		TotalRevenue:      decimal.Zero,
		MonthlyRevenue:    decimal.Zero,
		AverageOrderValue: decimal.Zero,
		TotalTransactions: len(sales),
	}
	for _, s := range sales {
		stats.TotalRevenue = stats.TotalRevenue.Add(s.TotalAmount)
		soldAt := s.SoldAt.In(now.Location())
		if !soldAt.Before(monthStart) && soldAt.Before(monthEnd) {
			stats.MonthlyRevenue = stats.MonthlyRevenue.Add(s.TotalAmount)
		}
	}
	if stats.TotalTransactions > 0 {
		stats.AverageOrderValue = stats.TotalRevenue.Div(decimal.NewFromInt(int64(stats.TotalTransactions))).Round(2)
	}
	return stats
}

type Report struct {
	Categories  []CategoryStat   `json:"categories"`
	TopProducts []ProductRevenue `json:"top_products"`
	Profit      ProfitSummary    `json:"profit"`
}

func BuildReport(snap Snapshot) Report {
	return Report{
		Categories:  CategoryBreakdown(snap.Products),
		TopProducts: TopProducts(snap.Sales, DefaultTopProducts),
		Profit:      Profit(snap.Products),
	}
}
