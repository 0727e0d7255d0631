package inventory

import (
	"math"
	"sort"
	"strings"
	"time"

	"shoptracker/internal/domain"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 200
	// MaxOffset caps Offset; it stays far below any list we page and fits
	// a Postgres OFFSET.
	MaxOffset = math.MaxInt32
)

type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset is the number of items before the page, saturating at MaxOffset.
func (p Pagination) Offset() int {
	page, perPage := max(p.Page, 1), max(p.PerPage, 1)
	if page-1 >= MaxOffset/perPage {
		return MaxOffset
	}
	return (page - 1) * perPage
}

func paginate[T any](items []T, p Pagination) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := min(start+p.PerPage, len(items))
	return items[start:end]
}

type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

type ProductQuery struct {
	Search   string
	Category string
	Status   domain.StockStatus
	Sort     string
	Dir      SortDir
	Page     int
	PerPage  int
}

type ProductPage struct {
	Items      []domain.Product `json:"items"`
	Pagination Pagination       `json:"pagination"`
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

var productSorters = map[string]func(a, b domain.Product) int{
	"name":       func(a, b domain.Product) int { return compareFold(a.Name, b.Name) },
	"sku":        func(a, b domain.Product) int { return compareFold(a.SKU, b.SKU) },
	"category":   func(a, b domain.Product) int { return compareFold(a.Category, b.Category) },
	"quantity":   func(a, b domain.Product) int { return a.Quantity - b.Quantity },
	"min_stock":  func(a, b domain.Product) int { return a.MinStock - b.MinStock },
	"price":      func(a, b domain.Product) int { return a.Price.Cmp(b.Price) },
	"cost_price": func(a, b domain.Product) int { return a.CostPrice.Cmp(b.CostPrice) },
	"created_at": func(a, b domain.Product) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updated_at": func(a, b domain.Product) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

// IsProductSortField reports whether field can be passed as ProductQuery.Sort.
func IsProductSortField(field string) bool {
	_, ok := productSorters[field]
	return ok
}

// QueryProducts filters, sorts and paginates products. Without a sort field
// the input order is kept.
func QueryProducts(products []domain.Product, q ProductQuery) ProductPage {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	category := strings.TrimSpace(q.Category)
	if strings.EqualFold(category, "all") {
		category = ""
	}

	filtered := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.SKU), search) {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		if q.Status != "" && p.StockStatus() != q.Status {
			continue
		}
		filtered = append(filtered, p)
	}

	if compare, ok := productSorters[q.Sort]; ok {
		desc := q.Dir == SortDesc
		sort.SliceStable(filtered, func(i, j int) bool {
			c := compare(filtered[i], filtered[j])
			if desc {
				return c > 0
			}
			return c < 0
		})
	}

	page := NewPagination(q.Page, q.PerPage, len(filtered))
	return ProductPage{Items: paginate(filtered, page), Pagination: page}
}

type SaleQuery struct {
	Search    string
	ProductID string
	From      *time.Time
	To        *time.Time
	Page      int
	PerPage   int
}

type SalePage struct {
	Items      []domain.Sale `json:"items"`
	Pagination Pagination    `json:"pagination"`
}

// QuerySales filters sales by product name, product id and an inclusive
// time range, keeping the input order.
func QuerySales(sales []domain.Sale, q SaleQuery) SalePage {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	filtered := make([]domain.Sale, 0, len(sales))
	for _, s := range sales {
		if search != "" && !strings.Contains(strings.ToLower(s.ProductName), search) {
			continue
		}
		if q.ProductID != "" && s.ProductID != q.ProductID {
			continue
		}
		if q.From != nil && s.SoldAt.Before(*q.From) {
			continue
		}
		if q.To != nil && s.SoldAt.After(*q.To) {
			continue
		}
		filtered = append(filtered, s)
	}

	page := NewPagination(q.Page, q.PerPage, len(filtered))
	return SalePage{Items: paginate(filtered, page), Pagination: page}
}

// Categories returns the sorted distinct category names.
func Categories(products []domain.Product) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out
}

type Alerts struct {
	LowStock   []domain.Product `json:"low_stock"`
	OutOfStock []domain.Product `json:"out_of_stock"`
}

func BuildAlerts(products []domain.Product) Alerts {
	return Alerts{LowStock: LowStock(products), OutOfStock: OutOfStock(products)}
}
