package excel

import (
	"fmt"
	"io"
	"strings"

	"shoptracker/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	fieldName      = "name"
	fieldSKU       = "sku"
	fieldCategory  = "category"
	fieldQuantity  = "quantity"
	fieldMinStock  = "min_stock"
	fieldPrice     = "price"
	fieldCostPrice = "cost_price"

	DefaultCategory = "Uncategorized"
)

// headerAliases keys are already in normalizeHeader form.
var headerAliases = map[string]string{
	"name":           fieldName,
	"product":        fieldName,
	"product name":   fieldName,
	"item":           fieldName,
	"item name":      fieldName,
	"sku":            fieldSKU,
	"code":           fieldSKU,
	"product code":   fieldSKU,
	"item code":      fieldSKU,
	"category":       fieldCategory,
	"type":           fieldCategory,
	"group":          fieldCategory,
	"quantity":       fieldQuantity,
	"qty":            fieldQuantity,
	"stock":          fieldQuantity,
	"on hand":        fieldQuantity,
	"min stock":      fieldMinStock,
	"minimum stock":  fieldMinStock,
	"threshold":      fieldMinStock,
	"reorder level":  fieldMinStock,
	"reorder point":  fieldMinStock,
	"price":          fieldPrice,
	"selling price":  fieldPrice,
	"sell price":     fieldPrice,
	"unit price":     fieldPrice,
	"cost":           fieldCostPrice,
	"cost price":     fieldCostPrice,
	"purchase price": fieldCostPrice,
	"buy price":      fieldCostPrice,
}

type ParseOptions struct {
	DefaultMinStock int
	// NewSKU generates a SKU for a row without one; the spreadsheet row
	// number is passed in.
	NewSKU func(row int) string
}

type ParseResult struct {
	TotalRows      int
	Rows           []domain.ProductImportRow
	Errors         []domain.ImportRowError
	IgnoredColumns []string
}

// GenerateSKU builds SKU-<row>-<8 hex>.
func GenerateSKU(row int) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("SKU-%d-%s", row, strings.ToUpper(id[:8]))
}

// ParseProductRows maps the first sheet of a spreadsheet to import rows.
// Invalid rows are reported in Errors and skipped; only a missing header or
// an unreadable file fails the whole parse.
func ParseProductRows(fileName string, reader io.Reader, opts ParseOptions) (ParseResult, error) {
	if opts.NewSKU == nil {
		opts.NewSKU = GenerateSKU
	}
	if opts.DefaultMinStock < 0 {
		opts.DefaultMinStock = 0
	}

	rows, err := readTable(fileName, reader)
	if err != nil {
		return ParseResult{}, err
	}

	colMap, ignored := mapColumns(rows[0])
	if _, ok := colMap[fieldName]; !ok {
		return ParseResult{}, fmt.Errorf("missing required column: name")
	}

	result := ParseResult{
		Rows:           make([]domain.ProductImportRow, 0, len(rows)-1),
		Errors:         make([]domain.ImportRowError, 0),
		IgnoredColumns: ignored,
	}
	seenSKU := make(map[string]int)

	for index := 1; index < len(rows); index++ {
		cells := rows[index]
		if isBlankRow(cells) {
			continue
		}
		rowNumber := index + 1
		result.TotalRows++

		row, err := parseProductRow(cells, colMap, rowNumber, opts)
		if err != nil {
			result.Errors = append(result.Errors, domain.ImportRowError{Row: rowNumber, Message: err.Error()})
			continue
		}

		key := strings.ToLower(row.SKU)
		if first, dup := seenSKU[key]; dup {
			result.Errors = append(result.Errors, domain.ImportRowError{
				Row:     rowNumber,
				Message: fmt.Sprintf("duplicate sku %q (first seen on row %d)", row.SKU, first),
			})
			continue
		}
		seenSKU[key] = rowNumber
		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

func parseProductRow(cells []string, colMap map[string]int, rowNumber int, opts ParseOptions) (domain.ProductImportRow, error) {
	row := domain.ProductImportRow{
		Row:       rowNumber,
		Category:  DefaultCategory,
		MinStock:  opts.DefaultMinStock,
		Price:     decimal.Zero,
		CostPrice: decimal.Zero,
	}

	row.Name = cleanText(readOptionalCell(cells, colMap, fieldName))
	if row.Name == "" {
		return row, fmt.Errorf("name is required")
	}

	row.SKU = cleanText(readOptionalCell(cells, colMap, fieldSKU))
	if row.SKU == "" {
		row.SKU = opts.NewSKU(rowNumber)
	}
	if category := cleanText(readOptionalCell(cells, colMap, fieldCategory)); category != "" {
		row.Category = category
	}

	var err error
	if raw := readOptionalCell(cells, colMap, fieldQuantity); strings.TrimSpace(raw) != "" {
		if row.Quantity, err = parseCount(raw); err != nil {
			return row, fmt.Errorf("invalid quantity: %w", err)
		}
	}
	if raw := readOptionalCell(cells, colMap, fieldMinStock); strings.TrimSpace(raw) != "" {
		if row.MinStock, err = parseCount(raw); err != nil {
			return row, fmt.Errorf("invalid min_stock: %w", err)
		}
	}
	if raw := readOptionalCell(cells, colMap, fieldPrice); strings.TrimSpace(raw) != "" {
		if row.Price, err = parseMoney(raw); err != nil {
			return row, fmt.Errorf("invalid price: %w", err)
		}
	}
	if raw := readOptionalCell(cells, colMap, fieldCostPrice); strings.TrimSpace(raw) != "" {
		if row.CostPrice, err = parseMoney(raw); err != nil {
			return row, fmt.Errorf("invalid cost_price: %w", err)
		}
	}
	return row, nil
}

// mapColumns resolves header cells to fields; the first match wins.
// Unrecognised non-empty headers are returned as ignored.
func mapColumns(header []string) (map[string]int, []string) {
	mapped := make(map[string]int)
	ignored := make([]string, 0)
	for idx, col := range header {
		normalized := normalizeHeader(col)
		if normalized == "" {
			continue
		}
		canonical, ok := headerAliases[normalized]
		if !ok {
			ignored = append(ignored, cleanText(col))
			continue
		}
		if _, exists := mapped[canonical]; !exists {
			mapped[canonical] = idx
		}
	}
	return mapped, ignored
}

func readOptionalCell(cells []string, colMap map[string]int, key string) string {
	idx, ok := colMap[key]
	if !ok {
		return ""
	}
	return readCell(cells, idx)
}

func parseCount(raw string) (int, error) {
	value := normalizeNumericValue(raw)
	if value == "" {
		return 0, fmt.Errorf("value is empty")
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if !parsed.IsInteger() {
		return 0, fmt.Errorf("must be a whole number")
	}
	if parsed.IsNegative() {
		return 0, fmt.Errorf("cannot be negative")
	}
	if parsed.GreaterThan(decimal.NewFromInt(domain.MaxCount)) {
		return 0, fmt.Errorf("too large")
	}
	return int(parsed.IntPart()), nil
}

func parseMoney(raw string) (decimal.Decimal, error) {
	value := normalizeNumericValue(raw)
	if value == "" {
		return decimal.Zero, fmt.Errorf("value is empty")
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number")
	}
	if parsed.IsNegative() {
		return decimal.Zero, fmt.Errorf("cannot be negative")
	}
	parsed = parsed.Round(2)
	if parsed.GreaterThan(domain.MaxMoney) {
		return decimal.Zero, fmt.Errorf("too large")
	}
	return parsed, nil
}
