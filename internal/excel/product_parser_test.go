package excel

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	file := excelize.NewFile()
	defer file.Close()
	sheet := file.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, file.SetSheetRow(sheet, cell, &row))
	}
	buf, err := file.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func fixedSKU(row int) string {
	return fmt.Sprintf("GEN-%d", row)
}

func TestParseProductRowsMapsAliases(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"\ufeffProduct Name", "Item_Code", "TYPE", "On-Hand", "Reorder Level", "Selling Price", "Purchase Price", "Notes"},
		{"Green Tea", "TEA-1", "Drinks", 12, 5, "4.50", "$2.10", "fragile"},
		{"Coffee", "", "", "1,200", "", "12", "", ""},
	})

	result, err := ParseProductRows("products.xlsx", buf, ParseOptions{DefaultMinStock: 10, NewSKU: fixedSKU})
	require.NoError(t, err)
	require.Equal(t, 2, result.TotalRows)
	require.Empty(t, result.Errors)
	require.Equal(t, []string{"Notes"}, result.IgnoredColumns)
	require.Len(t, result.Rows, 2)

	tea := result.Rows[0]
	require.Equal(t, 2, tea.Row)
	require.Equal(t, "Green Tea", tea.Name)
	require.Equal(t, "TEA-1", tea.SKU)
	require.Equal(t, "Drinks", tea.Category)
	require.Equal(t, 12, tea.Quantity)
	require.Equal(t, 5, tea.MinStock)
	require.Equal(t, "4.5", tea.Price.String())
	require.Equal(t, "2.1", tea.CostPrice.String())

	coffee := result.Rows[1]
	require.Equal(t, "GEN-3", coffee.SKU)
	require.Equal(t, DefaultCategory, coffee.Category)
	require.Equal(t, 1200, coffee.Quantity)
	require.Equal(t, 10, coffee.MinStock)
	require.True(t, coffee.CostPrice.IsZero())
}

func TestParseProductRowsReportsRowErrors(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"name", "sku", "qty", "price"},
		{"", "X-1", 1, 1},
		{"Half", "X-2", "1.5", 1},
		{"Negative", "X-3", -2, 1},
		{"Bad price", "X-4", 1, "abc"},
		{},
		{"Good", "X-5", 3, "9.99"},
		{"Dup", "x-5", 1, 1},
	})

	result, err := ParseProductRows("products.xlsx", buf, ParseOptions{NewSKU: fixedSKU})
	require.NoError(t, err)
	require.Equal(t, 6, result.TotalRows)
	require.Len(t, result.Rows, 1)
	require.Equal(t, "Good", result.Rows[0].Name)

	messages := map[int]string{}
	for _, rowErr := range result.Errors {
		messages[rowErr.Row] = rowErr.Message
	}
	require.Len(t, messages, 5)
	require.Equal(t, "name is required", messages[2])
	require.Contains(t, messages[3], "whole number")
	require.Contains(t, messages[4], "cannot be negative")
	require.Contains(t, messages[5], "invalid price")
	require.Contains(t, messages[8], "duplicate sku")
}

func TestParseProductRowsRejectsValuesBeyondColumnLimits(t *testing.T) {
	csv := "name,qty,price,cost\nBig stock,3000000000,1,1\nBig price,1,1000000000000,1\nBig cost,1,1,999999999999.999\nFits,2147483647,999999999999.99,0\n"
	result, err := ParseProductRows("stock.csv", strings.NewReader(csv), ParseOptions{NewSKU: fixedSKU})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	require.Equal(t, "Fits", result.Rows[0].Name)

	messages := map[int]string{}
	for _, rowErr := range result.Errors {
		messages[rowErr.Row] = rowErr.Message
	}
	require.Equal(t, "invalid quantity: too large", messages[2])
	require.Equal(t, "invalid price: too large", messages[3])
	require.Equal(t, "invalid cost_price: too large", messages[4])
}

func TestParseProductRowsRequiresNameColumn(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"sku", "qty"},
		{"A-1", 1},
	})
	_, err := ParseProductRows("products.xlsx", buf, ParseOptions{})
	require.ErrorContains(t, err, "missing required column: name")
}

func TestParseProductRowsCSV(t *testing.T) {
	csv := "Item,Qty,Unit Price\nPencil,40,0.25\n,,\n"
	result, err := ParseProductRows("stock.csv", strings.NewReader(csv), ParseOptions{DefaultMinStock: 3})
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalRows)
	require.Len(t, result.Rows, 1)
	require.Equal(t, 40, result.Rows[0].Quantity)
	require.Equal(t, 3, result.Rows[0].MinStock)
	require.True(t, strings.HasPrefix(result.Rows[0].SKU, "SKU-2-"))
	require.Len(t, result.Rows[0].SKU, len("SKU-2-")+8)
}

func TestParseProductRowsRejectsEmptyInput(t *testing.T) {
	_, err := ParseProductRows("products.xlsx", bytes.NewReader(nil), ParseOptions{})
	require.ErrorContains(t, err, "empty")

	_, err = ParseProductRows("products.xlsx", strings.NewReader("not a workbook"), ParseOptions{})
	require.Error(t, err)
}

func TestNormalizeHeader(t *testing.T) {
	require.Equal(t, "min stock", normalizeHeader("  MIN_Stock "))
	require.Equal(t, "product name", normalizeHeader("\ufeffProduct-Name"))
	require.Equal(t, "qty", normalizeHeader("ＱＴＹ"))
}

func TestNormalizeNumericValue(t *testing.T) {
	require.Equal(t, "1234.50", normalizeNumericValue(" $1,234.50 "))
	require.Equal(t, "42", normalizeNumericValue("４２"))
}
