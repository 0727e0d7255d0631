package excel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var headerFolder = cases.Fold()

// readTable loads the first sheet of an xlsx workbook, or a CSV file when
// the name says so. Files with an unknown extension are tried as xlsx first.
func readTable(fileName string, reader io.Reader) ([][]string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("input file is empty")
	}

	switch strings.ToLower(strings.TrimSpace(filepath.Ext(fileName))) {
	case ".csv":
		return parseCSVRows(data)
	case ".xlsx", ".xlsm":
		return parseExcelRows(data)
	default:
		rows, excelErr := parseExcelRows(data)
		if excelErr == nil {
			return rows, nil
		}
		rows, csvErr := parseCSVRows(data)
		if csvErr == nil && len(rows) > 0 && len(rows[0]) > 1 {
			return rows, nil
		}
		return nil, fmt.Errorf("unsupported or invalid spreadsheet: %w", excelErr)
	}
}

func parseCSVRows(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("csv file is empty")
	}
	return rows, nil
}

func parseExcelRows(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open excel file: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel file has no sheets")
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("excel file is empty")
	}
	return rows, nil
}

// normalizeHeader folds a header cell for alias lookup: NFKC, BOM stripped,
// case folded, underscores and dashes read as spaces, whitespace collapsed.
func normalizeHeader(raw string) string {
	value := norm.NFKC.String(raw)
	value = strings.TrimPrefix(strings.TrimSpace(value), "\ufeff")
	value = headerFolder.String(value)
	value = strings.NewReplacer("_", " ", "-", " ").Replace(value)
	return strings.Join(strings.Fields(value), " ")
}

// normalizeNumericValue strips grouping separators and currency marks so
// "$1,234.50" reads as 1234.50. NFKC turns full-width digits into ASCII.
func normalizeNumericValue(raw string) string {
	value := norm.NFKC.String(raw)
	value = strings.TrimPrefix(strings.TrimSpace(value), "\ufeff")
	value = strings.NewReplacer(",", "", " ", "", "$", "", "€", "", "£", "", "¥", "").Replace(value)
	return strings.TrimSpace(value)
}

func cleanText(value string) string {
	text := strings.TrimSpace(value)
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(text), " ")
}

func readCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
