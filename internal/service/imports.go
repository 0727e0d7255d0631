package service

import (
	"context"
	"fmt"
	"io"

	"shoptracker/internal/domain"
	"shoptracker/internal/excel"

	"go.uber.org/zap"
)

// ImportProducts parses a spreadsheet and upserts its valid rows by SKU.
// Row-level problems are reported in the result; the valid rows are still
// imported.
func (s *Service) ImportProducts(ctx context.Context, tenantID, actor, fileName string, file io.Reader) (domain.ImportResult, error) {
	if err := requireTenant(tenantID); err != nil {
		return domain.ImportResult{}, err
	}
	parsed, err := excel.ParseProductRows(fileName, file, excel.ParseOptions{DefaultMinStock: s.opts.DefaultMinStock})
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	result := domain.ImportResult{
		TotalRows:      parsed.TotalRows,
		Errors:         parsed.Errors,
		IgnoredColumns: parsed.IgnoredColumns,
	}
	if parsed.TotalRows == 0 {
		return domain.ImportResult{}, fmt.Errorf("%w: import file has no data rows", domain.ErrValidation)
	}
	if len(parsed.Rows) == 0 {
		return result, nil
	}

	upserted, err := s.repo.UpsertProducts(ctx, tenantID, parsed.Rows, s.opts.NewID)
	if err != nil {
		return domain.ImportResult{}, err
	}
	result.Created = upserted.Created
	result.Updated = upserted.Updated

	events := make([]domain.ChangeEvent, 0, len(upserted.Products))
	for _, p := range upserted.Products {
		events = append(events, domain.ProductUpsertedEvent(tenantID, p, p.UpdatedAt))
	}
	s.emit(ctx, events...)

	s.recordActivity(ctx, tenantActivity(tenantID, actor, "products_imported", "Products imported",
		fmt.Sprintf("%s: %d created, %d updated, %d rejected", fileName, result.Created, result.Updated, len(result.Errors))))
	s.logger.Info("products imported",
		zap.String("tenant_id", tenantID),
		zap.String("file", fileName),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("rejected", len(result.Errors)),
	)
	return result, nil
}
