package service

import (
	"context"

	"shoptracker/internal/inventory"
)

func (s *Service) Dashboard(ctx context.Context, tenantID string) (inventory.Summary, error) {
	if err := requireTenant(tenantID); err != nil {
		return inventory.Summary{}, err
	}
	snap, err := s.snapshot(ctx, tenantID)
	if err != nil {
		return inventory.Summary{}, err
	}
	return inventory.Summarize(snap.Products, snap.Sales, inventory.DefaultRecentSales), nil
}

func (s *Service) Alerts(ctx context.Context, tenantID string) (inventory.Alerts, error) {
	if err := requireTenant(tenantID); err != nil {
		return inventory.Alerts{}, err
	}
	snap, err := s.snapshot(ctx, tenantID)
	if err != nil {
		return inventory.Alerts{}, err
	}
	return inventory.BuildAlerts(snap.Products), nil
}

func (s *Service) Report(ctx context.Context, tenantID string) (inventory.Report, error) {
	if err := requireTenant(tenantID); err != nil {
		return inventory.Report{}, err
	}
	snap, err := s.snapshot(ctx, tenantID)
	if err != nil {
		return inventory.Report{}, err
	}
	return inventory.BuildReport(snap), nil
}
