package service

import (
	"context"
	"fmt"
	"strings"

	"shoptracker/internal/domain"
	"shoptracker/internal/inventory"

	"golang.org/x/sync/errgroup"
)

type TenantPage struct {
	Items      []domain.TenantStats `json:"items"`
	Pagination inventory.Pagination `json:"pagination"`
}

type ActivityPage struct {
	Items      []domain.ActivityEntry `json:"items"`
	Pagination inventory.Pagination   `json:"pagination"`
}

type SupportStats struct {
	Total  int                          `json:"total"`
	Counts map[domain.SupportStatus]int `json:"counts"`
}

// ListTenants returns registered tenants with product and sale counts and
// revenue, newest first.
func (s *Service) ListTenants(ctx context.Context, page, perPage int) (TenantPage, error) {
	window := inventory.NewPagination(page, perPage, 0)
	var (
		items []domain.TenantStats
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.ListTenantStats(gctx, window.PerPage, window.Offset())
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.CountTenants(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return TenantPage{}, fmt.Errorf("list tenants: %w", err)
	}
	if items == nil {
		items = []domain.TenantStats{}
	}
	return TenantPage{Items: items, Pagination: inventory.NewPagination(window.Page, window.PerPage, total)}, nil
}

func (s *Service) GetTenant(ctx context.Context, tenantID string) (domain.TenantStats, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return domain.TenantStats{}, domain.ErrNotFound
	}
	return s.repo.GetTenantStats(ctx, tenantID)
}

// ListSupportTickets lists every tenant's tickets, optionally by status.
func (s *Service) ListSupportTickets(ctx context.Context, status string, page, perPage int) (SupportPage, error) {
	filter := domain.SupportFilter{}
	if status = strings.TrimSpace(status); status != "" && status != "all" {
		parsed, ok := domain.ParseSupportStatus(status)
		if !ok {
			return SupportPage{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
		}
		filter.Status = parsed
	}
	return s.supportPage(ctx, filter, page, perPage)
}

func (s *Service) SupportStats(ctx context.Context) (SupportStats, error) {
	counts, err := s.repo.SupportStatusCounts(ctx)
	if err != nil {
		return SupportStats{}, err
	}
	stats := SupportStats{Counts: counts}
	for _, count := range counts {
		stats.Total += count
	}
	return stats, nil
}

func (s *Service) UpdateSupportStatus(ctx context.Context, actor, id, status string) (domain.SupportTicket, error) {
	parsed, ok := domain.ParseSupportStatus(strings.TrimSpace(status))
	if !ok {
		return domain.SupportTicket{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.SupportTicket{}, domain.ErrNotFound
	}
	ticket, err := s.repo.UpdateSupportStatus(ctx, id, parsed)
	if err != nil {
		return domain.SupportTicket{}, err
	}
	s.recordActivity(ctx, domain.ActivityEntry{
		Actor:      actor,
		ActionType: "support_status_updated",
		Title:      "Support ticket " + string(parsed),
		Details:    fmt.Sprintf("%s (%s)", ticket.Subject, ticket.UserEmail),
	})
	return ticket, nil
}

// ListActivity pages the audit feed. A nil tenant lists every entry.
func (s *Service) ListActivity(ctx context.Context, tenantID *string, search string, page, perPage int) (ActivityPage, error) {
	window := inventory.NewPagination(page, perPage, 0)
	filter := domain.ActivityFilter{
		TenantID: tenantID,
		Search:   strings.TrimSpace(search),
		Limit:    window.PerPage,
		Offset:   window.Offset(),
	}

	var (
		items []domain.ActivityEntry
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.ListActivity(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.CountActivity(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return ActivityPage{}, fmt.Errorf("list activity: %w", err)
	}
	if items == nil {
		items = []domain.ActivityEntry{}
	}
	return ActivityPage{Items: items, Pagination: inventory.NewPagination(window.Page, window.PerPage, total)}, nil
}

// LogAdminLogin records a console sign-in.
func (s *Service) LogAdminLogin(ctx context.Context, actor string) {
	s.recordActivity(ctx, domain.ActivityEntry{
		Actor:      actor,
		ActionType: "admin_login",
		Title:      "Admin signed in",
	})
}
