package service

import (
	"context"
	"fmt"
	"strings"

	"shoptracker/internal/domain"
	"shoptracker/internal/inventory"

	"golang.org/x/sync/errgroup"
)

type SupportRequest struct {
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

type SupportPage struct {
	Items      []domain.SupportTicket `json:"items"`
	Pagination inventory.Pagination   `json:"pagination"`
}

// Requester identifies who files a support ticket.
type Requester struct {
	TenantID    string
	Email       string
	DisplayName string
}

func (s *Service) SubmitSupportTicket(ctx context.Context, requester Requester, req SupportRequest) (domain.SupportTicket, error) {
	if err := requireTenant(requester.TenantID); err != nil {
		return domain.SupportTicket{}, err
	}
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validateInput(req); err != nil {
		return domain.SupportTicket{}, err
	}

	ticket, err := s.repo.CreateSupportTicket(ctx, domain.SupportTicket{
		ID:              s.opts.NewID(),
		TenantID:        requester.TenantID,
		UserEmail:       requester.Email,
		UserDisplayName: requester.DisplayName,
		Subject:         req.Subject,
		Message:         req.Message,
		Status:          domain.SupportPending,
	})
	if err != nil {
		return domain.SupportTicket{}, err
	}
	s.recordActivity(ctx, tenantActivity(requester.TenantID, actorOf(requester), "support_submitted", "Support ticket submitted", ticket.Subject))
	return ticket, nil
}

func (s *Service) ListOwnSupportTickets(ctx context.Context, tenantID string, page, perPage int) (SupportPage, error) {
	if err := requireTenant(tenantID); err != nil {
		return SupportPage{}, err
	}
	return s.supportPage(ctx, domain.SupportFilter{TenantID: tenantID}, page, perPage)
}

func (s *Service) supportPage(ctx context.Context, filter domain.SupportFilter, page, perPage int) (SupportPage, error) {
	window := inventory.NewPagination(page, perPage, 0)
	filter.Limit = window.PerPage
	filter.Offset = window.Offset()

	var (
		items []domain.SupportTicket
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.repo.ListSupportTickets(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.CountSupportTickets(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return SupportPage{}, fmt.Errorf("list support tickets: %w", err)
	}
	if items == nil {
		items = []domain.SupportTicket{}
	}
	return SupportPage{Items: items, Pagination: inventory.NewPagination(window.Page, window.PerPage, total)}, nil
}

func actorOf(requester Requester) string {
	if requester.Email != "" {
		return requester.Email
	}
	if requester.DisplayName != "" {
		return requester.DisplayName
	}
	return requester.TenantID
}
