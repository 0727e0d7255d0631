package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shoptracker/internal/domain"

	"github.com/jackc/pgx/v5"
)

const supportColumns = `
	st.id,
	st.tenant_id,
	st.user_email,
	st.user_display_name,
	st.subject,
	st.message,
	st.status,
	t.business_name,
	st.created_at,
	st.updated_at
`

func (r *Repository) CreateSupportTicket(ctx context.Context, ticket domain.SupportTicket) (domain.SupportTicket, error) {
	row := r.pool.QueryRow(ctx, `
		WITH st AS (
			INSERT INTO support_tickets (
				id,
				tenant_id,
				user_email,
				user_display_name,
				subject,
				message,
				status
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING *
		)
		SELECT `+supportColumns+`
		FROM st
		LEFT JOIN tenants t ON t.id = st.tenant_id
	`,
		ticket.ID,
		ticket.TenantID,
		ticket.UserEmail,
		ticket.UserDisplayName,
		ticket.Subject,
		ticket.Message,
		string(ticket.Status),
	)
	created, err := scanSupportTicketRow(row)
	if err != nil {
		return domain.SupportTicket{}, fmt.Errorf("create support ticket: %w", err)
	}
	return created, nil
}

// ListSupportTickets returns tickets newest first, enriched with the owning
// tenant's business name.
func (r *Repository) ListSupportTickets(ctx context.Context, filter domain.SupportFilter) ([]domain.SupportTicket, error) {
	limit := normalizeLimit(filter.Limit)
	offset := normalizeOffset(filter.Offset)

	rows, err := r.pool.Query(ctx, `
		SELECT `+supportColumns+`
		FROM support_tickets st
		LEFT JOIN tenants t ON t.id = st.tenant_id
		WHERE ($1 = '' OR st.tenant_id = $1)
			AND ($2 = '' OR st.status = $2)
		ORDER BY st.created_at DESC, st.id DESC
		LIMIT $3 OFFSET $4
	`, filter.TenantID, string(filter.Status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list support tickets: %w", err)
	}
	defer rows.Close()

	list := make([]domain.SupportTicket, 0, limit)
	for rows.Next() {
		ticket, err := scanSupportTicketRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan support ticket: %w", err)
		}
		list = append(list, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate support tickets: %w", err)
	}
	return list, nil
}

func (r *Repository) CountSupportTickets(ctx context.Context, filter domain.SupportFilter) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)::int
		FROM support_tickets
		WHERE ($1 = '' OR tenant_id = $1)
			AND ($2 = '' OR status = $2)
	`, filter.TenantID, string(filter.Status)).Scan(&total); err != nil {
		return 0, fmt.Errorf("count support tickets: %w", err)
	}
	return total, nil
}

func (r *Repository) SupportStatusCounts(ctx context.Context) (map[domain.SupportStatus]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*)::int
		FROM support_tickets
		GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("support status counts: %w", err)
	}
	defer rows.Close()

	counts := map[domain.SupportStatus]int{
		domain.SupportPending:    0,
		domain.SupportInProgress: 0,
		domain.SupportResolved:   0,
	}
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan support status count: %w", err)
		}
		counts[domain.SupportStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate support status counts: %w", err)
	}
	return counts, nil
}

func (r *Repository) UpdateSupportStatus(
	ctx context.Context,
	id string,
	status domain.SupportStatus,
) (domain.SupportTicket, error) {
	row := r.pool.QueryRow(ctx, `
		WITH st AS (
			UPDATE support_tickets
			SET status = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING *
		)
		SELECT `+supportColumns+`
		FROM st
		LEFT JOIN tenants t ON t.id = st.tenant_id
	`, id, string(status))
	ticket, err := scanSupportTicketRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SupportTicket{}, domain.ErrNotFound
		}
		return domain.SupportTicket{}, fmt.Errorf("update support ticket %s: %w", id, err)
	}
	return ticket, nil
}

func scanSupportTicketRow(row pgx.Row) (domain.SupportTicket, error) {
	var (
		ticket   domain.SupportTicket
		status   string
		business sql.NullString
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.TenantID,
		&ticket.UserEmail,
		&ticket.UserDisplayName,
		&ticket.Subject,
		&ticket.Message,
		&status,
		&business,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return domain.SupportTicket{}, err
	}
	ticket.Status = domain.SupportStatus(status)
	ticket.TenantBusinessName = nullableString(business)
	return ticket, nil
}
