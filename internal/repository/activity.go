package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"shoptracker/internal/domain"
)

func (r *Repository) LogActivity(ctx context.Context, entry domain.ActivityEntry) error {
	actionType := strings.TrimSpace(entry.ActionType)
	title := strings.TrimSpace(entry.Title)
	if actionType == "" || title == "" {
		return fmt.Errorf("action_type and title are required")
	}
	details := entry.Details
	if details == "" {
		details = "-"
	}
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO activity_log (
			tenant_id,
			actor,
			action_type,
			title,
			details
		) VALUES ($1, $2, $3, $4, $5)
	`, entry.TenantID, entry.Actor, actionType, title, details); err != nil {
		return fmt.Errorf("log activity: %w", err)
	}
	return nil
}

// ListActivity returns entries newest first. A nil TenantID lists every
// tenant plus admin entries.
func (r *Repository) ListActivity(ctx context.Context, filter domain.ActivityFilter) ([]domain.ActivityEntry, error) {
	limit := normalizeLimit(filter.Limit)
	offset := normalizeOffset(filter.Offset)
	search := strings.TrimSpace(filter.Search)

	rows, err := r.pool.Query(ctx, `
		SELECT
			id,
			tenant_id,
			actor,
			action_type,
			title,
			details,
			created_at
		FROM activity_log
		WHERE ($1::text IS NULL OR tenant_id = $1)
			AND (
				$2::text = ''
				OR title ILIKE '%' || $2 || '%'
				OR details ILIKE '%' || $2 || '%'
				OR action_type ILIKE '%' || $2 || '%'
			)
		ORDER BY id DESC
		LIMIT $3 OFFSET $4
	`, filter.TenantID, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	list := make([]domain.ActivityEntry, 0, limit)
	for rows.Next() {
		var (
			entry    domain.ActivityEntry
			tenantID sql.NullString
		)
		if err := rows.Scan(
			&entry.ID,
			&tenantID,
			&entry.Actor,
			&entry.ActionType,
			&entry.Title,
			&entry.Details,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		entry.TenantID = nullableString(tenantID)
		list = append(list, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity: %w", err)
	}
	return list, nil
}

func (r *Repository) CountActivity(ctx context.Context, filter domain.ActivityFilter) (int, error) {
	search := strings.TrimSpace(filter.Search)
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)::int
		FROM activity_log
		WHERE ($1::text IS NULL OR tenant_id = $1)
			AND (
				$2::text = ''
				OR title ILIKE '%' || $2 || '%'
				OR details ILIKE '%' || $2 || '%'
				OR action_type ILIKE '%' || $2 || '%'
			)
	`, filter.TenantID, search).Scan(&total); err != nil {
		return 0, fmt.Errorf("count activity: %w", err)
	}
	return total, nil
}
