// Package repository provides Postgres persistence for search groups.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"callcenter_backend/platform/apperr"
)

const groupNotFoundMessage = "search group not found"

const groupColumns = `id, name, description, status, created_by, customer_ids, project_ids, flows, settings, created_at, updated_at`

// Repo implements the search groups repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new search groups repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

func scanGroup(row pgx.Row) (SearchGroup, error) {
	var g SearchGroup
	err := row.Scan(
		&g.ID, &g.Name, &g.Description, &g.Status, &g.CreatedBy,
		&g.CustomerIDs, &g.ProjectIDs, &g.Flows, &g.Settings,
		&g.CreatedAt, &g.UpdatedAt,
	)
	return g, err
}

// Create inserts a new search group.
func (r *Repo) Create(ctx context.Context, params CreateSearchGroupParams) (SearchGroup, error) {
	query := `
		INSERT INTO search_groups (name, description, status, created_by, settings)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + groupColumns

	group, err := scanGroup(r.pool.QueryRow(ctx, query,
		params.Name, params.Description, params.Status, params.CreatedBy, params.Settings))
	if err != nil {
		return SearchGroup{}, apperr.Persistence("create search group", err)
	}
	return group, nil
}

// GetByID retrieves a search group scoped to its creator.
func (r *Repo) GetByID(ctx context.Context, createdBy, id uuid.UUID) (SearchGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM search_groups WHERE id = $1 AND created_by = $2`

	group, err := scanGroup(r.pool.QueryRow(ctx, query, id, createdBy))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SearchGroup{}, apperr.NotFound(groupNotFoundMessage)
		}
		return SearchGroup{}, fmt.Errorf("get search group by id: %w", err)
	}
	return group, nil
}

// List retrieves all search groups created by the given user, newest first.
func (r *Repo) List(ctx context.Context, createdBy uuid.UUID) ([]SearchGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM search_groups WHERE created_by = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, createdBy)
	if err != nil {
		return nil, fmt.Errorf("list search groups: %w", err)
	}
	defer rows.Close()

	groups := make([]SearchGroup, 0)
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan search group: %w", err)
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// Update applies a partial update scoped to the creator.
func (r *Repo) Update(ctx context.Context, params UpdateSearchGroupParams) (SearchGroup, error) {
	query := `
		UPDATE search_groups
		SET name = COALESCE($3, name),
			description = COALESCE($4, description),
			status = COALESCE($5, status),
			settings = COALESCE($6, settings),
			updated_at = now()
		WHERE id = $1 AND created_by = $2
		RETURNING ` + groupColumns

	group, err := scanGroup(r.pool.QueryRow(ctx, query,
		params.ID, params.CreatedBy, params.Name, params.Description, params.Status, params.Settings))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SearchGroup{}, apperr.NotFound(groupNotFoundMessage)
		}
		return SearchGroup{}, apperr.Persistence("update search group", err)
	}
	return group, nil
}

// Delete removes a search group and its membership references.
func (r *Repo) Delete(ctx context.Context, createdBy, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM search_groups WHERE id = $1 AND created_by = $2`, id, createdBy)
	if err != nil {
		return apperr.Persistence("delete search group", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(groupNotFoundMessage)
	}

	if _, err := r.pool.Exec(ctx,
		`UPDATE customers SET search_group_ids = array_remove(search_group_ids, $1), updated_at = now()
		 WHERE search_group_ids @> ARRAY[$1]::uuid[]`, id); err != nil {
		return apperr.Persistence("remove search group from customers", err)
	}
	if _, err := r.pool.Exec(ctx,
		`UPDATE projects SET search_group_ids = array_remove(search_group_ids, $1), updated_at = now()
		 WHERE search_group_ids @> ARRAY[$1]::uuid[]`, id); err != nil {
		return apperr.Persistence("remove search group from projects", err)
	}
	return nil
}

// ReplaceFlows overwrites the whole flow sub-list atomically.
func (r *Repo) ReplaceFlows(ctx context.Context, createdBy, id uuid.UUID, flows []Flow) (SearchGroup, error) {
	query := `
		UPDATE search_groups
		SET flows = $3, updated_at = now()
		WHERE id = $1 AND created_by = $2
		RETURNING ` + groupColumns

	group, err := scanGroup(r.pool.QueryRow(ctx, query, id, createdBy, flows))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SearchGroup{}, apperr.NotFound(groupNotFoundMessage)
		}
		return SearchGroup{}, apperr.Persistence("replace search group flows", err)
	}
	return group, nil
}

// Stats aggregates membership counts and member call outcomes for a group.
func (r *Repo) Stats(ctx context.Context, createdBy, id uuid.UUID) (GroupStats, error) {
	group, err := r.GetByID(ctx, createdBy, id)
	if err != nil {
		return GroupStats{}, err
	}

	stats := GroupStats{
		CustomerCount: len(group.CustomerIDs),
		ProjectCount:  len(group.ProjectIDs),
		MaxCustomers:  group.Settings.MaxCustomers,
		StatusCounts:  make(map[string]int),
	}
	if len(group.CustomerIDs) == 0 {
		return stats, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT status, count(*) FROM customers WHERE id = ANY($1) GROUP BY status`,
		group.CustomerIDs)
	if err != nil {
		return GroupStats{}, fmt.Errorf("aggregate customer statuses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return GroupStats{}, fmt.Errorf("scan status count: %w", err)
		}
		stats.StatusCounts[status] = count
	}
	if err := rows.Err(); err != nil {
		return GroupStats{}, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE status IN ('ended', 'completed')),
			count(*) FILTER (WHERE status IN ('failed', 'error'))
		FROM call_records WHERE customer_id = ANY($1)`,
		group.CustomerIDs).Scan(&stats.CallsCompleted, &stats.CallsFailed)
	if err != nil {
		return GroupStats{}, fmt.Errorf("aggregate call outcomes: %w", err)
	}
	return stats, nil
}

// MemberCallDetails lists call records for the group's member customers.
func (r *Repo) MemberCallDetails(ctx context.Context, createdBy, id uuid.UUID) ([]MemberCallDetail, error) {
	group, err := r.GetByID(ctx, createdBy, id)
	if err != nil {
		return nil, err
	}
	if len(group.CustomerIDs) == 0 {
		return []MemberCallDetail{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT cr.id, cr.provider_call_id, cr.customer_id, c.name,
		       cr.status, cr.from_number, cr.to_number, cr.started_at, cr.last_updated
		FROM call_records cr
		JOIN customers c ON c.id = cr.customer_id
		WHERE cr.customer_id = ANY($1)
		ORDER BY cr.last_updated DESC`,
		group.CustomerIDs)
	if err != nil {
		return nil, fmt.Errorf("list member call details: %w", err)
	}
	defer rows.Close()

	details := make([]MemberCallDetail, 0)
	for rows.Next() {
		var d MemberCallDetail
		if err := rows.Scan(
			&d.CallID, &d.ProviderCallID, &d.CustomerID, &d.CustomerName,
			&d.Status, &d.FromNumber, &d.ToNumber, &d.StartedAt, &d.LastUpdated,
		); err != nil {
			return nil, fmt.Errorf("scan member call detail: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}
