// Package repository provides Postgres persistence for projects.
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

const projectNotFoundMessage = "project not found"

const projectColumns = `id, name, description, status, created_by, customer_ids, search_group_ids, created_at, updated_at`

// Repo implements the projects repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new projects repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Status, &p.CreatedBy,
		&p.CustomerIDs, &p.SearchGroupIDs, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// Create inserts a new project.
func (r *Repo) Create(ctx context.Context, params CreateProjectParams) (Project, error) {
	query := `
		INSERT INTO projects (name, description, status, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + projectColumns

	project, err := scanProject(r.pool.QueryRow(ctx, query,
		params.Name, params.Description, params.Status, params.CreatedBy))
	if err != nil {
		return Project{}, apperr.Persistence("create project", err)
	}
	return project, nil
}

// GetByID retrieves a project scoped to its creator.
func (r *Repo) GetByID(ctx context.Context, createdBy, id uuid.UUID) (Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1 AND created_by = $2`

	project, err := scanProject(r.pool.QueryRow(ctx, query, id, createdBy))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Project{}, apperr.NotFound(projectNotFoundMessage)
		}
		return Project{}, fmt.Errorf("get project by id: %w", err)
	}
	return project, nil
}

// List retrieves all projects created by the given user, newest first.
func (r *Repo) List(ctx context.Context, createdBy uuid.UUID) ([]Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE created_by = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, createdBy)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// Update applies a partial update scoped to the creator.
func (r *Repo) Update(ctx context.Context, params UpdateProjectParams) (Project, error) {
	query := `
		UPDATE projects
		SET name = COALESCE($3, name),
			description = COALESCE($4, description),
			status = COALESCE($5, status),
			updated_at = now()
		WHERE id = $1 AND created_by = $2
		RETURNING ` + projectColumns

	project, err := scanProject(r.pool.QueryRow(ctx, query,
		params.ID, params.CreatedBy, params.Name, params.Description, params.Status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Project{}, apperr.NotFound(projectNotFoundMessage)
		}
		return Project{}, apperr.Persistence("update project", err)
	}
	return project, nil
}

// Delete removes a project and its membership references. Reference cleanup
// runs after the row delete; a failure there leaves dangling array entries
// for the edge audit to repair.
func (r *Repo) Delete(ctx context.Context, createdBy, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM projects WHERE id = $1 AND created_by = $2`, id, createdBy)
	if err != nil {
		return apperr.Persistence("delete project", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(projectNotFoundMessage)
	}

	if _, err := r.pool.Exec(ctx,
		`UPDATE customers SET project_ids = array_remove(project_ids, $1), updated_at = now()
		 WHERE project_ids @> ARRAY[$1]::uuid[]`, id); err != nil {
		return apperr.Persistence("remove project from customers", err)
	}
	if _, err := r.pool.Exec(ctx,
		`UPDATE search_groups SET project_ids = array_remove(project_ids, $1), updated_at = now()
		 WHERE project_ids @> ARRAY[$1]::uuid[]`, id); err != nil {
		return apperr.Persistence("remove project from search groups", err)
	}
	return nil
}
