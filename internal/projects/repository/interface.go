package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Project represents a campaign grouping of customers.
type Project struct {
	ID             uuid.UUID   `db:"id"`
	Name           string      `db:"name"`
	Description    string      `db:"description"`
	Status         string      `db:"status"`
	CreatedBy      uuid.UUID   `db:"created_by"`
	CustomerIDs    []uuid.UUID `db:"customer_ids"`
	SearchGroupIDs []uuid.UUID `db:"search_group_ids"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

// CreateProjectParams contains data for creating a project.
type CreateProjectParams struct {
	Name        string
	Description string
	Status      string
	CreatedBy   uuid.UUID
}

// UpdateProjectParams contains data for a partial project update.
type UpdateProjectParams struct {
	ID          uuid.UUID
	CreatedBy   uuid.UUID
	Name        *string
	Description *string
	Status      *string
}

// Repository defines persistence operations for projects. All reads and
// writes are scoped to the creating user.
type Repository interface {
	Create(ctx context.Context, params CreateProjectParams) (Project, error)
	GetByID(ctx context.Context, createdBy, id uuid.UUID) (Project, error)
	List(ctx context.Context, createdBy uuid.UUID) ([]Project, error)
	Update(ctx context.Context, params UpdateProjectParams) (Project, error)
	// Delete removes the project and strips its id from customer and
	// search-group membership arrays.
	Delete(ctx context.Context, createdBy, id uuid.UUID) error
}
