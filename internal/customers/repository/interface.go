package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Customer represents a contact that outbound calls are placed to.
type Customer struct {
	ID             uuid.UUID   `db:"id"`
	Name           string      `db:"name"`
	PhoneNumber    string      `db:"phone_number"`
	Note           string      `db:"note"`
	Record         string      `db:"record"`
	Status         string      `db:"status"`
	ProjectIDs     []uuid.UUID `db:"project_ids"`
	SearchGroupIDs []uuid.UUID `db:"search_group_ids"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

// CreateCustomerParams contains data for creating a customer.
type CreateCustomerParams struct {
	Name        string
	PhoneNumber string
	Note        string
	Record      string
	Status      string
}

// UpdateCustomerParams contains data for a partial customer update.
type UpdateCustomerParams struct {
	ID     uuid.UUID
	Name   *string
	Note   *string
	Record *string
	Status *string
}

// ListCustomersParams defines filters for listing customers.
type ListCustomersParams struct {
	Search    string
	Status    string
	ProjectID *uuid.UUID
	Offset    int
	Limit     int
}

// Repository defines persistence operations for customers.
type Repository interface {
	Create(ctx context.Context, params CreateCustomerParams) (Customer, error)
	// UpsertByPhone creates the customer if the phone number is unknown,
	// otherwise updates name and status on the existing row. This is the
	// single-statement upsert used by call initiation.
	UpsertByPhone(ctx context.Context, name, phoneNumber, status string) (Customer, error)
	GetByID(ctx context.Context, id uuid.UUID) (Customer, error)
	GetByPhone(ctx context.Context, phoneNumber string) (Customer, error)
	List(ctx context.Context, params ListCustomersParams) ([]Customer, int, error)
	Update(ctx context.Context, params UpdateCustomerParams) (Customer, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	// DeleteCascade removes the customer, every call record it owns, and
	// its id from all project and search-group membership arrays.
	DeleteCascade(ctx context.Context, id uuid.UUID) error
}
