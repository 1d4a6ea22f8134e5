// Package repository provides Postgres persistence for customers.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"callcenter_backend/platform/apperr"
	"callcenter_backend/platform/db"
)

const customerNotFoundMessage = "customer not found"

const customerColumns = `id, name, phone_number, note, record, status, project_ids, search_group_ids, created_at, updated_at`

// Repo implements the customers repository.
type Repo struct {
	pool db.Querier
}

// New creates a new customers repository.
func New(pool db.Querier) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(
		&c.ID, &c.Name, &c.PhoneNumber, &c.Note, &c.Record, &c.Status,
		&c.ProjectIDs, &c.SearchGroupIDs, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// Create inserts a new customer.
func (r *Repo) Create(ctx context.Context, params CreateCustomerParams) (Customer, error) {
	query := `
		INSERT INTO customers (name, phone_number, note, record, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + customerColumns

	customer, err := scanCustomer(r.pool.QueryRow(ctx, query,
		params.Name, params.PhoneNumber, params.Note, params.Record, params.Status))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Customer{}, apperr.Conflict("phone number already registered")
		}
		return Customer{}, apperr.Persistence("create customer", err)
	}
	return customer, nil
}

// UpsertByPhone creates or refreshes a customer keyed by phone number.
func (r *Repo) UpsertByPhone(ctx context.Context, name, phoneNumber, status string) (Customer, error) {
	query := `
		INSERT INTO customers (name, phone_number, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (phone_number) DO UPDATE
		SET name = EXCLUDED.name, status = EXCLUDED.status, updated_at = now()
		RETURNING ` + customerColumns

	customer, err := scanCustomer(r.pool.QueryRow(ctx, query, name, phoneNumber, status))
	if err != nil {
		return Customer{}, apperr.Persistence("upsert customer", err)
	}
	return customer, nil
}

// GetByID retrieves a customer by id.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	customer, err := scanCustomer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, apperr.NotFound(customerNotFoundMessage)
		}
		return Customer{}, fmt.Errorf("get customer by id: %w", err)
	}
	return customer, nil
}

// GetByPhone retrieves a customer by phone number.
func (r *Repo) GetByPhone(ctx context.Context, phoneNumber string) (Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE phone_number = $1`

	customer, err := scanCustomer(r.pool.QueryRow(ctx, query, phoneNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, apperr.NotFound(customerNotFoundMessage)
		}
		return Customer{}, fmt.Errorf("get customer by phone: %w", err)
	}
	return customer, nil
}

// List retrieves customers with optional filters, newest first.
func (r *Repo) List(ctx context.Context, params ListCustomersParams) ([]Customer, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argPos := 1

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR phone_number ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+params.Search+"%")
		argPos++
	}
	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, params.Status)
		argPos++
	}
	if params.ProjectID != nil {
		conditions = append(conditions, fmt.Sprintf("project_ids @> ARRAY[$%d]::uuid[]", argPos))
		args = append(args, *params.ProjectID)
		argPos++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := `SELECT count(*) FROM customers WHERE ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM customers WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		customerColumns, where, argPos, argPos+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]Customer, 0)
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, customer)
	}
	return customers, total, rows.Err()
}

// Update applies a partial update to a customer.
func (r *Repo) Update(ctx context.Context, params UpdateCustomerParams) (Customer, error) {
	query := `
		UPDATE customers
		SET name = COALESCE($2, name),
			note = COALESCE($3, note),
			record = COALESCE($4, record),
			status = COALESCE($5, status),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + customerColumns

	customer, err := scanCustomer(r.pool.QueryRow(ctx, query,
		params.ID, params.Name, params.Note, params.Record, params.Status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, apperr.NotFound(customerNotFoundMessage)
		}
		return Customer{}, apperr.Persistence("update customer", err)
	}
	return customer, nil
}

// UpdateStatus sets only the contact status.
func (r *Repo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE customers SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return apperr.Persistence("update customer status", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(customerNotFoundMessage)
	}
	return nil
}

// DeleteCascade removes the customer, its call records, and its membership
// references. Reference cleanup runs after the row delete; a failure there
// leaves dangling array entries for the edge audit to repair.
func (r *Repo) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM call_records WHERE customer_id = $1`, id); err != nil {
		return apperr.Persistence("delete customer call records", err)
	}

	result, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return apperr.Persistence("delete customer", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(customerNotFoundMessage)
	}

	if _, err := r.pool.Exec(ctx,
		`UPDATE projects SET customer_ids = array_remove(customer_ids, $1), updated_at = now()
		 WHERE customer_ids @> ARRAY[$1]::uuid[]`, id); err != nil {
		return apperr.Persistence("remove customer from projects", err)
	}
	if _, err := r.pool.Exec(ctx,
		`UPDATE search_groups SET customer_ids = array_remove(customer_ids, $1), updated_at = now()
		 WHERE customer_ids @> ARRAY[$1]::uuid[]`, id); err != nil {
		return apperr.Persistence("remove customer from search groups", err)
	}
	return nil
}
