// Package repository provides Postgres persistence for call records.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"callcenter_backend/platform/apperr"
)

const callNotFoundMessage = "call record not found"

const callColumns = `id, provider_call_id, customer_id, project_id, status, transcript, recording_url, analysis, from_number, to_number, started_at, last_updated, created_at`

// Repo implements the call records repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new call records repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

func scanCall(row pgx.Row) (CallRecord, error) {
	var rec CallRecord
	err := row.Scan(
		&rec.ID, &rec.ProviderCallID, &rec.CustomerID, &rec.ProjectID, &rec.Status,
		&rec.Transcript, &rec.RecordingURL, &rec.Analysis, &rec.FromNumber, &rec.ToNumber,
		&rec.StartedAt, &rec.LastUpdated, &rec.CreatedAt,
	)
	return rec, err
}

// Create persists a newly initiated call record.
func (r *Repo) Create(ctx context.Context, params CreateCallRecordParams) (CallRecord, error) {
	query := `
		INSERT INTO call_records (provider_call_id, customer_id, project_id, status, from_number, to_number, started_at, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + callColumns

	rec, err := scanCall(r.pool.QueryRow(ctx, query,
		params.ProviderCallID, params.CustomerID, params.ProjectID, params.Status,
		params.FromNumber, params.ToNumber, params.StartedAt, params.LastUpdated))
	if err != nil {
		return CallRecord{}, apperr.Persistence("create call record", err)
	}
	return rec, nil
}

// GetByProviderCallID retrieves a call record by the provider's call id.
func (r *Repo) GetByProviderCallID(ctx context.Context, providerCallID string) (CallRecord, error) {
	query := `SELECT ` + callColumns + ` FROM call_records WHERE provider_call_id = $1`

	rec, err := scanCall(r.pool.QueryRow(ctx, query, providerCallID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CallRecord{}, apperr.NotFound(callNotFoundMessage)
		}
		return CallRecord{}, fmt.Errorf("get call by provider id: %w", err)
	}
	return rec, nil
}

// GetByID retrieves a call record by its local id.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (CallRecord, error) {
	query := `SELECT ` + callColumns + ` FROM call_records WHERE id = $1`

	rec, err := scanCall(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CallRecord{}, apperr.NotFound(callNotFoundMessage)
		}
		return CallRecord{}, fmt.Errorf("get call by id: %w", err)
	}
	return rec, nil
}

// List retrieves call records with optional filters, newest first.
func (r *Repo) List(ctx context.Context, params ListCallRecordsParams) ([]CallRecord, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argPos := 1

	if params.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *params.CustomerID)
		argPos++
	}
	if params.ProjectID != nil {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", argPos))
		args = append(args, *params.ProjectID)
		argPos++
	}
	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, params.Status)
		argPos++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM call_records WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count call records: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM call_records WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		callColumns, where, argPos, argPos+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list call records: %w", err)
	}
	defer rows.Close()

	records := make([]CallRecord, 0)
	for rows.Next() {
		rec, err := scanCall(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan call record: %w", err)
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

// ApplyEvent replaces the mutable fields and advances last_updated, but only
// when the incoming timestamp is strictly newer and the transition does not
// regress a terminal status. Both guards live in the WHERE clause: the check
// and the write are one statement, so a concurrent delivery for the same
// provider_call_id cannot slip between them.
func (r *Repo) ApplyEvent(ctx context.Context, params ApplyEventParams) (CallRecord, bool, error) {
	query := `
		UPDATE call_records
		SET status = $2,
			transcript = $3,
			recording_url = $4,
			analysis = $5,
			last_updated = $6
		WHERE provider_call_id = $1
			AND last_updated < $6
			AND (status NOT IN ('ended', 'completed', 'failed', 'error')
				OR $2 IN ('ended', 'completed', 'failed', 'error'))
		RETURNING ` + callColumns

	rec, err := scanCall(r.pool.QueryRow(ctx, query,
		params.ProviderCallID, params.Status,
		params.Payload.Transcript, params.Payload.RecordingURL, params.Payload.Analysis,
		params.EventTimestamp))
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return CallRecord{}, false, apperr.Persistence("apply call event", err)
	}

	// Condition rejected the write or the record is gone; return the
	// current row so the caller can tell which.
	current, err := r.GetByProviderCallID(ctx, params.ProviderCallID)
	if err != nil {
		return CallRecord{}, false, err
	}
	return current, false, nil
}
