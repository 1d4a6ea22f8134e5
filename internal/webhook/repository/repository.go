// Package repository persists the webhook inbox: a journal of raw provider
// deliveries kept independent of the derived call record state, for replay
// and audit.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"callcenter_backend/platform/apperr"
)

// InboxEntry is one journaled delivery.
type InboxEntry struct {
	ID             uuid.UUID       `json:"id"`
	ProviderCallID string          `json:"providerCallId"`
	CallStatus     string          `json:"callStatus"`
	Payload        json.RawMessage `json:"payload"`
	EventTimestamp time.Time       `json:"eventTimestamp"`
	Applied        bool            `json:"applied"`
	ReceivedAt     time.Time       `json:"receivedAt"`
}

// Repo implements the webhook inbox repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new inbox repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Insert journals a raw delivery before it is handed to the reconciler.
func (r *Repo) Insert(ctx context.Context, providerCallID, callStatus string, payload []byte, eventTimestamp time.Time) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO webhook_inbox (provider_call_id, call_status, payload, event_timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		providerCallID, callStatus, payload, eventTimestamp).Scan(&id)
	if err != nil {
		return uuid.Nil, apperr.Persistence("insert webhook inbox entry", err)
	}
	return id, nil
}

// MarkApplied flags an entry after the reconciler accepted its event.
func (r *Repo) MarkApplied(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx,
		`UPDATE webhook_inbox SET applied = true WHERE id = $1`, id); err != nil {
		return apperr.Persistence("mark webhook inbox entry applied", err)
	}
	return nil
}

// ListByCall returns every journaled delivery for one provider call id in
// delivery-timestamp order.
func (r *Repo) ListByCall(ctx context.Context, providerCallID string) ([]InboxEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, provider_call_id, call_status, payload, event_timestamp, applied, received_at
		FROM webhook_inbox
		WHERE provider_call_id = $1
		ORDER BY event_timestamp ASC`, providerCallID)
	if err != nil {
		return nil, fmt.Errorf("list webhook inbox by call: %w", err)
	}
	defer rows.Close()

	entries := make([]InboxEntry, 0)
	for rows.Next() {
		var entry InboxEntry
		if err := rows.Scan(&entry.ID, &entry.ProviderCallID, &entry.CallStatus,
			&entry.Payload, &entry.EventTimestamp, &entry.Applied, &entry.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan webhook inbox entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
