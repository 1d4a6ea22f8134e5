// Package repository persists local snapshots of provider LLM configurations.
// The provider remains the source of truth; the snapshot gives an offline
// view and survives provider outages.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"callcenter_backend/internal/telephony"
	"callcenter_backend/platform/apperr"
)

// LLMSnapshot is a locally stored copy of one provider LLM configuration.
type LLMSnapshot struct {
	ID               uuid.UUID            `json:"id"`
	LLMID            string               `json:"llmId"`
	Version          int                  `json:"version"`
	IsPublished      bool                 `json:"isPublished"`
	Model            string               `json:"model"`
	Temperature      *float64             `json:"temperature,omitempty"`
	GeneralPrompt    string               `json:"generalPrompt"`
	BeginMessage     string               `json:"beginMessage"`
	States           []telephony.LLMState `json:"states"`
	DynamicVariables map[string]string    `json:"dynamicVariables"`
	LastModified     int64                `json:"lastModified"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

const snapshotColumns = `id, llm_id, version, is_published, model, temperature,
	general_prompt, begin_message, states, dynamic_variables, last_modified,
	created_at, updated_at`

// Repository provides access to the llm_configs table.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates an LLM snapshot repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanSnapshot(row pgx.Row) (LLMSnapshot, error) {
	var s LLMSnapshot
	err := row.Scan(&s.ID, &s.LLMID, &s.Version, &s.IsPublished, &s.Model,
		&s.Temperature, &s.GeneralPrompt, &s.BeginMessage, &s.States,
		&s.DynamicVariables, &s.LastModified, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// Upsert stores the latest provider view of one LLM configuration. A stale
// write (older last_modified than what is stored) is skipped silently.
func (r *Repository) Upsert(ctx context.Context, llm telephony.LLMConfig) (LLMSnapshot, error) {
	states := llm.States
	if states == nil {
		states = []telephony.LLMState{}
	}
	vars := llm.DefaultDynamicVariables
	if vars == nil {
		vars = map[string]string{}
	}

	var temperature *float64
	if llm.ModelTemperature != 0 {
		temperature = &llm.ModelTemperature
	}

	snapshot, err := scanSnapshot(r.pool.QueryRow(ctx, `
		INSERT INTO llm_configs (llm_id, version, is_published, model, temperature,
			general_prompt, begin_message, states, dynamic_variables, last_modified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (llm_id) DO UPDATE SET
			version = EXCLUDED.version,
			is_published = EXCLUDED.is_published,
			model = EXCLUDED.model,
			temperature = EXCLUDED.temperature,
			general_prompt = EXCLUDED.general_prompt,
			begin_message = EXCLUDED.begin_message,
			states = EXCLUDED.states,
			dynamic_variables = EXCLUDED.dynamic_variables,
			last_modified = EXCLUDED.last_modified,
			updated_at = now()
		WHERE llm_configs.last_modified <= EXCLUDED.last_modified
		RETURNING `+snapshotColumns,
		llm.LLMID, llm.Version, llm.IsPublished, llm.Model, temperature,
		llm.GeneralPrompt, llm.BeginMessage, states, vars, llm.LastModificationTimestamp,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Stale write skipped, return what is stored.
			return r.GetByLLMID(ctx, llm.LLMID)
		}
		return LLMSnapshot{}, apperr.Persistence("failed to store llm snapshot", err)
	}
	return snapshot, nil
}

// GetByLLMID returns the stored snapshot for one provider LLM id.
func (r *Repository) GetByLLMID(ctx context.Context, llmID string) (LLMSnapshot, error) {
	snapshot, err := scanSnapshot(r.pool.QueryRow(ctx,
		"SELECT "+snapshotColumns+" FROM llm_configs WHERE llm_id = $1", llmID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LLMSnapshot{}, apperr.NotFound("llm configuration not found")
		}
		return LLMSnapshot{}, apperr.Persistence("failed to fetch llm snapshot", err)
	}
	return snapshot, nil
}

// List returns all stored snapshots ordered by llm id.
func (r *Repository) List(ctx context.Context) ([]LLMSnapshot, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+snapshotColumns+" FROM llm_configs ORDER BY llm_id ASC")
	if err != nil {
		return nil, apperr.Persistence("failed to list llm snapshots", err)
	}
	defer rows.Close()

	snapshots := make([]LLMSnapshot, 0)
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, apperr.Persistence("failed to scan llm snapshot", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("failed to read llm snapshots", err)
	}
	return snapshots, nil
}
