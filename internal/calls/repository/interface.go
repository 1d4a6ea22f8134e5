package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CustomAnalysisData carries free-form per-call annotations from the provider.
type CustomAnalysisData struct {
	Note   string `json:"note,omitempty"`
	Result string `json:"result,omitempty"`
}

// Analysis is the structured post-call analysis stored on a call record.
type Analysis struct {
	CallSummary        string             `json:"call_summary,omitempty"`
	UserSentiment      string             `json:"user_sentiment,omitempty"`
	CallSuccessful     bool               `json:"call_successful,omitempty"`
	InVoicemail        bool               `json:"in_voicemail,omitempty"`
	CustomAnalysisData CustomAnalysisData `json:"custom_analysis_data,omitempty"`
}

// CallRecord is the local persisted representation of one outbound call.
// ProviderCallID is immutable once assigned; LastUpdated guards against
// stale and duplicate event deliveries.
type CallRecord struct {
	ID             uuid.UUID  `db:"id"`
	ProviderCallID string     `db:"provider_call_id"`
	CustomerID     uuid.UUID  `db:"customer_id"`
	ProjectID      *uuid.UUID `db:"project_id"`
	Status         string     `db:"status"`
	Transcript     string     `db:"transcript"`
	RecordingURL   string     `db:"recording_url"`
	Analysis       Analysis   `db:"analysis"`
	FromNumber     string     `db:"from_number"`
	ToNumber       string     `db:"to_number"`
	StartedAt      *time.Time `db:"started_at"`
	LastUpdated    time.Time  `db:"last_updated"`
	CreatedAt      time.Time  `db:"created_at"`
}

// CreateCallRecordParams contains data for persisting a newly initiated call.
type CreateCallRecordParams struct {
	ProviderCallID string
	CustomerID     uuid.UUID
	ProjectID      *uuid.UUID
	Status         string
	FromNumber     string
	ToNumber       string
	StartedAt      *time.Time
	LastUpdated    time.Time
}

// EventPayload holds the mutable fields an event delivery replaces wholesale.
type EventPayload struct {
	Transcript   string
	RecordingURL string
	Analysis     Analysis
}

// ApplyEventParams describes one lifecycle event to apply conditionally.
type ApplyEventParams struct {
	ProviderCallID string
	Status         string
	Payload        EventPayload
	EventTimestamp time.Time
}

// ListCallRecordsParams defines filters for listing call records.
type ListCallRecordsParams struct {
	CustomerID *uuid.UUID
	ProjectID  *uuid.UUID
	Status     string
	Offset     int
	Limit      int
}

// Repository defines persistence operations for call records.
type Repository interface {
	Create(ctx context.Context, params CreateCallRecordParams) (CallRecord, error)
	GetByProviderCallID(ctx context.Context, providerCallID string) (CallRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (CallRecord, error)
	List(ctx context.Context, params ListCallRecordsParams) ([]CallRecord, int, error)
	// ApplyEvent performs the staleness check and the write as one
	// conditional statement so two near-simultaneous deliveries cannot
	// lose an update. It returns the updated record and true when the
	// event was applied, or the untouched record and false when the
	// condition rejected it.
	ApplyEvent(ctx context.Context, params ApplyEventParams) (CallRecord, bool, error)
}
