package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MaxFlows bounds the named flow sub-list on a search group.
const MaxFlows = 20

// Flow is one named calling flow attached to a search group.
type Flow struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	AgentID     string    `json:"agentId"`
	Enabled     bool      `json:"enabled"`
}

// Settings holds tunable per-group behavior. MaxCustomers bounds the
// customer membership list.
type Settings struct {
	MaxCustomers        int  `json:"maxCustomers"`
	AutoAssignProjects  bool `json:"autoAssignProjects"`
	NotificationEnabled bool `json:"notificationEnabled"`
}

// SearchGroup represents a user-defined collection of customers and projects
// used for batch outbound campaigns.
type SearchGroup struct {
	ID          uuid.UUID   `db:"id"`
	Name        string      `db:"name"`
	Description string      `db:"description"`
	Status      string      `db:"status"`
	CreatedBy   uuid.UUID   `db:"created_by"`
	CustomerIDs []uuid.UUID `db:"customer_ids"`
	ProjectIDs  []uuid.UUID `db:"project_ids"`
	Flows       []Flow      `db:"flows"`
	Settings    Settings    `db:"settings"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

// CreateSearchGroupParams contains data for creating a search group.
type CreateSearchGroupParams struct {
	Name        string
	Description string
	Status      string
	CreatedBy   uuid.UUID
	Settings    Settings
}

// UpdateSearchGroupParams contains data for a partial search group update.
type UpdateSearchGroupParams struct {
	ID          uuid.UUID
	CreatedBy   uuid.UUID
	Name        *string
	Description *string
	Status      *string
	Settings    *Settings
}

// GroupStats summarizes group membership and call outcomes.
type GroupStats struct {
	CustomerCount  int            `json:"customerCount"`
	ProjectCount   int            `json:"projectCount"`
	MaxCustomers   int            `json:"maxCustomers"`
	StatusCounts   map[string]int `json:"statusCounts"`
	CallsCompleted int            `json:"callsCompleted"`
	CallsFailed    int            `json:"callsFailed"`
}

// MemberCallDetail is one call record belonging to a group member, joined
// with the customer name for display.
type MemberCallDetail struct {
	CallID         uuid.UUID  `json:"callId"`
	ProviderCallID string     `json:"providerCallId"`
	CustomerID     uuid.UUID  `json:"customerId"`
	CustomerName   string     `json:"customerName"`
	Status         string     `json:"status"`
	FromNumber     string     `json:"fromNumber"`
	ToNumber       string     `json:"toNumber"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
	LastUpdated    time.Time  `json:"lastUpdated"`
}

// Repository defines persistence operations for search groups. All reads and
// writes are scoped to the creating user.
type Repository interface {
	Create(ctx context.Context, params CreateSearchGroupParams) (SearchGroup, error)
	GetByID(ctx context.Context, createdBy, id uuid.UUID) (SearchGroup, error)
	List(ctx context.Context, createdBy uuid.UUID) ([]SearchGroup, error)
	Update(ctx context.Context, params UpdateSearchGroupParams) (SearchGroup, error)
	// Delete removes the group and strips its id from customer and project
	// membership arrays.
	Delete(ctx context.Context, createdBy, id uuid.UUID) error
	// ReplaceFlows overwrites the whole flow sub-list.
	ReplaceFlows(ctx context.Context, createdBy, id uuid.UUID, flows []Flow) (SearchGroup, error)
	Stats(ctx context.Context, createdBy, id uuid.UUID) (GroupStats, error)
	// MemberCallDetails lists call records for the group's member customers,
	// newest first.
	MemberCallDetails(ctx context.Context, createdBy, id uuid.UUID) ([]MemberCallDetail, error)
}
