// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"callcenter_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Call Domain Events
// =============================================================================

// CallInitiated is published after a provider call has been created and its
// record persisted.
type CallInitiated struct {
	BaseEvent
	CallRecordID   uuid.UUID `json:"callRecordId"`
	ProviderCallID string    `json:"providerCallId"`
	CustomerID     uuid.UUID `json:"customerId"`
	ToNumber       string    `json:"toNumber"`
}

func (e CallInitiated) EventName() string { return "calls.call.initiated" }

// CallStatusChanged is published whenever a lifecycle event advances a call
// record to a new status. It is not published for stale or duplicate events.
type CallStatusChanged struct {
	BaseEvent
	CallRecordID   uuid.UUID `json:"callRecordId"`
	ProviderCallID string    `json:"providerCallId"`
	CustomerID     uuid.UUID `json:"customerId"`
	FromStatus     string    `json:"fromStatus"`
	ToStatus       string    `json:"toStatus"`
	Terminal       bool      `json:"terminal"`
	EventTimestamp time.Time `json:"eventTimestamp"`
}

func (e CallStatusChanged) EventName() string { return "calls.call.status_changed" }

// =============================================================================
// Relationship Domain Events
// =============================================================================

// EntitiesLinked is published after a bidirectional membership link is
// established between two entities.
type EntitiesLinked struct {
	BaseEvent
	ParentKind string    `json:"parentKind"`
	ParentID   uuid.UUID `json:"parentId"`
	ChildKind  string    `json:"childKind"`
	ChildID    uuid.UUID `json:"childId"`
}

func (e EntitiesLinked) EventName() string { return "relationships.entities.linked" }

// EntitiesUnlinked is published after a bidirectional membership link is
// removed.
type EntitiesUnlinked struct {
	BaseEvent
	ParentKind string    `json:"parentKind"`
	ParentID   uuid.UUID `json:"parentId"`
	ChildKind  string    `json:"childKind"`
	ChildID    uuid.UUID `json:"childId"`
}

func (e EntitiesUnlinked) EventName() string { return "relationships.entities.unlinked" }

// EdgeAuditCompleted is published when a consistency scan over the membership
// arrays finishes.
type EdgeAuditCompleted struct {
	BaseEvent
	Scanned    int  `json:"scanned"`
	Dangling   int  `json:"dangling"`
	Asymmetric int  `json:"asymmetric"`
	Repaired   int  `json:"repaired"`
	RepairMode bool `json:"repairMode"`
}

func (e EdgeAuditCompleted) EventName() string { return "relationships.audit.completed" }

// =============================================================================
// Customer Domain Events
// =============================================================================

// CustomerStatusChanged is published when a call outcome updates the
// customer's contact status.
type CustomerStatusChanged struct {
	BaseEvent
	CustomerID uuid.UUID `json:"customerId"`
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
}

func (e CustomerStatusChanged) EventName() string { return "customers.customer.status_changed" }
