// Package activity aggregates domain events into an operational summary.
// It is the bus's standing consumer: call initiations, lifecycle
// transitions, membership changes, and audit reports land here and are
// served back to administrators as a single snapshot.
package activity

import (
	"context"
	"sync"
	"time"

	"callcenter_backend/internal/events"
)

// AuditSummary is the most recent edge audit report.
type AuditSummary struct {
	Scanned     int       `json:"scanned"`
	Dangling    int       `json:"dangling"`
	Asymmetric  int       `json:"asymmetric"`
	Repaired    int       `json:"repaired"`
	RepairMode  bool      `json:"repairMode"`
	CompletedAt time.Time `json:"completedAt"`
}

// Snapshot is a point-in-time view of the aggregated counters.
type Snapshot struct {
	CallsInitiated        int            `json:"callsInitiated"`
	CallStatusChanges     int            `json:"callStatusChanges"`
	TerminalOutcomes      map[string]int `json:"terminalOutcomes"`
	CustomerStatusChanges int            `json:"customerStatusChanges"`
	EntitiesLinked        int            `json:"entitiesLinked"`
	EntitiesUnlinked      int            `json:"entitiesUnlinked"`
	LastAudit             *AuditSummary  `json:"lastAudit,omitempty"`
}

// Tracker accumulates event counts. Handlers run on the bus's dispatch
// goroutines, so all state is mutex-guarded.
type Tracker struct {
	mu sync.Mutex

	callsInitiated        int
	callStatusChanges     int
	terminalOutcomes      map[string]int
	customerStatusChanges int
	entitiesLinked        int
	entitiesUnlinked      int
	lastAudit             *AuditSummary
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{terminalOutcomes: make(map[string]int)}
}

// Handle routes events to the matching counter.
func (t *Tracker) Handle(_ context.Context, event events.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e := event.(type) {
	case events.CallInitiated:
		t.callsInitiated++
	case events.CallStatusChanged:
		t.callStatusChanges++
		if e.Terminal {
			t.terminalOutcomes[e.ToStatus]++
		}
	case events.CustomerStatusChanged:
		t.customerStatusChanges++
	case events.EntitiesLinked:
		t.entitiesLinked++
	case events.EntitiesUnlinked:
		t.entitiesUnlinked++
	case events.EdgeAuditCompleted:
		t.lastAudit = &AuditSummary{
			Scanned:     e.Scanned,
			Dangling:    e.Dangling,
			Asymmetric:  e.Asymmetric,
			Repaired:    e.Repaired,
			RepairMode:  e.RepairMode,
			CompletedAt: e.OccurredAt(),
		}
	}
	return nil
}

// Snapshot returns a copy of the current counters.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	outcomes := make(map[string]int, len(t.terminalOutcomes))
	for status, count := range t.terminalOutcomes {
		outcomes[status] = count
	}

	snap := Snapshot{
		CallsInitiated:        t.callsInitiated,
		CallStatusChanges:     t.callStatusChanges,
		TerminalOutcomes:      outcomes,
		CustomerStatusChanges: t.customerStatusChanges,
		EntitiesLinked:        t.entitiesLinked,
		EntitiesUnlinked:      t.entitiesUnlinked,
	}
	if t.lastAudit != nil {
		audit := *t.lastAudit
		snap.LastAudit = &audit
	}
	return snap
}
