package activity

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"callcenter_backend/internal/events"
	"callcenter_backend/platform/logger"
)

func TestTrackerAggregatesBusEvents(t *testing.T) {
	bus := events.NewInMemoryBus(logger.New("development"))
	module := NewModule()
	module.RegisterHandlers(bus)

	ctx := context.Background()
	customerID := uuid.New()

	if err := bus.PublishSync(ctx, events.CallInitiated{
		BaseEvent:      events.NewBaseEvent(),
		CallRecordID:   uuid.New(),
		ProviderCallID: "call_abc123",
		CustomerID:     customerID,
	}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := bus.PublishSync(ctx, events.CallStatusChanged{
		BaseEvent:      events.NewBaseEvent(),
		ProviderCallID: "call_abc123",
		CustomerID:     customerID,
		FromStatus:     "started",
		ToStatus:       "ended",
		Terminal:       true,
	}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := bus.PublishSync(ctx, events.EdgeAuditCompleted{
		BaseEvent: events.NewBaseEvent(),
		Scanned:   12,
		Dangling:  1,
		Repaired:  1,
	}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	snap := module.tracker.Snapshot()
	if snap.CallsInitiated != 1 {
		t.Fatalf("expected 1 initiation, got %d", snap.CallsInitiated)
	}
	if snap.CallStatusChanges != 1 || snap.TerminalOutcomes["ended"] != 1 {
		t.Fatalf("terminal outcome not counted: %+v", snap)
	}
	if snap.LastAudit == nil || snap.LastAudit.Scanned != 12 || snap.LastAudit.Repaired != 1 {
		t.Fatalf("audit report not retained: %+v", snap.LastAudit)
	}
}

func TestTrackerSnapshotIsACopy(t *testing.T) {
	tracker := NewTracker()
	_ = tracker.Handle(context.Background(), events.CallStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		ToStatus:  "failed",
		Terminal:  true,
	})

	snap := tracker.Snapshot()
	snap.TerminalOutcomes["failed"] = 99

	if got := tracker.Snapshot().TerminalOutcomes["failed"]; got != 1 {
		t.Fatalf("snapshot mutation leaked into the tracker: got %d", got)
	}
}
