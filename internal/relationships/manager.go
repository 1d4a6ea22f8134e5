// Package relationships maintains the denormalized many-to-many membership
// arrays between customers, projects, and search groups. Every edge is stored
// on both endpoints; the manager performs the paired writes and the periodic
// audit repairs the asymmetry a partial failure can leave behind.
package relationships

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"callcenter_backend/internal/events"
	"callcenter_backend/platform/apperr"
	"callcenter_backend/platform/logger"
)

// EdgeKind identifies one of the three membership relations.
type EdgeKind string

const (
	EdgeProjectCustomer     EdgeKind = "project_customer"
	EdgeSearchGroupCustomer EdgeKind = "searchgroup_customer"
	EdgeSearchGroupProject  EdgeKind = "searchgroup_project"
)

// edgeSpec describes how one edge kind maps onto tables and array columns.
// The owner side is written first; capacityGuard, when set, is an extra SQL
// condition evaluated with the owner-side append.
type edgeSpec struct {
	ownerTable    string
	ownerColumn   string
	memberTable   string
	memberColumn  string
	capacityGuard string
}

var edgeSpecs = map[EdgeKind]edgeSpec{
	EdgeProjectCustomer: {
		ownerTable: "projects", ownerColumn: "customer_ids",
		memberTable: "customers", memberColumn: "project_ids",
	},
	EdgeSearchGroupCustomer: {
		ownerTable: "search_groups", ownerColumn: "customer_ids",
		memberTable: "customers", memberColumn: "search_group_ids",
		capacityGuard: "cardinality(customer_ids) < (settings->>'maxCustomers')::int",
	},
	EdgeSearchGroupProject: {
		ownerTable: "search_groups", ownerColumn: "project_ids",
		memberTable: "projects", memberColumn: "search_group_ids",
	},
}

// Manager performs paired membership writes. There is no cross-row
// transaction: the owner side commits first, then the member side. A failed
// second write leaves an asymmetric edge that Audit finds and repairs.
type Manager struct {
	pool  *pgxpool.Pool
	store edgeStore
	bus   events.Bus
	log   *logger.Logger
}

// NewManager creates a relationship manager. bus may be nil for one-shot
// command-line use.
func NewManager(pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) *Manager {
	return &Manager{pool: pool, store: &pgEdgeStore{pool: pool}, bus: bus, log: log}
}

func (m *Manager) publish(ctx context.Context, event events.Event) {
	if m.bus != nil {
		m.bus.Publish(ctx, event)
	}
}

// Link establishes the edge on both endpoints. It is idempotent: linking an
// already-linked pair is a no-op. For searchgroup_customer edges the
// maxCustomers bound is enforced inside the owner-side append so a concurrent
// link cannot overshoot it.
func (m *Manager) Link(ctx context.Context, kind EdgeKind, ownerID, memberID uuid.UUID) error {
	spec, ok := edgeSpecs[kind]
	if !ok {
		return apperr.Validation("unknown edge kind")
	}

	exists, err := m.store.memberExists(ctx, spec, memberID)
	if err != nil {
		return apperr.Persistence("check member exists", err)
	}
	if !exists {
		return apperr.NotFound(spec.memberTable + " member not found")
	}

	applied, err := m.store.appendOwner(ctx, spec, ownerID, memberID)
	if err != nil {
		return apperr.Persistence("link owner side", err)
	}
	if !applied {
		return m.explainNoop(ctx, spec, ownerID, memberID)
	}

	if err := m.store.appendMember(ctx, spec, ownerID, memberID); err != nil {
		m.log.Error("reciprocal link failed, edge left asymmetric",
			"kind", string(kind), "owner", ownerID, "member", memberID, "error", err)
		return apperr.Persistence("link member side", err)
	}

	m.publish(ctx, events.EntitiesLinked{
		BaseEvent:  events.NewBaseEvent(),
		ParentKind: spec.ownerTable,
		ParentID:   ownerID,
		ChildKind:  spec.memberTable,
		ChildID:    memberID,
	})
	return nil
}

// Unlink removes the edge from both endpoints. Removing an absent edge is a
// no-op.
func (m *Manager) Unlink(ctx context.Context, kind EdgeKind, ownerID, memberID uuid.UUID) error {
	spec, ok := edgeSpecs[kind]
	if !ok {
		return apperr.Validation("unknown edge kind")
	}

	found, err := m.store.removeOwner(ctx, spec, ownerID, memberID)
	if err != nil {
		return apperr.Persistence("unlink owner side", err)
	}
	if !found {
		return apperr.NotFound(spec.ownerTable + " not found")
	}

	if err := m.store.removeMember(ctx, spec, ownerID, memberID); err != nil {
		m.log.Error("reciprocal unlink failed, edge left asymmetric",
			"kind", string(kind), "owner", ownerID, "member", memberID, "error", err)
		return apperr.Persistence("unlink member side", err)
	}

	m.publish(ctx, events.EntitiesUnlinked{
		BaseEvent:  events.NewBaseEvent(),
		ParentKind: spec.ownerTable,
		ParentID:   ownerID,
		ChildKind:  spec.memberTable,
		ChildID:    memberID,
	})
	return nil
}

// explainNoop distinguishes the three reasons an owner-side append can match
// zero rows: owner absent, edge already present (idempotent no-op), or the
// capacity guard refused the append.
func (m *Manager) explainNoop(ctx context.Context, spec edgeSpec, ownerID, memberID uuid.UUID) error {
	present, err := m.store.ownerContains(ctx, spec, ownerID, memberID)
	if err != nil {
		return apperr.NotFound(spec.ownerTable + " not found")
	}
	if present {
		return nil
	}
	if spec.capacityGuard != "" {
		return apperr.Capacity("search group is at maxCustomers capacity")
	}
	return apperr.Persistence("link owner side matched no rows", nil)
}

// BulkOutcome partitions a bulk link run per item.
type BulkOutcome struct {
	Added    []uuid.UUID `json:"added"`
	Existing []uuid.UUID `json:"existing"`
	Failed   []BulkError `json:"failed"`
}

// BulkError records one failed item in a bulk run.
type BulkError struct {
	MemberID uuid.UUID `json:"memberId"`
	Error    string    `json:"error"`
}

// BulkLink links many members to one owner, continuing past per-item
// failures. Capacity and not-found errors land in Failed; already-linked
// members land in Existing.
func (m *Manager) BulkLink(ctx context.Context, kind EdgeKind, ownerID uuid.UUID, memberIDs []uuid.UUID) BulkOutcome {
	outcome := BulkOutcome{
		Added:    make([]uuid.UUID, 0, len(memberIDs)),
		Existing: make([]uuid.UUID, 0),
		Failed:   make([]BulkError, 0),
	}

	for _, memberID := range memberIDs {
		linked, err := m.linkReporting(ctx, kind, ownerID, memberID)
		switch {
		case err != nil:
			outcome.Failed = append(outcome.Failed, BulkError{MemberID: memberID, Error: err.Error()})
		case linked:
			outcome.Added = append(outcome.Added, memberID)
		default:
			outcome.Existing = append(outcome.Existing, memberID)
		}
	}
	return outcome
}

// linkReporting is Link with an extra signal distinguishing a fresh link from
// an idempotent no-op, which BulkLink needs for its partitioning.
func (m *Manager) linkReporting(ctx context.Context, kind EdgeKind, ownerID, memberID uuid.UUID) (bool, error) {
	spec := edgeSpecs[kind]

	present, err := m.store.ownerContains(ctx, spec, ownerID, memberID)
	if err != nil {
		return false, apperr.NotFound(spec.ownerTable + " not found")
	}
	if present {
		return false, nil
	}

	if err := m.Link(ctx, kind, ownerID, memberID); err != nil {
		return false, err
	}
	return true, nil
}
