package relationships

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"callcenter_backend/platform/apperr"
	"callcenter_backend/platform/logger"
)

// memoryEdgeStore keeps one reference array per row. Each test exercises a
// single edge kind, so a per-column split is not needed.
type memoryEdgeStore struct {
	rows            map[string]map[uuid.UUID][]uuid.UUID
	maxCustomers    int
	appendMemberErr error
}

func newMemoryEdgeStore() *memoryEdgeStore {
	return &memoryEdgeStore{
		rows:         make(map[string]map[uuid.UUID][]uuid.UUID),
		maxCustomers: 100,
	}
}

func (s *memoryEdgeStore) addRow(table string, id uuid.UUID) {
	if s.rows[table] == nil {
		s.rows[table] = make(map[uuid.UUID][]uuid.UUID)
	}
	if _, ok := s.rows[table][id]; !ok {
		s.rows[table][id] = []uuid.UUID{}
	}
}

func (s *memoryEdgeStore) refs(table string, id uuid.UUID) []uuid.UUID {
	return s.rows[table][id]
}

func containsID(refs []uuid.UUID, id uuid.UUID) bool {
	for _, ref := range refs {
		if ref == id {
			return true
		}
	}
	return false
}

func removeID(refs []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := refs[:0]
	for _, ref := range refs {
		if ref != id {
			out = append(out, ref)
		}
	}
	return out
}

func (s *memoryEdgeStore) memberExists(_ context.Context, spec edgeSpec, id uuid.UUID) (bool, error) {
	_, ok := s.rows[spec.memberTable][id]
	return ok, nil
}

func (s *memoryEdgeStore) appendOwner(_ context.Context, spec edgeSpec, ownerID, memberID uuid.UUID) (bool, error) {
	refs, ok := s.rows[spec.ownerTable][ownerID]
	if !ok {
		return false, nil
	}
	if containsID(refs, memberID) {
		return false, nil
	}
	if spec.capacityGuard != "" && len(refs) >= s.maxCustomers {
		return false, nil
	}
	s.rows[spec.ownerTable][ownerID] = append(refs, memberID)
	return true, nil
}

func (s *memoryEdgeStore) appendMember(_ context.Context, spec edgeSpec, ownerID, memberID uuid.UUID) error {
	if s.appendMemberErr != nil {
		return s.appendMemberErr
	}
	refs := s.rows[spec.memberTable][memberID]
	if !containsID(refs, ownerID) {
		s.rows[spec.memberTable][memberID] = append(refs, ownerID)
	}
	return nil
}

func (s *memoryEdgeStore) removeOwner(_ context.Context, spec edgeSpec, ownerID, memberID uuid.UUID) (bool, error) {
	refs, ok := s.rows[spec.ownerTable][ownerID]
	if !ok {
		return false, nil
	}
	s.rows[spec.ownerTable][ownerID] = removeID(refs, memberID)
	return true, nil
}

func (s *memoryEdgeStore) removeMember(_ context.Context, spec edgeSpec, ownerID, memberID uuid.UUID) error {
	refs, ok := s.rows[spec.memberTable][memberID]
	if ok {
		s.rows[spec.memberTable][memberID] = removeID(refs, ownerID)
	}
	return nil
}

func (s *memoryEdgeStore) ownerContains(_ context.Context, spec edgeSpec, ownerID, memberID uuid.UUID) (bool, error) {
	refs, ok := s.rows[spec.ownerTable][ownerID]
	if !ok {
		return false, errors.New("owner row not found")
	}
	return containsID(refs, memberID), nil
}

func newTestManager(store edgeStore) *Manager {
	return &Manager{store: store, log: logger.New("development")}
}

func TestLinkEstablishesBothSides(t *testing.T) {
	store := newMemoryEdgeStore()
	projectID, customerID := uuid.New(), uuid.New()
	store.addRow("projects", projectID)
	store.addRow("customers", customerID)
	m := newTestManager(store)

	if err := m.Link(context.Background(), EdgeProjectCustomer, projectID, customerID); err != nil {
		t.Fatalf("link failed: %v", err)
	}
	if !containsID(store.refs("projects", projectID), customerID) {
		t.Fatal("owner side missing the member reference")
	}
	if !containsID(store.refs("customers", customerID), projectID) {
		t.Fatal("member side missing the owner reference")
	}
}

func TestLinkIsIdempotent(t *testing.T) {
	store := newMemoryEdgeStore()
	projectID, customerID := uuid.New(), uuid.New()
	store.addRow("projects", projectID)
	store.addRow("customers", customerID)
	m := newTestManager(store)

	if err := m.Link(context.Background(), EdgeProjectCustomer, projectID, customerID); err != nil {
		t.Fatalf("first link failed: %v", err)
	}
	if err := m.Link(context.Background(), EdgeProjectCustomer, projectID, customerID); err != nil {
		t.Fatalf("relinking must be a no-op, got %v", err)
	}
	if got := len(store.refs("projects", projectID)); got != 1 {
		t.Fatalf("expected a single owner-side entry, got %d", got)
	}
	if got := len(store.refs("customers", customerID)); got != 1 {
		t.Fatalf("expected a single member-side entry, got %d", got)
	}
}

func TestLinkAtCapacityLeavesBothSidesUnchanged(t *testing.T) {
	store := newMemoryEdgeStore()
	store.maxCustomers = 2
	groupID := uuid.New()
	store.addRow("search_groups", groupID)
	for i := 0; i < 2; i++ {
		memberID := uuid.New()
		store.addRow("customers", memberID)
		if err := newTestManager(store).Link(context.Background(), EdgeSearchGroupCustomer, groupID, memberID); err != nil {
			t.Fatalf("seed link %d failed: %v", i, err)
		}
	}

	overflowID := uuid.New()
	store.addRow("customers", overflowID)
	err := newTestManager(store).Link(context.Background(), EdgeSearchGroupCustomer, groupID, overflowID)
	if !apperr.Is(err, apperr.KindCapacity) {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if got := len(store.refs("search_groups", groupID)); got != 2 {
		t.Fatalf("owner side grew past the bound: %d entries", got)
	}
	if got := len(store.refs("customers", overflowID)); got != 0 {
		t.Fatalf("member side written for a refused link: %d entries", got)
	}
}

func TestLinkUnknownMember(t *testing.T) {
	store := newMemoryEdgeStore()
	projectID := uuid.New()
	store.addRow("projects", projectID)
	m := newTestManager(store)

	err := m.Link(context.Background(), EdgeProjectCustomer, projectID, uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if got := len(store.refs("projects", projectID)); got != 0 {
		t.Fatalf("owner side written for a missing member: %d entries", got)
	}
}

func TestUnlinkRemovesBothSides(t *testing.T) {
	store := newMemoryEdgeStore()
	projectID, customerID := uuid.New(), uuid.New()
	store.addRow("projects", projectID)
	store.addRow("customers", customerID)
	m := newTestManager(store)

	if err := m.Link(context.Background(), EdgeProjectCustomer, projectID, customerID); err != nil {
		t.Fatalf("link failed: %v", err)
	}
	if err := m.Unlink(context.Background(), EdgeProjectCustomer, projectID, customerID); err != nil {
		t.Fatalf("unlink failed: %v", err)
	}
	if containsID(store.refs("projects", projectID), customerID) {
		t.Fatal("owner side still holds the member reference")
	}
	if containsID(store.refs("customers", customerID), projectID) {
		t.Fatal("member side still holds the owner reference")
	}
}

func TestReciprocalFailureLeavesOwnerSideForAudit(t *testing.T) {
	store := newMemoryEdgeStore()
	projectID, customerID := uuid.New(), uuid.New()
	store.addRow("projects", projectID)
	store.addRow("customers", customerID)
	store.appendMemberErr = errors.New("connection reset")
	m := newTestManager(store)

	err := m.Link(context.Background(), EdgeProjectCustomer, projectID, customerID)
	if !apperr.Is(err, apperr.KindPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	// The one-sided edge stays in place: the audit completes or removes it.
	if !containsID(store.refs("projects", projectID), customerID) {
		t.Fatal("owner side entry expected after a reciprocal failure")
	}
	if containsID(store.refs("customers", customerID), projectID) {
		t.Fatal("member side must not hold the reference after a failed write")
	}
}

func TestBulkLinkStopsAddingAtCapacity(t *testing.T) {
	store := newMemoryEdgeStore()
	store.maxCustomers = 1
	groupID := uuid.New()
	store.addRow("search_groups", groupID)
	first, second := uuid.New(), uuid.New()
	store.addRow("customers", first)
	store.addRow("customers", second)
	m := newTestManager(store)

	outcome := m.BulkLink(context.Background(), EdgeSearchGroupCustomer, groupID, []uuid.UUID{first, second})
	if len(outcome.Added) != 1 || outcome.Added[0] != first {
		t.Fatalf("expected only the first member added, got %+v", outcome.Added)
	}
	if len(outcome.Failed) != 1 || outcome.Failed[0].MemberID != second {
		t.Fatalf("expected the second member refused, got %+v", outcome.Failed)
	}
}
