package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"callcenter_backend/platform/apperr"
)

// cascadeDB routes the cascade's statements onto in-memory tables so the
// delete ordering and reference cleanup can be asserted without Postgres.
type cascadeDB struct {
	callRecords map[uuid.UUID]uuid.UUID // call record id -> owning customer
	customers   map[uuid.UUID]bool
	projectRefs map[uuid.UUID][]uuid.UUID // project id -> customer_ids
	groupRefs   map[uuid.UUID][]uuid.UUID // search group id -> customer_ids

	order              []string
	failCallRecords    bool
	failProjectCleanup bool
}

func newCascadeDB() *cascadeDB {
	return &cascadeDB{
		callRecords: make(map[uuid.UUID]uuid.UUID),
		customers:   make(map[uuid.UUID]bool),
		projectRefs: make(map[uuid.UUID][]uuid.UUID),
		groupRefs:   make(map[uuid.UUID][]uuid.UUID),
	}
}

func (f *cascadeDB) Exec(_ context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	id, _ := arguments[0].(uuid.UUID)
	switch {
	case strings.Contains(sql, "DELETE FROM call_records"):
		f.order = append(f.order, "call_records")
		if f.failCallRecords {
			return pgconn.CommandTag{}, errors.New("connection reset")
		}
		n := 0
		for recID, customerID := range f.callRecords {
			if customerID == id {
				delete(f.callRecords, recID)
				n++
			}
		}
		return pgconn.NewCommandTag(fmt.Sprintf("DELETE %d", n)), nil

	case strings.Contains(sql, "DELETE FROM customers"):
		f.order = append(f.order, "customers")
		if !f.customers[id] {
			return pgconn.NewCommandTag("DELETE 0"), nil
		}
		delete(f.customers, id)
		return pgconn.NewCommandTag("DELETE 1"), nil

	case strings.Contains(sql, "UPDATE projects"):
		f.order = append(f.order, "projects")
		if f.failProjectCleanup {
			return pgconn.CommandTag{}, errors.New("connection reset")
		}
		for projectID, refs := range f.projectRefs {
			f.projectRefs[projectID] = withoutID(refs, id)
		}
		return pgconn.NewCommandTag("UPDATE 1"), nil

	case strings.Contains(sql, "UPDATE search_groups"):
		f.order = append(f.order, "search_groups")
		for groupID, refs := range f.groupRefs {
			f.groupRefs[groupID] = withoutID(refs, id)
		}
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}
	return pgconn.CommandTag{}, fmt.Errorf("unexpected statement: %s", sql)
}

func (f *cascadeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not used")
}

func (f *cascadeDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return errRow{errors.New("not used")}
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

func withoutID(refs []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := refs[:0]
	for _, ref := range refs {
		if ref != id {
			out = append(out, ref)
		}
	}
	return out
}

func seedCascade(db *cascadeDB) (customerID uuid.UUID, projectID uuid.UUID, groupID uuid.UUID) {
	customerID, projectID, groupID = uuid.New(), uuid.New(), uuid.New()
	db.customers[customerID] = true
	db.callRecords[uuid.New()] = customerID
	db.callRecords[uuid.New()] = customerID
	db.projectRefs[projectID] = []uuid.UUID{customerID}
	db.groupRefs[groupID] = []uuid.UUID{customerID}
	return customerID, projectID, groupID
}

func TestDeleteCascadeLeavesNoOrphans(t *testing.T) {
	db := newCascadeDB()
	customerID, projectID, groupID := seedCascade(db)
	other := uuid.New()
	db.callRecords[uuid.New()] = other

	if err := New(db).DeleteCascade(context.Background(), customerID); err != nil {
		t.Fatalf("cascade failed: %v", err)
	}

	for recID, owner := range db.callRecords {
		if owner == customerID {
			t.Fatalf("orphan call record %s survived the cascade", recID)
		}
	}
	if len(db.callRecords) != 1 {
		t.Fatalf("other customers' call records must survive, got %d", len(db.callRecords))
	}
	if db.customers[customerID] {
		t.Fatal("customer row survived the cascade")
	}
	if len(db.projectRefs[projectID]) != 0 {
		t.Fatal("project membership array still references the customer")
	}
	if len(db.groupRefs[groupID]) != 0 {
		t.Fatal("search group membership array still references the customer")
	}
	// Call records go first so a later failure cannot leave records pointing
	// at a deleted customer.
	if len(db.order) < 2 || db.order[0] != "call_records" || db.order[1] != "customers" {
		t.Fatalf("unexpected statement order: %v", db.order)
	}
}

func TestDeleteCascadeUnknownCustomer(t *testing.T) {
	db := newCascadeDB()

	err := New(db).DeleteCascade(context.Background(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteCascadeCallRecordFailureLeavesCustomer(t *testing.T) {
	db := newCascadeDB()
	customerID, _, _ := seedCascade(db)
	db.failCallRecords = true

	err := New(db).DeleteCascade(context.Background(), customerID)
	if !apperr.Is(err, apperr.KindPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if !db.customers[customerID] {
		t.Fatal("customer row must survive when the call record delete fails")
	}
}

func TestDeleteCascadeReferenceCleanupFailureSurfaces(t *testing.T) {
	db := newCascadeDB()
	customerID, _, _ := seedCascade(db)
	db.failProjectCleanup = true

	err := New(db).DeleteCascade(context.Background(), customerID)
	if !apperr.Is(err, apperr.KindPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	// The row delete already landed; the dangling array entries are the edge
	// audit's to repair.
	if db.customers[customerID] {
		t.Fatal("customer row should be gone before reference cleanup runs")
	}
}
