package relationships

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// edgeStore is the persistence surface behind the paired membership writes.
// The SQL implementation is pgEdgeStore; tests substitute an in-memory store.
type edgeStore interface {
	// memberExists reports whether the member row exists.
	memberExists(ctx context.Context, spec edgeSpec, id uuid.UUID) (bool, error)
	// appendOwner appends memberID to the owner-side array if absent,
	// honoring the capacity guard. It reports whether a row changed.
	appendOwner(ctx context.Context, spec edgeSpec, ownerID, memberID uuid.UUID) (bool, error)
	// appendMember appends ownerID to the member-side array if absent.
	appendMember(ctx context.Context, spec edgeSpec, ownerID, memberID uuid.UUID) error
	// removeOwner removes memberID from the owner-side array, reporting
	// whether the owner row exists.
	removeOwner(ctx context.Context, spec edgeSpec, ownerID, memberID uuid.UUID) (bool, error)
	// removeMember removes ownerID from the member-side array.
	removeMember(ctx context.Context, spec edgeSpec, ownerID, memberID uuid.UUID) error
	// ownerContains reports whether the owner-side array holds memberID.
	ownerContains(ctx context.Context, spec edgeSpec, ownerID, memberID uuid.UUID) (bool, error)
}

// pgEdgeStore issues the array-column statements against Postgres.
type pgEdgeStore struct {
	pool *pgxpool.Pool
}

func (s *pgEdgeStore) memberExists(ctx context.Context, spec edgeSpec, id uuid.UUID) (bool, error) {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, spec.memberTable)
	err := s.pool.QueryRow(ctx, query, id).Scan(&exists)
	return exists, err
}

func (s *pgEdgeStore) appendOwner(ctx context.Context, spec edgeSpec, ownerID, memberID uuid.UUID) (bool, error) {
	query := fmt.Sprintf(
		`UPDATE %s SET %s = array_append(%s, $2), updated_at = now()
		 WHERE id = $1 AND NOT (%s @> ARRAY[$2]::uuid[])`,
		spec.ownerTable, spec.ownerColumn, spec.ownerColumn, spec.ownerColumn)
	if spec.capacityGuard != "" {
		query += " AND " + spec.capacityGuard
	}

	result, err := s.pool.Exec(ctx, query, ownerID, memberID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (s *pgEdgeStore) appendMember(ctx context.Context, spec edgeSpec, ownerID, memberID uuid.UUID) error {
	query := fmt.Sprintf(
		`UPDATE %s SET %s = array_append(%s, $2), updated_at = now()
		 WHERE id = $1 AND NOT (%s @> ARRAY[$2]::uuid[])`,
		spec.memberTable, spec.memberColumn, spec.memberColumn, spec.memberColumn)
	_, err := s.pool.Exec(ctx, query, memberID, ownerID)
	return err
}

func (s *pgEdgeStore) removeOwner(ctx context.Context, spec edgeSpec, ownerID, memberID uuid.UUID) (bool, error) {
	query := fmt.Sprintf(
		`UPDATE %s SET %s = array_remove(%s, $2), updated_at = now() WHERE id = $1`,
		spec.ownerTable, spec.ownerColumn, spec.ownerColumn)
	result, err := s.pool.Exec(ctx, query, ownerID, memberID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (s *pgEdgeStore) removeMember(ctx context.Context, spec edgeSpec, ownerID, memberID uuid.UUID) error {
	query := fmt.Sprintf(
		`UPDATE %s SET %s = array_remove(%s, $2), updated_at = now() WHERE id = $1`,
		spec.memberTable, spec.memberColumn, spec.memberColumn)
	_, err := s.pool.Exec(ctx, query, memberID, ownerID)
	return err
}

func (s *pgEdgeStore) ownerContains(ctx context.Context, spec edgeSpec, ownerID, memberID uuid.UUID) (bool, error) {
	var present bool
	query := fmt.Sprintf(`SELECT %s @> ARRAY[$2]::uuid[] FROM %s WHERE id = $1`,
		spec.ownerColumn, spec.ownerTable)
	err := s.pool.QueryRow(ctx, query, ownerID, memberID).Scan(&present)
	return present, err
}
