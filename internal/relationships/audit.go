package relationships

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"callcenter_backend/internal/events"
	"callcenter_backend/platform/apperr"
)

// AuditFinding describes one inconsistent edge found by a scan.
type AuditFinding struct {
	Kind     EdgeKind  `json:"kind"`
	OwnerID  uuid.UUID `json:"ownerId"`
	MemberID uuid.UUID `json:"memberId"`
	// Problem is "dangling" (referenced row is gone) or "asymmetric"
	// (row exists but lacks the reciprocal reference).
	Problem string `json:"problem"`
	// Side is "owner" or "member": which array holds the one-sided entry.
	Side string `json:"side"`
}

// AuditReport summarizes one full scan over all edge kinds.
type AuditReport struct {
	Scanned    int            `json:"scanned"`
	Dangling   int            `json:"dangling"`
	Asymmetric int            `json:"asymmetric"`
	Repaired   int            `json:"repaired"`
	Findings   []AuditFinding `json:"findings"`
}

// Audit scans every edge kind in both directions for dangling references and
// asymmetric edges. With repair set, dangling entries are removed and
// asymmetric edges completed in place. Edge kinds are scanned concurrently;
// each individual repair is still a per-row write.
func (m *Manager) Audit(ctx context.Context, repair bool) (AuditReport, error) {
	var mu sync.Mutex
	report := AuditReport{Findings: make([]AuditFinding, 0)}

	group, groupCtx := errgroup.WithContext(ctx)
	for kind, spec := range edgeSpecs {
		group.Go(func() error {
			findings, scanned, err := m.scanEdgeKind(groupCtx, kind, spec)
			if err != nil {
				return err
			}
			mu.Lock()
			report.Scanned += scanned
			report.Findings = append(report.Findings, findings...)
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return AuditReport{}, err
	}

	for _, finding := range report.Findings {
		switch finding.Problem {
		case "dangling":
			report.Dangling++
		case "asymmetric":
			report.Asymmetric++
		}
		if !repair {
			continue
		}
		if err := m.repairFinding(ctx, finding); err != nil {
			m.log.Error("edge repair failed",
				"kind", string(finding.Kind), "owner", finding.OwnerID,
				"member", finding.MemberID, "problem", finding.Problem, "error", err)
			continue
		}
		report.Repaired++
	}

	m.publish(ctx, events.EdgeAuditCompleted{
		BaseEvent:  events.NewBaseEvent(),
		Scanned:    report.Scanned,
		Dangling:   report.Dangling,
		Asymmetric: report.Asymmetric,
		Repaired:   report.Repaired,
		RepairMode: repair,
	})
	return report, nil
}

// scanEdgeKind checks one edge kind in both directions: entries in the owner
// array without a live, reciprocating member row, and entries in the member
// array without a live, reciprocating owner row.
func (m *Manager) scanEdgeKind(ctx context.Context, kind EdgeKind, spec edgeSpec) ([]AuditFinding, int, error) {
	findings := make([]AuditFinding, 0)

	ownerSide, scanned, err := m.scanDirection(ctx, kind, "owner",
		spec.ownerTable, spec.ownerColumn, spec.memberTable, spec.memberColumn)
	if err != nil {
		return nil, 0, err
	}
	findings = append(findings, ownerSide...)

	memberSide, scannedBack, err := m.scanDirection(ctx, kind, "member",
		spec.memberTable, spec.memberColumn, spec.ownerTable, spec.ownerColumn)
	if err != nil {
		return nil, 0, err
	}
	findings = append(findings, memberSide...)

	return findings, scanned + scannedBack, nil
}

// scanDirection unnests fromTable.fromColumn and joins each entry against
// toTable, reporting rows that are missing entirely (dangling) or present
// without the reciprocal reference (asymmetric).
func (m *Manager) scanDirection(ctx context.Context, kind EdgeKind, side, fromTable, fromColumn, toTable, toColumn string) ([]AuditFinding, int, error) {
	query := fmt.Sprintf(`
		SELECT f.id, entry.ref, (t.id IS NULL) AS dangling
		FROM %s f
		CROSS JOIN LATERAL unnest(f.%s) AS entry(ref)
		LEFT JOIN %s t ON t.id = entry.ref
		WHERE t.id IS NULL OR NOT (t.%s @> ARRAY[f.id]::uuid[])`,
		fromTable, fromColumn, toTable, toColumn)

	rows, err := m.pool.Query(ctx, query)
	if err != nil {
		return nil, 0, apperr.Persistence("scan "+string(kind)+" "+side+" side", err)
	}
	defer rows.Close()

	findings := make([]AuditFinding, 0)
	scanned := 0
	for rows.Next() {
		var holderID, refID uuid.UUID
		var dangling bool
		if err := rows.Scan(&holderID, &refID, &dangling); err != nil {
			return nil, 0, fmt.Errorf("scan audit row: %w", err)
		}
		scanned++

		finding := AuditFinding{Kind: kind, Side: side, Problem: "asymmetric"}
		if dangling {
			finding.Problem = "dangling"
		}
		if side == "owner" {
			finding.OwnerID, finding.MemberID = holderID, refID
		} else {
			finding.OwnerID, finding.MemberID = refID, holderID
		}
		findings = append(findings, finding)
	}
	return findings, scanned, rows.Err()
}

// repairFinding removes a dangling entry or completes an asymmetric edge.
// Completion reuses the same append-if-absent statement as Link, so repairs
// racing live traffic stay idempotent.
func (m *Manager) repairFinding(ctx context.Context, finding AuditFinding) error {
	spec := edgeSpecs[finding.Kind]

	holderTable, holderColumn := spec.ownerTable, spec.ownerColumn
	otherTable, otherColumn := spec.memberTable, spec.memberColumn
	holderID, refID := finding.OwnerID, finding.MemberID
	if finding.Side == "member" {
		holderTable, holderColumn = spec.memberTable, spec.memberColumn
		otherTable, otherColumn = spec.ownerTable, spec.ownerColumn
		holderID, refID = finding.MemberID, finding.OwnerID
	}

	if finding.Problem == "dangling" {
		query := fmt.Sprintf(
			`UPDATE %s SET %s = array_remove(%s, $2), updated_at = now() WHERE id = $1`,
			holderTable, holderColumn, holderColumn)
		_, err := m.pool.Exec(ctx, query, holderID, refID)
		return err
	}

	query := fmt.Sprintf(
		`UPDATE %s SET %s = array_append(%s, $2), updated_at = now()
		 WHERE id = $1 AND NOT (%s @> ARRAY[$2]::uuid[])`,
		otherTable, otherColumn, otherColumn, otherColumn)
	// Completing an edge into a search group must not overshoot the
	// capacity bound either; an over-capacity one-sided edge is resolved
	// by dropping the member-side entry instead.
	if finding.Side == "member" && spec.capacityGuard != "" {
		query += " AND " + spec.capacityGuard
		result, err := m.pool.Exec(ctx, query, refID, holderID)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			// Zero rows is either a concurrent Link that already
			// completed the edge, or a full group refusing it.
			var present bool
			check := fmt.Sprintf(`SELECT %s @> ARRAY[$2]::uuid[] FROM %s WHERE id = $1`,
				otherColumn, otherTable)
			if err := m.pool.QueryRow(ctx, check, refID, holderID).Scan(&present); err != nil {
				return err
			}
			if !present {
				drop := fmt.Sprintf(
					`UPDATE %s SET %s = array_remove(%s, $2), updated_at = now() WHERE id = $1`,
					holderTable, holderColumn, holderColumn)
				_, err = m.pool.Exec(ctx, drop, holderID, refID)
			}
		}
		return err
	}
	_, err := m.pool.Exec(ctx, query, refID, holderID)
	return err
}
