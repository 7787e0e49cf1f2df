package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"custos/pkg/platform/sentinel"
)

// PostgresStore persists audit events. Inserts only; the table carries no
// UPDATE or DELETE path in this codebase and should be write-restricted at
// the database level as well.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	const query = `
		INSERT INTO audit_events
			(id, category, ts, action, case_id, evidence_id, disposal_id, actor, decision, reason, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.New(), string(event.Category), event.Timestamp, string(event.Action),
		nullable(event.CaseID), nullable(event.EvidenceID), nullable(event.DisposalID),
		event.Actor, nullable(event.Decision), nullable(event.Reason), nullable(event.RequestID),
	)
	if err != nil {
		return fmt.Errorf("%w: append audit event: %v", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) ListByCase(ctx context.Context, caseID string) ([]Event, error) {
	const query = `
		SELECT category, ts, action, case_id, evidence_id, disposal_id, actor, decision, reason, request_id
		FROM audit_events
		WHERE case_id = $1
		ORDER BY ts ASC
	`
	rows, err := s.db.QueryContext(ctx, query, caseID)
	if err != nil {
		return nil, fmt.Errorf("%w: list audit events: %v", sentinel.ErrUnavailable, err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var caseID, evidenceID, disposalID, decision, reason, requestID sql.NullString
		if err := rows.Scan(&e.Category, &e.Timestamp, &e.Action,
			&caseID, &evidenceID, &disposalID, &e.Actor, &decision, &reason, &requestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.CaseID = caseID.String
		e.EvidenceID = evidenceID.String
		e.DisposalID = disposalID.String
		e.Decision = decision.String
		e.Reason = reason.String
		e.RequestID = requestID.String
		events = append(events, e)
	}
	return events, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
