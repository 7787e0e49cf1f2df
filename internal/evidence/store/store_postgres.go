package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"custos/internal/evidence/models"
	"custos/pkg/digest"
	id "custos/pkg/domain"
	"custos/pkg/platform/sentinel"
)

// Postgres implements Store over lib/pq. AppendEntry serializes per item with
// SELECT ... FOR UPDATE on the evidence_items row, so sequence assignment and
// the denormalized current view commit together or not at all.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) CreateItem(ctx context.Context, item *models.EvidenceItem) error {
	const query = `
		INSERT INTO evidence_items
			(id, case_id, description, current_custodian, current_location, digest, digest_alg, disposed, disposed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	var digestHex sql.NullString
	if item.Digest != nil {
		digestHex = sql.NullString{String: item.Digest.String(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(item.ID), uuid.UUID(item.CaseID), item.Description,
		item.CurrentCustodian, item.CurrentLocation, digestHex, item.DigestAlg,
		item.Disposed, item.DisposedAt, item.CreatedAt,
	)
	if err != nil {
		return storeErr("create evidence item", err)
	}
	return nil
}

func (s *Postgres) FindItem(ctx context.Context, evidenceID id.EvidenceID) (*models.EvidenceItem, error) {
	return scanItem(s.db.QueryRowContext(ctx, itemQuery+` WHERE id = $1`, uuid.UUID(evidenceID)))
}

func (s *Postgres) ListItemsByCase(ctx context.Context, caseID id.CaseID) ([]*models.EvidenceItem, error) {
	rows, err := s.db.QueryContext(ctx, itemQuery+` WHERE case_id = $1 ORDER BY created_at ASC`, uuid.UUID(caseID))
	if err != nil {
		return nil, storeErr("list evidence items", err)
	}
	defer rows.Close()

	var items []*models.EvidenceItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Postgres) MarkDisposed(ctx context.Context, caseID id.CaseID, at time.Time) error {
	const query = `
		UPDATE evidence_items SET disposed = TRUE, disposed_at = $2
		WHERE case_id = $1 AND NOT disposed
	`
	if _, err := s.db.ExecContext(ctx, query, uuid.UUID(caseID), at); err != nil {
		return storeErr("mark evidence disposed", err)
	}
	return nil
}

func (s *Postgres) AppendEntry(ctx context.Context, evidenceID id.EvidenceID, build BuildEntry) (*models.CustodyEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr("begin append", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Row lock on the item serializes concurrent appends for this evidence.
	item, err := scanItem(tx.QueryRowContext(ctx, itemQuery+` WHERE id = $1 FOR UPDATE`, uuid.UUID(evidenceID)))
	if err != nil {
		return nil, err
	}

	last, err := s.lastEntry(ctx, tx, evidenceID)
	if err != nil {
		return nil, err
	}

	entry, err := build(item, last)
	if err != nil {
		return nil, err
	}

	entry.EvidenceID = evidenceID
	if entry.ID.IsNil() {
		entry.ID = id.NewEntryID()
	}
	if last != nil {
		entry.Seq = last.Seq + 1
	} else {
		entry.Seq = 1
	}

	const insert = `
		INSERT INTO custody_entries
			(id, evidence_id, seq, action, from_custodian, to_custodian, location, ts, purpose, notes, supersedes, recorded_by, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	var supersedes *uuid.UUID
	if entry.Supersedes != nil {
		u := uuid.UUID(*entry.Supersedes)
		supersedes = &u
	}
	if _, err := tx.ExecContext(ctx, insert,
		uuid.UUID(entry.ID), uuid.UUID(entry.EvidenceID), entry.Seq, string(entry.Action),
		entry.FromCustodian, entry.ToCustodian, entry.Location, entry.Timestamp,
		entry.Purpose, entry.Notes, supersedes, entry.RecordedBy, entry.RecordedAt,
	); err != nil {
		return nil, storeErr("insert custody entry", err)
	}

	if entry.Action.MovesCustody() {
		location := item.CurrentLocation
		if entry.Location != "" {
			location = entry.Location
		}
		const update = `UPDATE evidence_items SET current_custodian = $2, current_location = $3 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, update, uuid.UUID(evidenceID), entry.ToCustodian, location); err != nil {
			return nil, storeErr("update current custody", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, storeErr("commit append", err)
	}
	return entry, nil
}

func (s *Postgres) History(ctx context.Context, evidenceID id.EvidenceID) ([]*models.CustodyEntry, error) {
	// Existence check so an unknown item is NotFound, not an empty history.
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM evidence_items WHERE id = $1)`, uuid.UUID(evidenceID),
	).Scan(&exists); err != nil {
		return nil, storeErr("check evidence exists", err)
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, entryQuery+` WHERE evidence_id = $1 ORDER BY seq ASC`, uuid.UUID(evidenceID))
	if err != nil {
		return nil, storeErr("list custody entries", err)
	}
	defer rows.Close()

	var entries []*models.CustodyEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Postgres) FindEntry(ctx context.Context, entryID id.EntryID) (*models.CustodyEntry, error) {
	return scanEntry(s.db.QueryRowContext(ctx, entryQuery+` WHERE id = $1`, uuid.UUID(entryID)))
}

func (s *Postgres) lastEntry(ctx context.Context, tx *sql.Tx, evidenceID id.EvidenceID) (*models.CustodyEntry, error) {
	entry, err := scanEntry(tx.QueryRowContext(ctx,
		entryQuery+` WHERE evidence_id = $1 ORDER BY seq DESC LIMIT 1`, uuid.UUID(evidenceID)))
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	return entry, err
}

const itemQuery = `
	SELECT id, case_id, description, current_custodian, current_location, digest, digest_alg, disposed, disposed_at, created_at
	FROM evidence_items`

const entryQuery = `
	SELECT id, evidence_id, seq, action, from_custodian, to_custodian, location, ts, purpose, notes, supersedes, recorded_by, recorded_at
	FROM custody_entries`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.EvidenceItem, error) {
	var item models.EvidenceItem
	var itemID, caseID uuid.UUID
	var digestHex sql.NullString
	err := row.Scan(&itemID, &caseID, &item.Description, &item.CurrentCustodian,
		&item.CurrentLocation, &digestHex, &item.DigestAlg, &item.Disposed,
		&item.DisposedAt, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, storeErr("scan evidence item", err)
	}
	item.ID = id.EvidenceID(itemID)
	item.CaseID = id.CaseID(caseID)
	if digestHex.Valid {
		d, err := digest.Parse(digestHex.String)
		if err != nil {
			return nil, fmt.Errorf("stored digest corrupt: %w", err)
		}
		item.Digest = &d
	}
	return &item, nil
}

func scanEntry(row rowScanner) (*models.CustodyEntry, error) {
	var entry models.CustodyEntry
	var entryID, evidenceID uuid.UUID
	var supersedes *uuid.UUID
	var action string
	err := row.Scan(&entryID, &evidenceID, &entry.Seq, &action, &entry.FromCustodian,
		&entry.ToCustodian, &entry.Location, &entry.Timestamp, &entry.Purpose,
		&entry.Notes, &supersedes, &entry.RecordedBy, &entry.RecordedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, storeErr("scan custody entry", err)
	}
	entry.ID = id.EntryID(entryID)
	entry.EvidenceID = id.EvidenceID(evidenceID)
	entry.Action = models.Action(action)
	if supersedes != nil {
		sid := id.EntryID(*supersedes)
		entry.Supersedes = &sid
	}
	return &entry, nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", sentinel.ErrUnavailable, op, err)
}
