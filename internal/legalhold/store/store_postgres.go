package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"custos/internal/legalhold/models"
	id "custos/pkg/domain"
	"custos/pkg/platform/sentinel"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, hold *models.LegalHold) error {
	const query = `
		INSERT INTO legal_holds
			(id, case_id, reason, placed_by, placed_at, expires_at, active, released_by, released_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, '', NULL)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(hold.ID), uuid.UUID(hold.CaseID), hold.Reason,
		hold.PlacedBy, hold.PlacedAt, hold.ExpiresAt,
	)
	if err != nil {
		return storeErr("insert legal hold", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, holdID id.HoldID) (*models.LegalHold, error) {
	return scanHold(s.db.QueryRowContext(ctx, holdQuery+` WHERE id = $1`, uuid.UUID(holdID)))
}

func (s *Postgres) Release(ctx context.Context, holdID id.HoldID, releasedBy string, now time.Time) (*models.LegalHold, error) {
	const query = `
		UPDATE legal_holds SET active = FALSE, released_by = $2, released_at = $3
		WHERE id = $1 AND active
		RETURNING id, case_id, reason, placed_by, placed_at, expires_at, active, released_by, released_at
	`
	hold, err := scanHold(s.db.QueryRowContext(ctx, query, uuid.UUID(holdID), releasedBy, now))
	if errors.Is(err, sentinel.ErrNotFound) {
		if _, findErr := s.FindByID(ctx, holdID); findErr == nil {
			return nil, sentinel.ErrInvalidState
		}
		return nil, sentinel.ErrNotFound
	}
	return hold, err
}

func (s *Postgres) ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.LegalHold, error) {
	return s.queryHolds(ctx, holdQuery+` WHERE case_id = $1 ORDER BY placed_at ASC`, uuid.UUID(caseID))
}

func (s *Postgres) ActiveForCase(ctx context.Context, caseID id.CaseID, now time.Time) ([]*models.LegalHold, error) {
	const query = holdQuery + `
		WHERE case_id = $1 AND active AND (expires_at IS NULL OR expires_at > $2)
		ORDER BY placed_at ASC`
	return s.queryHolds(ctx, query, uuid.UUID(caseID), now)
}

func (s *Postgres) queryHolds(ctx context.Context, query string, args ...any) ([]*models.LegalHold, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("query legal holds", err)
	}
	defer rows.Close()

	var holds []*models.LegalHold
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, err
		}
		holds = append(holds, h)
	}
	return holds, rows.Err()
}

const holdQuery = `
	SELECT id, case_id, reason, placed_by, placed_at, expires_at, active, released_by, released_at
	FROM legal_holds`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHold(row rowScanner) (*models.LegalHold, error) {
	var h models.LegalHold
	var holdID, caseID uuid.UUID
	err := row.Scan(&holdID, &caseID, &h.Reason, &h.PlacedBy, &h.PlacedAt,
		&h.ExpiresAt, &h.Active, &h.ReleasedBy, &h.ReleasedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, storeErr("scan legal hold", err)
	}
	h.ID = id.HoldID(holdID)
	h.CaseID = id.CaseID(caseID)
	return &h, nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", sentinel.ErrUnavailable, op, err)
}
