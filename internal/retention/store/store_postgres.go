package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"custos/internal/retention/models"
	id "custos/pkg/domain"
	"custos/pkg/platform/sentinel"
)

// Postgres implements Store. The activation swap runs in one transaction and
// the partial unique index on (case_type) WHERE active backstops it.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) CreateActive(ctx context.Context, policy *models.RetentionPolicy, now time.Time) (*models.RetentionPolicy, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr("begin policy activation", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Deactivate the current active policy for this case type, if any,
	// returning it so the service can audit the swap.
	const swap = `
		UPDATE retention_policies SET active = FALSE, deactivated_at = $2
		WHERE case_type = $1 AND active
		RETURNING id, case_type, retention_years, disposal_method, dual_approval, active, created_at, deactivated_at
	`
	predecessor, err := scanPolicy(tx.QueryRowContext(ctx, swap, string(policy.CaseType), now))
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, err
	}

	const insert = `
		INSERT INTO retention_policies
			(id, case_type, retention_years, disposal_method, dual_approval, active, created_at, deactivated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, NULL)
	`
	if _, err := tx.ExecContext(ctx, insert,
		uuid.UUID(policy.ID), string(policy.CaseType), policy.RetentionYears,
		string(policy.DisposalMethod), policy.RequiresDualApproval, policy.CreatedAt,
	); err != nil {
		return nil, storeErr("insert retention policy", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storeErr("commit policy activation", err)
	}
	policy.Active = true
	return predecessor, nil
}

func (s *Postgres) Deactivate(ctx context.Context, policyID id.PolicyID, now time.Time) (*models.RetentionPolicy, error) {
	const query = `
		UPDATE retention_policies SET active = FALSE, deactivated_at = $2
		WHERE id = $1 AND active
		RETURNING id, case_type, retention_years, disposal_method, dual_approval, active, created_at, deactivated_at
	`
	policy, err := scanPolicy(s.db.QueryRowContext(ctx, query, uuid.UUID(policyID), now))
	if errors.Is(err, sentinel.ErrNotFound) {
		// Distinguish missing from already-inactive.
		if _, findErr := s.FindByID(ctx, policyID); findErr == nil {
			return nil, sentinel.ErrInvalidState
		}
		return nil, sentinel.ErrNotFound
	}
	return policy, err
}

func (s *Postgres) FindByID(ctx context.Context, policyID id.PolicyID) (*models.RetentionPolicy, error) {
	return scanPolicy(s.db.QueryRowContext(ctx, policyQuery+` WHERE id = $1`, uuid.UUID(policyID)))
}

func (s *Postgres) ActiveForCaseType(ctx context.Context, caseType id.CaseType) (*models.RetentionPolicy, error) {
	return scanPolicy(s.db.QueryRowContext(ctx, policyQuery+` WHERE case_type = $1 AND active`, string(caseType)))
}

func (s *Postgres) List(ctx context.Context, includeInactive bool) ([]*models.RetentionPolicy, error) {
	query := policyQuery + ` WHERE active ORDER BY created_at ASC`
	if includeInactive {
		query = policyQuery + ` ORDER BY created_at ASC`
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storeErr("list retention policies", err)
	}
	defer rows.Close()

	var policies []*models.RetentionPolicy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

const policyQuery = `
	SELECT id, case_type, retention_years, disposal_method, dual_approval, active, created_at, deactivated_at
	FROM retention_policies`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPolicy(row rowScanner) (*models.RetentionPolicy, error) {
	var p models.RetentionPolicy
	var policyID uuid.UUID
	var caseType, method string
	err := row.Scan(&policyID, &caseType, &p.RetentionYears, &method,
		&p.RequiresDualApproval, &p.Active, &p.CreatedAt, &p.DeactivatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, storeErr("scan retention policy", err)
	}
	p.ID = id.PolicyID(policyID)
	p.CaseType = id.CaseType(caseType)
	p.DisposalMethod = models.DisposalMethod(method)
	return &p, nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", sentinel.ErrUnavailable, op, err)
}
