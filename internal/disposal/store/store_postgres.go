package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"custos/internal/disposal/models"
	retention "custos/internal/retention/models"
	id "custos/pkg/domain"
	"custos/pkg/platform/sentinel"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, req *models.DisposalRequest) error {
	// One non-completed request per case, backstopped by the partial unique
	// index on (case_id) WHERE status <> 'COMPLETED'.
	const insert = `
		INSERT INTO disposal_requests
			(id, case_id, policy_id, case_type, retention_years, disposal_method, dual_approval,
			 eligible_at, requested_by, requested_at, status,
			 approver1, approver1_at, approver2, approver2_at,
			 witness, completed_by, completed_at, notes, hold_note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			 NULL, NULL, NULL, NULL, '', '', NULL, $12, $13)
		ON CONFLICT (case_id) WHERE status <> 'COMPLETED' DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, insert,
		uuid.UUID(req.ID), uuid.UUID(req.CaseID), uuid.UUID(req.Policy.PolicyID),
		string(req.Policy.CaseType), req.Policy.RetentionYears,
		string(req.Policy.DisposalMethod), req.Policy.RequiresDualApproval,
		req.EligibleAt, req.RequestedBy, req.RequestedAt, string(req.Status),
		req.Notes, req.HoldNote,
	)
	if err != nil {
		return storeErr("insert disposal request", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return storeErr("insert disposal request", err)
	}
	if rows == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, disposalID id.DisposalID) (*models.DisposalRequest, error) {
	return scanRequest(s.db.QueryRowContext(ctx, requestQuery+` WHERE id = $1`, uuid.UUID(disposalID)))
}

func (s *Postgres) FindActiveByCase(ctx context.Context, caseID id.CaseID) (*models.DisposalRequest, error) {
	const query = requestQuery + ` WHERE case_id = $1 AND status <> $2`
	return scanRequest(s.db.QueryRowContext(ctx, query,
		uuid.UUID(caseID), string(models.StatusCompleted)))
}

func (s *Postgres) ListByCase(ctx context.Context, caseID id.CaseID) ([]*models.DisposalRequest, error) {
	return s.queryRequests(ctx, requestQuery+` WHERE case_id = $1 ORDER BY requested_at ASC`, uuid.UUID(caseID))
}

func (s *Postgres) List(ctx context.Context, status *models.Status) ([]*models.DisposalRequest, error) {
	if status == nil {
		return s.queryRequests(ctx, requestQuery+` ORDER BY requested_at ASC`)
	}
	return s.queryRequests(ctx, requestQuery+` WHERE status = $1 ORDER BY requested_at ASC`, string(*status))
}

func (s *Postgres) Execute(ctx context.Context, disposalID id.DisposalID, mutate Mutate) (*models.DisposalRequest, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr("begin disposal transition", err)
	}
	defer func() { _ = tx.Rollback() }()

	req, err := scanRequest(tx.QueryRowContext(ctx, requestQuery+` WHERE id = $1 FOR UPDATE`, uuid.UUID(disposalID)))
	if err != nil {
		return nil, err
	}
	if err := mutate(req); err != nil {
		return nil, err
	}
	if err := persistRequest(ctx, tx, req); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, storeErr("commit disposal transition", err)
	}
	return req, nil
}

func (s *Postgres) ExecuteByCase(ctx context.Context, caseID id.CaseID, mutate CaseMutate) ([]*models.DisposalRequest, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr("begin case disposal transition", err)
	}
	defer func() { _ = tx.Rollback() }()

	reqs, err := queryRequestsTx(ctx, tx,
		requestQuery+` WHERE case_id = $1 ORDER BY requested_at ASC FOR UPDATE`, uuid.UUID(caseID))
	if err != nil {
		return nil, err
	}

	var changed []*models.DisposalRequest
	for _, req := range reqs {
		ok, err := mutate(req)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := persistRequest(ctx, tx, req); err != nil {
			return nil, err
		}
		changed = append(changed, req)
	}

	if err := tx.Commit(); err != nil {
		return nil, storeErr("commit case disposal transition", err)
	}
	return changed, nil
}

func persistRequest(ctx context.Context, tx *sql.Tx, req *models.DisposalRequest) error {
	const update = `
		UPDATE disposal_requests SET
			status = $2,
			approver1 = $3, approver1_at = $4,
			approver2 = $5, approver2_at = $6,
			witness = $7, completed_by = $8, completed_at = $9,
			hold_note = $10
		WHERE id = $1
	`
	var app1, app2 *string
	var app1At, app2At any
	if req.FirstApproval != nil {
		app1 = &req.FirstApproval.Actor
		app1At = req.FirstApproval.At
	}
	if req.SecondApproval != nil {
		app2 = &req.SecondApproval.Actor
		app2At = req.SecondApproval.At
	}
	if _, err := tx.ExecContext(ctx, update,
		uuid.UUID(req.ID), string(req.Status),
		app1, app1At, app2, app2At,
		req.Witness, req.CompletedBy, req.CompletedAt, req.HoldNote,
	); err != nil {
		return storeErr("update disposal request", err)
	}
	return nil
}

func (s *Postgres) queryRequests(ctx context.Context, query string, args ...any) ([]*models.DisposalRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("query disposal requests", err)
	}
	defer rows.Close()
	return collectRequests(rows)
}

func queryRequestsTx(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]*models.DisposalRequest, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("query disposal requests", err)
	}
	defer rows.Close()
	return collectRequests(rows)
}

func collectRequests(rows *sql.Rows) ([]*models.DisposalRequest, error) {
	var reqs []*models.DisposalRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, r)
	}
	return reqs, rows.Err()
}

const requestQuery = `
	SELECT id, case_id, policy_id, case_type, retention_years, disposal_method, dual_approval,
	       eligible_at, requested_by, requested_at, status,
	       approver1, approver1_at, approver2, approver2_at,
	       witness, completed_by, completed_at, notes, hold_note
	FROM disposal_requests`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.DisposalRequest, error) {
	var r models.DisposalRequest
	var disposalID, caseID, policyID uuid.UUID
	var caseType, method, status string
	var app1, app2 sql.NullString
	var app1At, app2At sql.NullTime
	err := row.Scan(&disposalID, &caseID, &policyID, &caseType,
		&r.Policy.RetentionYears, &method, &r.Policy.RequiresDualApproval,
		&r.EligibleAt, &r.RequestedBy, &r.RequestedAt, &status,
		&app1, &app1At, &app2, &app2At,
		&r.Witness, &r.CompletedBy, &r.CompletedAt, &r.Notes, &r.HoldNote)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, storeErr("scan disposal request", err)
	}
	r.ID = id.DisposalID(disposalID)
	r.CaseID = id.CaseID(caseID)
	r.Policy.PolicyID = id.PolicyID(policyID)
	r.Policy.CaseType = id.CaseType(caseType)
	r.Policy.DisposalMethod = retention.DisposalMethod(method)
	r.Status = models.Status(status)
	if app1.Valid {
		r.FirstApproval = &models.Approval{Actor: app1.String, At: app1At.Time}
	}
	if app2.Valid {
		r.SecondApproval = &models.Approval{Actor: app2.String, At: app2At.Time}
	}
	return &r, nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", sentinel.ErrUnavailable, op, err)
}
