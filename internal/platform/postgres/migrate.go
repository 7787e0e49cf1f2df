package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

type migrationStep struct {
	Name string
	SQL  string
}

// Schema notes:
//   - custody_entries has UNIQUE(evidence_id, seq); the append path assigns
//     seq under a FOR UPDATE lock on the item row, so the constraint is a
//     backstop, not the mechanism.
//   - Neither custody_entries nor audit_events is ever UPDATEd or DELETEd by
//     this codebase; deployments should revoke those grants from the service
//     role as well.
//   - retention_policies has a partial unique index enforcing at most one
//     active policy per case type.
//   - disposal_requests has a partial unique index enforcing at most one
//     non-completed request per case; inserts race on it, not on row locks.
var steps = []migrationStep{
	{
		Name: "create_table_evidence_items",
		SQL: `CREATE TABLE IF NOT EXISTS evidence_items (
  id                UUID        PRIMARY KEY,
  case_id           UUID        NOT NULL,
  description       TEXT        NOT NULL,
  current_custodian TEXT        NOT NULL,
  current_location  TEXT        NOT NULL,
  digest            TEXT,
  digest_alg        TEXT        NOT NULL DEFAULT '',
  disposed          BOOLEAN     NOT NULL DEFAULT FALSE,
  disposed_at       TIMESTAMPTZ,
  created_at        TIMESTAMPTZ NOT NULL
);`,
	},
	{
		Name: "create_index_evidence_items_case",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_evidence_items_case ON evidence_items (case_id);`,
	},
	{
		Name: "create_table_custody_entries",
		SQL: `CREATE TABLE IF NOT EXISTS custody_entries (
  id             UUID        PRIMARY KEY,
  evidence_id    UUID        NOT NULL REFERENCES evidence_items (id),
  seq            BIGINT      NOT NULL,
  action         TEXT        NOT NULL,
  from_custodian TEXT        NOT NULL DEFAULT '',
  to_custodian   TEXT        NOT NULL,
  location       TEXT        NOT NULL DEFAULT '',
  ts             TIMESTAMPTZ NOT NULL,
  purpose        TEXT        NOT NULL,
  notes          TEXT        NOT NULL DEFAULT '',
  supersedes     UUID        REFERENCES custody_entries (id),
  recorded_by    TEXT        NOT NULL,
  recorded_at    TIMESTAMPTZ NOT NULL,
  UNIQUE (evidence_id, seq)
);`,
	},
	{
		Name: "create_table_retention_policies",
		SQL: `CREATE TABLE IF NOT EXISTS retention_policies (
  id              UUID        PRIMARY KEY,
  case_type       TEXT        NOT NULL,
  retention_years INT         NOT NULL CHECK (retention_years > 0),
  disposal_method TEXT        NOT NULL,
  dual_approval   BOOLEAN     NOT NULL,
  active          BOOLEAN     NOT NULL,
  created_at      TIMESTAMPTZ NOT NULL,
  deactivated_at  TIMESTAMPTZ
);`,
	},
	{
		Name: "create_unique_active_policy_per_case_type",
		SQL: `CREATE UNIQUE INDEX IF NOT EXISTS uq_retention_active_case_type
  ON retention_policies (case_type) WHERE active;`,
	},
	{
		Name: "create_table_legal_holds",
		SQL: `CREATE TABLE IF NOT EXISTS legal_holds (
  id          UUID        PRIMARY KEY,
  case_id     UUID        NOT NULL,
  reason      TEXT        NOT NULL,
  placed_by   TEXT        NOT NULL,
  placed_at   TIMESTAMPTZ NOT NULL,
  expires_at  TIMESTAMPTZ,
  active      BOOLEAN     NOT NULL,
  released_by TEXT        NOT NULL DEFAULT '',
  released_at TIMESTAMPTZ
);`,
	},
	{
		Name: "create_index_legal_holds_case",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_legal_holds_case ON legal_holds (case_id);`,
	},
	{
		Name: "create_table_disposal_requests",
		SQL: `CREATE TABLE IF NOT EXISTS disposal_requests (
  id              UUID        PRIMARY KEY,
  case_id         UUID        NOT NULL,
  policy_id       UUID        NOT NULL,
  case_type       TEXT        NOT NULL,
  retention_years INT         NOT NULL,
  disposal_method TEXT        NOT NULL,
  dual_approval   BOOLEAN     NOT NULL,
  eligible_at     TIMESTAMPTZ NOT NULL,
  requested_by    TEXT        NOT NULL,
  requested_at    TIMESTAMPTZ NOT NULL,
  status          TEXT        NOT NULL,
  approver1       TEXT,
  approver1_at    TIMESTAMPTZ,
  approver2       TEXT,
  approver2_at    TIMESTAMPTZ,
  witness         TEXT        NOT NULL DEFAULT '',
  completed_by    TEXT        NOT NULL DEFAULT '',
  completed_at    TIMESTAMPTZ,
  notes           TEXT        NOT NULL DEFAULT '',
  hold_note       TEXT        NOT NULL DEFAULT ''
);`,
	},
	{
		Name: "create_index_disposal_requests_case",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_disposal_requests_case ON disposal_requests (case_id);`,
	},
	{
		Name: "create_unique_active_disposal_per_case",
		SQL: `CREATE UNIQUE INDEX IF NOT EXISTS uq_disposal_active_case
  ON disposal_requests (case_id) WHERE status <> 'COMPLETED';`,
	},
	{
		Name: "create_table_audit_events",
		SQL: `CREATE TABLE IF NOT EXISTS audit_events (
  id          UUID        PRIMARY KEY,
  category    TEXT        NOT NULL,
  ts          TIMESTAMPTZ NOT NULL,
  action      TEXT        NOT NULL,
  case_id     TEXT,
  evidence_id TEXT,
  disposal_id TEXT,
  actor       TEXT        NOT NULL,
  decision    TEXT,
  reason      TEXT,
  request_id  TEXT
);`,
	},
	{
		Name: "create_index_audit_events_case",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_audit_events_case ON audit_events (case_id);`,
	},
}

// Migrate applies the schema idempotently. Every step is IF NOT EXISTS so
// re-running at startup is safe.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, step := range steps {
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			return fmt.Errorf("migration %s: %w", step.Name, err)
		}
	}
	return nil
}
