// pkg/audit/postgres.go
package audit

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const defaultListLimit = 100

type pgStore struct {
	dbPool *pgxpool.Pool
	log    *zap.SugaredLogger
}

// NewPostgresStore constructs a PostgreSQL-backed audit store.
func NewPostgresStore(dbPool *pgxpool.Pool, log *zap.SugaredLogger) Store {
	return &pgStore{dbPool: dbPool, log: log}
}

// EnsureSchema creates the audit table if it does not already exist.
// Safe to call repeatedly (idempotent). rule_id is deliberately not a foreign
// key: audit rows outlive rule deletion.
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS budget_audit (
  id uuid PRIMARY KEY,
  rule_id text NOT NULL,
  shop_id bigint NOT NULL,
  campaign_id bigint NOT NULL,
  applied_value double precision NOT NULL,
  status text NOT NULL,
  error_detail text NOT NULL DEFAULT '',
  executed_at timestamptz NOT NULL
);
CREATE INDEX IF NOT EXISTS budget_audit_rule_idx ON budget_audit(rule_id, executed_at DESC);
`)
	return err
}

func (p *pgStore) Append(ctx context.Context, rec Record) error {
	_, err := p.dbPool.Exec(ctx, `INSERT INTO budget_audit(id,rule_id,shop_id,campaign_id,applied_value,status,error_detail,executed_at)
	  VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		rec.ID, rec.RuleID, rec.ShopID, rec.CampaignID, rec.AppliedValue, rec.Status, rec.ErrorDetail, rec.ExecutedAt)
	return err
}

func (p *pgStore) List(ctx context.Context, ruleID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	q := `SELECT id,rule_id,shop_id,campaign_id,applied_value,status,error_detail,executed_at FROM budget_audit ORDER BY executed_at DESC LIMIT $1`
	args := []any{limit}
	if ruleID != "" {
		q = `SELECT id,rule_id,shop_id,campaign_id,applied_value,status,error_detail,executed_at FROM budget_audit WHERE rule_id=$1 ORDER BY executed_at DESC LIMIT $2`
		args = []any{ruleID, limit}
	}
	rows, err := p.dbPool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.RuleID, &rec.ShopID, &rec.CampaignID, &rec.AppliedValue, &rec.Status, &rec.ErrorDetail, &rec.ExecutedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
