// pkg/rules/postgres.go
package rules

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type pgStore struct {
	dbPool *pgxpool.Pool
	log    *zap.SugaredLogger
}

// NewPostgresStore constructs a PostgreSQL-backed rule store.
func NewPostgresStore(dbPool *pgxpool.Pool, log *zap.SugaredLogger) Store {
	return &pgStore{dbPool: dbPool, log: log}
}

// EnsureSchema creates the rules table if it does not already exist.
// Safe to call repeatedly (idempotent).
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS budget_rules (
  id uuid PRIMARY KEY,
  shop_id bigint NOT NULL,
  campaign_id bigint NOT NULL,
  kind text NOT NULL,
  hour_start int NOT NULL,
  hour_end int NOT NULL,
  days_of_week int[] NOT NULL DEFAULT '{}',
  budget double precision NOT NULL,
  active boolean NOT NULL DEFAULT true,
  created_at timestamptz NOT NULL DEFAULT NOW(),
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS budget_rules_shop_idx ON budget_rules(shop_id);
`)
	return err
}

const ruleCols = `id,shop_id,campaign_id,kind,hour_start,hour_end,days_of_week,budget,active,updated_at`

func scanRule(row pgx.Row) (Rule, error) {
	var r Rule
	var days []int32
	if err := row.Scan(&r.ID, &r.ShopID, &r.CampaignID, &r.Kind, &r.HourStart, &r.HourEnd, &days, &r.Budget, &r.Active, &r.UpdatedAt); err != nil {
		return Rule{}, err
	}
	for _, d := range days {
		r.Days = append(r.Days, int(d))
	}
	return r, nil
}

func daysArg(r Rule) []int32 {
	out := make([]int32, 0, len(r.Days))
	for _, d := range r.Days {
		out = append(out, int32(d))
	}
	return out
}

func (p *pgStore) Create(ctx context.Context, r Rule) error {
	_, err := p.dbPool.Exec(ctx, `INSERT INTO budget_rules(id,shop_id,campaign_id,kind,hour_start,hour_end,days_of_week,budget,active)
	  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		r.ID, r.ShopID, r.CampaignID, r.Kind, r.HourStart, r.HourEnd, daysArg(r), r.Budget, r.Active)
	return err
}

func (p *pgStore) Update(ctx context.Context, r Rule) error {
	tag, err := p.dbPool.Exec(ctx, `UPDATE budget_rules SET shop_id=$2,campaign_id=$3,kind=$4,hour_start=$5,hour_end=$6,days_of_week=$7,budget=$8,active=$9,updated_at=NOW() WHERE id=$1`,
		r.ID, r.ShopID, r.CampaignID, r.Kind, r.HourStart, r.HourEnd, daysArg(r), r.Budget, r.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *pgStore) Delete(ctx context.Context, ruleID string) error {
	tag, err := p.dbPool.Exec(ctx, `DELETE FROM budget_rules WHERE id=$1`, ruleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *pgStore) Get(ctx context.Context, ruleID string) (Rule, error) {
	r, err := scanRule(p.dbPool.QueryRow(ctx, `SELECT `+ruleCols+` FROM budget_rules WHERE id=$1`, ruleID))
	if err != nil {
		return Rule{}, ErrNotFound
	}
	return r, nil
}

func (p *pgStore) List(ctx context.Context, shopID int64) ([]Rule, error) {
	q := `SELECT ` + ruleCols + ` FROM budget_rules ORDER BY shop_id, id`
	args := []any{}
	if shopID != 0 {
		q = `SELECT ` + ruleCols + ` FROM budget_rules WHERE shop_id=$1 ORDER BY id`
		args = append(args, shopID)
	}
	return p.queryRules(ctx, q, args...)
}

func (p *pgStore) ListActive(ctx context.Context) ([]Rule, error) {
	return p.queryRules(ctx, `SELECT `+ruleCols+` FROM budget_rules WHERE active ORDER BY shop_id, id`)
}

func (p *pgStore) queryRules(ctx context.Context, q string, args ...any) ([]Rule, error) {
	rows, err := p.dbPool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
