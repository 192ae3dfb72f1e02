// pkg/shops/postgres.go
package shops

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// pgProvider implements Provider backed by PostgreSQL.
type pgProvider struct {
	dbPool *pgxpool.Pool
	log    *zap.SugaredLogger
}

// NewPostgresProvider constructs a PostgreSQL-backed shop provider.
func NewPostgresProvider(dbPool *pgxpool.Pool, log *zap.SugaredLogger) Provider {
	return &pgProvider{dbPool: dbPool, log: log}
}

// EnsureSchema creates the shops table if it does not already exist.
// Safe to call repeatedly (idempotent).
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS shops (
  shop_id bigint PRIMARY KEY,
  name text NOT NULL DEFAULT '',
  region text NOT NULL DEFAULT '',
  partner_id bigint NOT NULL DEFAULT 0,
  partner_key text NOT NULL DEFAULT '',
  active boolean NOT NULL DEFAULT true,
  created_at timestamptz NOT NULL DEFAULT NOW(),
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
`)
	return err
}

func (p *pgProvider) Get(ctx context.Context, shopID int64) (Shop, error) {
	row := p.dbPool.QueryRow(ctx, `SELECT shop_id,name,region,partner_id,partner_key,active FROM shops WHERE shop_id=$1`, shopID)
	var s Shop
	if err := row.Scan(&s.ID, &s.Name, &s.Region, &s.PartnerID, &s.PartnerKey, &s.Active); err != nil {
		return Shop{}, ErrNotFound
	}
	return s, nil
}

func (p *pgProvider) List(ctx context.Context) ([]Shop, error) {
	rows, err := p.dbPool.Query(ctx, `SELECT shop_id,name,region,partner_id,partner_key,active FROM shops WHERE active ORDER BY shop_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Shop
	for rows.Next() {
		var s Shop
		if err := rows.Scan(&s.ID, &s.Name, &s.Region, &s.PartnerID, &s.PartnerKey, &s.Active); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *pgProvider) Upsert(ctx context.Context, s Shop) error {
	_, err := p.dbPool.Exec(ctx, `INSERT INTO shops(shop_id,name,region,partner_id,partner_key,active)
	  VALUES ($1,$2,$3,$4,$5,$6)
	  ON CONFLICT (shop_id) DO UPDATE SET name=EXCLUDED.name,region=EXCLUDED.region,partner_id=EXCLUDED.partner_id,partner_key=EXCLUDED.partner_key,active=EXCLUDED.active,updated_at=NOW()`,
		s.ID, s.Name, s.Region, s.PartnerID, s.PartnerKey, s.Active)
	return err
}
