// pkg/tokens/postgres.go
package tokens

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type pgStore struct {
	dbPool *pgxpool.Pool
	log    *zap.SugaredLogger
}

// NewPostgresStore constructs a PostgreSQL-backed token store.
func NewPostgresStore(dbPool *pgxpool.Pool, log *zap.SugaredLogger) Store {
	return &pgStore{dbPool: dbPool, log: log}
}

// EnsureSchema creates the tokens table if it does not already exist.
// Safe to call repeatedly (idempotent). shop_id is the primary key: one
// current token per shop, enforced by the database.
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS shop_tokens (
  shop_id bigint PRIMARY KEY,
  access_token text NOT NULL,
  refresh_token text NOT NULL,
  issued_at timestamptz NOT NULL,
  ttl_seconds bigint NOT NULL,
  expires_at timestamptz NOT NULL,
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
`)
	return err
}

func (p *pgStore) Get(ctx context.Context, shopID int64) (Token, error) {
	row := p.dbPool.QueryRow(ctx, `SELECT shop_id,access_token,refresh_token,issued_at,ttl_seconds,expires_at FROM shop_tokens WHERE shop_id=$1`, shopID)
	var t Token
	var ttlSec int64
	if err := row.Scan(&t.ShopID, &t.AccessToken, &t.RefreshToken, &t.IssuedAt, &ttlSec, &t.ExpiresAt); err != nil {
		return Token{}, ErrNotFound
	}
	t.TTL = time.Duration(ttlSec) * time.Second
	return t, nil
}

func (p *pgStore) Upsert(ctx context.Context, t Token) error {
	_, err := p.dbPool.Exec(ctx, `INSERT INTO shop_tokens(shop_id,access_token,refresh_token,issued_at,ttl_seconds,expires_at)
	  VALUES ($1,$2,$3,$4,$5,$6)
	  ON CONFLICT (shop_id) DO UPDATE SET access_token=EXCLUDED.access_token,refresh_token=EXCLUDED.refresh_token,issued_at=EXCLUDED.issued_at,ttl_seconds=EXCLUDED.ttl_seconds,expires_at=EXCLUDED.expires_at,updated_at=NOW()`,
		t.ShopID, t.AccessToken, t.RefreshToken, t.IssuedAt, int64(t.TTL/time.Second), t.ExpiresAt)
	return err
}
