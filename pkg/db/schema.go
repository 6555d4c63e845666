package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS monitors (
	id               UUID PRIMARY KEY,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	name             TEXT NOT NULL,
	slug             TEXT NOT NULL UNIQUE,
	token            TEXT NOT NULL,
	interval_seconds INTEGER NOT NULL,
	grace_seconds    INTEGER NOT NULL DEFAULT 0,
	last_ping        TIMESTAMPTZ,
	status           TEXT NOT NULL DEFAULT 'UNKNOWN',
	webhook_url      TEXT
);

CREATE TABLE IF NOT EXISTS history (
	id          BIGSERIAL PRIMARY KEY,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	slug        TEXT NOT NULL,
	prev_status TEXT NOT NULL,
	new_status  TEXT NOT NULL,
	note        TEXT
);

CREATE INDEX IF NOT EXISTS idx_history_slug ON history (slug);
`

// EnsureSchema creates the tables on startup if they are missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
