package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS community_config (
		community_id TEXT PRIMARY KEY,
		source_handle TEXT NOT NULL DEFAULT '',
		report_channel_id TEXT NOT NULL DEFAULT '',
		timezone TEXT NOT NULL DEFAULT 'Etc/UTC',
		weekly_day INTEGER NOT NULL DEFAULT 6,
		weekly_hour INTEGER NOT NULL DEFAULT 19,
		weekly_minute INTEGER NOT NULL DEFAULT 0,
		monthly_hour INTEGER NOT NULL DEFAULT 9,
		monthly_minute INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS links (
		community_id TEXT NOT NULL,
		performer_handle TEXT NOT NULL,
		member_id TEXT NOT NULL,
		PRIMARY KEY (community_id, performer_handle)
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		community_id TEXT NOT NULL,
		host_handle TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_open ON sessions (community_id) WHERE ended_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_window ON sessions (community_id, started_at)`,
	`CREATE TABLE IF NOT EXISTS tallies (
		id BIGSERIAL PRIMARY KEY,
		session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		community_id TEXT NOT NULL,
		performer_handle TEXT NOT NULL,
		metric_kind TEXT NOT NULL,
		count BIGINT NOT NULL,
		UNIQUE (session_id, performer_handle, metric_kind)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tallies_session ON tallies (session_id)`,
	`CREATE TABLE IF NOT EXISTS experience (
		community_id TEXT NOT NULL,
		member_id TEXT NOT NULL,
		xp BIGINT NOT NULL DEFAULT 0,
		PRIMARY KEY (community_id, member_id)
	)`,
	`CREATE TABLE IF NOT EXISTS monthly_marker (
		community_id TEXT NOT NULL,
		year_month TEXT NOT NULL,
		PRIMARY KEY (community_id, year_month)
	)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
