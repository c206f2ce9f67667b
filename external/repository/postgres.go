package repository

import (
	"context"
	"time"

	"github.com/creatorsconnections/liveboard/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) GetCommunityConfig(ctx context.Context, communityID string) (*repository.CommunityConfig, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT community_id, source_handle, report_channel_id, timezone,
		        weekly_day, weekly_hour, weekly_minute, monthly_hour, monthly_minute
		 FROM community_config WHERE community_id = $1`,
		communityID)
	var c repository.CommunityConfig
	err := row.Scan(&c.CommunityID, &c.SourceHandle, &c.ReportChannelID, &c.Timezone,
		&c.WeeklyDay, &c.WeeklyHour, &c.WeeklyMinute, &c.MonthlyHour, &c.MonthlyMinute)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *PostgresRepository) ListCommunityConfigs(ctx context.Context) ([]repository.CommunityConfig, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT community_id, source_handle, report_channel_id, timezone,
		        weekly_day, weekly_hour, weekly_minute, monthly_hour, monthly_minute
		 FROM community_config ORDER BY community_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.CommunityConfig
	for rows.Next() {
		var c repository.CommunityConfig
		if err := rows.Scan(&c.CommunityID, &c.SourceHandle, &c.ReportChannelID, &c.Timezone,
			&c.WeeklyDay, &c.WeeklyHour, &c.WeeklyMinute, &c.MonthlyHour, &c.MonthlyMinute); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) SetSourceHandle(ctx context.Context, communityID, handle string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO community_config (community_id, source_handle) VALUES ($1, $2)
		 ON CONFLICT (community_id) DO UPDATE SET source_handle = EXCLUDED.source_handle`,
		communityID, handle)
	return err
}

func (r *PostgresRepository) SetReportChannel(ctx context.Context, communityID, channelID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO community_config (community_id, report_channel_id) VALUES ($1, $2)
		 ON CONFLICT (community_id) DO UPDATE SET report_channel_id = EXCLUDED.report_channel_id`,
		communityID, channelID)
	return err
}

func (r *PostgresRepository) SetWeeklySchedule(ctx context.Context, communityID string, day, hour, minute int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO community_config (community_id, weekly_day, weekly_hour, weekly_minute) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (community_id) DO UPDATE SET
		   weekly_day = EXCLUDED.weekly_day,
		   weekly_hour = EXCLUDED.weekly_hour,
		   weekly_minute = EXCLUDED.weekly_minute`,
		communityID, day, hour, minute)
	return err
}

func (r *PostgresRepository) UpsertLink(ctx context.Context, communityID, performerHandle, memberID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO links (community_id, performer_handle, member_id) VALUES ($1, $2, $3)
		 ON CONFLICT (community_id, performer_handle) DO UPDATE SET member_id = EXCLUDED.member_id`,
		communityID, performerHandle, memberID)
	return err
}

func (r *PostgresRepository) GetLinkedMember(ctx context.Context, communityID, performerHandle string) (string, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT member_id FROM links WHERE community_id = $1 AND performer_handle = $2`,
		communityID, performerHandle)
	var memberID string
	if err := row.Scan(&memberID); err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return memberID, nil
}

func (r *PostgresRepository) CreateSession(ctx context.Context, input repository.CreateSessionInput) (*repository.LiveSession, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO sessions (community_id, host_handle, started_at)
		 VALUES ($1, $2, $3)
		 RETURNING id, community_id, host_handle, started_at, ended_at`,
		input.CommunityID, input.HostHandle, input.StartedAt)
	var s repository.LiveSession
	var endedAt *time.Time
	if err := row.Scan(&s.ID, &s.CommunityID, &s.HostHandle, &s.StartedAt, &endedAt); err != nil {
		return nil, err
	}
	s.EndedAt = endedAt
	return &s, nil
}

func (r *PostgresRepository) CloseSession(ctx context.Context, sessionID string, endedAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sessions SET ended_at = $2 WHERE id = $1`,
		sessionID, endedAt)
	return err
}

func (r *PostgresRepository) CloseOpenSessions(ctx context.Context, communityID string, endedAt time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sessions SET ended_at = $2 WHERE community_id = $1 AND ended_at IS NULL`,
		communityID, endedAt)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepository) InsertTallies(ctx context.Context, records []repository.TallyRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	for _, rec := range records {
		if _, err := tx.Exec(ctx,
			`INSERT INTO tallies (session_id, community_id, performer_handle, metric_kind, count)
			 VALUES ($1, $2, $3, $4, $5)`,
			rec.SessionID, rec.CommunityID, rec.PerformerHandle, string(rec.Metric), rec.Count); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *PostgresRepository) SumTalliesInWindow(ctx context.Context, communityID string, metric repository.MetricKind, start, end time.Time) ([]repository.MetricTotal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT t.performer_handle, SUM(t.count)
		 FROM tallies t
		 JOIN sessions s ON s.id = t.session_id
		 WHERE t.community_id = $1 AND t.metric_kind = $2
		   AND s.started_at <= $4
		   AND (s.ended_at IS NULL OR s.ended_at >= $3)
		 GROUP BY t.performer_handle
		 ORDER BY MIN(s.started_at), MIN(t.id)`,
		communityID, string(metric), start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTotals(rows)
}

func (r *PostgresRepository) SumTalliesAllTime(ctx context.Context, communityID string, metric repository.MetricKind) ([]repository.MetricTotal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT performer_handle, SUM(count)
		 FROM tallies
		 WHERE community_id = $1 AND metric_kind = $2
		 GROUP BY performer_handle
		 ORDER BY MIN(id)`,
		communityID, string(metric))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTotals(rows)
}

func scanTotals(rows pgx.Rows) ([]repository.MetricTotal, error) {
	var list []repository.MetricTotal
	for rows.Next() {
		var t repository.MetricTotal
		if err := rows.Scan(&t.PerformerHandle, &t.Total); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) GetExperience(ctx context.Context, communityID, memberID string) (int64, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT xp FROM experience WHERE community_id = $1 AND member_id = $2`,
		communityID, memberID)
	var xp int64
	if err := row.Scan(&xp); err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	return xp, nil
}

func (r *PostgresRepository) AddExperience(ctx context.Context, communityID, memberID string, delta int64) (int64, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO experience (community_id, member_id, xp) VALUES ($1, $2, $3)
		 ON CONFLICT (community_id, member_id) DO UPDATE SET xp = experience.xp + EXCLUDED.xp
		 RETURNING xp`,
		communityID, memberID, delta)
	var xp int64
	if err := row.Scan(&xp); err != nil {
		return 0, err
	}
	return xp, nil
}

func (r *PostgresRepository) ListExperience(ctx context.Context, communityID string) ([]repository.ExperienceRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT community_id, member_id, xp FROM experience
		 WHERE community_id = $1 ORDER BY xp DESC, member_id`,
		communityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.ExperienceRecord
	for rows.Next() {
		var rec repository.ExperienceRecord
		if err := rows.Scan(&rec.CommunityID, &rec.MemberID, &rec.XP); err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

func (r *PostgresRepository) TryInsertMonthlyMarker(ctx context.Context, communityID, yearMonth string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO monthly_marker (community_id, year_month) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		communityID, yearMonth)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
