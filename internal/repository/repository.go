package repository

import (
	"context"
	"time"
)

type CreateSessionInput struct {
	CommunityID string
	HostHandle  string
	StartedAt   time.Time
}

type CommunityRepository interface {
	// GetCommunityConfig returns nil when the community has never been configured.
	GetCommunityConfig(ctx context.Context, communityID string) (*CommunityConfig, error)
	ListCommunityConfigs(ctx context.Context) ([]CommunityConfig, error)
	SetSourceHandle(ctx context.Context, communityID, handle string) error
	SetReportChannel(ctx context.Context, communityID, channelID string) error
	SetWeeklySchedule(ctx context.Context, communityID string, day, hour, minute int) error
}

type LinkRepository interface {
	// UpsertLink overwrites any existing link for (community, handle); last write wins.
	UpsertLink(ctx context.Context, communityID, performerHandle, memberID string) error
	// GetLinkedMember returns "" when the handle is not linked.
	GetLinkedMember(ctx context.Context, communityID, performerHandle string) (string, error)
}

type SessionRepository interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*LiveSession, error)
	CloseSession(ctx context.Context, sessionID string, endedAt time.Time) error
	// CloseOpenSessions force-closes any session left open for the community
	// (missed end event) and returns how many rows were closed.
	CloseOpenSessions(ctx context.Context, communityID string, endedAt time.Time) (int64, error)
	InsertTallies(ctx context.Context, records []TallyRecord) error
	// SumTalliesInWindow sums tallies across every session whose interval
	// [started_at, ended_at-or-now] overlaps [start, end]. Sessions straddling a
	// boundary contribute their full tallies; the still-open session is included.
	// Results are ordered by first appearance (earliest session, then insertion).
	SumTalliesInWindow(ctx context.Context, communityID string, metric MetricKind, start, end time.Time) ([]MetricTotal, error)
	SumTalliesAllTime(ctx context.Context, communityID string, metric MetricKind) ([]MetricTotal, error)
}

type ExperienceRepository interface {
	GetExperience(ctx context.Context, communityID, memberID string) (int64, error)
	// AddExperience increments the member's experience (created lazily at zero)
	// and returns the new total.
	AddExperience(ctx context.Context, communityID, memberID string, delta int64) (int64, error)
	ListExperience(ctx context.Context, communityID string) ([]ExperienceRecord, error)
}

type MarkerRepository interface {
	// TryInsertMonthlyMarker records that a monthly report was posted for the
	// given "2006-01" period. Returns false when the marker already existed.
	TryInsertMonthlyMarker(ctx context.Context, communityID, yearMonth string) (bool, error)
}

type Repository interface {
	CommunityRepository
	LinkRepository
	SessionRepository
	ExperienceRepository
	MarkerRepository
}
