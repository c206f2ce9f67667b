package repository

import "time"

type MetricKind string

const (
	MetricGift    MetricKind = "gift"
	MetricLike    MetricKind = "like"
	MetricComment MetricKind = "comment"
)

// CommunityConfig is the per-guild tracking configuration. A community is
// created implicitly the first time any of its settings is written.
type CommunityConfig struct {
	CommunityID     string
	SourceHandle    string
	ReportChannelID string
	Timezone        string
	WeeklyDay       int // ISO weekday, 1 = Monday .. 7 = Sunday
	WeeklyHour      int
	WeeklyMinute    int
	MonthlyHour     int
	MonthlyMinute   int
}

type IdentityLink struct {
	CommunityID     string
	PerformerHandle string
	MemberID        string
}

// LiveSession is one tracked broadcast. EndedAt is nil while the broadcast is
// still open; at most one open session exists per community.
type LiveSession struct {
	ID          string
	CommunityID string
	HostHandle  string
	StartedAt   time.Time
	EndedAt     *time.Time
}

// TallyRecord is written exactly once per (session, performer, metric) at
// session end and never updated afterward.
type TallyRecord struct {
	SessionID       string
	CommunityID     string
	PerformerHandle string
	Metric          MetricKind
	Count           int64
}

// MetricTotal is a summed tally in deterministic first-appearance order.
type MetricTotal struct {
	PerformerHandle string
	Total           int64
}

type ExperienceRecord struct {
	CommunityID string
	MemberID    string
	XP          int64
}
