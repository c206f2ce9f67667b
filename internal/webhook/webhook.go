package webhook

import (
	"context"
	"time"
)

type ReportKind string

const (
	ReportSessionEnd ReportKind = "session_end"
	ReportWeekly     ReportKind = "weekly"
	ReportMonthly    ReportKind = "monthly"
)

type ReportEntry struct {
	Name  string `json:"name"`
	Score int64  `json:"score"`
}

// ReportPayload mirrors a posted leaderboard report to an external consumer.
type ReportPayload struct {
	ReportID    string        `json:"report_id"`
	Kind        ReportKind    `json:"kind"`
	CommunityID string        `json:"community_id"`
	PostedAt    time.Time     `json:"posted_at"`
	TopGifters  []ReportEntry `json:"top_gifters"`
	TopLikers   []ReportEntry `json:"top_likers"`
}

type Sender interface {
	SendReport(ctx context.Context, payload ReportPayload) error
}
