package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/creatorsconnections/liveboard/internal/config"
	"github.com/creatorsconnections/liveboard/internal/repository"
	"github.com/creatorsconnections/liveboard/internal/telemetry"
	"github.com/creatorsconnections/liveboard/internal/webhook"
)

const schedulerTickInterval = time.Minute

// Scheduler fires the periodic reports. Both predicates are minute-resolution
// equality checks against the community's local time: a tick missed while the
// process was down skips that period's report until the next cadence. There is
// no catch-up.
type Scheduler struct {
	cfg     *config.Config
	repo    repository.Repository
	manager *Manager
	rollup  *Rollup
	ladder  *Ladder

	now func() time.Time
}

func NewScheduler(cfg *config.Config, repo repository.Repository, manager *Manager, rollup *Rollup, ladder *Ladder) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		repo:    repo,
		manager: manager,
		rollup:  rollup,
		ladder:  ladder,
		now:     time.Now,
	}
}

func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(schedulerTickInterval)
	defer ticker.Stop()
	slog.Info("report scheduler started", "interval", schedulerTickInterval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("report scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx, s.now())
		}
	}
}

// Tick evaluates the weekly and monthly predicates for every configured
// community.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	configs, err := s.repo.ListCommunityConfigs(ctx)
	if err != nil {
		slog.Error("failed to list community configs", "error", err)
		return
	}
	for _, cfg := range configs {
		if cfg.ReportChannelID == "" {
			continue
		}
		local := now.In(s.location(cfg.Timezone))
		if isoWeekday(local) == cfg.WeeklyDay && local.Hour() == cfg.WeeklyHour && local.Minute() == cfg.WeeklyMinute {
			s.postWeeklyReport(ctx, cfg, local)
		}
		if local.Day() == 1 && local.Hour() == cfg.MonthlyHour && local.Minute() == cfg.MonthlyMinute {
			s.postMonthlyReport(ctx, cfg, local)
		}
	}
}

func (s *Scheduler) location(name string) *time.Location {
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	if loc, err := time.LoadLocation(s.cfg.DefaultTimezone); err == nil {
		return loc
	}
	return time.UTC
}

// isoWeekday returns 1 for Monday through 7 for Sunday.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func (s *Scheduler) postWeeklyReport(ctx context.Context, cfg repository.CommunityConfig, now time.Time) {
	start := now.Add(-7 * 24 * time.Hour)
	giftRanking, likeRanking, err := s.rollup.ComputeWindow(ctx, cfg.CommunityID, start, now)
	if err != nil {
		slog.Error("failed to compute weekly window", "error", err, "community_id", cfg.CommunityID)
		return
	}

	left := s.manager.resolveRows(ctx, cfg.CommunityID, giftRanking)
	right := s.manager.resolveRows(ctx, cfg.CommunityID, likeRanking)
	if err := s.manager.postBoard(cfg.ReportChannelID, messageWeeklyReportTitle, left, right); err != nil {
		slog.Error("failed to post weekly report", "error", err, "community_id", cfg.CommunityID)
		return
	}
	telemetry.CountReport(string(webhook.ReportWeekly))
	if err := s.manager.discord.SendChannelMessage(cfg.ReportChannelID, messageLinkReminder); err != nil {
		slog.Warn("failed to post link reminder", "error", err, "community_id", cfg.CommunityID)
	}

	if winner := s.manager.rotateRoleToTop(ctx, cfg.CommunityID, roleSoreFinger, likeRanking, "Weekly top tapper"); winner != "" {
		msg := soreFingersMessage(s.manager.discord.MentionMember(winner))
		if err := s.manager.discord.SendChannelMessage(cfg.ReportChannelID, msg); err != nil {
			slog.Warn("failed to announce weekly top tapper", "error", err, "community_id", cfg.CommunityID)
		}
	}

	s.manager.mirrorReport(ctx, webhook.ReportWeekly, cfg.CommunityID, left, right)
	slog.Info("weekly report posted", "community_id", cfg.CommunityID)
}

func (s *Scheduler) postMonthlyReport(ctx context.Context, cfg repository.CommunityConfig, now time.Time) {
	yearMonth := now.Format("2006-01")
	// Marker before body: a failure past this point counts the month as
	// posted. A skipped report beats a duplicated one.
	inserted, err := s.repo.TryInsertMonthlyMarker(ctx, cfg.CommunityID, yearMonth)
	if err != nil {
		slog.Error("failed to write monthly marker", "error", err, "community_id", cfg.CommunityID)
		return
	}
	if !inserted {
		return
	}

	giftRanking, likeRanking, err := s.rollup.ComputeAllTime(ctx, cfg.CommunityID)
	if err != nil {
		slog.Error("failed to compute all-time totals", "error", err, "community_id", cfg.CommunityID)
		return
	}

	left := s.manager.resolveRows(ctx, cfg.CommunityID, giftRanking)
	right := s.manager.resolveRows(ctx, cfg.CommunityID, likeRanking)
	if err := s.manager.postBoard(cfg.ReportChannelID, messageMonthlyReportTitle, left, right); err != nil {
		slog.Error("failed to post monthly report", "error", err, "community_id", cfg.CommunityID)
		return
	}
	telemetry.CountReport(string(webhook.ReportMonthly))

	if ladderText := s.ladderStandings(ctx, cfg.CommunityID); ladderText != "" {
		if err := s.manager.discord.SendChannelMessage(cfg.ReportChannelID, ladderText); err != nil {
			slog.Warn("failed to post ladder standings", "error", err, "community_id", cfg.CommunityID)
		}
	}

	s.manager.mirrorReport(ctx, webhook.ReportMonthly, cfg.CommunityID, left, right)
	slog.Info("monthly report posted", "community_id", cfg.CommunityID, "year_month", yearMonth)
}

// ladderStandings lists every member with experience, grouped under their
// current rank tier, highest tiers first.
func (s *Scheduler) ladderStandings(ctx context.Context, communityID string) string {
	records, err := s.repo.ListExperience(ctx, communityID)
	if err != nil {
		slog.Error("failed to list experience", "error", err, "community_id", communityID)
		return ""
	}
	if len(records) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("🏆 **Rank Ladder — All Time**")
	currentRank := ""
	for _, rec := range records {
		rank, _ := s.ladder.RankFor(rec.XP)
		if rank.Name != currentRank {
			currentRank = rank.Name
			fmt.Fprintf(&b, "\n**%s**", rank.Name)
		}
		name := s.manager.discord.ResolveDisplayName(communityID, rec.MemberID)
		if name == "" {
			name = rec.MemberID
		}
		fmt.Fprintf(&b, "\n• %s — %d XP", name, rec.XP)
	}
	return b.String()
}
