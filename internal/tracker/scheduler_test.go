package tracker

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/creatorsconnections/liveboard/internal/repository"
	"github.com/creatorsconnections/liveboard/internal/webhook"
)

func newTestScheduler(d *testDeps) *Scheduler {
	return NewScheduler(d.manager.cfg, d.repo, d.manager, NewRollup(d.repo, d.manager), d.ladder)
}

func TestTickPostsWeeklyReport(t *testing.T) {
	d := newTestDeps(t)
	d.repo.configs[testCommunity] = &repository.CommunityConfig{
		CommunityID:     testCommunity,
		SourceHandle:    "thehost",
		ReportChannelID: "chan-1",
		Timezone:        "UTC",
		WeeklyDay:       1, // Monday
		WeeklyHour:      9,
		WeeklyMinute:    0,
		MonthlyHour:     8,
		MonthlyMinute:   30,
	}
	d.repo.windowGifts = []repository.MetricTotal{{PerformerHandle: "alice", Total: 12}}
	d.repo.windowLikes = []repository.MetricTotal{{PerformerHandle: "bob", Total: 400}}
	d.repo.links["bob"] = "member-bob"

	s := newTestScheduler(d)
	monday := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s.Tick(context.Background(), monday)

	if len(d.discord.fileCalls) != 1 {
		t.Fatalf("fileCalls = %d, want 1", len(d.discord.fileCalls))
	}
	if d.discord.fileCalls[0].Content != messageWeeklyReportTitle {
		t.Errorf("board title = %q, want the weekly title", d.discord.fileCalls[0].Content)
	}

	var reminderPosted, soreFingerPosted bool
	for _, msg := range d.discord.sentMessages {
		if msg == messageLinkReminder {
			reminderPosted = true
		}
		if strings.Contains(msg, "sore fingers") {
			soreFingerPosted = true
		}
	}
	if !reminderPosted {
		t.Error("link reminder not posted with the weekly report")
	}
	if !soreFingerPosted {
		t.Error("weekly top tapper not announced")
	}
	if len(d.discord.rotations) != 1 || d.discord.rotations[0] != "role-Sore Finger→member-bob" {
		t.Errorf("rotations = %v, want sore finger to member-bob", d.discord.rotations)
	}
	if len(d.webhook.payloads) != 1 || d.webhook.payloads[0].Kind != webhook.ReportWeekly {
		t.Errorf("webhook payloads = %+v, want one weekly report", d.webhook.payloads)
	}
}

func TestTickSkipsOffScheduleMinutes(t *testing.T) {
	d := newTestDeps(t)
	d.repo.configs[testCommunity] = &repository.CommunityConfig{
		CommunityID:     testCommunity,
		ReportChannelID: "chan-1",
		Timezone:        "UTC",
		WeeklyDay:       1,
		WeeklyHour:      9,
	}

	s := newTestScheduler(d)
	oneMinuteLate := time.Date(2026, 3, 2, 9, 1, 0, 0, time.UTC)
	s.Tick(context.Background(), oneMinuteLate)

	if len(d.discord.fileCalls) != 0 {
		t.Errorf("fileCalls = %d, want none off schedule", len(d.discord.fileCalls))
	}
}

func TestTickSkipsCommunitiesWithoutChannel(t *testing.T) {
	d := newTestDeps(t)
	d.repo.configs[testCommunity] = &repository.CommunityConfig{
		CommunityID: testCommunity,
		Timezone:    "UTC",
		WeeklyDay:   1,
		WeeklyHour:  9,
	}

	s := newTestScheduler(d)
	s.Tick(context.Background(), time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))

	if len(d.discord.fileCalls) != 0 {
		t.Errorf("fileCalls = %d, want none without a report channel", len(d.discord.fileCalls))
	}
}

func TestTickPostsMonthlyReportOnce(t *testing.T) {
	d := newTestDeps(t)
	d.repo.configs[testCommunity] = &repository.CommunityConfig{
		CommunityID:     testCommunity,
		ReportChannelID: "chan-1",
		Timezone:        "UTC",
		WeeklyDay:       3, // keep the weekly predicate quiet on the 1st
		MonthlyHour:     8,
		MonthlyMinute:   30,
	}
	d.repo.allGifts = []repository.MetricTotal{{PerformerHandle: "alice", Total: 500}}
	d.repo.experience = []repository.ExperienceRecord{
		{CommunityID: testCommunity, MemberID: "member-gold", XP: 5000},
		{CommunityID: testCommunity, MemberID: "member-bronze", XP: 100},
	}
	d.discord.displayNames["member-gold"] = "Goldie"

	s := newTestScheduler(d)
	firstOfMonth := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	s.Tick(context.Background(), firstOfMonth)
	s.Tick(context.Background(), firstOfMonth)

	if len(d.discord.fileCalls) != 1 {
		t.Fatalf("fileCalls = %d, want exactly one monthly board", len(d.discord.fileCalls))
	}
	if d.discord.fileCalls[0].Content != messageMonthlyReportTitle {
		t.Errorf("board title = %q, want the monthly title", d.discord.fileCalls[0].Content)
	}
	if !d.repo.markers[testCommunity+"/2026-03"] {
		t.Error("monthly marker not recorded")
	}

	var standings string
	for _, msg := range d.discord.sentMessages {
		if strings.Contains(msg, "Rank Ladder") {
			standings = msg
		}
	}
	if standings == "" {
		t.Fatal("ladder standings not posted")
	}
	if !strings.Contains(standings, "Gold") || !strings.Contains(standings, "Goldie") {
		t.Errorf("standings missing tier or member: %q", standings)
	}
	if len(d.webhook.payloads) != 1 || d.webhook.payloads[0].Kind != webhook.ReportMonthly {
		t.Errorf("webhook payloads = %+v, want one monthly report", d.webhook.payloads)
	}
}

func TestTickUsesCommunityTimezone(t *testing.T) {
	d := newTestDeps(t)
	d.repo.configs[testCommunity] = &repository.CommunityConfig{
		CommunityID:     testCommunity,
		ReportChannelID: "chan-1",
		Timezone:        "America/New_York",
		WeeklyDay:       1,
		WeeklyHour:      9,
	}

	s := newTestScheduler(d)
	// 14:00 UTC on Monday 2026-03-02 is 09:00 in New York (EST).
	s.Tick(context.Background(), time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC))

	if len(d.discord.fileCalls) != 1 {
		t.Errorf("fileCalls = %d, want the weekly report in local time", len(d.discord.fileCalls))
	}
}

func TestIsoWeekday(t *testing.T) {
	// 2026-03-01 is a Sunday.
	if got := isoWeekday(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)); got != 7 {
		t.Errorf("isoWeekday(Sunday) = %d, want 7", got)
	}
	if got := isoWeekday(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)); got != 1 {
		t.Errorf("isoWeekday(Monday) = %d, want 1", got)
	}
}
