package tracker

import (
	"strings"
	"testing"

	"github.com/creatorsconnections/liveboard/internal/discord"
)

func ephemeralRecorder(out *string) func(string) error {
	return func(content string) error {
		*out = content
		return nil
	}
}

func TestNormalizeHandle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "dancer1", want: "dancer1"},
		{in: "@dancer1", want: "dancer1"},
		{in: "  @dancer1  ", want: "dancer1"},
		{in: "@", want: ""},
		{in: "   ", want: ""},
	}
	for _, tt := range tests {
		if got := normalizeHandle(tt.in); got != tt.want {
			t.Errorf("normalizeHandle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHandlePatternMatches(t *testing.T) {
	tests := []struct {
		content string
		want    []string
	}{
		{content: "follow me at tiktok.com/@cool_dancer today", want: []string{"cool_dancer"}},
		{content: "I'm @abc12 on tiktok", want: []string{"abc12"}},
		{content: "mail me at someone@example.com", want: nil},
		{content: "both @first.one and https://www.tiktok.com/@second-two live", want: []string{"first.one", "second-two"}},
		{content: "no handles here", want: nil},
	}
	for _, tt := range tests {
		var got []string
		for _, m := range handlePattern.FindAllStringSubmatch(tt.content, -1) {
			got = append(got, m[1])
		}
		if len(got) != len(tt.want) {
			t.Errorf("matches in %q = %v, want %v", tt.content, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("matches in %q = %v, want %v", tt.content, got, tt.want)
			}
		}
	}
}

func TestHandleConnectLinksCaller(t *testing.T) {
	d := newTestDeps(t)
	var reply string
	d.manager.HandleSlashCommand(discord.SlashCommandEvent{
		GuildID:          testCommunity,
		CommandName:      "tokconnect",
		UserID:           "member-1",
		Options:          map[string]string{"username": " @NewUser "},
		RespondEphemeral: ephemeralRecorder(&reply),
	})

	if d.repo.links["NewUser"] != "member-1" {
		t.Errorf("links = %v, want NewUser linked to member-1", d.repo.links)
	}
	if !strings.Contains(reply, "<@member-1>") {
		t.Errorf("reply = %q, want the caller mentioned", reply)
	}
}

func TestHandleConnectRejectsEmptyHandle(t *testing.T) {
	d := newTestDeps(t)
	var reply string
	d.manager.HandleSlashCommand(discord.SlashCommandEvent{
		GuildID:          testCommunity,
		CommandName:      "tokconnect",
		UserID:           "member-1",
		Options:          map[string]string{"username": "@"},
		RespondEphemeral: ephemeralRecorder(&reply),
	})

	if len(d.repo.links) != 0 {
		t.Errorf("links = %v, want none", d.repo.links)
	}
	if reply != messageEphemeralMissingValue {
		t.Errorf("reply = %q, want %q", reply, messageEphemeralMissingValue)
	}
}

func TestHandleStartReportsMissingConfig(t *testing.T) {
	d := newTestDeps(t)
	var reply string
	ev := discord.SlashCommandEvent{
		GuildID:          testCommunity,
		CommandName:      "track-start",
		RespondEphemeral: ephemeralRecorder(&reply),
	}

	d.manager.HandleSlashCommand(ev)
	if reply != messageEphemeralNoHost {
		t.Errorf("reply = %q, want %q", reply, messageEphemeralNoHost)
	}

	d.repo.ensureConfig(testCommunity).SourceHandle = "thehost"
	d.manager.HandleSlashCommand(ev)
	if reply != messageEphemeralNoChannel {
		t.Errorf("reply = %q, want %q", reply, messageEphemeralNoChannel)
	}

	d.repo.ensureConfig(testCommunity).ReportChannelID = "chan-1"
	d.manager.HandleSlashCommand(ev)
	if reply != messageEphemeralStarted {
		t.Errorf("reply = %q, want %q", reply, messageEphemeralStarted)
	}
}

func TestHandleSetWeeklyValidatesAndSaves(t *testing.T) {
	d := newTestDeps(t)
	var reply string
	ev := discord.SlashCommandEvent{
		GuildID:          testCommunity,
		CommandName:      "set-weekly",
		Options:          map[string]string{"day": "7", "hour": "19"},
		RespondEphemeral: ephemeralRecorder(&reply),
	}

	d.manager.HandleSlashCommand(ev)
	cfg := d.repo.configs[testCommunity]
	if cfg == nil || cfg.WeeklyDay != 7 || cfg.WeeklyHour != 19 || cfg.WeeklyMinute != 0 {
		t.Errorf("config = %+v, want Sunday 19:00 saved", cfg)
	}
	if !strings.Contains(reply, "Sunday") {
		t.Errorf("reply = %q, want the weekday named", reply)
	}

	ev.Options = map[string]string{"day": "8", "hour": "19"}
	d.manager.HandleSlashCommand(ev)
	if reply != messageEphemeralMissingValue {
		t.Errorf("reply = %q, want rejection of weekday 8", reply)
	}
	if d.repo.configs[testCommunity].WeeklyDay != 7 {
		t.Error("invalid schedule overwrote the saved one")
	}
}

func TestHandleBackscanLinksAuthors(t *testing.T) {
	d := newTestDeps(t)
	d.configureCommunity(testCommunity, "thehost", "chan-1")
	d.discord.history = []discord.HistoryMessage{
		{AuthorID: "member-1", Content: "add me, I'm @dancer.one"},
		{AuthorID: "member-2", Content: "https://www.tiktok.com/@tapper_two is mine"},
		{AuthorID: "member-3", Content: "nothing to see"},
	}
	d.discord.displayNames["member-1"] = "Dana"

	var reply string
	d.manager.HandleSlashCommand(discord.SlashCommandEvent{
		GuildID:          testCommunity,
		CommandName:      "backscan",
		RespondEphemeral: ephemeralRecorder(&reply),
	})

	if d.repo.links["dancer.one"] != "member-1" || d.repo.links["tapper_two"] != "member-2" {
		t.Errorf("links = %v, want both authors linked", d.repo.links)
	}
	if !strings.Contains(reply, "@dancer.one") || !strings.Contains(reply, "Dana") {
		t.Errorf("reply = %q, want the scan results listed", reply)
	}
}

func TestHandleBackscanWithoutChannel(t *testing.T) {
	d := newTestDeps(t)
	var reply string
	d.manager.HandleSlashCommand(discord.SlashCommandEvent{
		GuildID:          testCommunity,
		CommandName:      "backscan",
		RespondEphemeral: ephemeralRecorder(&reply),
	})
	if reply != messageEphemeralNoChannel {
		t.Errorf("reply = %q, want %q", reply, messageEphemeralNoChannel)
	}
}

func TestHandleBoardTestPostsDummyBoard(t *testing.T) {
	d := newTestDeps(t)
	d.configureCommunity(testCommunity, "thehost", "chan-1")

	var reply string
	d.manager.HandleSlashCommand(discord.SlashCommandEvent{
		GuildID:          testCommunity,
		CommandName:      "board-test",
		RespondEphemeral: ephemeralRecorder(&reply),
	})

	if len(d.renderer.calls) != 1 {
		t.Fatalf("renderer called %d times, want 1", len(d.renderer.calls))
	}
	left, right := d.renderer.calls[0][0], d.renderer.calls[0][1]
	if len(left) != 10 || len(right) != 10 {
		t.Errorf("dummy rows = %d/%d, want 10/10", len(left), len(right))
	}
	if left[0].Score <= left[9].Score {
		t.Error("dummy scores should descend")
	}
}

func TestHandleRankShowsProgress(t *testing.T) {
	d := newTestDeps(t)
	d.repo.xp["member-1"] = 1600

	var reply string
	d.manager.HandleSlashCommand(discord.SlashCommandEvent{
		GuildID:          testCommunity,
		CommandName:      "rank",
		UserID:           "member-1",
		RespondEphemeral: ephemeralRecorder(&reply),
	})

	if !strings.Contains(reply, "Silver") || !strings.Contains(reply, "2400 XP to **Gold**") {
		t.Errorf("reply = %q, want Silver with 2400 XP to Gold", reply)
	}
}

func TestSlashCommandDefinitionsAdminFlags(t *testing.T) {
	adminOnly := map[string]bool{}
	for _, def := range SlashCommandDefinitions() {
		adminOnly[def.Name] = def.AdminOnly
	}
	if adminOnly["tokconnect"] || adminOnly["rank"] {
		t.Error("viewer commands must not be admin-only")
	}
	for _, name := range []string{"toktrack", "set-weekly", "post-connect-prompt", "backscan", "board-test"} {
		if !adminOnly[name] {
			t.Errorf("%s should be admin-only", name)
		}
	}
}
