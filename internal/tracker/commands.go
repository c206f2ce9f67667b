package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/creatorsconnections/liveboard/internal/discord"
	"github.com/creatorsconnections/liveboard/internal/render"
)

const (
	commandConnect       = "tokconnect"
	commandTrack         = "toktrack"
	commandSetChannel    = "set-board-channel"
	commandSetWeekly     = "set-weekly"
	commandStart         = "track-start"
	commandStop          = "track-stop"
	commandConnectPrompt = "post-connect-prompt"
	commandBackscan      = "backscan"
	commandBoardTest     = "board-test"
	commandRank          = "rank"

	backscanDefaultLimit = 200
	backscanMinLimit     = 10
	backscanMaxLimit     = 2000
)

// handlePattern matches bare @handles and tiktok.com profile links in chat.
var handlePattern = regexp.MustCompile(`(?:tiktok\.com/@|\B@)([A-Za-z0-9._-]{2,24})`)

func SlashCommandDefinitions() []discord.SlashCommandDefinition {
	return []discord.SlashCommandDefinition{
		{
			Name:        commandConnect,
			Description: "Link your TikTok username to your Discord (viewer-level)",
			Options: []discord.SlashCommandOption{
				{Name: "username", Description: "Your TikTok name (no @)", Kind: discord.OptionString, Required: true},
			},
		},
		{
			Name:        commandTrack,
			Description: "Admin: set the TikTok host account to track",
			AdminOnly:   true,
			Options: []discord.SlashCommandOption{
				{Name: "username", Description: "Host TikTok name (no @)", Kind: discord.OptionString, Required: true},
			},
		},
		{
			Name:        commandSetChannel,
			Description: "Set the channel for leaderboard posts",
			Options: []discord.SlashCommandOption{
				{Name: "channel", Description: "Target channel", Kind: discord.OptionChannel, Required: true},
			},
		},
		{
			Name:        commandSetWeekly,
			Description: "Admin: set the weekly report time in the community timezone",
			AdminOnly:   true,
			Options: []discord.SlashCommandOption{
				{Name: "day", Description: "Weekday, 1 = Monday .. 7 = Sunday", Kind: discord.OptionInteger, Required: true},
				{Name: "hour", Description: "Hour (0-23)", Kind: discord.OptionInteger, Required: true},
				{Name: "minute", Description: "Minute (0-59)", Kind: discord.OptionInteger},
			},
		},
		{Name: commandStart, Description: "Start TikTok tracking for this server"},
		{Name: commandStop, Description: "Stop TikTok tracking"},
		{Name: commandConnectPrompt, Description: "Admin: post the connect prompt to the board channel", AdminOnly: true},
		{
			Name:        commandBackscan,
			Description: "Admin: scan recent messages for TikTok handles and auto-link authors",
			AdminOnly:   true,
			Options: []discord.SlashCommandOption{
				{Name: "limit", Description: "Messages to scan (10–2000)", Kind: discord.OptionInteger},
				{Name: "channel", Description: "Channel to scan (defaults to board channel)", Kind: discord.OptionChannel},
			},
		},
		{Name: commandBoardTest, Description: "Admin: post a test leaderboard with dummy data", AdminOnly: true},
		{Name: commandRank, Description: "Show your experience points and rank"},
	}
}

func (m *Manager) HandleSlashCommand(ev discord.SlashCommandEvent) {
	ctx := context.Background()
	var err error
	switch ev.CommandName {
	case commandConnect:
		err = m.handleConnect(ctx, ev)
	case commandTrack:
		err = m.handleTrack(ctx, ev)
	case commandSetChannel:
		err = m.handleSetChannel(ctx, ev)
	case commandSetWeekly:
		err = m.handleSetWeekly(ctx, ev)
	case commandStart:
		err = m.handleStart(ctx, ev)
	case commandStop:
		err = m.handleStop(ev)
	case commandConnectPrompt:
		err = m.handleConnectPrompt(ctx, ev)
	case commandBackscan:
		err = m.handleBackscan(ctx, ev)
	case commandBoardTest:
		err = m.handleBoardTest(ctx, ev)
	case commandRank:
		err = m.handleRank(ctx, ev)
	default:
		err = ev.RespondEphemeral(messageEphemeralUnknown)
	}
	if err != nil {
		slog.Error("slash command failed", "error", err, "command", ev.CommandName, "guild_id", ev.GuildID)
	}
}

func normalizeHandle(raw string) string {
	return strings.TrimPrefix(strings.TrimSpace(raw), "@")
}

func (m *Manager) handleConnect(ctx context.Context, ev discord.SlashCommandEvent) error {
	handle := normalizeHandle(ev.Options["username"])
	if handle == "" {
		return ev.RespondEphemeral(messageEphemeralMissingValue)
	}
	if err := m.repo.UpsertLink(ctx, ev.GuildID, handle, ev.UserID); err != nil {
		slog.Error("failed to upsert link", "error", err, "guild_id", ev.GuildID, "handle", handle)
		return ev.RespondEphemeral(messageEphemeralSaveFailed)
	}
	return ev.RespondEphemeral(linkedMessage(handle, m.discord.MentionMember(ev.UserID)))
}

func (m *Manager) handleTrack(ctx context.Context, ev discord.SlashCommandEvent) error {
	handle := normalizeHandle(ev.Options["username"])
	if handle == "" {
		return ev.RespondEphemeral(messageEphemeralMissingValue)
	}
	if err := m.repo.SetSourceHandle(ctx, ev.GuildID, handle); err != nil {
		slog.Error("failed to set source handle", "error", err, "guild_id", ev.GuildID)
		return ev.RespondEphemeral(messageEphemeralSaveFailed)
	}
	return ev.RespondEphemeral(hostSetMessage(handle))
}

func (m *Manager) handleSetChannel(ctx context.Context, ev discord.SlashCommandEvent) error {
	channelID := ev.Options["channel"]
	if channelID == "" {
		return ev.RespondEphemeral(messageEphemeralMissingValue)
	}
	if err := m.repo.SetReportChannel(ctx, ev.GuildID, channelID); err != nil {
		slog.Error("failed to set report channel", "error", err, "guild_id", ev.GuildID)
		return ev.RespondEphemeral(messageEphemeralSaveFailed)
	}
	return ev.RespondEphemeral(channelSetMessage(channelID))
}

func (m *Manager) handleSetWeekly(ctx context.Context, ev discord.SlashCommandEvent) error {
	day, dayErr := strconv.Atoi(ev.Options["day"])
	hour, hourErr := strconv.Atoi(ev.Options["hour"])
	minute := 0
	if raw := ev.Options["minute"]; raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return ev.RespondEphemeral(messageEphemeralMissingValue)
		}
		minute = n
	}
	if dayErr != nil || hourErr != nil || day < 1 || day > 7 || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ev.RespondEphemeral(messageEphemeralMissingValue)
	}
	if err := m.repo.SetWeeklySchedule(ctx, ev.GuildID, day, hour, minute); err != nil {
		slog.Error("failed to set weekly schedule", "error", err, "guild_id", ev.GuildID)
		return ev.RespondEphemeral(messageEphemeralSaveFailed)
	}
	return ev.RespondEphemeral(weeklySetMessage(day, hour, minute))
}

func (m *Manager) handleStart(ctx context.Context, ev discord.SlashCommandEvent) error {
	switch err := m.StartTracking(ctx, ev.GuildID); {
	case errors.Is(err, ErrNoSourceHandle):
		return ev.RespondEphemeral(messageEphemeralNoHost)
	case errors.Is(err, ErrNoReportChannel):
		return ev.RespondEphemeral(messageEphemeralNoChannel)
	case err != nil:
		slog.Error("failed to start tracking", "error", err, "guild_id", ev.GuildID)
		return ev.RespondEphemeral(messageEphemeralStartFailed)
	default:
		return ev.RespondEphemeral(messageEphemeralStarted)
	}
}

func (m *Manager) handleStop(ev discord.SlashCommandEvent) error {
	m.StopTracking(ev.GuildID)
	return ev.RespondEphemeral(messageEphemeralStopped)
}

func (m *Manager) handleConnectPrompt(ctx context.Context, ev discord.SlashCommandEvent) error {
	cfg, err := m.repo.GetCommunityConfig(ctx, ev.GuildID)
	if err != nil {
		return err
	}
	if cfg == nil || cfg.ReportChannelID == "" {
		return ev.RespondEphemeral(messageEphemeralNoChannel)
	}
	if err := m.discord.SendChannelMessage(cfg.ReportChannelID, m.cfg.ConnectPromptText); err != nil {
		slog.Error("failed to post connect prompt", "error", err, "guild_id", ev.GuildID)
		return ev.RespondEphemeral(messageEphemeralSaveFailed)
	}
	return ev.RespondEphemeral(messageEphemeralPromptPosted)
}

func (m *Manager) handleBackscan(ctx context.Context, ev discord.SlashCommandEvent) error {
	limit := backscanDefaultLimit
	if raw := ev.Options["limit"]; raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if limit < backscanMinLimit {
		limit = backscanMinLimit
	}
	if limit > backscanMaxLimit {
		limit = backscanMaxLimit
	}

	channelID := ev.Options["channel"]
	if channelID == "" {
		cfg, err := m.repo.GetCommunityConfig(ctx, ev.GuildID)
		if err != nil {
			return err
		}
		if cfg == nil || cfg.ReportChannelID == "" {
			return ev.RespondEphemeral(messageEphemeralNoChannel)
		}
		channelID = cfg.ReportChannelID
	}

	messages, err := m.discord.ScanChannelHistory(channelID, limit)
	if err != nil {
		slog.Error("backscan failed", "error", err, "guild_id", ev.GuildID, "channel_id", channelID)
		return ev.RespondEphemeral(messageEphemeralSaveFailed)
	}

	found := make(map[string]map[string]struct{})
	for _, msg := range messages {
		for _, match := range handlePattern.FindAllStringSubmatch(msg.Content, -1) {
			handle := normalizeHandle(match[1])
			if handle == "" {
				continue
			}
			if err := m.repo.UpsertLink(ctx, ev.GuildID, handle, msg.AuthorID); err != nil {
				slog.Error("failed to upsert backscanned link", "error", err, "guild_id", ev.GuildID, "handle", handle)
				continue
			}
			if found[msg.AuthorID] == nil {
				found[msg.AuthorID] = make(map[string]struct{})
			}
			found[msg.AuthorID][handle] = struct{}{}
		}
	}
	if len(found) == 0 {
		return ev.RespondEphemeral(messageEphemeralScanNothing)
	}

	lines := []string{"**Backscan results:**"}
	for authorID, handles := range found {
		name := m.discord.ResolveDisplayName(ev.GuildID, authorID)
		if name == "" {
			name = authorID
		}
		sorted := make([]string, 0, len(handles))
		for h := range handles {
			sorted = append(sorted, "@"+h)
		}
		sort.Strings(sorted)
		lines = append(lines, fmt.Sprintf("• %s: %s", name, strings.Join(sorted, ", ")))
	}
	return ev.RespondEphemeral(strings.Join(lines, "\n"))
}

func (m *Manager) handleBoardTest(ctx context.Context, ev discord.SlashCommandEvent) error {
	cfg, err := m.repo.GetCommunityConfig(ctx, ev.GuildID)
	if err != nil {
		return err
	}
	if cfg == nil || cfg.ReportChannelID == "" {
		return ev.RespondEphemeral(messageEphemeralNoChannel)
	}

	left := make([]render.Row, 0, 10)
	right := make([]render.Row, 0, 10)
	for i := 1; i <= 10; i++ {
		left = append(left, render.Row{Name: fmt.Sprintf("userGifter%d", i), Score: int64(110 - i*10)})
		right = append(right, render.Row{Name: fmt.Sprintf("userTapper%d", i), Score: int64(5000 - i*250)})
	}
	if err := m.postBoard(cfg.ReportChannelID, messageTestReportTitle, left, right); err != nil {
		slog.Error("failed to post test board", "error", err, "guild_id", ev.GuildID)
		return ev.RespondEphemeral(messageEphemeralSaveFailed)
	}
	return ev.RespondEphemeral(messageEphemeralPromptPosted)
}

func (m *Manager) handleRank(ctx context.Context, ev discord.SlashCommandEvent) error {
	xp, err := m.repo.GetExperience(ctx, ev.GuildID, ev.UserID)
	if err != nil {
		slog.Error("failed to read experience", "error", err, "guild_id", ev.GuildID, "member_id", ev.UserID)
		return ev.RespondEphemeral(messageEphemeralSaveFailed)
	}
	rank, idx := m.ladder.RankFor(xp)
	if next, ok := m.ladder.Next(idx); ok {
		return ev.RespondEphemeral(rankStatusMessage(rank.Name, xp, next.Name, next.MinXP))
	}
	return ev.RespondEphemeral(rankStatusMessage(rank.Name, xp, "", 0))
}
