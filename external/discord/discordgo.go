package discord

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/bwmarrin/discordgo"
	discordpkg "github.com/creatorsconnections/liveboard/internal/discord"
)

type Client struct {
	session   *discordgo.Session
	token     string
	botUserID string
}

func NewClient(token string) discordpkg.Client {
	return &Client{
		token: token,
	}
}

func (c *Client) Connect(ctx context.Context) error {
	_ = ctx
	s, err := discordgo.New("Bot " + c.token)
	if err != nil {
		return err
	}
	c.session = s
	s.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsGuilds | discordgo.IntentsGuildMembers | discordgo.IntentsGuildMessages)
	s.State.TrackMembers = true
	s.State.TrackRoles = true
	if err := s.Open(); err != nil {
		return err
	}
	userID, err := c.GetBotUserID()
	if err != nil {
		return err
	}
	c.botUserID = userID
	return nil
}

func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

func (c *Client) Run() error {
	select {}
}

func (c *Client) GetBotUserID() (string, error) {
	if c.botUserID != "" {
		return c.botUserID, nil
	}
	if c.session == nil {
		return "", fmt.Errorf("discord session is not initialized")
	}
	if c.session.State != nil && c.session.State.User != nil && c.session.State.User.ID != "" {
		c.botUserID = c.session.State.User.ID
		return c.botUserID, nil
	}
	u, err := c.session.User("@me")
	if err != nil {
		return "", err
	}
	c.botUserID = u.ID
	return c.botUserID, nil
}

func (c *Client) ListGuildIDs() []string {
	if c.session == nil || c.session.State == nil {
		return nil
	}
	ids := make([]string, 0, len(c.session.State.Guilds))
	for _, g := range c.session.State.Guilds {
		if g != nil && g.ID != "" {
			ids = append(ids, g.ID)
		}
	}
	return ids
}

func (c *Client) SendChannelMessage(channelID, content string) error {
	_, err := c.session.ChannelMessageSend(channelID, content)
	return err
}

func (c *Client) SendChannelMessageWithFile(msg discordpkg.FileMessage) error {
	_, err := c.session.ChannelMessageSendComplex(msg.ChannelID, &discordgo.MessageSend{
		Content: msg.Content,
		Files: []*discordgo.File{
			{Name: msg.Filename, ContentType: "image/png", Reader: bytes.NewReader(msg.FileBody)},
		},
	})
	return err
}

func (c *Client) SendDirectMessage(userID, content string) error {
	ch, err := c.session.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = c.session.ChannelMessageSend(ch.ID, content)
	return err
}

func (c *Client) RegisterSlashCommandHandler(handler func(discordpkg.SlashCommandEvent)) {
	c.session.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		if ic == nil || ic.Type != discordgo.InteractionApplicationCommand {
			return
		}
		data := ic.ApplicationCommandData()
		if data.Name == "" {
			return
		}
		userID := ""
		if ic.Member != nil && ic.Member.User != nil {
			userID = ic.Member.User.ID
		}
		if userID == "" && ic.User != nil {
			userID = ic.User.ID
		}
		if userID == "" {
			return
		}
		slog.Info("slash command interaction received", "guild_id", ic.GuildID, "channel_id", ic.ChannelID, "command", data.Name, "user_id", userID)
		handler(discordpkg.SlashCommandEvent{
			GuildID:     ic.GuildID,
			ChannelID:   ic.ChannelID,
			CommandName: data.Name,
			UserID:      userID,
			Options:     commandOptions(data.Options),
			RespondEphemeral: func(content string) error {
				return s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
					Type: discordgo.InteractionResponseChannelMessageWithSource,
					Data: &discordgo.InteractionResponseData{
						Content: content,
						Flags:   discordgo.MessageFlagsEphemeral,
					},
				})
			},
		})
	})
}

func commandOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]string {
	values := make(map[string]string, len(opts))
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt.Type {
		case discordgo.ApplicationCommandOptionString:
			values[opt.Name] = opt.StringValue()
		case discordgo.ApplicationCommandOptionInteger:
			values[opt.Name] = strconv.FormatInt(opt.IntValue(), 10)
		case discordgo.ApplicationCommandOptionChannel:
			if v, ok := opt.Value.(string); ok {
				values[opt.Name] = v
			}
		}
	}
	return values
}

func (c *Client) RegisterMemberJoinHandler(handler func(discordpkg.MemberJoinEvent)) {
	c.session.AddHandler(func(s *discordgo.Session, ev *discordgo.GuildMemberAdd) {
		if ev == nil || ev.Member == nil || ev.Member.User == nil {
			return
		}
		if ev.Member.User.Bot {
			return
		}
		handler(discordpkg.MemberJoinEvent{
			GuildID: ev.GuildID,
			UserID:  ev.Member.User.ID,
		})
	})
}

func (c *Client) UpsertGuildSlashCommands(guildID string, defs []discordpkg.SlashCommandDefinition) error {
	appID := c.applicationID()
	if appID == "" {
		return fmt.Errorf("discord application id is not available")
	}
	existing, err := c.session.ApplicationCommands(appID, guildID)
	if err != nil {
		return err
	}
	existingByName := make(map[string]*discordgo.ApplicationCommand, len(existing))
	for _, cmd := range existing {
		if cmd == nil || cmd.Name == "" {
			continue
		}
		existingByName[cmd.Name] = cmd
	}
	for _, def := range defs {
		if err := c.upsertGuildSlashCommand(appID, guildID, def, existingByName); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) upsertGuildSlashCommand(appID, guildID string, def discordpkg.SlashCommandDefinition, existingByName map[string]*discordgo.ApplicationCommand) error {
	if def.Name == "" {
		return nil
	}
	payload := &discordgo.ApplicationCommand{
		Name:        def.Name,
		Description: def.Description,
		Options:     commandOptionPayloads(def.Options),
	}
	if def.AdminOnly {
		perms := int64(discordgo.PermissionManageGuild)
		payload.DefaultMemberPermissions = &perms
	}
	cmd, ok := existingByName[def.Name]
	if !ok {
		_, err := c.session.ApplicationCommandCreate(appID, guildID, payload)
		return err
	}
	if cmd.Description == def.Description && len(cmd.Options) == len(payload.Options) {
		return nil
	}
	_, err := c.session.ApplicationCommandEdit(appID, guildID, cmd.ID, payload)
	return err
}

func commandOptionPayloads(opts []discordpkg.SlashCommandOption) []*discordgo.ApplicationCommandOption {
	payloads := make([]*discordgo.ApplicationCommandOption, 0, len(opts))
	for _, opt := range opts {
		kind := discordgo.ApplicationCommandOptionString
		switch opt.Kind {
		case discordpkg.OptionInteger:
			kind = discordgo.ApplicationCommandOptionInteger
		case discordpkg.OptionChannel:
			kind = discordgo.ApplicationCommandOptionChannel
		}
		payloads = append(payloads, &discordgo.ApplicationCommandOption{
			Name:        opt.Name,
			Description: opt.Description,
			Type:        kind,
			Required:    opt.Required,
		})
	}
	return payloads
}

func (c *Client) EnsureRole(guildID, name string) (string, error) {
	if role := c.findRoleByName(guildID, name); role != nil {
		return role.ID, nil
	}
	role, err := c.session.GuildRoleCreate(guildID, &discordgo.RoleParams{Name: name})
	if err != nil {
		return "", err
	}
	slog.Info("created role", "guild_id", guildID, "role", name)
	return role.ID, nil
}

func (c *Client) findRoleByName(guildID, name string) *discordgo.Role {
	roles, err := c.session.GuildRoles(guildID)
	if err != nil {
		return nil
	}
	for _, role := range roles {
		if role != nil && role.Name == name {
			return role
		}
	}
	return nil
}

// RotateSingleHolderRole walks current holders from the member cache and
// revokes the role from everyone but the winner before granting it. Failures
// on individual revokes are logged and skipped so a single stale member cannot
// block the rotation.
func (c *Client) RotateSingleHolderRole(guildID, roleID, winnerMemberID, reason string) error {
	for _, member := range c.guildMembers(guildID) {
		if member == nil || member.User == nil || member.User.ID == winnerMemberID {
			continue
		}
		if !memberHasRole(member, roleID) {
			continue
		}
		if err := c.session.GuildMemberRoleRemove(guildID, member.User.ID, roleID, discordgo.WithAuditLogReason(reason)); err != nil {
			slog.Warn("failed to revoke role from prior holder", "error", err, "guild_id", guildID, "member_id", member.User.ID)
		}
	}
	winner := c.resolveGuildMember(guildID, winnerMemberID)
	if winner != nil && memberHasRole(winner, roleID) {
		return nil
	}
	return c.session.GuildMemberRoleAdd(guildID, winnerMemberID, roleID, discordgo.WithAuditLogReason(reason))
}

func memberHasRole(member *discordgo.Member, roleID string) bool {
	for _, id := range member.Roles {
		if id == roleID {
			return true
		}
	}
	return false
}

func (c *Client) guildMembers(guildID string) []*discordgo.Member {
	if c.session != nil && c.session.State != nil {
		if guild, err := c.session.State.Guild(guildID); err == nil && guild != nil && len(guild.Members) > 0 {
			return guild.Members
		}
	}
	members, err := c.session.GuildMembers(guildID, "", 1000)
	if err != nil {
		slog.Warn("failed to list guild members", "error", err, "guild_id", guildID)
		return nil
	}
	return members
}

func (c *Client) ResolveDisplayName(guildID, memberID string) string {
	member := c.resolveGuildMember(guildID, memberID)
	if member == nil {
		return ""
	}
	if member.Nick != "" {
		return member.Nick
	}
	if member.User != nil {
		return preferredDiscordName(member.User.GlobalName, member.User.Username, "")
	}
	return ""
}

func (c *Client) MentionMember(memberID string) string {
	return "<@" + memberID + ">"
}

func (c *Client) ScanChannelHistory(channelID string, limit int) ([]discordpkg.HistoryMessage, error) {
	var out []discordpkg.HistoryMessage
	beforeID := ""
	for len(out) < limit {
		batch := limit - len(out)
		if batch > 100 {
			batch = 100
		}
		messages, err := c.session.ChannelMessages(channelID, batch, beforeID, "", "")
		if err != nil {
			return nil, err
		}
		if len(messages) == 0 {
			break
		}
		for _, msg := range messages {
			if msg == nil || msg.Author == nil {
				continue
			}
			out = append(out, discordpkg.HistoryMessage{
				AuthorID: msg.Author.ID,
				Content:  msg.Content,
			})
		}
		beforeID = messages[len(messages)-1].ID
	}
	return out, nil
}

func (c *Client) resolveGuildMember(guildID, userID string) *discordgo.Member {
	if c.session == nil {
		return nil
	}
	if c.session.State != nil {
		member, err := c.session.State.Member(guildID, userID)
		if err == nil && member != nil {
			return member
		}
	}
	member, err := c.session.GuildMember(guildID, userID)
	if err != nil {
		return nil
	}
	return member
}

func preferredDiscordName(globalName, username, fallback string) string {
	if globalName != "" {
		return globalName
	}
	if username != "" {
		return username
	}
	return fallback
}

func (c *Client) applicationID() string {
	if c.session == nil || c.session.State == nil {
		return ""
	}
	if c.session.State.Application != nil && c.session.State.Application.ID != "" {
		return c.session.State.Application.ID
	}
	if c.session.State.User != nil {
		return c.session.State.User.ID
	}
	return ""
}
