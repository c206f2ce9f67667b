package discord

import "context"

type FileMessage struct {
	ChannelID string
	Content   string
	Filename  string
	FileBody  []byte
}

type SlashCommandOptionKind int

const (
	OptionString SlashCommandOptionKind = iota
	OptionInteger
	OptionChannel
)

type SlashCommandOption struct {
	Name        string
	Description string
	Kind        SlashCommandOptionKind
	Required    bool
}

type SlashCommandDefinition struct {
	Name        string
	Description string
	AdminOnly   bool
	Options     []SlashCommandOption
}

// SlashCommandEvent carries one invoked command. Options holds the raw option
// values keyed by option name (channel options resolve to the channel id).
type SlashCommandEvent struct {
	GuildID          string
	ChannelID        string
	CommandName      string
	UserID           string
	Options          map[string]string
	RespondEphemeral func(content string) error
}

type MemberJoinEvent struct {
	GuildID string
	UserID  string
}

type HistoryMessage struct {
	AuthorID string
	Content  string
}

type Client interface {
	Connect(ctx context.Context) error
	Close() error
	Run() error
	GetBotUserID() (string, error)
	UpsertGuildSlashCommands(guildID string, defs []SlashCommandDefinition) error
	RegisterSlashCommandHandler(handler func(SlashCommandEvent))
	RegisterMemberJoinHandler(handler func(MemberJoinEvent))
	ListGuildIDs() []string

	SendChannelMessage(channelID, content string) error
	SendChannelMessageWithFile(msg FileMessage) error
	SendDirectMessage(userID, content string) error

	// EnsureRole returns the id of the named role, creating it when absent.
	EnsureRole(guildID, name string) (string, error)
	// RotateSingleHolderRole revokes the role from every current holder except
	// the winner and grants it to the winner. Idempotent when the winner is
	// already the sole holder.
	RotateSingleHolderRole(guildID, roleID, winnerMemberID, reason string) error

	// ResolveDisplayName returns the member's guild display name, or "" when
	// the member cannot be resolved.
	ResolveDisplayName(guildID, memberID string) string
	MentionMember(memberID string) string

	// ScanChannelHistory returns up to limit recent messages, newest first.
	ScanChannelHistory(channelID string, limit int) ([]HistoryMessage, error)
}
