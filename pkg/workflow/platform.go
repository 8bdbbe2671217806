package workflow

import (
	"context"
	"time"

	"github.com/Jacobbrewer1/discordgo"
)

// Message is a platform message as the engine sees it: either fetched for
// discovery/stripping or returned from a send.
type Message struct {
	ID          string
	ChannelID   string
	ChannelName string

	AuthorID   string
	AuthorName string
	AuthorIcon string
	AuthorBot  bool

	Content     string
	Embeds      []*discordgo.MessageEmbed
	Attachments []string
	Timestamp   time.Time
}

// Permission is one channel permission the engine overrides on tickets.
type Permission string

const (
	PermViewChannel    Permission = "view_channel"
	PermAddReactions   Permission = "add_reactions"
	PermSendMessages   Permission = "send_messages"
	PermReadMessages   Permission = "read_messages"
	PermReadHistory    Permission = "read_message_history"
	PermAttachFiles    Permission = "attach_files"
	PermEmbedLinks     Permission = "embed_links"
	PermUseAppCommands Permission = "use_application_commands"
)

// Overwrite is a channel permission overwrite for a role: the listed
// permissions are all allowed or all denied.
type Overwrite struct {
	Allow bool
	Perms []Permission
}

// blockOverwrite denies a penalised role everything needed to interact with
// a ticket channel.
func blockOverwrite() Overwrite {
	return Overwrite{
		Allow: false,
		Perms: []Permission{
			PermViewChannel,
			PermAddReactions,
			PermSendMessages,
			PermReadMessages,
			PermReadHistory,
		},
	}
}

// communityOverwrite grants a community role access to a ticket channel.
func communityOverwrite() Overwrite {
	return Overwrite{
		Allow: true,
		Perms: []Permission{
			PermViewChannel,
			PermAddReactions,
			PermSendMessages,
			PermReadMessages,
			PermReadHistory,
			PermAttachFiles,
			PermEmbedLinks,
			PermUseAppCommands,
		},
	}
}

// Platform is the outbound contract the engine drives side effects through.
// Absent entities are reported as zero values with a nil error; non-nil
// errors are transport failures, which the engine treats the same way where
// the step is best-effort.
type Platform interface {
	// CreateThread creates a thread on a channel and returns its ID.
	CreateThread(ctx context.Context, channelID, name string, archive time.Duration) (string, error)

	// SendMessage sends a message to a channel or thread.
	SendMessage(ctx context.Context, channelID, content string, embeds ...*discordgo.MessageEmbed) (*Message, error)

	// SendReply sends a message replying to an existing message.
	SendReply(ctx context.Context, channelID, replyToID, content string, embeds ...*discordgo.MessageEmbed) (*Message, error)

	// SendDirectMessage sends a DM to a user.
	SendDirectMessage(ctx context.Context, userID, content string) error

	// DeleteMessage deletes a message.
	DeleteMessage(ctx context.Context, channelID, messageID string) error

	// SetRoleOverwrite applies a permission overwrite for a role on a channel.
	SetRoleOverwrite(ctx context.Context, channelID, roleID string, ow Overwrite) error

	// EditChannelTopic sets a channel's topic.
	EditChannelTopic(ctx context.Context, channelID, topic string) error

	// AddRole adds a role to a guild member.
	AddRole(ctx context.Context, guildID, userID, roleID string) error

	// RemoveRole removes a role from a guild member.
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error

	// FetchMessage fetches a single message; nil when absent.
	FetchMessage(ctx context.Context, channelID, messageID string) (*Message, error)

	// FirstMessages returns the oldest messages in a channel, oldest first.
	FirstMessages(ctx context.Context, channelID string, limit int) ([]*Message, error)

	// RoleExists reports whether a role still resolves in a guild.
	RoleExists(ctx context.Context, guildID, roleID string) (bool, error)

	// MemberExists reports whether a user is currently a guild member.
	MemberExists(ctx context.Context, guildID, userID string) (bool, error)

	// MemberRoles lists the role IDs a guild member currently holds.
	MemberRoles(ctx context.Context, guildID, userID string) ([]string, error)

	// GuildName resolves a guild's display name; empty when absent.
	GuildName(ctx context.Context, guildID string) (string, error)
}
