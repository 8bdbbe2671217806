package workflow

import (
	"time"

	"github.com/Jacobbrewer1/discordgo"
)

// Event is one inbound platform event. The set of variants is closed; the
// engine pattern-matches on the concrete type.
type Event interface {
	event()
}

// ChannelCreated is emitted when a channel appears in a guild.
type ChannelCreated struct {
	// GuildID is the guild the channel was created in.
	GuildID string

	// ChannelID is the new channel.
	ChannelID string

	// ChannelName is the new channel's name, used for ticket-type matching.
	ChannelName string

	// ActorID is the account that created the channel, resolved from the
	// audit log. Empty when the actor could not be resolved.
	ActorID string

	// OpenerID is the user the ticket was opened for, when known.
	OpenerID string
}

// ChannelDeleted is emitted when a channel is removed.
type ChannelDeleted struct {
	GuildID   string
	ChannelID string
}

// MemberJoined is emitted when a user joins a guild.
type MemberJoined struct {
	GuildID string
	UserID  string
}

// MessageReceived is emitted for every message the bot can see.
type MessageReceived struct {
	GuildID     string
	ChannelID   string
	ChannelName string
	MessageID   string

	// AuthorID is the message author; AuthorBot is whether the author is a
	// bot account. AuthorRoles are the author's current role IDs.
	AuthorID    string
	AuthorBot   bool
	AuthorRoles []string

	Content     string
	Embeds      []*discordgo.MessageEmbed
	Attachments []string
	Timestamp   time.Time
}

func (ChannelCreated) event()  {}
func (ChannelDeleted) event()  {}
func (MemberJoined) event()    {}
func (MessageReceived) event() {}
