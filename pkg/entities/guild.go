package entities

import "time"

const (
	// DefaultOpenMessage is the message sent to a fresh staff-notes thread.
	// The $channel placeholder is substituted with the ticket channel mention.
	DefaultOpenMessage = "Staff notes for Ticket $channel."

	// DefaultStaffTeamName is the display name used for anonymous staff responses.
	DefaultStaffTeamName = "Staff Team"

	// MaxOpenMessageLen is the maximum length of the open message.
	MaxOpenMessageLen = 200

	// MaxStaffTeamNameLen is the maximum length of the staff team name.
	MaxStaffTeamNameLen = 40
)

// Guild is the per-tenant configuration. One row per discord guild, created
// lazily on first reference and never deleted by normal operation.
type Guild struct {
	// ID is the discord-provided guild ID.
	ID string `gorm:"primaryKey;column:guild_id"`

	// OpenMessage is the message sent when a staff-notes thread is opened.
	OpenMessage string `gorm:"size:200;not null"`

	// StaffTeamName is the name staff responses are relayed under in
	// anonymous mode.
	StaffTeamName string `gorm:"size:40;not null"`

	// FirstAutoclose is how long a ticket may go without a first response
	// before it is auto-closed. Nil disables.
	FirstAutoclose *time.Duration

	// AnyAutoclose is how long a ticket may go without any response before
	// it is auto-closed. Nil disables.
	AnyAutoclose *time.Duration

	// WarnAutoclose is how long a ticket may go without a response before
	// the opener is warned about the pending close. Nil disables.
	WarnAutoclose *time.Duration

	// SupportBlock is the role ID applied to users blocked from opening
	// tickets. Nil when unconfigured.
	SupportBlock *string

	// HelpingBlock is the role ID applied to users blocked from providing
	// community support. Nil when unconfigured.
	HelpingBlock *string

	// MsgDiscovery is whether message-link discovery is enabled.
	MsgDiscovery bool `gorm:"not null"`

	// StripButtons is whether ticket-bot messages have their buttons
	// stripped on ticket creation.
	StripButtons bool `gorm:"not null"`

	// StripRoles is whether community roles are removed when a member is
	// helping-blocked.
	StripRoles bool `gorm:"not null"`

	// Integrated is whether an external integration owns ticket creation
	// for this guild. When set the channel-create workflow is skipped.
	Integrated bool `gorm:"not null"`
}

// NewGuild returns a guild row with the default configuration applied.
func NewGuild(id string) *Guild {
	return &Guild{
		ID:            id,
		OpenMessage:   DefaultOpenMessage,
		StaffTeamName: DefaultStaffTeamName,
		MsgDiscovery:  true,
	}
}
