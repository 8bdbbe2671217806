package entities

// TicketType is a named preset overriding the default ticket behaviour for
// channels whose name matches the prefix.
type TicketType struct {
	// GuildID is the ID of the owning guild.
	GuildID string `gorm:"primaryKey"`

	// Prefix is the channel-name prefix this type applies to.
	Prefix string `gorm:"primaryKey"`

	// ComPing is whether community-ping roles are pinged.
	ComPing bool `gorm:"not null"`

	// ComAccess is whether community roles are granted access.
	ComAccess bool `gorm:"not null"`

	// StripButtons is whether ticket-bot buttons are stripped.
	StripButtons bool `gorm:"not null"`

	// Ignore skips the ticket workflow entirely for matching channels.
	Ignore bool `gorm:"not null"`
}

// DefaultTicketType is the built-in preset used when no configured type
// matches a new channel's name.
func DefaultTicketType(guildID string) *TicketType {
	return &TicketType{
		GuildID:      guildID,
		ComPing:      true,
		ComAccess:    true,
		StripButtons: true,
	}
}
