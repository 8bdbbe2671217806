package entities

import "time"

// Ticket is one open ticket channel. Tickets are ephemeral; the row is
// deleted when the channel is deleted, while the guild config survives.
type Ticket struct {
	// ChannelID is the discord-provided channel ID. Globally unique, so it
	// is the primary key on its own.
	ChannelID string `gorm:"primaryKey"`

	// GuildID is the ID of the owning guild.
	GuildID string `gorm:"not null;index"`

	// UserID is the user that opened the ticket, when known.
	UserID *string

	// DateCreated is when the ticket was created.
	DateCreated time.Time `gorm:"not null"`

	// LastResponse is when the ticket last saw activity.
	LastResponse time.Time `gorm:"not null"`

	// StaffNoteThread is the channel ID of the attached staff-notes thread.
	StaffNoteThread *string `gorm:"unique"`

	// Anonymous is whether staff responses are relayed under the team name.
	Anonymous bool `gorm:"not null"`

	// Notified is whether a stale-ticket warning has already been sent.
	Notified bool `gorm:"not null"`

	// Guild is the owning guild config, loaded on demand.
	Guild *Guild `gorm:"foreignKey:GuildID"`
}
