package entities

import "time"

// PenaltyStatus is the per-guild penalty state of a member.
type PenaltyStatus int

const (
	// StatusNone is the default, unpenalised state.
	StatusNone PenaltyStatus = iota

	// StatusSupportBlocked blocks the member from opening tickets.
	StatusSupportBlocked

	// StatusHelpingBlocked blocks the member from providing community support.
	StatusHelpingBlocked
)

// String implements the fmt.Stringer interface.
func (s PenaltyStatus) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusSupportBlocked:
		return "support_blocked"
	case StatusHelpingBlocked:
		return "helping_blocked"
	}
	return "unknown"
}

// Member is the per-guild state of a user. Created lazily; a user can be a
// member of multiple guilds.
type Member struct {
	// UserID is the discord-provided user ID.
	UserID string `gorm:"primaryKey"`

	// GuildID is the ID of the owning guild.
	GuildID string `gorm:"primaryKey"`

	// Status is the member's penalty status.
	Status PenaltyStatus `gorm:"not null"`

	// StatusTill is when the penalty expires. Nil means indefinite.
	StatusTill *time.Time
}

// Expired reports whether the member's penalty has a set expiry that has
// passed. Indefinite penalties never expire.
func (m *Member) Expired(now time.Time) bool {
	return m.StatusTill != nil && !m.StatusTill.After(now)
}
