package entities

// Role IDs are discord-global, so within each role scope the role ID alone is
// the primary key; the guild ID records ownership. Presence of a row means
// the role is enabled for that scope.

// StaffRole is a role allowed to view ticket notes and use staff commands.
type StaffRole struct {
	RoleID  string `gorm:"primaryKey"`
	GuildID string `gorm:"not null;index"`
}

// ObserverRole is a role silently pinged on new staff-notes threads.
type ObserverRole struct {
	RoleID  string `gorm:"primaryKey"`
	GuildID string `gorm:"not null;index"`
}

// CommunityRole is a non-staff role granted access to new tickets.
type CommunityRole struct {
	RoleID  string `gorm:"primaryKey"`
	GuildID string `gorm:"not null;index"`
}

// CommunityPingRole is a role silently pinged on new tickets, after the
// community roles have been added.
type CommunityPingRole struct {
	RoleID  string `gorm:"primaryKey"`
	GuildID string `gorm:"not null;index"`
}

// TicketCreator is an account whose channel-creation actions open tickets.
// Mostly the primary ticket bot, but whitelabel bots and trusted users can be
// registered too.
type TicketCreator struct {
	UserID  string `gorm:"primaryKey"`
	GuildID string `gorm:"primaryKey"`
}
