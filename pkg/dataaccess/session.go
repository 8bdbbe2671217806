package dataaccess

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"gorm.io/gorm"
)

// Session wraps one store transaction as a unit of work. One session per
// logical unit of work (one event, one sweep tick, one command invocation);
// sessions are not shared across concurrent units of work.
//
// No implicit commit ever happens: a session closed without Commit discards
// all staged mutations.
type Session struct {
	// l is the logger.
	l *slog.Logger

	// tx is the wrapped transaction.
	tx *gorm.DB

	// done is whether the transaction has been committed or rolled back.
	done bool
}

// Commit commits the session's staged mutations.
func (s *Session) Commit() error {
	if s.done {
		return nil
	}
	if err := s.tx.Commit().Error; err != nil {
		return fmt.Errorf("error committing session: %w", err)
	}
	s.done = true
	monitoring.StoreSessions.WithLabelValues("committed").Inc()
	return nil
}

// Rollback discards the session's staged mutations.
func (s *Session) Rollback() error {
	if s.done {
		return nil
	}
	if err := s.tx.Rollback().Error; err != nil {
		return fmt.Errorf("error rolling back session: %w", err)
	}
	s.done = true
	monitoring.StoreSessions.WithLabelValues("rolled_back").Inc()
	return nil
}

// Close ends the session. An uncommitted session is rolled back first, so a
// deferred Close gives rollback-on-error semantics for free.
func (s *Session) Close() {
	if s.done {
		return
	}
	if err := s.Rollback(); err != nil {
		s.l.Error("Error rolling back session on close", slog.String("err", err.Error()))
	}
}

// Save stages an update for an already-loaded entity.
func (s *Session) Save(v any) error {
	defer observe("save", entityName(v))()
	if err := s.tx.Save(v).Error; err != nil {
		return fmt.Errorf("error saving entity: %w", err)
	}
	return nil
}

// Delete stages the deletion of an entity.
func (s *Session) Delete(v any) error {
	defer observe("delete", entityName(v))()
	if err := s.tx.Delete(v).Error; err != nil {
		return fmt.Errorf("error deleting entity: %w", err)
	}
	return nil
}

// GetGuild gets or creates the guild config. A guild is always returned;
// missing tenants are created with defaults rather than erroring, since
// tenants are implicit. The creation is staged, not committed.
func (s *Session) GetGuild(guildID string) (*entities.Guild, error) {
	defer observe("get_or_create", "guild")()

	guild := new(entities.Guild)
	res := s.tx.Where(entities.Guild{ID: guildID}).
		Attrs(*entities.NewGuild(guildID)).
		FirstOrCreate(guild)
	if res.Error != nil {
		return nil, fmt.Errorf("error getting guild: %w", res.Error)
	}
	return guild, nil
}

// GetMember gets or creates the member record for a user in a guild.
func (s *Session) GetMember(userID, guildID string) (*entities.Member, error) {
	defer observe("get_or_create", "member")()

	if _, err := s.GetGuild(guildID); err != nil {
		return nil, err
	}
	member := new(entities.Member)
	res := s.tx.Where(entities.Member{UserID: userID, GuildID: guildID}).
		FirstOrCreate(member)
	if res.Error != nil {
		return nil, fmt.Errorf("error getting member: %w", res.Error)
	}
	return member, nil
}

// GetTicketCreator gets or creates a ticket-creator allowlist entry. The
// returned bool is whether the entry was created by this call.
func (s *Session) GetTicketCreator(userID, guildID string) (bool, *entities.TicketCreator, error) {
	defer observe("get_or_create", "ticket_creator")()

	if _, err := s.GetGuild(guildID); err != nil {
		return false, nil, err
	}
	tc := new(entities.TicketCreator)
	res := s.tx.Where(entities.TicketCreator{UserID: userID, GuildID: guildID}).
		FirstOrCreate(tc)
	if res.Error != nil {
		return false, nil, fmt.Errorf("error getting ticket creator: %w", res.Error)
	}
	return res.RowsAffected == 1, tc, nil
}

// CheckTicketCreator reports whether the user is a registered ticket creator
// for the guild, without creating anything.
func (s *Session) CheckTicketCreator(userID, guildID string) (bool, error) {
	defer observe("check", "ticket_creator")()

	var count int64
	err := s.tx.Model(&entities.TicketCreator{}).
		Where("user_id = ? AND guild_id = ?", userID, guildID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("error checking ticket creator: %w", err)
	}
	return count > 0, nil
}

// FetchTicket is a pure lookup; it returns nil when the channel is not a
// ticket. Use GetTicket to create missing tickets.
func (s *Session) FetchTicket(channelID string) (*entities.Ticket, error) {
	defer observe("fetch", "ticket")()

	ticket := new(entities.Ticket)
	err := s.tx.First(ticket, "channel_id = ?", channelID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("error fetching ticket: %w", err)
	}
	return ticket, nil
}

// GetTicket gets or creates the ticket row for a channel. The returned bool
// is whether the row was created by this call; the fields of an existing row
// are left untouched.
func (s *Session) GetTicket(channelID, guildID string, userID, staffThread *string) (bool, *entities.Ticket, error) {
	defer observe("get_or_create", "ticket")()

	if _, err := s.GetGuild(guildID); err != nil {
		return false, nil, err
	}
	now := time.Now().UTC()
	ticket := new(entities.Ticket)
	res := s.tx.Where(entities.Ticket{ChannelID: channelID}).
		Attrs(entities.Ticket{
			GuildID:         guildID,
			UserID:          userID,
			DateCreated:     now,
			LastResponse:    now,
			StaffNoteThread: staffThread,
		}).
		FirstOrCreate(ticket)
	if res.Error != nil {
		return false, nil, fmt.Errorf("error getting ticket: %w", res.Error)
	}
	return res.RowsAffected == 1, ticket, nil
}

// GetStaffRole gets or creates a staff role entry.
func (s *Session) GetStaffRole(roleID, guildID string) (bool, *entities.StaffRole, error) {
	defer observe("get_or_create", "staff_role")()

	if _, err := s.GetGuild(guildID); err != nil {
		return false, nil, err
	}
	role := new(entities.StaffRole)
	res := s.tx.Where(entities.StaffRole{RoleID: roleID}).
		Attrs(entities.StaffRole{GuildID: guildID}).
		FirstOrCreate(role)
	if res.Error != nil {
		return false, nil, fmt.Errorf("error getting staff role: %w", res.Error)
	}
	return res.RowsAffected == 1, role, nil
}

// GetAllStaffRoles lists the guild's staff roles.
func (s *Session) GetAllStaffRoles(guildID string) ([]*entities.StaffRole, error) {
	defer observe("list", "staff_role")()

	var roles []*entities.StaffRole
	if err := s.tx.Where("guild_id = ?", guildID).Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("error listing staff roles: %w", err)
	}
	return roles, nil
}

// GetObserverRole gets or creates an observer role entry.
func (s *Session) GetObserverRole(roleID, guildID string) (bool, *entities.ObserverRole, error) {
	defer observe("get_or_create", "observer_role")()

	if _, err := s.GetGuild(guildID); err != nil {
		return false, nil, err
	}
	role := new(entities.ObserverRole)
	res := s.tx.Where(entities.ObserverRole{RoleID: roleID}).
		Attrs(entities.ObserverRole{GuildID: guildID}).
		FirstOrCreate(role)
	if res.Error != nil {
		return false, nil, fmt.Errorf("error getting observer role: %w", res.Error)
	}
	return res.RowsAffected == 1, role, nil
}

// GetAllObserverRoles lists the guild's observer roles.
func (s *Session) GetAllObserverRoles(guildID string) ([]*entities.ObserverRole, error) {
	defer observe("list", "observer_role")()

	var roles []*entities.ObserverRole
	if err := s.tx.Where("guild_id = ?", guildID).Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("error listing observer roles: %w", err)
	}
	return roles, nil
}

// GetCommunityRole gets or creates a community role entry.
func (s *Session) GetCommunityRole(roleID, guildID string) (bool, *entities.CommunityRole, error) {
	defer observe("get_or_create", "community_role")()

	if _, err := s.GetGuild(guildID); err != nil {
		return false, nil, err
	}
	role := new(entities.CommunityRole)
	res := s.tx.Where(entities.CommunityRole{RoleID: roleID}).
		Attrs(entities.CommunityRole{GuildID: guildID}).
		FirstOrCreate(role)
	if res.Error != nil {
		return false, nil, fmt.Errorf("error getting community role: %w", res.Error)
	}
	return res.RowsAffected == 1, role, nil
}

// GetAllCommunityRoles lists the guild's community roles.
func (s *Session) GetAllCommunityRoles(guildID string) ([]*entities.CommunityRole, error) {
	defer observe("list", "community_role")()

	var roles []*entities.CommunityRole
	if err := s.tx.Where("guild_id = ?", guildID).Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("error listing community roles: %w", err)
	}
	return roles, nil
}

// GetCommunityPingRole gets or creates a community ping role entry.
func (s *Session) GetCommunityPingRole(roleID, guildID string) (bool, *entities.CommunityPingRole, error) {
	defer observe("get_or_create", "community_ping_role")()

	if _, err := s.GetGuild(guildID); err != nil {
		return false, nil, err
	}
	role := new(entities.CommunityPingRole)
	res := s.tx.Where(entities.CommunityPingRole{RoleID: roleID}).
		Attrs(entities.CommunityPingRole{GuildID: guildID}).
		FirstOrCreate(role)
	if res.Error != nil {
		return false, nil, fmt.Errorf("error getting community ping role: %w", res.Error)
	}
	return res.RowsAffected == 1, role, nil
}

// GetAllCommunityPingRoles lists the guild's community ping roles.
func (s *Session) GetAllCommunityPingRoles(guildID string) ([]*entities.CommunityPingRole, error) {
	defer observe("list", "community_ping_role")()

	var roles []*entities.CommunityPingRole
	if err := s.tx.Where("guild_id = ?", guildID).Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("error listing community ping roles: %w", err)
	}
	return roles, nil
}

// GetTicketType gets or creates a ticket type for a channel-name prefix.
func (s *Session) GetTicketType(guildID, prefix string) (bool, *entities.TicketType, error) {
	defer observe("get_or_create", "ticket_type")()

	if _, err := s.GetGuild(guildID); err != nil {
		return false, nil, err
	}
	tt := new(entities.TicketType)
	res := s.tx.Where(entities.TicketType{GuildID: guildID, Prefix: prefix}).
		FirstOrCreate(tt)
	if res.Error != nil {
		return false, nil, fmt.Errorf("error getting ticket type: %w", res.Error)
	}
	return res.RowsAffected == 1, tt, nil
}

// ListTicketTypes lists the guild's ticket types.
func (s *Session) ListTicketTypes(guildID string) ([]*entities.TicketType, error) {
	defer observe("list", "ticket_type")()

	var types []*entities.TicketType
	if err := s.tx.Where("guild_id = ?", guildID).Find(&types).Error; err != nil {
		return nil, fmt.Errorf("error listing ticket types: %w", err)
	}
	return types, nil
}

// GetTag gets or creates a tag by name.
func (s *Session) GetTag(guildID, name string) (bool, *entities.Tag, error) {
	defer observe("get_or_create", "tag")()

	if _, err := s.GetGuild(guildID); err != nil {
		return false, nil, err
	}
	tag := new(entities.Tag)
	res := s.tx.Where(entities.Tag{GuildID: guildID, Name: name}).
		FirstOrCreate(tag)
	if res.Error != nil {
		return false, nil, fmt.Errorf("error getting tag: %w", res.Error)
	}
	return res.RowsAffected == 1, tag, nil
}

// FetchTag is a pure lookup; it returns nil when the tag does not exist.
func (s *Session) FetchTag(guildID, name string) (*entities.Tag, error) {
	defer observe("fetch", "tag")()

	tag := new(entities.Tag)
	err := s.tx.First(tag, "guild_id = ? AND name = ?", guildID, name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("error fetching tag: %w", err)
	}
	return tag, nil
}

// ListTags lists the guild's tags.
func (s *Session) ListTags(guildID string) ([]*entities.Tag, error) {
	defer observe("list", "tag")()

	var tags []*entities.Tag
	if err := s.tx.Where("guild_id = ?", guildID).Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("error listing tags: %w", err)
	}
	return tags, nil
}

// ExpiredMembers lists members whose penalty expiry has passed.
func (s *Session) ExpiredMembers(now time.Time) ([]*entities.Member, error) {
	defer observe("list", "member")()

	var members []*entities.Member
	err := s.tx.Where("status <> ? AND status_till IS NOT NULL AND status_till <= ?",
		entities.StatusNone, now).
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("error listing expired members: %w", err)
	}
	return members, nil
}

// PendingTickets lists tickets whose guild has a warn duration configured,
// that have not yet been notified and whose warn duration has elapsed since
// the last response. The guild relation is loaded on the result.
func (s *Session) PendingTickets(now time.Time) ([]*entities.Ticket, error) {
	defer observe("list", "ticket")()

	var candidates []*entities.Ticket
	err := s.tx.Joins("Guild").
		Where("tickets.notified = ?", false).
		Where(`"Guild".warn_autoclose IS NOT NULL`).
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("error listing pending tickets: %w", err)
	}

	// Durations are stored opaquely, so the elapsed check happens here
	// rather than in SQL.
	tickets := make([]*entities.Ticket, 0, len(candidates))
	for _, t := range candidates {
		if t.Guild == nil || t.Guild.WarnAutoclose == nil {
			continue
		}
		if !t.LastResponse.Add(*t.Guild.WarnAutoclose).After(now) {
			tickets = append(tickets, t)
		}
	}
	return tickets, nil
}

// entityName resolves the metric label for a stored entity.
func entityName(v any) string {
	switch v.(type) {
	case *entities.Guild:
		return "guild"
	case *entities.Ticket:
		return "ticket"
	case *entities.TicketCreator:
		return "ticket_creator"
	case *entities.StaffRole:
		return "staff_role"
	case *entities.ObserverRole:
		return "observer_role"
	case *entities.CommunityRole:
		return "community_role"
	case *entities.CommunityPingRole:
		return "community_ping_role"
	case *entities.Member:
		return "member"
	case *entities.TicketType:
		return "ticket_type"
	case *entities.Tag:
		return "tag"
	}
	return "unknown"
}
