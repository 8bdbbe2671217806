package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/dataaccess"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/logging"
)

const (
	// StaffNotesThreadName is the name of the staff-notes thread created on
	// every new ticket.
	StaffNotesThreadName = "Staff Notes"

	// staffNotesArchive is the auto-archive duration of staff-notes threads.
	staffNotesArchive = 7 * 24 * time.Hour

	// DefaultTopicThrottle is the minimum gap between auto-close topic
	// edits on an active ticket.
	DefaultTopicThrottle = 5 * time.Minute

	// DefaultStripDelay is how long to let the originating bot's message
	// land before button stripping scans the channel.
	DefaultStripDelay = time.Second
)

// Config is the engine's injected configuration. One value is constructed at
// startup and passed in; there is no ambient global state.
type Config struct {
	// OwnerIDs is the bot's operator set.
	OwnerIDs []string

	// TopicThrottle floors the gap between auto-close topic edits. This is
	// a best-effort debounce, not a mutual-exclusion guarantee.
	TopicThrottle time.Duration

	// StripDelay is the settle delay before button stripping.
	StripDelay time.Duration

	// PenaltySweepInterval is the cadence of the penalty-expiry sweep.
	PenaltySweepInterval time.Duration

	// StaleSweepInterval is the cadence of the stale-ticket sweep.
	StaleSweepInterval time.Duration
}

// Engine is the ticket workflow state machine. It reads tenant state through
// a per-event Session and drives side effects through the Platform.
type Engine struct {
	// l is the logger.
	l *slog.Logger

	// platform is the outbound side of the chat platform.
	platform Platform

	// cfg is the injected configuration.
	cfg Config
}

// NewEngine creates the workflow engine.
func NewEngine(l *slog.Logger, platform Platform, cfg Config) *Engine {
	if cfg.TopicThrottle <= 0 {
		cfg.TopicThrottle = DefaultTopicThrottle
	}
	if cfg.StripDelay <= 0 {
		cfg.StripDelay = DefaultStripDelay
	}
	return &Engine{
		l:        l,
		platform: platform,
		cfg:      cfg,
	}
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Handle routes one inbound event to its workflow handler. The caller owns
// the session lifecycle; Handle commits when the workflow reaches a state
// worth persisting and otherwise leaves the session untouched.
func (e *Engine) Handle(ctx context.Context, sess *dataaccess.Session, ev Event) error {
	switch ev := ev.(type) {
	case ChannelCreated:
		return e.handleChannelCreated(ctx, sess, ev)
	case ChannelDeleted:
		return e.handleChannelDeleted(ctx, sess, ev)
	case MemberJoined:
		return e.handleMemberJoined(ctx, sess, ev)
	case MessageReceived:
		return e.handleMessageReceived(ctx, sess, ev)
	default:
		return fmt.Errorf("unhandled event type %T", ev)
	}
}

// handleChannelCreated decides whether the new channel is a ticket and, if
// so, runs the full opening workflow.
func (e *Engine) handleChannelCreated(ctx context.Context, sess *dataaccess.Session, ev ChannelCreated) error {
	guild, err := sess.GetGuild(ev.GuildID)
	if err != nil {
		return err
	}
	if guild.Integrated {
		// An external integration owns ticket creation for this guild.
		return nil
	}
	if ev.ActorID == "" {
		return nil
	}
	isCreator, err := sess.CheckTicketCreator(ev.ActorID, ev.GuildID)
	if err != nil {
		return err
	}
	if !isCreator {
		return nil
	}

	types, err := sess.ListTicketTypes(ev.GuildID)
	if err != nil {
		return err
	}
	typ := MatchTicketType(ev.GuildID, ev.ChannelName, types)
	if typ.Ignore {
		return nil
	}

	threadID, err := e.platform.CreateThread(ctx, ev.ChannelID, StaffNotesThreadName, staffNotesArchive)
	if err != nil {
		return fmt.Errorf("error creating staff notes thread: %w", err)
	}
	if _, err := e.platform.SendMessage(ctx, threadID, expandOpenMessage(guild.OpenMessage, ev.ChannelID)); err != nil {
		return fmt.Errorf("error sending open message: %w", err)
	}

	var opener *string
	if ev.OpenerID != "" {
		opener = &ev.OpenerID
	}
	// Duplicate channel-create events are tolerated through the idempotent
	// get-or-create; the first event's fields win.
	_, ticket, err := sess.GetTicket(ev.ChannelID, ev.GuildID, opener, &threadID)
	if err != nil {
		return err
	}

	if err := e.pingObservers(ctx, sess, ev.GuildID, threadID); err != nil {
		return err
	}
	if err := e.applyHelpingBlock(ctx, sess, guild, ev.ChannelID); err != nil {
		return err
	}
	if typ.ComAccess {
		if err := e.grantCommunityAccess(ctx, sess, ev.GuildID, ev.ChannelID); err != nil {
			return err
		}
	}
	if typ.ComPing {
		if err := e.pingCommunity(ctx, sess, ev.GuildID, ev.ChannelID); err != nil {
			return err
		}
	}
	if guild.StripButtons && typ.StripButtons {
		e.stripButtons(ctx, sess, ev.GuildID, ev.ChannelID)
	}

	var deadline *time.Time
	if guild.FirstAutoclose != nil {
		d := ticket.DateCreated.Add(*guild.FirstAutoclose)
		deadline = &d
	}
	topic := synthesizeTopic(ev.ChannelName, ticket.DateCreated, ticket.UserID, deadline)
	if err := e.platform.EditChannelTopic(ctx, ev.ChannelID, topic); err != nil {
		e.l.Warn("Error setting ticket topic",
			slog.String(logging.KeyChannel, ev.ChannelID),
			slog.String(logging.KeyError, err.Error()))
	}

	e.l.Info("Opened ticket",
		slog.String(logging.KeyGuild, ev.GuildID),
		slog.String(logging.KeyChannel, ev.ChannelID))
	return sess.Commit()
}

// handleChannelDeleted drops the ticket row for a deleted channel. The
// platform-side channel and thread are already gone, so there are no other
// side effects.
func (e *Engine) handleChannelDeleted(ctx context.Context, sess *dataaccess.Session, ev ChannelDeleted) error {
	ticket, err := sess.FetchTicket(ev.ChannelID)
	if err != nil {
		return err
	}
	if ticket == nil {
		return nil
	}
	if err := sess.Delete(ticket); err != nil {
		return err
	}
	e.l.Info("Deleted ticket",
		slog.String(logging.KeyGuild, ev.GuildID),
		slog.String(logging.KeyChannel, ev.ChannelID))
	return sess.Commit()
}

// handleMemberJoined re-applies sticky penalty roles so users cannot evade a
// penalty by leaving and rejoining. Expired or unconfigured penalties are
// cleared instead.
func (e *Engine) handleMemberJoined(ctx context.Context, sess *dataaccess.Session, ev MemberJoined) error {
	member, err := sess.GetMember(ev.UserID, ev.GuildID)
	if err != nil {
		return err
	}
	if member.Status == entities.StatusNone {
		return nil
	}
	guild, err := sess.GetGuild(ev.GuildID)
	if err != nil {
		return err
	}

	var roleID *string
	switch member.Status {
	case entities.StatusSupportBlocked:
		roleID = guild.SupportBlock
	case entities.StatusHelpingBlocked:
		roleID = guild.HelpingBlock
	}

	if member.Expired(time.Now().UTC()) || roleID == nil {
		member.Status = entities.StatusNone
		member.StatusTill = nil
		if err := sess.Save(member); err != nil {
			return err
		}
		return sess.Commit()
	}

	if err := e.platform.AddRole(ctx, ev.GuildID, ev.UserID, *roleID); err != nil {
		// Resolution failure; the next join or sweep will retry.
		e.l.Warn("Error reapplying penalty role",
			slog.String(logging.KeyGuild, ev.GuildID),
			slog.String(logging.KeyError, err.Error()))
	}
	return nil
}

// handleMessageReceived runs message-link discovery, the anonymous staff
// relay and the any-response auto-close bookkeeping.
func (e *Engine) handleMessageReceived(ctx context.Context, sess *dataaccess.Session, ev MessageReceived) error {
	if ev.AuthorBot || ev.GuildID == "" {
		return nil
	}
	guild, err := sess.GetGuild(ev.GuildID)
	if err != nil {
		return err
	}

	if guild.MsgDiscovery {
		// Best-effort convenience; failures are swallowed.
		e.discoverMessageLink(ctx, ev)
	}

	ticket, err := sess.FetchTicket(ev.ChannelID)
	if err != nil {
		return err
	}
	if ticket == nil {
		return nil
	}

	if ticket.Anonymous && (ticket.UserID == nil || *ticket.UserID != ev.AuthorID) {
		if err := e.relayAnonymous(ctx, sess, guild, ev); err != nil {
			return err
		}
	}

	if guild.AnyAutoclose != nil && ev.Timestamp.Sub(ticket.LastResponse) >= e.cfg.TopicThrottle {
		deadline := ev.Timestamp.Add(*guild.AnyAutoclose)
		topic := synthesizeTopic(ev.ChannelName, ticket.DateCreated, ticket.UserID, &deadline)
		if err := e.platform.EditChannelTopic(ctx, ev.ChannelID, topic); err != nil {
			e.l.Warn("Error updating ticket topic",
				slog.String(logging.KeyChannel, ev.ChannelID),
				slog.String(logging.KeyError, err.Error()))
		}
		ticket.LastResponse = ev.Timestamp
		if err := sess.Save(ticket); err != nil {
			return err
		}
		return sess.Commit()
	}
	return nil
}

// relayAnonymous re-posts a staff message under the guild's team name and
// deletes the original. Non-staff messages are left untouched.
func (e *Engine) relayAnonymous(ctx context.Context, sess *dataaccess.Session, guild *entities.Guild, ev MessageReceived) error {
	staffRoles, err := sess.GetAllStaffRoles(guild.ID)
	if err != nil {
		return err
	}
	held := make(map[string]struct{}, len(ev.AuthorRoles))
	for _, r := range ev.AuthorRoles {
		held[r] = struct{}{}
	}
	staff := false
	for _, r := range staffRoles {
		if _, ok := held[r.RoleID]; ok {
			staff = true
			break
		}
	}
	if !staff {
		return nil
	}

	content := fmt.Sprintf("**%s:** %s", guild.StaffTeamName, EscapeMentions(ev.Content))
	if _, err := e.platform.SendMessage(ctx, ev.ChannelID, content, ev.Embeds...); err != nil {
		return fmt.Errorf("error relaying staff message: %w", err)
	}
	if err := e.platform.DeleteMessage(ctx, ev.ChannelID, ev.MessageID); err != nil {
		return fmt.Errorf("error deleting relayed message: %w", err)
	}
	return nil
}

// discoverMessageLink resolves a message permalink in the event's text and
// replies to the triggering message with a preview embed. Every failure mode
// is silent.
func (e *Engine) discoverMessageLink(ctx context.Context, ev MessageReceived) {
	_, channelID, messageID, ok := ParseMessageLink(ev.Content)
	if !ok {
		return
	}
	msg, err := e.platform.FetchMessage(ctx, channelID, messageID)
	if err != nil || msg == nil {
		e.l.Debug("Message discovery failed",
			slog.String(logging.KeyChannel, channelID))
		return
	}
	if _, err := e.platform.SendReply(ctx, ev.ChannelID, ev.MessageID, "", discoveryEmbed(msg)); err != nil {
		e.l.Debug("Error sending discovery preview",
			slog.String(logging.KeyError, err.Error()))
	}
}

// pingObservers posts a transient mention of the observer roles in the staff
// thread and deletes it straight away, so the notification fires without
// leaving a permanent mention in the transcript.
func (e *Engine) pingObservers(ctx context.Context, sess *dataaccess.Session, guildID, threadID string) error {
	observers, err := sess.GetAllObserverRoles(guildID)
	if err != nil {
		return err
	}
	if len(observers) == 0 {
		return nil
	}
	mentions := make([]string, 0, len(observers))
	for _, o := range observers {
		mentions = append(mentions, fmt.Sprintf("<@&%s>", o.RoleID))
	}
	e.silentPing(ctx, threadID, strings.Join(mentions, " "))
	return nil
}

// pingCommunity silent-pings the community ping roles in the ticket channel.
func (e *Engine) pingCommunity(ctx context.Context, sess *dataaccess.Session, guildID, channelID string) error {
	pings, err := sess.GetAllCommunityPingRoles(guildID)
	if err != nil {
		return err
	}
	if len(pings) == 0 {
		return nil
	}
	mentions := make([]string, 0, len(pings))
	for _, p := range pings {
		mentions = append(mentions, fmt.Sprintf("<@&%s>", p.RoleID))
	}
	e.silentPing(ctx, channelID, strings.Join(mentions, " "))
	return nil
}

// silentPing sends a mention message and immediately deletes it.
func (e *Engine) silentPing(ctx context.Context, channelID, content string) {
	msg, err := e.platform.SendMessage(ctx, channelID, content)
	if err != nil {
		e.l.Debug("Error sending silent ping", slog.String(logging.KeyError, err.Error()))
		return
	}
	if err := e.platform.DeleteMessage(ctx, channelID, msg.ID); err != nil {
		e.l.Debug("Error deleting silent ping", slog.String(logging.KeyError, err.Error()))
	}
}

// applyHelpingBlock denies the helping-block role access to a new ticket.
// A role that no longer resolves is cleared from the guild config instead.
func (e *Engine) applyHelpingBlock(ctx context.Context, sess *dataaccess.Session, guild *entities.Guild, channelID string) error {
	if guild.HelpingBlock == nil {
		return nil
	}
	exists, err := e.platform.RoleExists(ctx, guild.ID, *guild.HelpingBlock)
	if err != nil {
		e.l.Warn("Error resolving helping block role", slog.String(logging.KeyError, err.Error()))
		return nil
	}
	if !exists {
		guild.HelpingBlock = nil
		return sess.Save(guild)
	}
	if err := e.platform.SetRoleOverwrite(ctx, channelID, *guild.HelpingBlock, blockOverwrite()); err != nil {
		e.l.Warn("Error applying helping block overwrite",
			slog.String(logging.KeyChannel, channelID),
			slog.String(logging.KeyError, err.Error()))
	}
	return nil
}

// grantCommunityAccess applies the community allow-overwrite for each
// configured community role that still resolves.
func (e *Engine) grantCommunityAccess(ctx context.Context, sess *dataaccess.Session, guildID, channelID string) error {
	roles, err := sess.GetAllCommunityRoles(guildID)
	if err != nil {
		return err
	}
	for _, role := range roles {
		exists, err := e.platform.RoleExists(ctx, guildID, role.RoleID)
		if err != nil || !exists {
			continue
		}
		if err := e.platform.SetRoleOverwrite(ctx, channelID, role.RoleID, communityOverwrite()); err != nil {
			e.l.Warn("Error granting community access",
				slog.String(logging.KeyChannel, channelID),
				slog.String(logging.KeyError, err.Error()))
		}
	}
	return nil
}

// stripButtons waits for the originating bot's message to land, then
// re-posts any ticket-creator messages among the first two as the bot's own
// embeds and deletes the originals, discarding their interactive components.
func (e *Engine) stripButtons(ctx context.Context, sess *dataaccess.Session, guildID, channelID string) {
	select {
	case <-time.After(e.cfg.StripDelay):
	case <-ctx.Done():
		return
	}

	msgs, err := e.platform.FirstMessages(ctx, channelID, 2)
	if err != nil {
		e.l.Debug("Error fetching channel history for stripping",
			slog.String(logging.KeyError, err.Error()))
		return
	}
	for _, msg := range msgs {
		isCreator, err := sess.CheckTicketCreator(msg.AuthorID, guildID)
		if err != nil || !isCreator {
			continue
		}
		if len(msg.Embeds) > 0 {
			if _, err := e.platform.SendMessage(ctx, channelID, "", msg.Embeds...); err != nil {
				continue
			}
		}
		if err := e.platform.DeleteMessage(ctx, channelID, msg.ID); err != nil {
			e.l.Debug("Error deleting stripped message",
				slog.String(logging.KeyError, err.Error()))
		}
	}
}

// ToggleAnonymous flips a ticket's anonymous mode. Staff-only; the caller
// performs the access check.
func (e *Engine) ToggleAnonymous(ctx context.Context, sess *dataaccess.Session, channelID string) (bool, error) {
	ticket, err := sess.FetchTicket(channelID)
	if err != nil {
		return false, err
	}
	if ticket == nil {
		return false, NewUsageError("This channel is not a ticket.")
	}
	ticket.Anonymous = !ticket.Anonymous
	if err := sess.Save(ticket); err != nil {
		return false, err
	}
	if err := sess.Commit(); err != nil {
		return false, err
	}
	return ticket.Anonymous, nil
}

// RegisterTicket retroactively tracks an existing channel as a ticket, for
// channels created while the bot was offline. A staff-notes thread is
// created when none is supplied. Rejects channels that are already tracked
// before any side effect happens.
func (e *Engine) RegisterTicket(ctx context.Context, sess *dataaccess.Session, guildID, channelID string, opener, thread *string) (*entities.Ticket, error) {
	existing, err := sess.FetchTicket(channelID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewUsageError("This channel is already a ticket.")
	}

	guild, err := sess.GetGuild(guildID)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		threadID, err := e.platform.CreateThread(ctx, channelID, StaffNotesThreadName, staffNotesArchive)
		if err != nil {
			return nil, fmt.Errorf("error creating staff notes thread: %w", err)
		}
		if _, err := e.platform.SendMessage(ctx, threadID, expandOpenMessage(guild.OpenMessage, channelID)); err != nil {
			return nil, fmt.Errorf("error sending open message: %w", err)
		}
		thread = &threadID
	}

	_, ticket, err := sess.GetTicket(channelID, guildID, opener, thread)
	if err != nil {
		return nil, err
	}
	if err := sess.Commit(); err != nil {
		return nil, err
	}
	return ticket, nil
}

// expandOpenMessage substitutes the $channel placeholder in the open-message
// template with the channel mention. Unknown placeholders are left alone.
func expandOpenMessage(template, channelID string) string {
	return os.Expand(template, func(key string) string {
		if key == "channel" {
			return fmt.Sprintf("<#%s>", channelID)
		}
		return "$" + key
	})
}
