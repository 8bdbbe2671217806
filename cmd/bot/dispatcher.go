package main

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/Jacobbrewer1/warden/pkg/workflow"
)

// auditLogWindow is how many recent channel-create audit entries are scanned
// when resolving the account that created a channel.
const auditLogWindow = 5

func (a *App) guildJoinedHandler() func(s *discordgo.Session, g *discordgo.GuildCreate) {
	return func(_ *discordgo.Session, g *discordgo.GuildCreate) {
		a.Info(fmt.Sprintf("Joined guild %s", g.Name))

		// Increment the total number of guilds.
		TotalDiscordGuilds.Inc()
	}
}

func (a *App) guildLeaveHandler() func(s *discordgo.Session, g *discordgo.GuildDelete) {
	return func(_ *discordgo.Session, g *discordgo.GuildDelete) {
		a.Info(fmt.Sprintf("Left guild %s", g.ID))

		// Decrement the total number of guilds.
		TotalDiscordGuilds.Dec()
	}
}

func (a *App) channelCreateHandler() func(s *discordgo.Session, c *discordgo.ChannelCreate) {
	return func(s *discordgo.Session, c *discordgo.ChannelCreate) {
		if c.Type != discordgo.ChannelTypeGuildText || c.GuildID == "" {
			return
		}

		go a.dispatch("channel_create", workflow.ChannelCreated{
			GuildID:     c.GuildID,
			ChannelID:   c.ID,
			ChannelName: c.Name,
			ActorID:     a.resolveChannelCreator(c.GuildID, c.ID),
		})
	}
}

func (a *App) channelDeleteHandler() func(s *discordgo.Session, c *discordgo.ChannelDelete) {
	return func(_ *discordgo.Session, c *discordgo.ChannelDelete) {
		if c.GuildID == "" {
			return
		}

		go a.dispatch("channel_delete", workflow.ChannelDeleted{
			GuildID:   c.GuildID,
			ChannelID: c.ID,
		})
	}
}

func (a *App) memberJoinHandler() func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	return func(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
		go a.dispatch("member_join", workflow.MemberJoined{
			GuildID: m.GuildID,
			UserID:  m.User.ID,
		})
	}
}

func (a *App) messageCreateHandler() func(s *discordgo.Session, m *discordgo.MessageCreate) {
	return func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil {
			return
		}
		if a.s.State != nil && a.s.State.User != nil && m.Author.ID == a.s.State.User.ID {
			return
		}

		var roles []string
		if m.Member != nil {
			roles = m.Member.Roles
		}
		attachments := make([]string, 0, len(m.Attachments))
		for _, att := range m.Attachments {
			attachments = append(attachments, att.URL)
		}

		go a.dispatch("message_create", workflow.MessageReceived{
			GuildID:     m.GuildID,
			ChannelID:   m.ChannelID,
			ChannelName: a.channelName(m.ChannelID),
			MessageID:   m.ID,
			AuthorID:    m.Author.ID,
			AuthorBot:   m.Author.Bot,
			AuthorRoles: roles,
			Content:     m.Content,
			Embeds:      m.Embeds,
			Attachments: attachments,
			Timestamp:   m.Timestamp,
		})
	}
}

// dispatch runs one workflow event in its own session. A panicking handler
// takes down its session, not the process.
func (a *App) dispatch(name string, ev workflow.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			a.Error("Panic in event handler",
				slog.String(logging.KeyEvent, name),
				slog.String(logging.KeyError, fmt.Sprintf("%v", rec)),
				slog.String("stack", string(debug.Stack())),
			)
			TotalWorkflowEvents.WithLabelValues(name, "panic").Inc()
		}
	}()

	t := time.Now().UTC()
	sess, err := a.Store().Session()
	if err != nil {
		a.Error("Error opening session",
			slog.String(logging.KeyEvent, name),
			slog.String(logging.KeyError, err.Error()))
		TotalWorkflowEvents.WithLabelValues(name, "error").Inc()
		return
	}
	defer sess.Close()

	if err := a.engine.Handle(context.Background(), sess, ev); err != nil {
		a.Error("Error handling event",
			slog.String(logging.KeyEvent, name),
			slog.String(logging.KeyError, err.Error()))
		TotalWorkflowEvents.WithLabelValues(name, "error").Inc()
		return
	}

	TotalWorkflowEvents.WithLabelValues(name, "ok").Inc()
	WorkflowEventDuration.WithLabelValues(name).Observe(time.Since(t).Seconds())
}

// resolveChannelCreator finds the account that created a channel from the
// guild's audit log. Empty when the entry is missing or the bot lacks the
// audit-log permission.
func (a *App) resolveChannelCreator(guildID, channelID string) string {
	log, err := a.s.GuildAuditLog(guildID, "", "", int(discordgo.AuditLogActionChannelCreate), auditLogWindow)
	if err != nil {
		a.Debug("Error reading audit log",
			slog.String(logging.KeyGuild, guildID),
			slog.String(logging.KeyError, err.Error()))
		return ""
	}
	for _, entry := range log.AuditLogEntries {
		if entry.TargetID == channelID {
			return entry.UserID
		}
	}
	return ""
}

// channelName resolves a channel's name, preferring the session state cache.
func (a *App) channelName(channelID string) string {
	if c, err := a.s.State.Channel(channelID); err == nil {
		return c.Name
	}
	c, err := a.s.Channel(channelID)
	if err != nil {
		return ""
	}
	return c.Name
}
