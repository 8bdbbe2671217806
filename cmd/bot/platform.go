package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/warden/pkg/workflow"
)

// discordPlatform adapts the discord session to the workflow engine's
// outbound contract.
type discordPlatform struct {
	a *App
}

func newDiscordPlatform(a *App) *discordPlatform {
	return &discordPlatform{a: a}
}

// permissionBits maps workflow permissions to discord permission bits.
var permissionBits = map[workflow.Permission]int64{
	workflow.PermViewChannel:    discordgo.PermissionViewChannel,
	workflow.PermAddReactions:   discordgo.PermissionAddReactions,
	workflow.PermSendMessages:   discordgo.PermissionSendMessages,
	workflow.PermReadMessages:   discordgo.PermissionViewChannel,
	workflow.PermReadHistory:    discordgo.PermissionReadMessageHistory,
	workflow.PermAttachFiles:    discordgo.PermissionAttachFiles,
	workflow.PermEmbedLinks:     discordgo.PermissionEmbedLinks,
	workflow.PermUseAppCommands: discordgo.PermissionUseSlashCommands,
}

func (p *discordPlatform) CreateThread(_ context.Context, channelID, name string, archive time.Duration) (string, error) {
	thread, err := p.a.Session().ThreadStartComplex(channelID, &discordgo.ThreadStart{
		Name:                name,
		Type:                discordgo.ChannelTypeGuildPrivateThread,
		AutoArchiveDuration: int(archive.Minutes()),
	})
	if err != nil {
		return "", fmt.Errorf("error creating thread: %w", err)
	}
	return thread.ID, nil
}

func (p *discordPlatform) SendMessage(_ context.Context, channelID, content string, embeds ...*discordgo.MessageEmbed) (*workflow.Message, error) {
	msg, err := p.a.Session().ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Embeds:  embeds,
	})
	if err != nil {
		return nil, fmt.Errorf("error sending message: %w", err)
	}
	return p.toWorkflowMessage(msg, ""), nil
}

func (p *discordPlatform) SendReply(_ context.Context, channelID, replyToID, content string, embeds ...*discordgo.MessageEmbed) (*workflow.Message, error) {
	msg, err := p.a.Session().ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Embeds:  embeds,
		Reference: &discordgo.MessageReference{
			MessageID: replyToID,
			ChannelID: channelID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error sending reply: %w", err)
	}
	return p.toWorkflowMessage(msg, ""), nil
}

func (p *discordPlatform) SendDirectMessage(_ context.Context, userID, content string) error {
	channel, err := p.a.Session().UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("error creating DM channel: %w", err)
	}
	if _, err := p.a.Session().ChannelMessageSend(channel.ID, content); err != nil {
		return fmt.Errorf("error sending DM: %w", err)
	}
	return nil
}

func (p *discordPlatform) DeleteMessage(_ context.Context, channelID, messageID string) error {
	if err := p.a.Session().ChannelMessageDelete(channelID, messageID); err != nil {
		return fmt.Errorf("error deleting message: %w", err)
	}
	return nil
}

func (p *discordPlatform) SetRoleOverwrite(_ context.Context, channelID, roleID string, ow workflow.Overwrite) error {
	var bits int64
	for _, perm := range ow.Perms {
		bits |= permissionBits[perm]
	}

	var allow, deny int64
	if ow.Allow {
		allow = bits
	} else {
		deny = bits
	}

	err := p.a.Session().ChannelPermissionSet(channelID, roleID, discordgo.PermissionOverwriteTypeRole, allow, deny)
	if err != nil {
		return fmt.Errorf("error setting channel overwrite: %w", err)
	}
	return nil
}

func (p *discordPlatform) EditChannelTopic(_ context.Context, channelID, topic string) error {
	if _, err := p.a.Session().ChannelEditComplex(channelID, &discordgo.ChannelEdit{
		Topic: topic,
	}); err != nil {
		return fmt.Errorf("error editing channel topic: %w", err)
	}
	return nil
}

func (p *discordPlatform) AddRole(_ context.Context, guildID, userID, roleID string) error {
	if err := p.a.Session().GuildMemberRoleAdd(guildID, userID, roleID); err != nil {
		return fmt.Errorf("error adding role: %w", err)
	}
	return nil
}

func (p *discordPlatform) RemoveRole(_ context.Context, guildID, userID, roleID string) error {
	if err := p.a.Session().GuildMemberRoleRemove(guildID, userID, roleID); err != nil {
		return fmt.Errorf("error removing role: %w", err)
	}
	return nil
}

func (p *discordPlatform) FetchMessage(_ context.Context, channelID, messageID string) (*workflow.Message, error) {
	msg, err := p.a.Session().ChannelMessage(channelID, messageID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error fetching message: %w", err)
	}
	return p.toWorkflowMessage(msg, p.a.channelName(channelID)), nil
}

func (p *discordPlatform) FirstMessages(_ context.Context, channelID string, limit int) ([]*workflow.Message, error) {
	// After-ID zero yields the channel's earliest messages, newest first.
	msgs, err := p.a.Session().ChannelMessages(channelID, limit, "", "0", "")
	if err != nil {
		return nil, fmt.Errorf("error fetching channel messages: %w", err)
	}

	out := make([]*workflow.Message, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		out = append(out, p.toWorkflowMessage(msgs[i], ""))
	}
	return out, nil
}

func (p *discordPlatform) RoleExists(_ context.Context, guildID, roleID string) (bool, error) {
	roles, err := p.a.Session().GuildRoles(guildID)
	if err != nil {
		return false, fmt.Errorf("error getting guild roles: %w", err)
	}
	for _, role := range roles {
		if role.ID == roleID {
			return true, nil
		}
	}
	return false, nil
}

func (p *discordPlatform) MemberExists(_ context.Context, guildID, userID string) (bool, error) {
	if _, err := p.a.Session().GuildMember(guildID, userID); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("error getting guild member: %w", err)
	}
	return true, nil
}

func (p *discordPlatform) MemberRoles(_ context.Context, guildID, userID string) ([]string, error) {
	member, err := p.a.Session().GuildMember(guildID, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting guild member: %w", err)
	}
	return member.Roles, nil
}

func (p *discordPlatform) GuildName(_ context.Context, guildID string) (string, error) {
	guild, err := p.a.Session().Guild(guildID)
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("error getting guild: %w", err)
	}
	return guild.Name, nil
}

func (p *discordPlatform) toWorkflowMessage(m *discordgo.Message, channelName string) *workflow.Message {
	msg := &workflow.Message{
		ID:          m.ID,
		ChannelID:   m.ChannelID,
		ChannelName: channelName,
		Content:     m.Content,
		Embeds:      m.Embeds,
		Timestamp:   m.Timestamp,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorName = m.Author.Username
		msg.AuthorIcon = m.Author.AvatarURL("")
		msg.AuthorBot = m.Author.Bot
	}
	for _, att := range m.Attachments {
		msg.Attachments = append(msg.Attachments, att.URL)
	}
	return msg
}

// isNotFound reports whether err is the discord API saying the entity does
// not exist.
func isNotFound(err error) bool {
	restErr := new(discordgo.RESTError)
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message == nil {
		return false
	}
	switch restErr.Message.Code {
	case discordgo.ErrCodeUnknownChannel,
		discordgo.ErrCodeUnknownMessage,
		discordgo.ErrCodeUnknownMember,
		discordgo.ErrCodeUnknownGuild,
		discordgo.ErrCodeUnknownUser,
		discordgo.ErrCodeGeneralError: // General is thrown when a 404 is returned.
		return true
	}
	return false
}
