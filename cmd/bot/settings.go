package main

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/warden/pkg/dataaccess"
	"github.com/Jacobbrewer1/warden/pkg/entities"
)

const (
	// settingsCmdName is the command for all guild configuration commands.
	settingsCmdName = "settings"

	openMsgCmdName        = "openmsg"
	staffNameCmdName      = "staffname"
	firstAutocloseCmdName = "firstautoclose"
	anyAutocloseCmdName   = "anyautoclose"
	warnAutocloseCmdName  = "warnautoclose"
	supportBlockCmdName   = "supportblock"
	helpingBlockCmdName   = "helpingblock"
	msgDiscoveryCmdName   = "msgdiscovery"
	stripButtonsCmdName   = "stripbuttons"
	stripRolesCmdName     = "striproles"
	integratedCmdName     = "integrated"
	staffRoleCmdName      = "staffrole"
	observerRoleCmdName   = "observerrole"
	communityRoleCmdName  = "communityrole"
	communityPingCmdName  = "communityping"
	creatorCmdName        = "creator"
	ticketTypeCmdName     = "tickettype"
	viewCmdName           = "view"

	// messageOptName is the text for the message option.
	messageOptName = "message"

	// nameOptName is the text for the name option.
	nameOptName = "name"

	// durationOptName is the text for the duration option. Durations are
	// given in the d/h/m form, e.g. "3d12h".
	durationOptName = "duration"

	// roleOptName is the text for the role option.
	roleOptName = "role"

	// userOptName is the text for the user option.
	userOptName = "user"

	// prefixOptName is the text for the channel-name prefix option.
	prefixOptName = "prefix"

	removeOptName = "remove"
)

var (
	// settingsCmd is the command for all guild configuration commands.
	settingsCmd = &discordgo.ApplicationCommand{
		Name:        settingsCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "This is the command for all guild configuration commands.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        openMsgCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This sets the message sent to new staff-notes threads. $channel becomes the channel mention.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        messageOptName,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the message to send.",
						Required:    true,
					},
				},
			},
			{
				Name:        staffNameCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This sets the name anonymous staff responses are sent under.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        nameOptName,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the staff team name.",
						Required:    true,
					},
				},
			},
			{
				Name:        firstAutocloseCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This sets how long a ticket may wait for a first response. Omit the duration to disable.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        durationOptName,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the duration, e.g. 3d12h.",
					},
				},
			},
			{
				Name:        anyAutocloseCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This sets how long a ticket may wait for any response. Omit the duration to disable.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        durationOptName,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the duration, e.g. 3d12h.",
					},
				},
			},
			{
				Name:        warnAutocloseCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This sets how long before the opener is warned about a pending close. Omit to disable.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        durationOptName,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the duration, e.g. 3d12h.",
					},
				},
			},
			{
				Name:        supportBlockCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This sets the role for users blocked from opening tickets. Omit the role to clear.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        roleOptName,
						Type:        discordgo.ApplicationCommandOptionRole,
						Description: "This is the support block role.",
					},
				},
			},
			{
				Name:        helpingBlockCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This sets the role for users blocked from helping in tickets. Omit the role to clear.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        roleOptName,
						Type:        discordgo.ApplicationCommandOptionRole,
						Description: "This is the helping block role.",
					},
				},
			},
			{
				Name:        msgDiscoveryCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This toggles message-link discovery.",
			},
			{
				Name:        stripButtonsCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This toggles button stripping on new tickets.",
			},
			{
				Name:        stripRolesCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This toggles community role stripping on helping blocks.",
			},
			{
				Name:        integratedCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This toggles integrated mode, where an external integration owns ticket creation.",
			},
			{
				Name:        staffRoleCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This toggles a role in the staff set.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        roleOptName,
						Type:        discordgo.ApplicationCommandOptionRole,
						Description: "This is the role to toggle.",
						Required:    true,
					},
				},
			},
			{
				Name:        observerRoleCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This toggles a role in the observer set, pinged in new staff-notes threads.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        roleOptName,
						Type:        discordgo.ApplicationCommandOptionRole,
						Description: "This is the role to toggle.",
						Required:    true,
					},
				},
			},
			{
				Name:        communityRoleCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This toggles a role in the community set, granted access to new tickets.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        roleOptName,
						Type:        discordgo.ApplicationCommandOptionRole,
						Description: "This is the role to toggle.",
						Required:    true,
					},
				},
			},
			{
				Name:        communityPingCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This toggles a role in the community ping set, pinged in new tickets.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        roleOptName,
						Type:        discordgo.ApplicationCommandOptionRole,
						Description: "This is the role to toggle.",
						Required:    true,
					},
				},
			},
			{
				Name:        creatorCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This toggles an account in the ticket-creator set, usually the originating ticket bot.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        userOptName,
						Type:        discordgo.ApplicationCommandOptionUser,
						Description: "This is the account to toggle.",
						Required:    true,
					},
				},
			},
			{
				Name:        ticketTypeCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This creates, updates or removes the ticket type for a channel-name prefix.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        prefixOptName,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the channel-name prefix.",
						Required:    true,
					},
					{
						Name:        "comping",
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Description: "Whether community ping roles are pinged.",
					},
					{
						Name:        "comaccess",
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Description: "Whether community roles are granted access.",
					},
					{
						Name:        "stripbuttons",
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Description: "Whether buttons are stripped.",
					},
					{
						Name:        "ignore",
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Description: "Whether matching channels skip the ticket workflow.",
					},
					{
						Name:        removeOptName,
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Description: "Remove the type instead.",
					},
				},
			},
			{
				Name:        viewCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This shows the guild's current configuration.",
			},
		},
	}
)

func settingsCmdController(a IApp, i *discordgo.InteractionCreate) (commandProcessor, error) {
	// Ensure the user is an administrator.
	if i.Member == nil || i.Member.Permissions&discordgo.PermissionAdministrator != discordgo.PermissionAdministrator {
		if err := respondEphemeral(a, i, "You must be an administrator to use this command"); err != nil {
			return nil, fmt.Errorf("error responding to interaction: %w", err)
		}
		return nil, nil
	}

	// Extract the sub command.
	subCmd := i.ApplicationCommandData().Options[0].Name

	switch subCmd {
	case openMsgCmdName:
		return openMsgCmdProcessor, nil
	case staffNameCmdName:
		return staffNameCmdProcessor, nil
	case firstAutocloseCmdName, anyAutocloseCmdName, warnAutocloseCmdName:
		return autocloseCmdProcessor, nil
	case supportBlockCmdName, helpingBlockCmdName:
		return blockRoleCmdProcessor, nil
	case msgDiscoveryCmdName, stripButtonsCmdName, stripRolesCmdName, integratedCmdName:
		return guildToggleCmdProcessor, nil
	case staffRoleCmdName, observerRoleCmdName, communityRoleCmdName, communityPingCmdName:
		return roleSetCmdProcessor, nil
	case creatorCmdName:
		return creatorCmdProcessor, nil
	case ticketTypeCmdName:
		return ticketTypeCmdProcessor, nil
	case viewCmdName:
		return viewCmdProcessor, nil
	default:
		return nil, fmt.Errorf("unhandled sub command %s", subCmd)
	}
}

// overLimit reports whether s exceeds max characters. Limits are counted in
// runes so multibyte input gets the full allowance.
func overLimit(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}

func openMsgCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	msg := subCommandOptions(i)[messageOptName].StringValue()
	if overLimit(msg, entities.MaxOpenMessageLen) {
		return respondEphemeral(a, i, fmt.Sprintf("The open message must be at most %d characters.", entities.MaxOpenMessageLen))
	}

	sess, err := a.Store().Session()
	if err != nil {
		return err
	}
	defer sess.Close()

	guild, err := sess.GetGuild(i.GuildID)
	if err != nil {
		return err
	}
	guild.OpenMessage = msg
	if err := sess.Save(guild); err != nil {
		return err
	}
	if err := sess.Commit(); err != nil {
		return err
	}

	return respondEphemeral(a, i, "Open message updated.")
}

func staffNameCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	name := subCommandOptions(i)[nameOptName].StringValue()
	if overLimit(name, entities.MaxStaffTeamNameLen) {
		return respondEphemeral(a, i, fmt.Sprintf("The staff team name must be at most %d characters.", entities.MaxStaffTeamNameLen))
	}

	sess, err := a.Store().Session()
	if err != nil {
		return err
	}
	defer sess.Close()

	guild, err := sess.GetGuild(i.GuildID)
	if err != nil {
		return err
	}
	guild.StaffTeamName = name
	if err := sess.Save(guild); err != nil {
		return err
	}
	if err := sess.Commit(); err != nil {
		return err
	}

	return respondEphemeral(a, i, fmt.Sprintf("Staff team name set to %q.", name))
}

func autocloseCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	subCmd := i.ApplicationCommandData().Options[0].Name

	var dur *time.Duration
	if opt, ok := subCommandOptions(i)[durationOptName]; ok {
		d, err := parseUserDuration(opt.StringValue())
		if err != nil {
			return respondEphemeral(a, i, "Invalid duration. Use the d/h/m form, e.g. 3d12h.")
		}
		dur = &d
	}

	sess, err := a.Store().Session()
	if err != nil {
		return err
	}
	defer sess.Close()

	guild, err := sess.GetGuild(i.GuildID)
	if err != nil {
		return err
	}

	var target **time.Duration
	switch subCmd {
	case firstAutocloseCmdName:
		target = &guild.FirstAutoclose
	case anyAutocloseCmdName:
		target = &guild.AnyAutoclose
	case warnAutocloseCmdName:
		target = &guild.WarnAutoclose
	default:
		return fmt.Errorf("unhandled sub command %s", subCmd)
	}

	reply := fmt.Sprintf("Disabled %s.", subCmd)
	if dur != nil {
		reply = fmt.Sprintf("Set %s to %s.", subCmd, *dur)
	}
	*target = dur

	if err := sess.Save(guild); err != nil {
		return err
	}
	if err := sess.Commit(); err != nil {
		return err
	}

	return respondEphemeral(a, i, reply)
}

func blockRoleCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	subCmd := i.ApplicationCommandData().Options[0].Name

	var roleID *string
	if opt, ok := subCommandOptions(i)[roleOptName]; ok {
		role := opt.RoleValue(a.Session(), i.GuildID)
		roleID = &role.ID
	}

	sess, err := a.Store().Session()
	if err != nil {
		return err
	}
	defer sess.Close()

	guild, err := sess.GetGuild(i.GuildID)
	if err != nil {
		return err
	}

	switch subCmd {
	case supportBlockCmdName:
		guild.SupportBlock = roleID
	case helpingBlockCmdName:
		guild.HelpingBlock = roleID
	default:
		return fmt.Errorf("unhandled sub command %s", subCmd)
	}

	if err := sess.Save(guild); err != nil {
		return err
	}
	if err := sess.Commit(); err != nil {
		return err
	}

	if roleID == nil {
		return respondEphemeral(a, i, fmt.Sprintf("Cleared the %s role.", subCmd))
	}
	return respondEphemeral(a, i, fmt.Sprintf("Set the %s role to <@&%s>.", subCmd, *roleID))
}

func guildToggleCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	subCmd := i.ApplicationCommandData().Options[0].Name

	sess, err := a.Store().Session()
	if err != nil {
		return err
	}
	defer sess.Close()

	guild, err := sess.GetGuild(i.GuildID)
	if err != nil {
		return err
	}

	var state bool
	switch subCmd {
	case msgDiscoveryCmdName:
		guild.MsgDiscovery = !guild.MsgDiscovery
		state = guild.MsgDiscovery
	case stripButtonsCmdName:
		guild.StripButtons = !guild.StripButtons
		state = guild.StripButtons
	case stripRolesCmdName:
		guild.StripRoles = !guild.StripRoles
		state = guild.StripRoles
	case integratedCmdName:
		guild.Integrated = !guild.Integrated
		state = guild.Integrated
	default:
		return fmt.Errorf("unhandled sub command %s", subCmd)
	}

	if err := sess.Save(guild); err != nil {
		return err
	}
	if err := sess.Commit(); err != nil {
		return err
	}

	word := "disabled"
	if state {
		word = "enabled"
	}
	return respondEphemeral(a, i, fmt.Sprintf("%s is now %s.", subCmd, word))
}

func roleSetCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	subCmd := i.ApplicationCommandData().Options[0].Name
	role := subCommandOptions(i)[roleOptName].RoleValue(a.Session(), i.GuildID)

	sess, err := a.Store().Session()
	if err != nil {
		return err
	}
	defer sess.Close()

	var present bool
	switch subCmd {
	case staffRoleCmdName:
		present, err = dataaccess.Toggle(sess, func(s *dataaccess.Session) (bool, *entities.StaffRole, error) {
			return s.GetStaffRole(role.ID, i.GuildID)
		})
	case observerRoleCmdName:
		present, err = dataaccess.Toggle(sess, func(s *dataaccess.Session) (bool, *entities.ObserverRole, error) {
			return s.GetObserverRole(role.ID, i.GuildID)
		})
	case communityRoleCmdName:
		present, err = dataaccess.Toggle(sess, func(s *dataaccess.Session) (bool, *entities.CommunityRole, error) {
			return s.GetCommunityRole(role.ID, i.GuildID)
		})
	case communityPingCmdName:
		present, err = dataaccess.Toggle(sess, func(s *dataaccess.Session) (bool, *entities.CommunityPingRole, error) {
			return s.GetCommunityPingRole(role.ID, i.GuildID)
		})
	default:
		return fmt.Errorf("unhandled sub command %s", subCmd)
	}
	if err != nil {
		return err
	}
	if err := sess.Commit(); err != nil {
		return err
	}

	if present {
		return respondEphemeral(a, i, fmt.Sprintf("Added <@&%s> to the %s set.", role.ID, subCmd))
	}
	return respondEphemeral(a, i, fmt.Sprintf("Removed <@&%s> from the %s set.", role.ID, subCmd))
}

func creatorCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	user := subCommandOptions(i)[userOptName].UserValue(a.Session())

	sess, err := a.Store().Session()
	if err != nil {
		return err
	}
	defer sess.Close()

	present, err := dataaccess.Toggle(sess, func(s *dataaccess.Session) (bool, *entities.TicketCreator, error) {
		return s.GetTicketCreator(user.ID, i.GuildID)
	})
	if err != nil {
		return err
	}
	if err := sess.Commit(); err != nil {
		return err
	}

	if present {
		return respondEphemeral(a, i, fmt.Sprintf("<@%s> is now a registered ticket creator.", user.ID))
	}
	return respondEphemeral(a, i, fmt.Sprintf("<@%s> is no longer a registered ticket creator.", user.ID))
}

func ticketTypeCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	opts := subCommandOptions(i)
	prefix := opts[prefixOptName].StringValue()

	sess, err := a.Store().Session()
	if err != nil {
		return err
	}
	defer sess.Close()

	created, typ, err := sess.GetTicketType(i.GuildID, prefix)
	if err != nil {
		return err
	}

	if opt, ok := opts[removeOptName]; ok && opt.BoolValue() {
		if created {
			// Nothing existed to remove; the rollback discards the create.
			return respondEphemeral(a, i, fmt.Sprintf("No ticket type exists for prefix %q.", prefix))
		}
		if err := sess.Delete(typ); err != nil {
			return err
		}
		if err := sess.Commit(); err != nil {
			return err
		}
		return respondEphemeral(a, i, fmt.Sprintf("Removed the ticket type for prefix %q.", prefix))
	}

	if opt, ok := opts["comping"]; ok {
		typ.ComPing = opt.BoolValue()
	}
	if opt, ok := opts["comaccess"]; ok {
		typ.ComAccess = opt.BoolValue()
	}
	if opt, ok := opts["stripbuttons"]; ok {
		typ.StripButtons = opt.BoolValue()
	}
	if opt, ok := opts["ignore"]; ok {
		typ.Ignore = opt.BoolValue()
	}

	if err := sess.Save(typ); err != nil {
		return err
	}
	if err := sess.Commit(); err != nil {
		return err
	}

	verb := "Updated"
	if created {
		verb = "Created"
	}
	return respondEphemeral(a, i, fmt.Sprintf("%s the ticket type for prefix %q.", verb, prefix))
}

func viewCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	sess, err := a.Store().Session()
	if err != nil {
		return err
	}
	defer sess.Close()

	guild, err := sess.GetGuild(i.GuildID)
	if err != nil {
		return err
	}
	types, err := sess.ListTicketTypes(i.GuildID)
	if err != nil {
		return err
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Open message", Value: guild.OpenMessage},
		{Name: "Staff team name", Value: guild.StaffTeamName, Inline: true},
		{Name: "Message discovery", Value: onOff(guild.MsgDiscovery), Inline: true},
		{Name: "Strip buttons", Value: onOff(guild.StripButtons), Inline: true},
		{Name: "Strip roles", Value: onOff(guild.StripRoles), Inline: true},
		{Name: "Integrated", Value: onOff(guild.Integrated), Inline: true},
		{Name: "First autoclose", Value: durationOrOff(guild.FirstAutoclose), Inline: true},
		{Name: "Any autoclose", Value: durationOrOff(guild.AnyAutoclose), Inline: true},
		{Name: "Warn autoclose", Value: durationOrOff(guild.WarnAutoclose), Inline: true},
		{Name: "Support block", Value: roleOrNone(guild.SupportBlock), Inline: true},
		{Name: "Helping block", Value: roleOrNone(guild.HelpingBlock), Inline: true},
	}

	if len(types) > 0 {
		prefixes := make([]string, 0, len(types))
		for _, t := range types {
			prefixes = append(prefixes, t.Prefix)
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Ticket types",
			Value: strings.Join(prefixes, ", "),
		})
	}

	return respondEmbedEphemeral(a, i, &discordgo.MessageEmbed{
		Title:  "Guild configuration",
		Fields: fields,
	})
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func durationOrOff(d *time.Duration) string {
	if d == nil {
		return "off"
	}
	return d.String()
}

func roleOrNone(roleID *string) string {
	if roleID == nil {
		return "none"
	}
	return fmt.Sprintf("<@&%s>", *roleID)
}
