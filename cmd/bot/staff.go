package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/Jacobbrewer1/warden/pkg/workflow"
)

const (
	// staffCmdName is the command for staff ticket operations.
	staffCmdName = "staff"

	respondCmdName   = "respond"
	joinCmdName      = "join"
	anonymousCmdName = "anonymous"
	registerCmdName  = "register"
	blockCmdName     = "block"
	unblockCmdName   = "unblock"

	// kindOptName selects which penalty is applied.
	kindOptName = "kind"

	kindSupport = "support"
	kindHelping = "helping"
)

var (
	// staffCmd is the command for staff ticket operations.
	staffCmd = &discordgo.ApplicationCommand{
		Name:        staffCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "This is the command for staff ticket operations.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        respondCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This responds to the ticket under the staff team name.",
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
				Name:        joinCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This adds you to the ticket's staff notes thread.",
			},
			{
				Name:        anonymousCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This toggles anonymous staff responses for the current ticket.",
			},
			{
				Name:        registerCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This registers the current channel as a ticket.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        userOptName,
						Type:        discordgo.ApplicationCommandOptionUser,
						Description: "This is the user the ticket was opened for.",
					},
				},
			},
			{
				Name:        blockCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This applies a penalty to a user.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        userOptName,
						Type:        discordgo.ApplicationCommandOptionUser,
						Description: "This is the user to penalise.",
						Required:    true,
					},
					{
						Name:        kindOptName,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the penalty to apply.",
						Required:    true,
						Choices: []*discordgo.ApplicationCommandOptionChoice{
							{Name: "Blocked from opening tickets", Value: kindSupport},
							{Name: "Blocked from helping in tickets", Value: kindHelping},
						},
					},
					{
						Name:        durationOptName,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is how long the penalty lasts, e.g. 3d12h. Omit for indefinite.",
					},
				},
			},
			{
				Name:        unblockCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This lifts a user's penalty.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        userOptName,
						Type:        discordgo.ApplicationCommandOptionUser,
						Description: "This is the user to unblock.",
						Required:    true,
					},
				},
			},
		},
	}
)

func staffCmdController(a IApp, i *discordgo.InteractionCreate) (commandProcessor, error) {
	sess, err := a.Store().Session()
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	ownerIDs := a.Engine().Config().OwnerIDs
	if err := workflow.CheckStaff(sess, ownerIDs, i.GuildID, invokerID(i), memberRoles(i)); err != nil {
		if errors.Is(err, workflow.ErrForbidden) {
			if err := respondEphemeral(a, i, "You must be staff to use this command"); err != nil {
				return nil, fmt.Errorf("error responding to interaction: %w", err)
			}
			return nil, nil
		}
		return nil, err
	}

	// Extract the sub command.
	subCmd := i.ApplicationCommandData().Options[0].Name

	switch subCmd {
	case respondCmdName:
		return respondCmdProcessor, nil
	case joinCmdName:
		return joinCmdProcessor, nil
	case anonymousCmdName:
		return anonymousCmdProcessor, nil
	case registerCmdName:
		return registerCmdProcessor, nil
	case blockCmdName:
		return blockCmdProcessor, nil
	case unblockCmdName:
		return unblockCmdProcessor, nil
	default:
		return nil, fmt.Errorf("unhandled sub command %s", subCmd)
	}
}

func respondCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	content := subCommandOptions(i)[messageOptName].StringValue()

	sess, err := a.Store().Session()
	if err != nil {
		return err
	}
	defer sess.Close()

	target := i.ChannelID
	ticket, err := sess.FetchTicket(target)
	if err != nil {
		return err
	}
	if ticket == nil {
		// The command also works from inside the staff notes thread, in
		// which case the response goes to the parent ticket channel.
		channel, chErr := a.Session().Channel(i.ChannelID)
		if chErr == nil && channel.ParentID != "" {
			target = channel.ParentID
			ticket, err = sess.FetchTicket(target)
			if err != nil {
				return err
			}
		}
	}
	if ticket == nil {
		return respondEphemeral(a, i, "This channel is not a ticket.")
	}

	guild, err := sess.GetGuild(ticket.GuildID)
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("**%s:** %s", guild.StaffTeamName, workflow.EscapeMentions(content))
	if _, err := a.Session().ChannelMessageSend(target, msg); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return respondEphemeral(a, i, "Response sent.")
}

func joinCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	sess, err := a.Store().Session()
	if err != nil {
		return err
	}
	defer sess.Close()

	ticket, err := sess.FetchTicket(i.ChannelID)
	if err != nil {
		return err
	}
	if ticket == nil {
		return respondEphemeral(a, i, "This channel is not a ticket.")
	}
	if ticket.StaffNoteThread == nil {
		return respondEphemeral(a, i, "This ticket has no staff notes thread.")
	}

	if err := a.Session().ThreadMemberAdd(*ticket.StaffNoteThread, invokerID(i)); err != nil {
		return fmt.Errorf("error adding member to thread: %w", err)
	}
	return respondEphemeral(a, i, "You have been added to the staff notes thread.")
}

func anonymousCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	sess, err := a.Store().Session()
	if err != nil {
		return err
	}
	defer sess.Close()

	on, err := a.Engine().ToggleAnonymous(context.Background(), sess, i.ChannelID)
	if err != nil {
		if workflow.IsUsageError(err) {
			return respondEphemeral(a, i, err.Error())
		}
		return err
	}

	if on {
		return respondEphemeral(a, i, "Anonymous staff responses are now enabled for this ticket.")
	}
	return respondEphemeral(a, i, "Anonymous staff responses are now disabled for this ticket.")
}

func registerCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	var opener *string
	if opt, ok := subCommandOptions(i)[userOptName]; ok {
		user := opt.UserValue(a.Session())
		opener = &user.ID
	}

	sess, err := a.Store().Session()
	if err != nil {
		return err
	}
	defer sess.Close()

	ticket, err := a.Engine().RegisterTicket(context.Background(), sess, i.GuildID, i.ChannelID, opener, nil)
	if err != nil {
		if workflow.IsUsageError(err) {
			return respondEphemeral(a, i, err.Error())
		}
		return err
	}

	a.Log().Info("Registered ticket",
		slog.String(logging.KeyGuild, ticket.GuildID),
		slog.String(logging.KeyChannel, ticket.ChannelID))
	return respondEphemeral(a, i, "This channel is now tracked as a ticket.")
}

func blockCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	opts := subCommandOptions(i)
	user := opts[userOptName].UserValue(a.Session())
	kind := opts[kindOptName].StringValue()

	var till *time.Time
	if opt, ok := opts[durationOptName]; ok {
		d, err := parseUserDuration(opt.StringValue())
		if err != nil {
			return respondEphemeral(a, i, "Invalid duration. Use the d/h/m form, e.g. 3d12h.")
		}
		t := time.Now().UTC().Add(d)
		till = &t
	}

	var status entities.PenaltyStatus
	switch kind {
	case kindSupport:
		status = entities.StatusSupportBlocked
	case kindHelping:
		status = entities.StatusHelpingBlocked
	default:
		return fmt.Errorf("unhandled penalty kind %s", kind)
	}

	sess, err := a.Store().Session()
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := a.Engine().ApplyPenalty(context.Background(), sess, i.GuildID, user.ID, status, till); err != nil {
		if workflow.IsUsageError(err) {
			return respondEphemeral(a, i, err.Error())
		}
		return err
	}

	if till != nil {
		return respondEphemeral(a, i, fmt.Sprintf("Penalised <@%s> until <t:%d:f>.", user.ID, till.Unix()))
	}
	return respondEphemeral(a, i, fmt.Sprintf("Penalised <@%s> indefinitely.", user.ID))
}

func unblockCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	user := subCommandOptions(i)[userOptName].UserValue(a.Session())

	sess, err := a.Store().Session()
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := a.Engine().LiftPenalty(context.Background(), sess, i.GuildID, user.ID); err != nil {
		if workflow.IsUsageError(err) {
			return respondEphemeral(a, i, err.Error())
		}
		return err
	}

	return respondEphemeral(a, i, fmt.Sprintf("Lifted the penalty on <@%s>.", user.ID))
}
