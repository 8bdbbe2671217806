package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/warden/pkg/workflow"
)

const (
	// tagCmdName is the command for guild tags.
	tagCmdName = "tag"

	getCmdName    = "get"
	setCmdName    = "set"
	deleteCmdName = "delete"
	listCmdName   = "list"

	contentOptName = "content"
	titleOptName   = "title"
	urlOptName     = "url"
	colorOptName   = "color"
	footerOptName  = "footer"
	imageOptName   = "image"
	thumbOptName   = "thumbnail"
	authorOptName  = "author"
)

var (
	// tagCmd is the command for guild tags.
	tagCmd = &discordgo.ApplicationCommand{
		Name:        tagCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "This is the command for guild tags.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        getCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This sends a tag to the channel.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        nameOptName,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the tag's name.",
						Required:    true,
					},
				},
			},
			{
				Name:        setCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This creates or updates a tag. A tag with a title renders as an embed.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        nameOptName,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the tag's name.",
						Required:    true,
					},
					{
						Name:        contentOptName,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the tag's body.",
						Required:    true,
					},
					{
						Name:        titleOptName,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the embed title.",
					},
					{
						Name:        urlOptName,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the embed title URL.",
					},
					{
						Name:        colorOptName,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the embed accent colour as hex, e.g. 0D0EB4.",
					},
					{
						Name:        footerOptName,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the embed footer.",
					},
					{
						Name:        imageOptName,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the embed image URL.",
					},
					{
						Name:        thumbOptName,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the embed thumbnail URL.",
					},
					{
						Name:        authorOptName,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the embed author line.",
					},
				},
			},
			{
				Name:        deleteCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This deletes a tag.",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        nameOptName,
						Type:        discordgo.ApplicationCommandOptionString,
						Description: "This is the tag's name.",
						Required:    true,
					},
				},
			},
			{
				Name:        listCmdName,
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Description: "This lists the guild's tags.",
			},
		},
	}
)

func tagCmdController(a IApp, i *discordgo.InteractionCreate) (commandProcessor, error) {
	// Extract the sub command.
	subCmd := i.ApplicationCommandData().Options[0].Name

	// Reading tags is open to everyone; writing them is staff only.
	switch subCmd {
	case getCmdName:
		return tagGetCmdProcessor, nil
	case listCmdName:
		return tagListCmdProcessor, nil
	}

	sess, err := a.Store().Session()
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	ownerIDs := a.Engine().Config().OwnerIDs
	if err := workflow.CheckStaff(sess, ownerIDs, i.GuildID, invokerID(i), memberRoles(i)); err != nil {
		if errors.Is(err, workflow.ErrForbidden) {
			if err := respondEphemeral(a, i, "You must be staff to manage tags"); err != nil {
				return nil, fmt.Errorf("error responding to interaction: %w", err)
			}
			return nil, nil
		}
		return nil, err
	}

	switch subCmd {
	case setCmdName:
		return tagSetCmdProcessor, nil
	case deleteCmdName:
		return tagDeleteCmdProcessor, nil
	default:
		return nil, fmt.Errorf("unhandled sub command %s", subCmd)
	}
}

func tagGetCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	name := strings.ToLower(subCommandOptions(i)[nameOptName].StringValue())

	sess, err := a.Store().Session()
	if err != nil {
		return err
	}
	defer sess.Close()

	tag, err := sess.FetchTag(i.GuildID, name)
	if err != nil {
		return err
	}
	if tag == nil {
		return respondEphemeral(a, i, fmt.Sprintf("No tag named %q exists.", name))
	}

	if !tag.Rich() {
		return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: tag.Content,
			},
		})
	}

	embed := &discordgo.MessageEmbed{
		Title:       tag.Title,
		URL:         tag.URL,
		Description: tag.Content,
		Color:       tag.Color,
	}
	if tag.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: tag.Footer}
	}
	if tag.Image != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: tag.Image}
	}
	if tag.Thumbnail != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: tag.Thumbnail}
	}
	if tag.Author != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{Name: tag.Author}
	}

	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func tagSetCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	opts := subCommandOptions(i)
	name := strings.ToLower(opts[nameOptName].StringValue())

	sess, err := a.Store().Session()
	if err != nil {
		return err
	}
	defer sess.Close()

	created, tag, err := sess.GetTag(i.GuildID, name)
	if err != nil {
		return err
	}

	tag.Content = opts[contentOptName].StringValue()
	tag.Title = optString(opts, titleOptName)
	tag.URL = optString(opts, urlOptName)
	tag.Footer = optString(opts, footerOptName)
	tag.Image = optString(opts, imageOptName)
	tag.Thumbnail = optString(opts, thumbOptName)
	tag.Author = optString(opts, authorOptName)

	if raw := optString(opts, colorOptName); raw != "" {
		color, err := strconv.ParseInt(strings.TrimPrefix(raw, "#"), 16, 32)
		if err != nil {
			return respondEphemeral(a, i, "Invalid colour. Use hex, e.g. 0D0EB4.")
		}
		tag.Color = int(color)
	}

	if err := sess.Save(tag); err != nil {
		return err
	}
	if err := sess.Commit(); err != nil {
		return err
	}

	verb := "Updated"
	if created {
		verb = "Created"
	}
	return respondEphemeral(a, i, fmt.Sprintf("%s tag %q.", verb, name))
}

func tagDeleteCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	name := strings.ToLower(subCommandOptions(i)[nameOptName].StringValue())

	sess, err := a.Store().Session()
	if err != nil {
		return err
	}
	defer sess.Close()

	tag, err := sess.FetchTag(i.GuildID, name)
	if err != nil {
		return err
	}
	if tag == nil {
		return respondEphemeral(a, i, fmt.Sprintf("No tag named %q exists.", name))
	}

	if err := sess.Delete(tag); err != nil {
		return err
	}
	if err := sess.Commit(); err != nil {
		return err
	}

	return respondEphemeral(a, i, fmt.Sprintf("Deleted tag %q.", name))
}

func tagListCmdProcessor(a IApp, i *discordgo.InteractionCreate) error {
	sess, err := a.Store().Session()
	if err != nil {
		return err
	}
	defer sess.Close()

	tags, err := sess.ListTags(i.GuildID)
	if err != nil {
		return err
	}
	if len(tags) == 0 {
		return respondEphemeral(a, i, "This guild has no tags.")
	}

	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	return respondEphemeral(a, i, "Tags: "+strings.Join(names, ", "))
}

func optString(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := opts[name]; ok {
		return opt.StringValue()
	}
	return ""
}
