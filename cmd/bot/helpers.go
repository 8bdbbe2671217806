package main

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/Jacobbrewer1/discordgo"
)

// ErrUserErrorProcessing is the fallback reply when a command fails.
const ErrUserErrorProcessing = "There was an error processing your request. Please try again later."

func respondSlashError(a IApp, i *discordgo.InteractionCreate) error {
	return respondEphemeral(a, i, ErrUserErrorProcessing)
}

func respondEphemeral(a IApp, i *discordgo.InteractionCreate, content string) error {
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func respondEmbedEphemeral(a IApp, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}

// subCommandOptions flattens the invoked sub-command's options into a map
// keyed by option name.
func subCommandOptions(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return opts
	}
	for _, opt := range data.Options[0].Options {
		opts[opt.Name] = opt
	}
	return opts
}

// memberRoles returns the invoking member's role IDs, empty outside a guild.
func memberRoles(i *discordgo.InteractionCreate) []string {
	if i.Member == nil {
		return nil
	}
	return i.Member.Roles
}

// invokerID returns the invoking user's ID for both guild and DM contexts.
func invokerID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

var durationRegex = regexp.MustCompile(`^(?:(\d+)d)?(?:(\d+)h)?(?:(\d+)m)?$`)

// parseUserDuration parses a duration in the d/h/m form users type into
// commands, e.g. "3d12h" or "45m". Zero and the empty string are invalid.
func parseUserDuration(s string) (time.Duration, error) {
	m := durationRegex.FindStringSubmatch(s)
	if m == nil || s == "" {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	var d time.Duration
	if m[1] != "" {
		days, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, fmt.Errorf("invalid days in %q: %w", s, err)
		}
		d += time.Duration(days) * 24 * time.Hour
	}
	if m[2] != "" {
		hours, err := strconv.Atoi(m[2])
		if err != nil {
			return 0, fmt.Errorf("invalid hours in %q: %w", s, err)
		}
		d += time.Duration(hours) * time.Hour
	}
	if m[3] != "" {
		mins, err := strconv.Atoi(m[3])
		if err != nil {
			return 0, fmt.Errorf("invalid minutes in %q: %w", s, err)
		}
		d += time.Duration(mins) * time.Minute
	}

	if d == 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return d, nil
}
