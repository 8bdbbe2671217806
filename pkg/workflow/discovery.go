package workflow

import (
	"fmt"
	"regexp"

	"github.com/Jacobbrewer1/discordgo"
)

// discoveryColor is the accent colour of discovery preview embeds.
const discoveryColor = 0x0D0EB4

// permalinkRegex matches discord message permalinks.
var permalinkRegex = regexp.MustCompile(
	`https://(?:canary\.)?discord\.com/channels/(?P<srv>\d+)/(?P<cha>\d+)/(?P<msg>\d+)`)

// ParseMessageLink extracts the guild, channel and message IDs from the first
// message permalink in text. ok is false when no link is present.
func ParseMessageLink(text string) (guildID, channelID, messageID string, ok bool) {
	m := permalinkRegex.FindStringSubmatch(text)
	if m == nil {
		return "", "", "", false
	}
	return m[1], m[2], m[3], true
}

// discoveryEmbed builds the preview for a discovered message. A message with
// no text but a rich embed has that embed reused, annotated as captured;
// otherwise the content is quoted.
func discoveryEmbed(msg *Message) *discordgo.MessageEmbed {
	when := msg.Timestamp.UTC().Format("02/01/2006 15:04:05")

	var emd *discordgo.MessageEmbed
	if msg.Content == "" && len(msg.Embeds) > 0 {
		emd = msg.Embeds[0]
		emd.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("[EMBED CAPTURED] Sent in %s at %s", msg.ChannelName, when),
		}
	} else {
		emd = &discordgo.MessageEmbed{
			Description: msg.Content,
			Color:       discoveryColor,
			Footer: &discordgo.MessageEmbedFooter{
				Text: fmt.Sprintf("Sent in %s at %s", msg.ChannelName, when),
			},
		}
	}

	emd.Author = &discordgo.MessageEmbedAuthor{
		Name:    msg.AuthorName,
		IconURL: msg.AuthorIcon,
	}
	if len(msg.Attachments) > 0 {
		emd.Image = &discordgo.MessageEmbedImage{URL: msg.Attachments[0]}
	}
	return emd
}
