package workflow

import (
	"testing"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/stretchr/testify/require"
)

func TestParseMessageLink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		text      string
		guildID   string
		channelID string
		messageID string
		ok        bool
	}{
		{
			name:      "plain link",
			text:      "https://discord.com/channels/111/222/333",
			guildID:   "111",
			channelID: "222",
			messageID: "333",
			ok:        true,
		},
		{
			name:      "canary link inside text",
			text:      "see https://canary.discord.com/channels/1/2/3 for context",
			guildID:   "1",
			channelID: "2",
			messageID: "3",
			ok:        true,
		},
		{
			name: "no link",
			text: "nothing to see here",
		},
		{
			name: "channel link without message",
			text: "https://discord.com/channels/111/222",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			guildID, channelID, messageID, ok := ParseMessageLink(test.text)
			require.Equal(t, test.ok, ok)
			require.Equal(t, test.guildID, guildID)
			require.Equal(t, test.channelID, channelID)
			require.Equal(t, test.messageID, messageID)
		})
	}
}

func TestDiscoveryEmbed_QuotesContent(t *testing.T) {
	t.Parallel()

	emd := discoveryEmbed(&Message{
		ChannelName: "general",
		AuthorName:  "someone",
		AuthorIcon:  "https://cdn.example/icon.png",
		Content:     "hello there",
		Attachments: []string{"https://cdn.example/pic.png"},
		Timestamp:   time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC),
	})

	require.Equal(t, "hello there", emd.Description)
	require.Equal(t, discoveryColor, emd.Color)
	require.Equal(t, "Sent in general at 01/03/2024 12:30:45", emd.Footer.Text)
	require.Equal(t, "someone", emd.Author.Name)
	require.Equal(t, "https://cdn.example/pic.png", emd.Image.URL)
}

func TestDiscoveryEmbed_ReusesRichEmbed(t *testing.T) {
	t.Parallel()

	original := &discordgo.MessageEmbed{Title: "announcement", Description: "big news"}
	emd := discoveryEmbed(&Message{
		ChannelName: "news",
		AuthorName:  "someone",
		Embeds:      []*discordgo.MessageEmbed{original},
		Timestamp:   time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC),
	})

	require.Equal(t, "announcement", emd.Title)
	require.Equal(t, "big news", emd.Description)
	require.Equal(t, "[EMBED CAPTURED] Sent in news at 01/03/2024 12:30:45", emd.Footer.Text)
}
