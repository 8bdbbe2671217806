package workflow

import (
	"strings"

	"github.com/Jacobbrewer1/warden/pkg/entities"
)

// MatchTicketType picks the ticket type whose prefix matches the channel
// name. The longest matching prefix wins, so the result is independent of
// registration order; prefixes are unique per guild, so ties cannot occur.
// Falls back to the built-in default preset when nothing matches.
func MatchTicketType(guildID, channelName string, types []*entities.TicketType) *entities.TicketType {
	var best *entities.TicketType
	for _, t := range types {
		if !strings.HasPrefix(channelName, t.Prefix) {
			continue
		}
		if best == nil || len(t.Prefix) > len(best.Prefix) {
			best = t
		}
	}
	if best == nil {
		return entities.DefaultTicketType(guildID)
	}
	return best
}
