package workflow

import (
	"fmt"
	"strings"
	"time"
)

// synthesizeTopic builds the ticket channel topic: name, creation time,
// opener when known, and the auto-close deadline marker when one applies.
func synthesizeTopic(channelName string, created time.Time, opener *string, deadline *time.Time) string {
	parts := []string{
		fmt.Sprintf("Ticket %s", channelName),
		"Opened " + created.UTC().Format("2006-01-02 15:04 UTC"),
	}
	if opener != nil {
		parts = append(parts, fmt.Sprintf("Opened by <@%s>", *opener))
	}
	if deadline != nil {
		parts = append(parts,
			fmt.Sprintf("Closes <t:%d:R> unless there is a response", deadline.Unix()))
	}
	return strings.Join(parts, " | ")
}
