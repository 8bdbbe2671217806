package workflow

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSynthesizeTopic(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)
	deadline := created.Add(2 * time.Hour)
	opener := "123456789012345678"

	tests := []struct {
		name     string
		opener   *string
		deadline *time.Time
		want     string
	}{
		{
			name: "minimal",
			want: "Ticket ticket-0001 | Opened 2024-03-01 09:15 UTC",
		},
		{
			name:   "with opener",
			opener: &opener,
			want:   "Ticket ticket-0001 | Opened 2024-03-01 09:15 UTC | Opened by <@123456789012345678>",
		},
		{
			name:     "with deadline",
			deadline: &deadline,
			want: fmt.Sprintf(
				"Ticket ticket-0001 | Opened 2024-03-01 09:15 UTC | Closes <t:%d:R> unless there is a response",
				deadline.Unix()),
		},
		{
			name:     "full",
			opener:   &opener,
			deadline: &deadline,
			want: fmt.Sprintf(
				"Ticket ticket-0001 | Opened 2024-03-01 09:15 UTC | Opened by <@123456789012345678> | Closes <t:%d:R> unless there is a response",
				deadline.Unix()),
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			got := synthesizeTopic("ticket-0001", created, test.opener, test.deadline)
			require.Equal(t, test.want, got)
		})
	}
}

func TestExpandOpenMessage(t *testing.T) {
	t.Parallel()

	got := expandOpenMessage("Staff notes for Ticket $channel.", "chan-1")
	require.Equal(t, "Staff notes for Ticket <#chan-1>.", got)

	got = expandOpenMessage("no placeholders here", "chan-1")
	require.Equal(t, "no placeholders here", got)

	got = expandOpenMessage("unknown $thing stays", "chan-1")
	require.Equal(t, "unknown $thing stays", got)
}
