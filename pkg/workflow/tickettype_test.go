package workflow

import (
	"testing"

	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/stretchr/testify/require"
)

func TestMatchTicketType(t *testing.T) {
	t.Parallel()

	short := &entities.TicketType{GuildID: "g", Prefix: "ticket", ComPing: true}
	long := &entities.TicketType{GuildID: "g", Prefix: "ticket-vip", Ignore: true}

	tests := []struct {
		name  string
		types []*entities.TicketType
		want  *entities.TicketType
	}{
		{
			name:  "longest prefix wins",
			types: []*entities.TicketType{short, long},
			want:  long,
		},
		{
			name:  "registration order is irrelevant",
			types: []*entities.TicketType{long, short},
			want:  long,
		},
		{
			name:  "single match",
			types: []*entities.TicketType{short},
			want:  short,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			got := MatchTicketType("g", "ticket-vip-0001", test.types)
			require.Equal(t, test.want, got)
		})
	}
}

func TestMatchTicketType_NoMatchFallsBackToDefault(t *testing.T) {
	t.Parallel()

	types := []*entities.TicketType{
		{GuildID: "g", Prefix: "appeal", Ignore: true},
	}
	got := MatchTicketType("g", "ticket-0001", types)
	require.Equal(t, entities.DefaultTicketType("g"), got)
	require.False(t, got.Ignore)
	require.True(t, got.ComPing)
	require.True(t, got.ComAccess)
}
