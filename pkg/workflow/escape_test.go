package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEscapeMentions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "everyone",
			in:   "hi @everyone",
			want: "hi @\u200beveryone",
		},
		{
			name: "here",
			in:   "@here look",
			want: "@\u200bhere look",
		},
		{
			name: "user mention",
			in:   "ping <@123456789012345678>",
			want: "ping <@\u200b123456789012345678>",
		},
		{
			name: "role mention",
			in:   "<@&123456789012345678>",
			want: "<@\u200b&123456789012345678>",
		},
		{
			name: "plain email untouched",
			in:   "mail me at user@example.com",
			want: "mail me at user@example.com",
		},
		{
			name: "short number untouched",
			in:   "@12345",
			want: "@12345",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, test.want, EscapeMentions(test.in))
		})
	}
}
