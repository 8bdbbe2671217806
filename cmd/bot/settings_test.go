package main

import (
	"strings"
	"testing"

	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/stretchr/testify/require"
)

func TestOverLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		s    string
		max  int
		want bool
	}{
		{
			name: "under",
			s:    "hello",
			max:  10,
			want: false,
		},
		{
			name: "at limit",
			s:    strings.Repeat("a", entities.MaxStaffTeamNameLen),
			max:  entities.MaxStaffTeamNameLen,
			want: false,
		},
		{
			name: "over",
			s:    strings.Repeat("a", entities.MaxStaffTeamNameLen+1),
			max:  entities.MaxStaffTeamNameLen,
			want: true,
		},
		{
			name: "multibyte at limit",
			s:    strings.Repeat("é", entities.MaxOpenMessageLen),
			max:  entities.MaxOpenMessageLen,
			want: false,
		},
		{
			name: "multibyte over",
			s:    strings.Repeat("é", entities.MaxOpenMessageLen+1),
			max:  entities.MaxOpenMessageLen,
			want: true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, test.want, overLimit(test.s, test.max))
		})
	}
}
