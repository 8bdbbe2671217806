package workflow

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/dataaccess"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/stretchr/testify/require"
)

func newTestSweeper(t *testing.T, now time.Time) (*dataaccess.Store, *fakePlatform, *Sweeper) {
	t.Helper()

	store := newTestStore(t)
	platform := newFakePlatform()
	sweeper := NewSweeper(slog.Default(), store, platform, Config{})
	sweeper.now = func() time.Time { return now }
	return store, platform, sweeper
}

func TestSweepPenalties_LiftsExpired(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store, platform, sweeper := newTestSweeper(t, now)
	platform.knownMembers["guild-1/user-1"] = true

	setup := newSession(t, store)
	guild, err := setup.GetGuild("guild-1")
	require.NoError(t, err)
	guild.SupportBlock = strPtr("role-support")
	guild.HelpingBlock = strPtr("role-helping")
	require.NoError(t, setup.Save(guild))
	member, err := setup.GetMember("user-1", "guild-1")
	require.NoError(t, err)
	till := now.Add(-time.Minute)
	member.Status = entities.StatusSupportBlocked
	member.StatusTill = &till
	require.NoError(t, setup.Save(member))
	require.NoError(t, setup.Commit())

	require.NoError(t, sweeper.SweepPenalties(context.Background()))

	// Both penalty roles come off regardless of which status was set.
	require.ElementsMatch(t, [][3]string{
		{"guild-1", "user-1", "role-support"},
		{"guild-1", "user-1", "role-helping"},
	}, platform.rolesRemoved)

	check := newSession(t, store)
	member, err = check.GetMember("user-1", "guild-1")
	require.NoError(t, err)
	require.Equal(t, entities.StatusNone, member.Status)
	require.Nil(t, member.StatusTill)
}

func TestSweepPenalties_FuturePenaltyUntouched(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store, platform, sweeper := newTestSweeper(t, now)
	platform.knownMembers["guild-1/user-1"] = true

	setup := newSession(t, store)
	member, err := setup.GetMember("user-1", "guild-1")
	require.NoError(t, err)
	till := now.Add(time.Hour)
	member.Status = entities.StatusHelpingBlocked
	member.StatusTill = &till
	require.NoError(t, setup.Save(member))
	require.NoError(t, setup.Commit())

	require.NoError(t, sweeper.SweepPenalties(context.Background()))
	require.Empty(t, platform.rolesRemoved)

	check := newSession(t, store)
	member, err = check.GetMember("user-1", "guild-1")
	require.NoError(t, err)
	require.Equal(t, entities.StatusHelpingBlocked, member.Status)
}

func TestSweepPenalties_UnresolvableMemberSkipped(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store, platform, sweeper := newTestSweeper(t, now)

	setup := newSession(t, store)
	member, err := setup.GetMember("user-1", "guild-1")
	require.NoError(t, err)
	till := now.Add(-time.Minute)
	member.Status = entities.StatusSupportBlocked
	member.StatusTill = &till
	require.NoError(t, setup.Save(member))
	require.NoError(t, setup.Commit())

	require.NoError(t, sweeper.SweepPenalties(context.Background()))
	require.Empty(t, platform.rolesRemoved)

	// The penalty stays on the books for a later sweep.
	check := newSession(t, store)
	member, err = check.GetMember("user-1", "guild-1")
	require.NoError(t, err)
	require.Equal(t, entities.StatusSupportBlocked, member.Status)
}

func TestSweepStaleTickets_WarnsOnce(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store, platform, sweeper := newTestSweeper(t, now)
	platform.guildNames["guild-1"] = "Test Guild"

	setup := newSession(t, store)
	guild, err := setup.GetGuild("guild-1")
	require.NoError(t, err)
	warn := time.Hour
	anyClose := 2 * time.Hour
	guild.WarnAutoclose = &warn
	guild.AnyAutoclose = &anyClose
	require.NoError(t, setup.Save(guild))
	_, ticket, err := setup.GetTicket("chan-1", "guild-1", strPtr("opener-1"), nil)
	require.NoError(t, err)
	ticket.LastResponse = now.Add(-2 * time.Hour)
	require.NoError(t, setup.Save(ticket))
	require.NoError(t, setup.Commit())

	require.NoError(t, sweeper.SweepStaleTickets(context.Background()))

	require.Len(t, platform.dms["opener-1"], 1)
	require.Contains(t, platform.dms["opener-1"][0], "<#chan-1>")
	require.Contains(t, platform.dms["opener-1"][0], "Test Guild")
	require.Contains(t, platform.dms["opener-1"][0], "<t:")

	check := newSession(t, store)
	ticket, err = check.FetchTicket("chan-1")
	require.NoError(t, err)
	require.True(t, ticket.Notified)

	// A second sweep finds nothing to warn.
	require.NoError(t, sweeper.SweepStaleTickets(context.Background()))
	require.Len(t, platform.dms["opener-1"], 1)
}

func TestSweepStaleTickets_ActiveTicketUntouched(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store, platform, sweeper := newTestSweeper(t, now)

	setup := newSession(t, store)
	guild, err := setup.GetGuild("guild-1")
	require.NoError(t, err)
	warn := time.Hour
	guild.WarnAutoclose = &warn
	require.NoError(t, setup.Save(guild))
	_, ticket, err := setup.GetTicket("chan-1", "guild-1", strPtr("opener-1"), nil)
	require.NoError(t, err)
	ticket.LastResponse = now.Add(-time.Minute)
	require.NoError(t, setup.Save(ticket))
	require.NoError(t, setup.Commit())

	require.NoError(t, sweeper.SweepStaleTickets(context.Background()))
	require.Empty(t, platform.dms)

	check := newSession(t, store)
	ticket, err = check.FetchTicket("chan-1")
	require.NoError(t, err)
	require.False(t, ticket.Notified)
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	_, _, sweeper := newTestSweeper(t, now)

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx, ready)
		close(done)
	}()

	close(ready)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}
}
