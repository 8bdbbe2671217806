package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/stretchr/testify/require"
)

func TestApplyPenalty_SupportBlock(t *testing.T) {
	store, platform, engine := newTestEnv(t)
	platform.guildNames["guild-1"] = "Test Guild"

	setup := newSession(t, store)
	guild, err := setup.GetGuild("guild-1")
	require.NoError(t, err)
	guild.SupportBlock = strPtr("role-support")
	require.NoError(t, setup.Save(guild))
	require.NoError(t, setup.Commit())

	till := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)

	sess := newSession(t, store)
	err = engine.ApplyPenalty(context.Background(), sess, "guild-1", "user-1", entities.StatusSupportBlocked, &till)
	require.NoError(t, err)

	require.Equal(t, [][3]string{{"guild-1", "user-1", "role-support"}}, platform.rolesAdded)

	require.Len(t, platform.dms["user-1"], 1)
	require.Contains(t, platform.dms["user-1"][0], "blocked from opening tickets")
	require.Contains(t, platform.dms["user-1"][0], "Test Guild")
	require.Contains(t, platform.dms["user-1"][0], "<t:")

	check := newSession(t, store)
	member, err := check.GetMember("user-1", "guild-1")
	require.NoError(t, err)
	require.Equal(t, entities.StatusSupportBlocked, member.Status)
	require.NotNil(t, member.StatusTill)
	require.Equal(t, till.Unix(), member.StatusTill.Unix())
}

func TestApplyPenalty_HelpingBlockStripsCommunityRoles(t *testing.T) {
	store, platform, engine := newTestEnv(t)

	setup := newSession(t, store)
	guild, err := setup.GetGuild("guild-1")
	require.NoError(t, err)
	guild.HelpingBlock = strPtr("role-helping")
	guild.StripRoles = true
	require.NoError(t, setup.Save(guild))
	_, _, err = setup.GetCommunityRole("role-com", "guild-1")
	require.NoError(t, err)
	require.NoError(t, setup.Commit())

	// The member holds one community role and one unrelated role.
	platform.memberRoles["guild-1/user-1"] = []string{"role-com", "role-other"}

	sess := newSession(t, store)
	err = engine.ApplyPenalty(context.Background(), sess, "guild-1", "user-1", entities.StatusHelpingBlocked, nil)
	require.NoError(t, err)

	require.Equal(t, [][3]string{{"guild-1", "user-1", "role-helping"}}, platform.rolesAdded)
	require.Equal(t, [][3]string{{"guild-1", "user-1", "role-com"}}, platform.rolesRemoved)

	require.Len(t, platform.dms["user-1"], 1)
	require.Contains(t, platform.dms["user-1"][0], "blocked from helping")
	require.NotContains(t, platform.dms["user-1"][0], "<t:")
}

func TestApplyPenalty_NoRoleConfigured(t *testing.T) {
	store, platform, engine := newTestEnv(t)

	sess := newSession(t, store)
	err := engine.ApplyPenalty(context.Background(), sess, "guild-1", "user-1", entities.StatusSupportBlocked, nil)
	require.Error(t, err)
	require.True(t, IsUsageError(err))

	require.Empty(t, platform.rolesAdded)
	require.Empty(t, platform.dms)
}

func TestLiftPenalty(t *testing.T) {
	store, platform, engine := newTestEnv(t)
	platform.guildNames["guild-1"] = "Test Guild"

	setup := newSession(t, store)
	guild, err := setup.GetGuild("guild-1")
	require.NoError(t, err)
	guild.SupportBlock = strPtr("role-support")
	guild.HelpingBlock = strPtr("role-helping")
	require.NoError(t, setup.Save(guild))
	member, err := setup.GetMember("user-1", "guild-1")
	require.NoError(t, err)
	member.Status = entities.StatusSupportBlocked
	require.NoError(t, setup.Save(member))
	require.NoError(t, setup.Commit())

	sess := newSession(t, store)
	err = engine.LiftPenalty(context.Background(), sess, "guild-1", "user-1")
	require.NoError(t, err)

	// Both block roles come off, not just the one matching the status.
	require.ElementsMatch(t, [][3]string{
		{"guild-1", "user-1", "role-support"},
		{"guild-1", "user-1", "role-helping"},
	}, platform.rolesRemoved)

	require.Len(t, platform.dms["user-1"], 1)
	require.Contains(t, platform.dms["user-1"][0], "lifted")

	check := newSession(t, store)
	got, err := check.GetMember("user-1", "guild-1")
	require.NoError(t, err)
	require.Equal(t, entities.StatusNone, got.Status)
	require.Nil(t, got.StatusTill)
}

func TestLiftPenalty_NoPenalty(t *testing.T) {
	store, platform, engine := newTestEnv(t)

	sess := newSession(t, store)
	err := engine.LiftPenalty(context.Background(), sess, "guild-1", "user-1")
	require.Error(t, err)
	require.True(t, IsUsageError(err))
	require.Empty(t, platform.dms)
}
