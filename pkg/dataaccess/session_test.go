package dataaccess

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/stretchr/testify/require"
)

// testStoreSeq gives every test store its own named in-memory database. A
// plain ":memory:" DSN hands each pooled connection a separate empty
// database, so a second session would not see the migrated schema.
var testStoreSeq atomic.Int64

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Connect(fmt.Sprintf("file:dataaccess_test_%d?mode=memory&cache=shared", testStoreSeq.Add(1)))
	require.NoError(t, err, "Failed to open test store")
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func newTestSession(t *testing.T, store *Store) *Session {
	t.Helper()

	sess, err := store.Session()
	require.NoError(t, err, "Failed to open session")
	t.Cleanup(sess.Close)
	return sess
}

func strPtr(s string) *string { return &s }

func durPtr(d time.Duration) *time.Duration { return &d }

func TestGetGuild_Defaults(t *testing.T) {
	store := newTestStore(t)
	sess := newTestSession(t, store)

	guild, err := sess.GetGuild("100")
	require.NoError(t, err)
	require.Equal(t, "100", guild.ID)
	require.Equal(t, entities.DefaultOpenMessage, guild.OpenMessage)
	require.Equal(t, entities.DefaultStaffTeamName, guild.StaffTeamName)
	require.True(t, guild.MsgDiscovery)
	require.False(t, guild.StripButtons)
	require.Nil(t, guild.FirstAutoclose)

	// A second lookup returns the same staged row, not a fresh default.
	guild.StaffTeamName = "Mod Squad"
	require.NoError(t, sess.Save(guild))
	again, err := sess.GetGuild("100")
	require.NoError(t, err)
	require.Equal(t, "Mod Squad", again.StaffTeamName)
}

func TestGetTicket_Idempotent(t *testing.T) {
	store := newTestStore(t)
	sess := newTestSession(t, store)

	created, ticket, err := sess.GetTicket("500", "100", strPtr("42"), strPtr("501"))
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "500", ticket.ChannelID)
	require.Equal(t, "100", ticket.GuildID)
	require.Equal(t, "42", *ticket.UserID)
	require.Equal(t, "501", *ticket.StaffNoteThread)
	require.NoError(t, sess.Commit())

	// Every subsequent call reports not-created and the original fields
	// persist unchanged, even with different arguments.
	sess2 := newTestSession(t, store)
	created, ticket, err = sess2.GetTicket("500", "100", strPtr("99"), nil)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, "42", *ticket.UserID)
	require.Equal(t, "501", *ticket.StaffNoteThread)
}

func TestFetchTicket_NoCreate(t *testing.T) {
	store := newTestStore(t)
	sess := newTestSession(t, store)

	ticket, err := sess.FetchTicket("404")
	require.NoError(t, err)
	require.Nil(t, ticket)
}

func TestSession_CloseWithoutCommitDiscards(t *testing.T) {
	store := newTestStore(t)

	sess := newTestSession(t, store)
	created, _, err := sess.GetTicket("500", "100", nil, nil)
	require.NoError(t, err)
	require.True(t, created)
	sess.Close()

	sess2 := newTestSession(t, store)
	ticket, err := sess2.FetchTicket("500")
	require.NoError(t, err)
	require.Nil(t, ticket, "uncommitted ticket must be discarded")
}

func TestToggle_Symmetry(t *testing.T) {
	store := newTestStore(t)

	flip := func() bool {
		sess := newTestSession(t, store)
		present, err := Toggle(sess, func(s *Session) (bool, *entities.StaffRole, error) {
			return s.GetStaffRole("900", "100")
		})
		require.NoError(t, err)
		require.NoError(t, sess.Commit())
		return present
	}

	count := func() int {
		sess := newTestSession(t, store)
		// Release the read transaction before the next flip; an open
		// shared-cache session blocks writes from other connections.
		defer sess.Close()
		roles, err := sess.GetAllStaffRoles("100")
		require.NoError(t, err)
		return len(roles)
	}

	require.True(t, flip(), "first toggle adds")
	require.Equal(t, 1, count())
	require.False(t, flip(), "second toggle removes")
	require.Equal(t, 0, count())

	// An odd number of flips leaves the entity present.
	require.True(t, flip())
	require.Equal(t, 1, count())
}

func TestTicketCreatorToggleAndCheck(t *testing.T) {
	store := newTestStore(t)
	sess := newTestSession(t, store)

	ok, err := sess.CheckTicketCreator("42", "100")
	require.NoError(t, err)
	require.False(t, ok)

	created, _, err := sess.GetTicketCreator("42", "100")
	require.NoError(t, err)
	require.True(t, created)

	ok, err = sess.CheckTicketCreator("42", "100")
	require.NoError(t, err)
	require.True(t, ok)

	// Same user in another guild is a separate entry.
	ok, err = sess.CheckTicketCreator("42", "200")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestExpiredMembers(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().UTC()

	sess := newTestSession(t, store)

	expired, err := sess.GetMember("1", "100")
	require.NoError(t, err)
	expired.Status = entities.StatusSupportBlocked
	till := now.Add(-time.Minute)
	expired.StatusTill = &till
	require.NoError(t, sess.Save(expired))

	active, err := sess.GetMember("2", "100")
	require.NoError(t, err)
	active.Status = entities.StatusHelpingBlocked
	future := now.Add(time.Hour)
	active.StatusTill = &future
	require.NoError(t, sess.Save(active))

	indefinite, err := sess.GetMember("3", "100")
	require.NoError(t, err)
	indefinite.Status = entities.StatusSupportBlocked
	require.NoError(t, sess.Save(indefinite))

	require.NoError(t, sess.Commit())

	sess2 := newTestSession(t, store)
	members, err := sess2.ExpiredMembers(now)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, "1", members[0].UserID)
}

func TestPendingTickets(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().UTC()

	sess := newTestSession(t, store)

	guild, err := sess.GetGuild("100")
	require.NoError(t, err)
	guild.WarnAutoclose = durPtr(time.Hour)
	require.NoError(t, sess.Save(guild))

	// Guild without a warn duration; its tickets are never pending.
	_, err = sess.GetGuild("200")
	require.NoError(t, err)

	_, stale, err := sess.GetTicket("500", "100", strPtr("42"), nil)
	require.NoError(t, err)
	stale.LastResponse = now.Add(-2 * time.Hour)
	require.NoError(t, sess.Save(stale))

	_, fresh, err := sess.GetTicket("501", "100", nil, nil)
	require.NoError(t, err)
	fresh.LastResponse = now.Add(-time.Minute)
	require.NoError(t, sess.Save(fresh))

	_, notified, err := sess.GetTicket("502", "100", nil, nil)
	require.NoError(t, err)
	notified.LastResponse = now.Add(-2 * time.Hour)
	notified.Notified = true
	require.NoError(t, sess.Save(notified))

	_, other, err := sess.GetTicket("503", "200", nil, nil)
	require.NoError(t, err)
	other.LastResponse = now.Add(-48 * time.Hour)
	require.NoError(t, sess.Save(other))

	require.NoError(t, sess.Commit())

	sess2 := newTestSession(t, store)
	tickets, err := sess2.PendingTickets(now)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	require.Equal(t, "500", tickets[0].ChannelID)
	require.NotNil(t, tickets[0].Guild)
	require.Equal(t, time.Hour, *tickets[0].Guild.WarnAutoclose)
}

func TestTagsAndTicketTypes(t *testing.T) {
	store := newTestStore(t)
	sess := newTestSession(t, store)

	created, tag, err := sess.GetTag("100", "faq")
	require.NoError(t, err)
	require.True(t, created)
	tag.Content = "Read the pinned message."
	require.NoError(t, sess.Save(tag))
	require.False(t, tag.Rich())

	tag.Title = "FAQ"
	require.NoError(t, sess.Save(tag))
	require.True(t, tag.Rich())

	created, tt, err := sess.GetTicketType("100", "bug")
	require.NoError(t, err)
	require.True(t, created)
	tt.Ignore = true
	require.NoError(t, sess.Save(tt))

	types, err := sess.ListTicketTypes("100")
	require.NoError(t, err)
	require.Len(t, types, 1)
	require.True(t, types[0].Ignore)

	tags, err := sess.ListTags("100")
	require.NoError(t, err)
	require.Len(t, tags, 1)
}
