package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/warden/pkg/dataaccess"
	"github.com/Jacobbrewer1/warden/pkg/workflow"
	"github.com/stretchr/testify/require"
)

// stubPlatform satisfies the workflow contract for handler tests. Only the
// calls the ingest path makes are meaningful.
type stubPlatform struct{}

func (stubPlatform) CreateThread(context.Context, string, string, time.Duration) (string, error) {
	return "thread-1", nil
}

func (stubPlatform) SendMessage(_ context.Context, channelID, content string, _ ...*discordgo.MessageEmbed) (*workflow.Message, error) {
	return &workflow.Message{ID: "msg-1", ChannelID: channelID, Content: content}, nil
}

func (stubPlatform) SendReply(_ context.Context, channelID, _, content string, _ ...*discordgo.MessageEmbed) (*workflow.Message, error) {
	return &workflow.Message{ID: "msg-1", ChannelID: channelID, Content: content}, nil
}

func (stubPlatform) SendDirectMessage(context.Context, string, string) error { return nil }
func (stubPlatform) DeleteMessage(context.Context, string, string) error     { return nil }
func (stubPlatform) SetRoleOverwrite(context.Context, string, string, workflow.Overwrite) error {
	return nil
}
func (stubPlatform) EditChannelTopic(context.Context, string, string) error { return nil }
func (stubPlatform) AddRole(context.Context, string, string, string) error  { return nil }
func (stubPlatform) RemoveRole(context.Context, string, string, string) error {
	return nil
}
func (stubPlatform) FetchMessage(context.Context, string, string) (*workflow.Message, error) {
	return nil, nil
}
func (stubPlatform) FirstMessages(context.Context, string, int) ([]*workflow.Message, error) {
	return nil, nil
}
func (stubPlatform) RoleExists(context.Context, string, string) (bool, error)   { return false, nil }
func (stubPlatform) MemberExists(context.Context, string, string) (bool, error) { return false, nil }
func (stubPlatform) MemberRoles(context.Context, string, string) ([]string, error) {
	return nil, nil
}
func (stubPlatform) GuildName(context.Context, string) (string, error)          { return "", nil }

// testStoreSeq gives every test store its own named in-memory database. A
// plain ":memory:" DSN hands each pooled connection a separate empty
// database, so a second session would not see the migrated schema.
var testStoreSeq atomic.Int64

func newTestApp(t *testing.T) *App {
	t.Helper()

	store, err := dataaccess.Connect(fmt.Sprintf("file:cmd_test_%d?mode=memory&cache=shared", testStoreSeq.Add(1)))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	Store = store

	a := NewApp(slog.Default(), nil)
	a.engine = workflow.NewEngine(slog.Default(), stubPlatform{}, workflow.Config{})
	return a
}

func TestIngestTicket(t *testing.T) {
	a := newTestApp(t)
	handler := a.ingestTicket()

	body := `{"guild_id":"guild-1","channel_id":"chan-1","user_id":"user-1"}`
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodPost, PathTickets, strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), `"channel_id":"chan-1"`)
	require.Contains(t, w.Body.String(), `"request_id"`)

	sess, err := Store.Session()
	require.NoError(t, err)
	defer sess.Close()
	ticket, err := sess.FetchTicket("chan-1")
	require.NoError(t, err)
	require.NotNil(t, ticket)
	require.Equal(t, "guild-1", ticket.GuildID)
}

func TestIngestTicket_Conflict(t *testing.T) {
	a := newTestApp(t)
	handler := a.ingestTicket()

	body := `{"guild_id":"guild-1","channel_id":"chan-1"}`
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodPost, PathTickets, strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodPost, PathTickets, strings.NewReader(body)))
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestIngestTicket_BadRequest(t *testing.T) {
	a := newTestApp(t)
	handler := a.ingestTicket()

	tests := []struct {
		name string
		body string
	}{
		{
			name: "invalid json",
			body: `{`,
		},
		{
			name: "missing guild",
			body: `{"channel_id":"chan-1"}`,
		},
		{
			name: "missing channel",
			body: `{"guild_id":"guild-1"}`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler(w, httptest.NewRequest(http.MethodPost, PathTickets, strings.NewReader(test.body)))
			require.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestMiddlewareHttp_ApiTokenAuth(t *testing.T) {
	a := newTestApp(t)

	var called bool
	handler := middlewareHttp(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}, authOptionApiToken, a)

	// Unconfigured token disables the endpoint.
	ApiToken = ""
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodPost, PathTickets, nil))
	require.Equal(t, http.StatusNotImplemented, w.Code)
	require.False(t, called)

	ApiToken = "secret"
	t.Cleanup(func() { ApiToken = "" })

	// Wrong token is rejected.
	w = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, PathTickets, nil)
	r.Header.Set(HeaderApiToken, "wrong")
	handler(w, r)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.False(t, called)

	// Correct token passes through.
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, PathTickets, nil)
	r.Header.Set(HeaderApiToken, "secret")
	handler(w, r)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.True(t, called)
}
