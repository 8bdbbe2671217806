package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/Jacobbrewer1/warden/pkg/request"
	"github.com/Jacobbrewer1/warden/pkg/workflow"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// ingestLimiter throttles the ingest API. Integrations registering tickets
// in bulk get told to back off instead of starving the event handlers.
var ingestLimiter = rate.NewLimiter(rate.Every(time.Second), 10)

// ingestTicketRequest is the body of an ingest request. StaffThread is
// optional; a staff-notes thread is created when it is absent.
type ingestTicketRequest struct {
	GuildID     string  `json:"guild_id"`
	ChannelID   string  `json:"channel_id"`
	UserID      *string `json:"user_id,omitempty"`
	StaffThread *string `json:"staff_thread,omitempty"`
}

// ingestTicketResponse confirms the registered ticket.
type ingestTicketResponse struct {
	RequestID   string  `json:"request_id"`
	ChannelID   string  `json:"channel_id"`
	GuildID     string  `json:"guild_id"`
	StaffThread *string `json:"staff_thread,omitempty"`
}

// ingestTicket registers a ticket created by an external integration, for
// guilds running in integrated mode.
func (a *App) ingestTicket() Controller {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		l := a.With(slog.String(logging.KeyRequestID, requestID))

		if !ingestLimiter.Allow() {
			w.WriteHeader(http.StatusTooManyRequests)
			encodeResponse(l, w, request.NewMessage("Rate limit exceeded"))
			return
		}

		body := new(ingestTicketRequest)
		if err := json.NewDecoder(r.Body).Decode(body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			encodeResponse(l, w, request.NewMessageError("Invalid request body", err))
			return
		}
		if body.GuildID == "" || body.ChannelID == "" {
			w.WriteHeader(http.StatusBadRequest)
			encodeResponse(l, w, request.NewMessage("guild_id and channel_id are required"))
			return
		}

		sess, err := a.Store().Session()
		if err != nil {
			l.Error("Error opening session", slog.String(logging.KeyError, err.Error()))
			w.WriteHeader(http.StatusInternalServerError)
			encodeResponse(l, w, request.NewMessage(request.ErrInternalServer.Error()))
			return
		}
		defer sess.Close()

		ticket, err := a.Engine().RegisterTicket(r.Context(), sess, body.GuildID, body.ChannelID, body.UserID, body.StaffThread)
		if err != nil {
			if workflow.IsUsageError(err) {
				w.WriteHeader(http.StatusConflict)
				encodeResponse(l, w, request.NewMessage(err.Error()))
				return
			}
			l.Error("Error registering ticket", slog.String(logging.KeyError, err.Error()))
			w.WriteHeader(http.StatusInternalServerError)
			encodeResponse(l, w, request.NewMessage(request.ErrInternalServer.Error()))
			return
		}

		l.Info("Registered ticket via ingest API",
			slog.String(logging.KeyGuild, ticket.GuildID),
			slog.String(logging.KeyChannel, ticket.ChannelID))

		w.WriteHeader(http.StatusCreated)
		encodeResponse(l, w, &ingestTicketResponse{
			RequestID:   requestID,
			ChannelID:   ticket.ChannelID,
			GuildID:     ticket.GuildID,
			StaffThread: ticket.StaffNoteThread,
		})
	}
}

func encodeResponse(l *slog.Logger, w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		l.Error("Error encoding response", slog.String(logging.KeyError, err.Error()))
	}
}
