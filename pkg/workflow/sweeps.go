package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/dataaccess"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/logging"
)

const (
	// DefaultPenaltySweepInterval is the cadence of the penalty-expiry sweep.
	DefaultPenaltySweepInterval = time.Minute

	// DefaultStaleSweepInterval is the cadence of the stale-ticket sweep.
	DefaultStaleSweepInterval = 150 * time.Second
)

// Sweeper runs the periodic maintenance loops: penalty expiry and
// stale-ticket warnings. Each tick is one session, so a partial failure
// inside a tick discards that tick's staged mutations.
type Sweeper struct {
	// l is the logger.
	l *slog.Logger

	// store hands out sessions.
	store *dataaccess.Store

	// platform is the outbound side of the chat platform.
	platform Platform

	// penaltyInterval is the penalty sweep cadence.
	penaltyInterval time.Duration

	// staleInterval is the stale-ticket sweep cadence.
	staleInterval time.Duration

	// now is the clock, injectable for tests.
	now func() time.Time
}

// NewSweeper creates the maintenance sweeper.
func NewSweeper(l *slog.Logger, store *dataaccess.Store, platform Platform, cfg Config) *Sweeper {
	if cfg.PenaltySweepInterval <= 0 {
		cfg.PenaltySweepInterval = DefaultPenaltySweepInterval
	}
	if cfg.StaleSweepInterval <= 0 {
		cfg.StaleSweepInterval = DefaultStaleSweepInterval
	}
	return &Sweeper{
		l:               l,
		store:           store,
		platform:        platform,
		penaltyInterval: cfg.PenaltySweepInterval,
		staleInterval:   cfg.StaleSweepInterval,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Run blocks until ready fires, then runs both sweep loops until the context
// is cancelled. Sweeps never run before the platform connection is up.
func (s *Sweeper) Run(ctx context.Context, ready <-chan struct{}) {
	select {
	case <-ready:
	case <-ctx.Done():
		return
	}
	s.l.Info("Starting maintenance sweeps")

	go s.loop(ctx, s.penaltyInterval, "penalties", s.SweepPenalties)
	s.loop(ctx, s.staleInterval, "stale tickets", s.SweepStaleTickets)
}

// loop runs one sweep on a ticker until the context is cancelled.
func (s *Sweeper) loop(ctx context.Context, interval time.Duration, name string, sweep func(context.Context) error) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := sweep(ctx); err != nil {
				s.l.Error("Sweep failed",
					slog.String(logging.KeyEvent, name),
					slog.String(logging.KeyError, err.Error()))
			}
		}
	}
}

// SweepPenalties lifts expired penalties: both penalty roles are removed and
// the member's status is reset. Members that no longer resolve on the
// platform are skipped and retried on a later sweep.
func (s *Sweeper) SweepPenalties(ctx context.Context) error {
	sess, err := s.store.Session()
	if err != nil {
		return err
	}
	defer sess.Close()

	expired, err := sess.ExpiredMembers(s.now())
	if err != nil {
		return err
	}
	if len(expired) == 0 {
		return nil
	}

	cleared := 0
	for _, member := range expired {
		exists, err := s.platform.MemberExists(ctx, member.GuildID, member.UserID)
		if err != nil || !exists {
			continue
		}
		guild, err := sess.GetGuild(member.GuildID)
		if err != nil {
			return err
		}

		// Both roles are removed regardless of which status was set, so a
		// stale role assignment never outlives its penalty.
		for _, roleID := range []*string{guild.SupportBlock, guild.HelpingBlock} {
			if roleID == nil {
				continue
			}
			if err := s.platform.RemoveRole(ctx, member.GuildID, member.UserID, *roleID); err != nil {
				s.l.Warn("Error removing penalty role",
					slog.String(logging.KeyGuild, member.GuildID),
					slog.String(logging.KeyError, err.Error()))
			}
		}

		member.Status = entities.StatusNone
		member.StatusTill = nil
		if err := sess.Save(member); err != nil {
			return err
		}
		cleared++
	}

	if cleared == 0 {
		return nil
	}
	s.l.Info("Lifted expired penalties", slog.Int("count", cleared))
	return sess.Commit()
}

// SweepStaleTickets warns the opener of each ticket whose warn duration has
// elapsed without a response. The ticket is marked notified before the DM is
// attempted, so a failing DM cannot cause repeat warnings.
func (s *Sweeper) SweepStaleTickets(ctx context.Context) error {
	sess, err := s.store.Session()
	if err != nil {
		return err
	}
	defer sess.Close()

	pending, err := sess.PendingTickets(s.now())
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	warned := 0
	for _, ticket := range pending {
		ticket.Notified = true
		if err := sess.Save(ticket); err != nil {
			return err
		}
		warned++

		if ticket.UserID == nil {
			continue
		}
		if err := s.warnOpener(ctx, ticket); err != nil {
			s.l.Warn("Error warning ticket opener",
				slog.String(logging.KeyChannel, ticket.ChannelID),
				slog.String(logging.KeyError, err.Error()))
		}
	}

	s.l.Info("Warned stale tickets", slog.Int("count", warned))
	return sess.Commit()
}

// warnOpener DMs the ticket opener that their ticket looks abandoned,
// including the close deadline when one is configured.
func (s *Sweeper) warnOpener(ctx context.Context, ticket *entities.Ticket) error {
	guildName, err := s.platform.GuildName(ctx, ticket.GuildID)
	if err != nil {
		return err
	}
	if guildName == "" {
		guildName = ticket.GuildID
	}

	content := fmt.Sprintf(
		"Your ticket <#%s> in %s has had no response for a while. Please respond if you still need help.",
		ticket.ChannelID, guildName)
	if ticket.Guild != nil && ticket.Guild.AnyAutoclose != nil {
		deadline := s.now().Add(*ticket.Guild.AnyAutoclose)
		content += fmt.Sprintf(" It may be closed <t:%d:R> otherwise.", deadline.Unix())
	}
	return s.platform.SendDirectMessage(ctx, *ticket.UserID, content)
}
