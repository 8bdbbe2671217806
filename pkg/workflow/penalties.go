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

// ApplyPenalty blocks a user from opening tickets or from helping in them.
// The penalty role is assigned, the member record is updated, and for
// helping blocks the guild can also have its community roles stripped so the
// penalty holds on already-open tickets. The user is told over DM; a closed
// DM never fails the command.
func (e *Engine) ApplyPenalty(ctx context.Context, sess *dataaccess.Session, guildID, userID string, status entities.PenaltyStatus, till *time.Time) error {
	guild, err := sess.GetGuild(guildID)
	if err != nil {
		return err
	}

	var roleID *string
	switch status {
	case entities.StatusSupportBlocked:
		roleID = guild.SupportBlock
	case entities.StatusHelpingBlocked:
		roleID = guild.HelpingBlock
	default:
		return fmt.Errorf("unhandled penalty status %d", status)
	}
	if roleID == nil {
		return NewUsageError("No block role is configured for that penalty. Set one with /settings first.")
	}

	member, err := sess.GetMember(userID, guildID)
	if err != nil {
		return err
	}
	member.Status = status
	member.StatusTill = till
	if err := sess.Save(member); err != nil {
		return err
	}

	if err := e.platform.AddRole(ctx, guildID, userID, *roleID); err != nil {
		return fmt.Errorf("error adding penalty role: %w", err)
	}

	if status == entities.StatusHelpingBlocked && guild.StripRoles {
		if err := e.stripCommunityRoles(ctx, sess, guildID, userID); err != nil {
			return err
		}
	}

	if err := sess.Commit(); err != nil {
		return err
	}

	e.notifyPenalty(ctx, guildID, userID, status, till)
	return nil
}

// LiftPenalty clears a user's penalty. Both block roles come off so a stale
// assignment never outlives the penalty; a role the bot cannot remove is
// logged and skipped.
func (e *Engine) LiftPenalty(ctx context.Context, sess *dataaccess.Session, guildID, userID string) error {
	member, err := sess.GetMember(userID, guildID)
	if err != nil {
		return err
	}
	if member.Status == entities.StatusNone {
		return NewUsageError("This user has no penalty.")
	}

	guild, err := sess.GetGuild(guildID)
	if err != nil {
		return err
	}

	member.Status = entities.StatusNone
	member.StatusTill = nil
	if err := sess.Save(member); err != nil {
		return err
	}

	for _, roleID := range []*string{guild.SupportBlock, guild.HelpingBlock} {
		if roleID == nil {
			continue
		}
		if err := e.platform.RemoveRole(ctx, guildID, userID, *roleID); err != nil {
			e.l.Warn("Error removing penalty role",
				slog.String(logging.KeyGuild, guildID),
				slog.String(logging.KeyError, err.Error()))
		}
	}

	if err := sess.Commit(); err != nil {
		return err
	}

	e.notifyPenalty(ctx, guildID, userID, entities.StatusNone, nil)
	return nil
}

// stripCommunityRoles removes the guild's community roles the user currently
// holds, so a helping block also revokes access to already-open tickets.
func (e *Engine) stripCommunityRoles(ctx context.Context, sess *dataaccess.Session, guildID, userID string) error {
	held, err := e.platform.MemberRoles(ctx, guildID, userID)
	if err != nil {
		return fmt.Errorf("error getting member roles: %w", err)
	}
	communityRoles, err := sess.GetAllCommunityRoles(guildID)
	if err != nil {
		return err
	}

	heldSet := make(map[string]struct{}, len(held))
	for _, r := range held {
		heldSet[r] = struct{}{}
	}
	for _, role := range communityRoles {
		if _, ok := heldSet[role.RoleID]; !ok {
			continue
		}
		if err := e.platform.RemoveRole(ctx, guildID, userID, role.RoleID); err != nil {
			return fmt.Errorf("error removing community role: %w", err)
		}
	}
	return nil
}

// notifyPenalty tells the user about the change over DM. Users can close
// their DMs, so a failure is logged at debug and otherwise ignored.
func (e *Engine) notifyPenalty(ctx context.Context, guildID, userID string, status entities.PenaltyStatus, till *time.Time) {
	name, err := e.platform.GuildName(ctx, guildID)
	if err != nil || name == "" {
		name = guildID
	}

	var msg string
	switch status {
	case entities.StatusSupportBlocked:
		msg = fmt.Sprintf("You have been blocked from opening tickets in %s.", name)
	case entities.StatusHelpingBlocked:
		msg = fmt.Sprintf("You have been blocked from helping in tickets in %s.", name)
	default:
		msg = fmt.Sprintf("Your penalty in %s has been lifted.", name)
	}
	if till != nil {
		msg += fmt.Sprintf(" The penalty expires <t:%d:R>.", till.Unix())
	}

	if err := e.platform.SendDirectMessage(ctx, userID, msg); err != nil {
		e.l.Debug("Penalty DM not delivered",
			slog.String(logging.KeyGuild, guildID),
			slog.String(logging.KeyError, err.Error()))
	}
}
