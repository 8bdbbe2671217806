package workflow

import (
	"fmt"

	"github.com/Jacobbrewer1/warden/pkg/dataaccess"
)

// IsOwner reports whether userID is one of the bot's configured operators.
// This is application-level ownership, not tenant data.
func IsOwner(ownerIDs []string, userID string) bool {
	for _, id := range ownerIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// CheckOwner rejects callers outside the configured operator set.
func CheckOwner(ownerIDs []string, userID string) error {
	if !IsOwner(ownerIDs, userID) {
		return fmt.Errorf("user %s is not an operator: %w", userID, ErrForbidden)
	}
	return nil
}

// CheckStaff rejects callers that are neither operators nor holders of one of
// the guild's configured staff roles. It fails closed outside a guild
// context.
func CheckStaff(sess *dataaccess.Session, ownerIDs []string, guildID, userID string, memberRoles []string) error {
	if IsOwner(ownerIDs, userID) {
		return nil
	}
	if guildID == "" {
		return fmt.Errorf("staff check requires a guild context: %w", ErrForbidden)
	}

	staffRoles, err := sess.GetAllStaffRoles(guildID)
	if err != nil {
		return fmt.Errorf("error listing staff roles: %w", err)
	}
	held := make(map[string]struct{}, len(memberRoles))
	for _, r := range memberRoles {
		held[r] = struct{}{}
	}
	for _, r := range staffRoles {
		if _, ok := held[r.RoleID]; ok {
			return nil
		}
	}
	return fmt.Errorf("user %s is not staff: %w", userID, ErrForbidden)
}
