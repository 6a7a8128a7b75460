// Package permissions authorizes export and share operations against an
// encounter's owner and share list.
package permissions

import (
	"strings"

	"github.com/tablewright/encounter-api/internal/entities/encounter"
	"github.com/tablewright/encounter-api/internal/errors"
)

// CanExport checks that the requesting user may produce an external
// representation of the encounter: the owner always can, everyone on the
// share list can, nobody else. Called before any data is read into an
// export envelope.
func CanExport(enc *encounter.Encounter, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return errors.InvalidArgument("requesting user ID is required")
	}

	if enc.OwnerID == userID || enc.IsSharedWith(userID) {
		return nil
	}

	return errors.InsufficientPermissions("user is not the owner and is not on the share list").
		WithMeta("encounter_id", enc.ID).
		WithMeta("user_id", userID)
}

// CanModify checks that the requesting user may mutate the encounter.
// Only the owner can modify; the share list grants read/export access only.
func CanModify(enc *encounter.Encounter, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return errors.InvalidArgument("requesting user ID is required")
	}

	if enc.OwnerID == userID {
		return nil
	}

	return errors.InsufficientPermissions("only the owner may modify the encounter").
		WithMeta("encounter_id", enc.ID).
		WithMeta("user_id", userID)
}
