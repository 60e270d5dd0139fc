package service

import (
	appErrors "github.com/bit-fotutors/classroom-api/pkg/errors"
)

// ensureOwner rejects access to a resource owned by a different actor. Every
// teacher-scoped read and write funnels through this check so cross-tenant
// behaviour stays uniform.
func ensureOwner(ownerID, actorID, resource string) error {
	if ownerID != actorID {
		return appErrors.Clone(appErrors.ErrForbidden, resource+" belongs to another account")
	}
	return nil
}
