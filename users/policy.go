package users

import "github.com/google/uuid"

// Authorization decisions live here so every front door asks the same
// questions instead of re-implementing role checks per handler.

// CanManageEvents reports whether the role may create events and inspect
// registration lists.
func CanManageEvents(role Role) bool {
	return role == ROLE_ORGANIZER || role == ROLE_ADMIN
}

// CanRedeemTickets reports whether the role may scan ticket codes at the
// door and apply arrival or perk flags.
func CanRedeemTickets(role Role) bool {
	return role == ROLE_ORGANIZER || role == ROLE_ADMIN
}

// CanCancelRegistration reports whether the actor may void a registration
// held by ownerID. Owners cancel their own; organizers and admins cancel
// anyone's.
func CanCancelRegistration(actorID uuid.UUID, actorRole Role, ownerID *uuid.UUID) bool {
	if CanManageEvents(actorRole) {
		return true
	}
	return ownerID != nil && *ownerID == actorID
}
