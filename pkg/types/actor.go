package types

import (
	"github.com/google/uuid"

	"github.com/shiplogix/logistics-backend/pkg/enums"
)

// Actor is the authenticated caller behind a write. A nil *Actor means the
// write is anonymous.
type Actor struct {
	UserID uuid.UUID
	Role   enums.MemberRole
}

// UserIDPtr returns the actor's user id, or nil for an anonymous write.
func (a *Actor) UserIDPtr() *uuid.UUID {
	if a == nil || a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}

// HasRole reports whether the actor holds any of roles.
func (a *Actor) HasRole(roles ...enums.MemberRole) bool {
	if a == nil {
		return false
	}
	for _, role := range roles {
		if a.Role == role {
			return true
		}
	}
	return false
}

// SystemActor is used by background jobs.
func SystemActor() *Actor {
	return &Actor{Role: enums.MemberRoleSystem}
}
