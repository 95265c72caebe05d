package types

import (
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
)

// Actor is the authenticated caller as seen by services.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
	Email  string
}

func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

func (a Actor) IsSeller() bool {
	return a.Role == enums.UserRoleSeller
}

// Owns reports whether the actor is the given user.
func (a Actor) Owns(userID uuid.UUID) bool {
	return a.UserID != uuid.Nil && a.UserID == userID
}
