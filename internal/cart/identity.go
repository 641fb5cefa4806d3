package cart

import "github.com/google/uuid"

// Identity keys a cart to either an authenticated user or an anonymous
// session. Exactly one side should be set.
type Identity struct {
	UserID    *uuid.UUID
	SessionID *string
}

// ForUser builds an identity for an authenticated customer.
func ForUser(userID uuid.UUID) Identity {
	return Identity{UserID: &userID}
}

// ForSession builds an identity for an anonymous session.
func ForSession(sessionID string) Identity {
	return Identity{SessionID: &sessionID}
}

// Valid reports whether the identity can key a cart.
func (i Identity) Valid() bool {
	if i.UserID != nil && *i.UserID != uuid.Nil {
		return true
	}
	return i.SessionID != nil && *i.SessionID != ""
}
