package services

import (
	"time"

	"github.com/ponto-de-fuga/restaurant-api/models"
)

// Identity is the authenticated caller of a service operation. It is built
// per request from the bearer token subject and the stored role.
type Identity struct {
	UserID string
	Role   models.Role
}

// Require returns nil when the identity holds one of roles.
func (id Identity) Require(roles ...models.Role) error {
	if id.UserID == "" {
		return ErrUnauthorized
	}
	for _, r := range roles {
		if id.Role == r {
			return nil
		}
	}
	return ErrForbidden
}

func systemClock() time.Time {
	return time.Now().UTC()
}
