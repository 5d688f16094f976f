// Package auth implements credential hashing, session login/logout and the
// role checks that guard every protected operation.
package auth

import (
	"carematch/internal/apperr"
	"carematch/internal/models"
)

// Identity is the authenticated caller of an operation. Handlers build it
// from the session and pass it explicitly to every manager call.
type Identity struct {
	AccountID int64
	Role      models.Role
	Name      string
}

// IdentityOf builds the identity for an account.
func IdentityOf(a *models.Account) *Identity {
	return &Identity{AccountID: a.ID, Role: a.Role, Name: a.Name}
}

// RequireAuthenticated fails with Unauthorized when there is no identity.
func RequireAuthenticated(id *Identity) error {
	if id == nil || id.AccountID == 0 {
		return apperr.Unauthorized("authentication required")
	}
	return nil
}

// RequireRole fails with Unauthorized for anonymous callers and with
// Forbidden when the caller holds none of the given roles.
func RequireRole(id *Identity, roles ...models.Role) error {
	if err := RequireAuthenticated(id); err != nil {
		return err
	}
	if !id.Role.Valid() {
		return apperr.Forbidden("insufficient permissions")
	}
	for _, r := range roles {
		if id.Role == r {
			return nil
		}
	}
	return apperr.Forbidden("insufficient permissions")
}

// landing maps each role to its post-login destination.
var landing = map[models.Role]string{
	models.RoleAdmin: "/admin/dashboard",
	models.RolePIN:   "/pin/dashboard",
	models.RoleCSR:   "/csr/dashboard",
}

// Destination returns the landing page for role, or "/" for unknown roles.
func Destination(role models.Role) string {
	if d, ok := landing[role]; ok {
		return d
	}
	return "/"
}
