package middleware

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"

	"carematch/internal/apperr"
	"carematch/internal/auth"
	"carematch/internal/models"
)

// Locals keys set by RequireAuth.
const (
	LocalIdentity = "identity"
)

// AuthMiddleware enforces session authentication and role checks.
type AuthMiddleware struct {
	authn *auth.Authenticator
}

// NewAuthMiddleware creates a new auth middleware instance.
func NewAuthMiddleware(authn *auth.Authenticator) *AuthMiddleware {
	return &AuthMiddleware{authn: authn}
}

// Identity returns the identity stored by RequireAuth, or nil.
func Identity(c fiber.Ctx) *auth.Identity {
	id, _ := c.Locals(LocalIdentity).(*auth.Identity)
	return id
}

// wantsHTML reports whether the client is a browser expecting a page.
func wantsHTML(c fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMETextHTML)
}

func deny(c fiber.Ctx, status int, message string) error {
	if status == fiber.StatusUnauthorized && wantsHTML(c) {
		return c.Redirect().To("/login")
	}
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}

// RequireAuth ensures the session belongs to an active account. Browsers are
// redirected to /login; API clients receive 401.
func (m *AuthMiddleware) RequireAuth(c fiber.Ctx) error {
	sess := session.FromContext(c)
	if sess == nil {
		return deny(c, fiber.StatusUnauthorized, "authentication required")
	}

	id, err := m.authn.Resolve(c.Context(), sess)
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindUnauthorized, apperr.KindForbidden:
			// Vanished or suspended accounts lose their session.
			if sess.Get(auth.SessionKeyAccountID) != nil {
				if derr := sess.Destroy(); derr != nil {
					slog.Warn("session destroy failed", "error", derr)
				}
			}
			if errors.Is(err, auth.ErrAccountSuspended) {
				return deny(c, fiber.StatusForbidden, apperr.PublicMessage(err))
			}
			return deny(c, fiber.StatusUnauthorized, "authentication required")
		}
		return deny(c, fiber.StatusInternalServerError, apperr.StorageMessage)
	}

	c.Locals(LocalIdentity, id)
	return c.Next()
}

// RequireRole returns a handler that admits only the given roles. It must
// run after RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...models.Role) fiber.Handler {
	return func(c fiber.Ctx) error {
		if err := auth.RequireRole(Identity(c), roles...); err != nil {
			return deny(c, apperr.KindOf(err).HTTPStatus(), apperr.PublicMessage(err))
		}
		return c.Next()
	}
}
