package handlers

import (
	"context"
	"log/slog"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"carematch/internal/apperr"
	"carematch/internal/auth"
	"carematch/internal/config"
	"carematch/internal/middleware"
	"carematch/internal/validation"
)

const (
	sessionKeyOAuthState = "oauth_state"
	sessionKeyRedirect   = "redirect_after_login"
)

// AuthHandler handles password login, logout and the optional OIDC flow.
type AuthHandler struct {
	authn *auth.Authenticator

	// nil when OIDC is not configured
	provider     *oidc.Provider
	oauth2Config oauth2.Config
	verifier     *oidc.IDTokenVerifier
}

// NewAuthHandler creates a new auth handler for password login only.
func NewAuthHandler(authn *auth.Authenticator) *AuthHandler {
	return &AuthHandler{authn: authn}
}

// EnableOIDC discovers the issuer and turns on single sign-on. SSO only
// logs into existing accounts matched by verified email.
func (h *AuthHandler) EnableOIDC(ctx context.Context, cfg *config.Config) error {
	provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuer)
	if err != nil {
		return err
	}

	h.provider = provider
	h.oauth2Config = oauth2.Config{
		ClientID:     cfg.OIDCClientID,
		ClientSecret: cfg.OIDCClientSecret,
		RedirectURL:  cfg.OIDCRedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	h.verifier = provider.Verifier(&oidc.Config{ClientID: cfg.OIDCClientID})
	return nil
}

// OIDCEnabled reports whether EnableOIDC succeeded.
func (h *AuthHandler) OIDCEnabled() bool {
	return h.provider != nil
}

func loginResponse(c fiber.Ctx, destination string) error {
	return jsonSuccess(c, fiber.Map{"redirect": destination})
}

// Login checks email and password and starts an authenticated session.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	sess := session.FromContext(c)
	if sess == nil {
		return jsonError(c, fiber.StatusInternalServerError, "session not available")
	}

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := bindJSON(c, &body); err != nil {
		return respondError(c, err)
	}

	dest, err := h.authn.Login(c.Context(), sess, body.Email, body.Password)
	if err != nil {
		return respondError(c, err)
	}
	return loginResponse(c, dest)
}

// Logout clears the session. It succeeds for anonymous callers too.
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	if sess := session.FromContext(c); sess != nil {
		if err := h.authn.Logout(sess); err != nil {
			return respondError(c, err)
		}
	}
	return loginResponse(c, "/login")
}

// Me returns the caller's identity.
func (h *AuthHandler) Me(c fiber.Ctx) error {
	id := middleware.Identity(c)
	if id == nil {
		return jsonError(c, fiber.StatusUnauthorized, "authentication required")
	}
	return jsonSuccess(c, fiber.Map{
		"account_id": id.AccountID,
		"name":       id.Name,
		"role":       id.Role,
		"home":       auth.Destination(id.Role),
	})
}

// OIDCLogin initiates the OIDC login flow.
func (h *AuthHandler) OIDCLogin(c fiber.Ctx) error {
	if !h.OIDCEnabled() {
		return jsonError(c, fiber.StatusNotFound, "single sign-on is not configured")
	}

	sess := session.FromContext(c)
	if sess == nil {
		return jsonError(c, fiber.StatusInternalServerError, "session not available")
	}

	state := uuid.NewString()
	sess.Set(sessionKeyOAuthState, state)
	if next := c.Query("next"); validation.IsLocalRedirect(next) {
		sess.Set(sessionKeyRedirect, next)
	}

	return c.Redirect().To(h.oauth2Config.AuthCodeURL(state))
}

// OIDCCallback handles the OIDC callback after authentication.
func (h *AuthHandler) OIDCCallback(c fiber.Ctx) error {
	if !h.OIDCEnabled() {
		return jsonError(c, fiber.StatusNotFound, "single sign-on is not configured")
	}

	sess := session.FromContext(c)
	if sess == nil {
		return jsonError(c, fiber.StatusInternalServerError, "session not available")
	}

	// Verify state
	savedState, _ := sess.Get(sessionKeyOAuthState).(string)
	if savedState == "" || savedState != c.Query("state") {
		return jsonError(c, fiber.StatusBadRequest, "invalid state")
	}
	sess.Delete(sessionKeyOAuthState)

	oauth2Token, err := h.oauth2Config.Exchange(c.Context(), c.Query("code"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "failed to exchange code")
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "missing id_token")
	}

	idToken, err := h.verifier.Verify(c.Context(), rawIDToken)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid id_token")
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid id_token claims")
	}
	if claims.Email == "" || !claims.EmailVerified {
		slog.Warn("oidc login rejected: unverified email", "subject", idToken.Subject)
		return respondError(c, auth.ErrInvalidCredentials)
	}

	redirect, _ := sess.Get(sessionKeyRedirect).(string)

	dest, err := h.authn.LoginVerified(c.Context(), sess, claims.Email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindStorage {
			return respondError(c, err)
		}
		return c.Redirect().To("/login?error=" + apperr.KindOf(err).String())
	}

	if redirect != "" {
		dest = redirect
	}
	return c.Redirect().To(dest)
}
