package handlers

import (
	"github.com/gofiber/fiber/v3"

	"carematch/internal/config"
)

// BrandingData is the public site information shown on the login page.
type BrandingData struct {
	SiteTitle   string `json:"site_title"`
	BaseURL     string `json:"base_url"`
	OIDCEnabled bool   `json:"oidc_enabled"`
	OIDCLogin   string `json:"oidc_login,omitempty"`
}

// GetBrandingData returns branding data from config and the live SSO state.
func GetBrandingData(cfg *config.Config, oidcEnabled bool) BrandingData {
	b := BrandingData{
		SiteTitle:   cfg.SiteTitle,
		BaseURL:     cfg.BaseURL,
		OIDCEnabled: oidcEnabled,
	}
	if oidcEnabled {
		b.OIDCLogin = "/auth/oidc/login"
	}
	return b
}

// Branding serves GetBrandingData. It is public.
func (h *AuthHandler) Branding(cfg *config.Config) fiber.Handler {
	return func(c fiber.Ctx) error {
		return jsonSuccess(c, GetBrandingData(cfg, h.OIDCEnabled()))
	}
}
