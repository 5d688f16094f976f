package handlers

import (
	"github.com/gofiber/fiber/v3"

	"carematch/internal/admin"
	"carematch/internal/middleware"
	"carematch/internal/models"
)

const adminPageSize = 10

// AdminHandler serves account and profile administration.
type AdminHandler struct {
	admin *admin.Manager
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(mgr *admin.Manager) *AdminHandler {
	return &AdminHandler{admin: mgr}
}

// Dashboard returns account and profile totals.
func (h *AdminHandler) Dashboard(c fiber.Ctx) error {
	stats, err := h.admin.Dashboard(c.Context(), middleware.Identity(c))
	if err != nil {
		return respondError(c, err)
	}
	return jsonSuccess(c, stats)
}

// ListAccounts searches accounts by ?q= name substring and ?profile_id=.
func (h *AdminHandler) ListAccounts(c fiber.Ctx) error {
	f := models.AccountFilter{Name: c.Query("q"), Page: pageRequest(c, adminPageSize)}
	var err error
	if f.ProfileID, err = optionalID(c, "profile_id"); err != nil {
		return respondError(c, err)
	}
	page, err := h.admin.SearchAccounts(c.Context(), middleware.Identity(c), f)
	if err != nil {
		return respondError(c, err)
	}
	return jsonSuccess(c, page)
}

// GetAccount returns one account.
func (h *AdminHandler) GetAccount(c fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	a, err := h.admin.GetAccount(c.Context(), middleware.Identity(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return jsonSuccess(c, a)
}

// CreateAccount registers a new account.
func (h *AdminHandler) CreateAccount(c fiber.Ctx) error {
	var in admin.AccountInput
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, err)
	}
	a, err := h.admin.CreateAccount(c.Context(), middleware.Identity(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return jsonCreated(c, a)
}

// UpdateAccount edits an account.
func (h *AdminHandler) UpdateAccount(c fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in admin.AccountInput
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, err)
	}
	a, err := h.admin.UpdateAccount(c.Context(), middleware.Identity(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return jsonSuccess(c, a)
}

// SuspendAccount deactivates an account.
func (h *AdminHandler) SuspendAccount(c fiber.Ctx) error {
	return h.setAccountActive(c, false)
}

// ActivateAccount reactivates an account.
func (h *AdminHandler) ActivateAccount(c fiber.Ctx) error {
	return h.setAccountActive(c, true)
}

func (h *AdminHandler) setAccountActive(c fiber.Ctx, active bool) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.admin.SetAccountActive(c.Context(), middleware.Identity(c), id, active); err != nil {
		return respondError(c, err)
	}
	return jsonSuccess(c, fiber.Map{"id": id, "is_active": active})
}

// ListProfiles returns one page of profiles.
func (h *AdminHandler) ListProfiles(c fiber.Ctx) error {
	page, err := h.admin.ListProfiles(c.Context(), middleware.Identity(c), pageRequest(c, adminPageSize))
	if err != nil {
		return respondError(c, err)
	}
	return jsonSuccess(c, page)
}

// GetProfile returns one profile.
func (h *AdminHandler) GetProfile(c fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	p, err := h.admin.GetProfile(c.Context(), middleware.Identity(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return jsonSuccess(c, p)
}

// ProfileAccounts lists the accounts assigned to a profile.
func (h *AdminHandler) ProfileAccounts(c fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	page, err := h.admin.ListProfileAccounts(c.Context(), middleware.Identity(c), id, pageRequest(c, adminPageSize))
	if err != nil {
		return respondError(c, err)
	}
	return jsonSuccess(c, page)
}

// CreateProfile adds a profile.
func (h *AdminHandler) CreateProfile(c fiber.Ctx) error {
	var in admin.ProfileInput
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, err)
	}
	p, err := h.admin.CreateProfile(c.Context(), middleware.Identity(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return jsonCreated(c, p)
}

// UpdateProfile edits a profile.
func (h *AdminHandler) UpdateProfile(c fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in admin.ProfileInput
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, err)
	}
	p, err := h.admin.UpdateProfile(c.Context(), middleware.Identity(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return jsonSuccess(c, p)
}

// SuspendProfile deactivates a profile.
func (h *AdminHandler) SuspendProfile(c fiber.Ctx) error {
	return h.setProfileActive(c, false)
}

// ActivateProfile reactivates a profile.
func (h *AdminHandler) ActivateProfile(c fiber.Ctx) error {
	return h.setProfileActive(c, true)
}

func (h *AdminHandler) setProfileActive(c fiber.Ctx, active bool) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.admin.SetProfileActive(c.Context(), middleware.Identity(c), id, active); err != nil {
		return respondError(c, err)
	}
	return jsonSuccess(c, fiber.Map{"id": id, "is_active": active})
}
