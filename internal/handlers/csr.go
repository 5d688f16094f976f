package handlers

import (
	"github.com/gofiber/fiber/v3"

	"carematch/internal/middleware"
	"carematch/internal/models"
	"carematch/internal/requests"
	"carematch/internal/shortlist"
)

// csrPageSize matches the reviewer's card grid.
const csrPageSize = 9

// CSRHandler serves the reviewer's browse, shortlist and history views.
type CSRHandler struct {
	requests  *requests.Manager
	shortlist *shortlist.Manager
}

// NewCSRHandler creates a new reviewer handler.
func NewCSRHandler(req *requests.Manager, sl *shortlist.Manager) *CSRHandler {
	return &CSRHandler{requests: req, shortlist: sl}
}

// Dashboard returns the reviewer's counts.
func (h *CSRHandler) Dashboard(c fiber.Ctx) error {
	stats, err := h.shortlist.Stats(c.Context(), middleware.Identity(c))
	if err != nil {
		return respondError(c, err)
	}
	return jsonSuccess(c, stats)
}

// Browse searches open requests.
func (h *CSRHandler) Browse(c fiber.Ctx) error {
	f, err := requestFilter(c, csrPageSize)
	if err != nil {
		return respondError(c, err)
	}
	page, err := h.requests.SearchOpen(c.Context(), middleware.Identity(c), f)
	if err != nil {
		return respondError(c, err)
	}
	return jsonSuccess(c, page)
}

// View returns one request and counts the view.
func (h *CSRHandler) View(c fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	r, err := h.requests.View(c.Context(), middleware.Identity(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return jsonSuccess(c, r)
}

// AddToShortlist bookmarks a request. Repeated calls report that the entry
// already exists.
func (h *CSRHandler) AddToShortlist(c fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	added, err := h.shortlist.Add(c.Context(), middleware.Identity(c), id)
	if err != nil {
		return respondError(c, err)
	}
	if !added {
		return jsonSuccess(c, fiber.Map{"added": false, "message": "already in shortlist"})
	}
	return jsonCreated(c, fiber.Map{"added": true})
}

// RemoveFromShortlist removes a bookmark.
func (h *CSRHandler) RemoveFromShortlist(c fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.shortlist.Remove(c.Context(), middleware.Identity(c), id); err != nil {
		return respondError(c, err)
	}
	return jsonSuccess(c, fiber.Map{"removed": true})
}

// Shortlist lists the reviewer's shortlisted requests.
func (h *CSRHandler) Shortlist(c fiber.Ctx) error {
	f := models.ShortlistFilter{Page: pageRequest(c, csrPageSize)}
	var err error
	if f.CategoryID, err = optionalID(c, "category_id"); err != nil {
		return respondError(c, err)
	}
	page, err := h.shortlist.List(c.Context(), middleware.Identity(c), f)
	if err != nil {
		return respondError(c, err)
	}
	return jsonSuccess(c, page)
}

// Matches lists the reviewer's match history.
func (h *CSRHandler) Matches(c fiber.Ctx) error {
	f, err := historyFilter(c, csrPageSize)
	if err != nil {
		return respondError(c, err)
	}
	page, err := h.shortlist.SearchHistory(c.Context(), middleware.Identity(c), f)
	if err != nil {
		return respondError(c, err)
	}
	return jsonSuccess(c, page)
}
