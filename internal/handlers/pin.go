package handlers

import (
	"github.com/gofiber/fiber/v3"

	"carematch/internal/middleware"
	"carematch/internal/requests"
	"carematch/internal/shortlist"
)

// pinPageSize matches the requester's request list.
const pinPageSize = 10

// PinHandler serves the requester's request management.
type PinHandler struct {
	requests  *requests.Manager
	shortlist *shortlist.Manager
}

// NewPinHandler creates a new requester handler.
func NewPinHandler(req *requests.Manager, sl *shortlist.Manager) *PinHandler {
	return &PinHandler{requests: req, shortlist: sl}
}

// Dashboard returns the caller's request counts by status.
func (h *PinHandler) Dashboard(c fiber.Ctx) error {
	counts, err := h.requests.Stats(c.Context(), middleware.Identity(c))
	if err != nil {
		return respondError(c, err)
	}
	return jsonSuccess(c, fiber.Map{
		"counts": counts,
		"total":  counts.Total(),
	})
}

// List searches the caller's own requests.
func (h *PinHandler) List(c fiber.Ctx) error {
	f, err := requestFilter(c, pinPageSize)
	if err != nil {
		return respondError(c, err)
	}
	page, err := h.requests.SearchOwn(c.Context(), middleware.Identity(c), f)
	if err != nil {
		return respondError(c, err)
	}
	return jsonSuccess(c, page)
}

// Get returns one of the caller's requests.
func (h *PinHandler) Get(c fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	r, err := h.requests.Get(c.Context(), middleware.Identity(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return jsonSuccess(c, r)
}

// Create stores a new request.
func (h *PinHandler) Create(c fiber.Ctx) error {
	var in requests.CreateInput
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, err)
	}
	id, err := h.requests.Create(c.Context(), middleware.Identity(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return jsonCreated(c, fiber.Map{"id": id})
}

// Update applies a partial edit or status change.
func (h *PinHandler) Update(c fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var in requests.UpdateInput
	if err := bindJSON(c, &in); err != nil {
		return respondError(c, err)
	}
	changed, err := h.requests.Update(c.Context(), middleware.Identity(c), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return jsonSuccess(c, fiber.Map{"updated": changed})
}

// Delete removes a request.
func (h *PinHandler) Delete(c fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.requests.Delete(c.Context(), middleware.Identity(c), id); err != nil {
		return respondError(c, err)
	}
	return jsonSuccess(c, fiber.Map{"deleted": true})
}

// Counters returns the view and shortlist counts of a request.
func (h *PinHandler) Counters(c fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	counters, err := h.requests.Counters(c.Context(), middleware.Identity(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return jsonSuccess(c, counters)
}

// RecordMatch records which reviewer fulfilled a completed request.
func (h *PinHandler) RecordMatch(c fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var body struct {
		CSRID int64 `json:"csr_id"`
	}
	if err := bindJSON(c, &body); err != nil {
		return respondError(c, err)
	}
	created, err := h.shortlist.RecordMatch(c.Context(), middleware.Identity(c), body.CSRID, id)
	if err != nil {
		return respondError(c, err)
	}
	if !created {
		return jsonSuccess(c, fiber.Map{"created": false, "message": "match already recorded"})
	}
	return jsonCreated(c, fiber.Map{"created": true})
}

// MatchRecords lists matches on the caller's requests.
func (h *PinHandler) MatchRecords(c fiber.Ctx) error {
	f, err := historyFilter(c, pinPageSize)
	if err != nil {
		return respondError(c, err)
	}
	page, err := h.shortlist.PinHistory(c.Context(), middleware.Identity(c), f)
	if err != nil {
		return respondError(c, err)
	}
	return jsonSuccess(c, page)
}

// historyFilter builds a match history search from query parameters.
func historyFilter(c fiber.Ctx, defaultSize int) (shortlist.HistoryFilter, error) {
	f := shortlist.HistoryFilter{Page: pageRequest(c, defaultSize)}
	var err error
	if f.CategoryID, err = optionalID(c, "category_id"); err != nil {
		return f, err
	}
	if f.From, f.To, err = dateRange(c); err != nil {
		return f, err
	}
	return f, nil
}
