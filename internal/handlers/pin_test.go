package handlers

import (
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v3"

	"carematch/internal/models"
	"carematch/internal/testutil"
)

func TestPinRequestLifecycle(t *testing.T) {
	h := newHarness(t)
	testutil.SeedAccount(t, h.store, "pin@example.com", models.RolePIN)
	cat := testutil.SeedCategory(t, h.store, "Tutoring")
	cookie := h.login(t, "pin@example.com")

	resp, env := h.do(t, fiber.MethodPost, "/pin/requests", fiber.Map{
		"category_id": cat.ID,
		"title":       "Need tutor",
		"description": "Algebra twice a week",
	}, cookie)
	expectStatus(t, resp, env, fiber.StatusCreated)
	id := decode[struct {
		ID int64 `json:"id"`
	}](t, env).ID
	path := fmt.Sprintf("/pin/requests/%d", id)

	resp, env = h.do(t, fiber.MethodGet, path, nil, cookie)
	expectStatus(t, resp, env, fiber.StatusOK)
	if got := decode[models.Request](t, env); got.Status != models.StatusOpen || got.Title != "Need tutor" {
		t.Errorf("Get() = %q/%q, want Need tutor/open", got.Title, got.Status)
	}

	resp, env = h.do(t, fiber.MethodPut, path, fiber.Map{"title": "Need tutor urgently"}, cookie)
	expectStatus(t, resp, env, fiber.StatusOK)

	resp, env = h.do(t, fiber.MethodGet, "/pin/requests?q=urgently", nil, cookie)
	expectStatus(t, resp, env, fiber.StatusOK)
	page := decode[models.Page[models.Request]](t, env)
	if page.TotalCount != 1 || page.Items[0].ID != id {
		t.Errorf("search urgently = %+v, want the edited request", page)
	}

	// unchanged edits report no update
	resp, env = h.do(t, fiber.MethodPut, path, fiber.Map{"title": "Need tutor urgently"}, cookie)
	expectStatus(t, resp, env, fiber.StatusOK)
	if got := decode[struct {
		Updated bool `json:"updated"`
	}](t, env); got.Updated {
		t.Error("identical edit reported updated = true")
	}

	resp, env = h.do(t, fiber.MethodPut, path, fiber.Map{"status": "draft"}, cookie)
	expectStatus(t, resp, env, fiber.StatusConflict)

	resp, env = h.do(t, fiber.MethodPut, path, fiber.Map{"status": "completed"}, cookie)
	expectStatus(t, resp, env, fiber.StatusOK)

	resp, env = h.do(t, fiber.MethodPut, path, fiber.Map{"title": "Too late"}, cookie)
	expectStatus(t, resp, env, fiber.StatusConflict)

	resp, env = h.do(t, fiber.MethodDelete, path, nil, cookie)
	expectStatus(t, resp, env, fiber.StatusConflict)

	resp, env = h.do(t, fiber.MethodGet, "/pin/dashboard", nil, cookie)
	expectStatus(t, resp, env, fiber.StatusOK)
	dash := decode[struct {
		Counts map[string]int `json:"counts"`
		Total  int            `json:"total"`
	}](t, env)
	if dash.Total != 1 || dash.Counts["completed"] != 1 {
		t.Errorf("dashboard = %+v, want one completed request", dash)
	}
}

func TestPinCreateValidation(t *testing.T) {
	h := newHarness(t)
	testutil.SeedAccount(t, h.store, "pin@example.com", models.RolePIN)
	cat := testutil.SeedCategory(t, h.store, "Tutoring")
	cookie := h.login(t, "pin@example.com")

	tests := []struct {
		name string
		body any
	}{
		{"missing title", fiber.Map{"category_id": cat.ID, "description": "x"}},
		{"missing description", fiber.Map{"category_id": cat.ID, "title": "x"}},
		{"unknown category", fiber.Map{"category_id": 999, "title": "x", "description": "y"}},
		{"no category", fiber.Map{"title": "x", "description": "y"}},
		{"malformed body", "[1,2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := h.do(t, fiber.MethodPost, "/pin/requests", tt.body, cookie)
			expectStatus(t, resp, env, fiber.StatusBadRequest)
		})
	}
}

func TestPinForeignRequest(t *testing.T) {
	h := newHarness(t)
	owner := testutil.SeedAccount(t, h.store, "owner@example.com", models.RolePIN)
	testutil.SeedAccount(t, h.store, "other@example.com", models.RolePIN)
	cat := testutil.SeedCategory(t, h.store, "Tutoring")
	r := testutil.SeedRequest(t, h.store, owner.ID, cat.ID, "Need tutor", models.StatusOpen)
	path := fmt.Sprintf("/pin/requests/%d", r.ID)
	cookie := h.login(t, "other@example.com")

	resp, env := h.do(t, fiber.MethodGet, path, nil, cookie)
	expectStatus(t, resp, env, fiber.StatusNotFound)

	resp, env = h.do(t, fiber.MethodPut, path, fiber.Map{"title": "Hijacked"}, cookie)
	expectStatus(t, resp, env, fiber.StatusForbidden)

	resp, env = h.do(t, fiber.MethodDelete, path, nil, cookie)
	expectStatus(t, resp, env, fiber.StatusForbidden)

	// the other requester's list never shows it
	resp, env = h.do(t, fiber.MethodGet, "/pin/requests", nil, cookie)
	expectStatus(t, resp, env, fiber.StatusOK)
	if page := decode[models.Page[models.Request]](t, env); page.TotalCount != 0 {
		t.Errorf("foreign list total = %d, want 0", page.TotalCount)
	}
}

func TestPinListQueryErrors(t *testing.T) {
	h := newHarness(t)
	testutil.SeedAccount(t, h.store, "pin@example.com", models.RolePIN)
	cookie := h.login(t, "pin@example.com")

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"no filters", "", fiber.StatusOK},
		{"known status", "?status=draft", fiber.StatusOK},
		{"unknown status", "?status=archived", fiber.StatusBadRequest},
		{"bad category", "?category_id=abc", fiber.StatusBadRequest},
		{"bad date", "?from=yesterday", fiber.StatusBadRequest},
		{"inverted range", "?from=2024-05-03&to=2024-05-01", fiber.StatusBadRequest},
		{"inverted by one day", "?from=2024-05-02&to=2024-05-01", fiber.StatusBadRequest},
		{"valid range", "?from=2024-05-01&to=2024-05-01", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := h.do(t, fiber.MethodGet, "/pin/requests"+tt.query, nil, cookie)
			expectStatus(t, resp, env, tt.want)
		})
	}
}

func TestPinRecordMatch(t *testing.T) {
	h := newHarness(t)
	pin := testutil.SeedAccount(t, h.store, "pin@example.com", models.RolePIN)
	csr := testutil.SeedAccount(t, h.store, "csr@example.com", models.RoleCSR)
	bystander := testutil.SeedAccount(t, h.store, "csr2@example.com", models.RoleCSR)
	cat := testutil.SeedCategory(t, h.store, "Tutoring")
	r := testutil.SeedRequest(t, h.store, pin.ID, cat.ID, "Need tutor", models.StatusOpen)

	pinCookie := h.login(t, "pin@example.com")
	csrCookie := h.login(t, "csr@example.com")
	matchPath := fmt.Sprintf("/pin/requests/%d/match", r.ID)

	resp, env := h.do(t, fiber.MethodPost, fmt.Sprintf("/csr/requests/%d/shortlist", r.ID), nil, csrCookie)
	expectStatus(t, resp, env, fiber.StatusCreated)

	// still open
	resp, env = h.do(t, fiber.MethodPost, matchPath, fiber.Map{"csr_id": csr.ID}, pinCookie)
	expectStatus(t, resp, env, fiber.StatusConflict)

	resp, env = h.do(t, fiber.MethodPut, fmt.Sprintf("/pin/requests/%d", r.ID), fiber.Map{"status": "completed"}, pinCookie)
	expectStatus(t, resp, env, fiber.StatusOK)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"reviewer never shortlisted", fiber.Map{"csr_id": bystander.ID}, fiber.StatusBadRequest},
		{"not a reviewer", fiber.Map{"csr_id": pin.ID}, fiber.StatusBadRequest},
		{"unknown reviewer", fiber.Map{"csr_id": 9999}, fiber.StatusBadRequest},
		{"first record", fiber.Map{"csr_id": csr.ID}, fiber.StatusCreated},
		{"repeat record", fiber.Map{"csr_id": csr.ID}, fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := h.do(t, fiber.MethodPost, matchPath, tt.body, pinCookie)
			expectStatus(t, resp, env, tt.want)
		})
	}

	resp, env = h.do(t, fiber.MethodGet, "/pin/match-records", nil, pinCookie)
	expectStatus(t, resp, env, fiber.StatusOK)
	page := decode[models.Page[models.MatchRecord]](t, env)
	if page.TotalCount != 1 || page.Items[0].CSRID != csr.ID {
		t.Errorf("match records = %+v, want one record for csr %d", page, csr.ID)
	}

	resp, env = h.do(t, fiber.MethodGet, fmt.Sprintf("/pin/requests/%d/counters", r.ID), nil, pinCookie)
	expectStatus(t, resp, env, fiber.StatusOK)
	if got := decode[struct {
		Shortlists int64 `json:"shortlist_count"`
	}](t, env); got.Shortlists != 1 {
		t.Errorf("shortlist_count = %d, want 1", got.Shortlists)
	}
}

func TestPinRoutesRejectOtherRoles(t *testing.T) {
	h := newHarness(t)
	testutil.SeedAccount(t, h.store, "csr@example.com", models.RoleCSR)
	testutil.SeedAccount(t, h.store, "admin@example.com", models.RoleAdmin)

	for _, email := range []string{"csr@example.com", "admin@example.com"} {
		t.Run(email, func(t *testing.T) {
			resp, env := h.do(t, fiber.MethodGet, "/pin/dashboard", nil, h.login(t, email))
			expectStatus(t, resp, env, fiber.StatusForbidden)
		})
	}
}
