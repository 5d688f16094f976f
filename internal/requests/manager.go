// Package requests implements the help-request lifecycle: creation, owner
// edits and status transitions, deletion, search, and reviewer views.
package requests

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"carematch/internal/apperr"
	"carematch/internal/auth"
	"carematch/internal/db"
	"carematch/internal/models"
	"carematch/internal/validation"
)

// Store is the persistence the manager needs. *db.DB satisfies it.
type Store interface {
	GetCategoryByID(ctx context.Context, id int64) (*models.Category, error)
	CreateRequest(ctx context.Context, r *models.Request) error
	GetRequestByID(ctx context.Context, id int64) (*models.Request, error)
	UpdateRequest(ctx context.Context, r *models.Request) error
	DeleteRequest(ctx context.Context, id int64) error
	IncrementRequestViews(ctx context.Context, id int64) error
	SearchRequests(ctx context.Context, f models.RequestFilter) (models.Page[models.Request], error)
	CountRequestsByStatus(ctx context.Context, pinID *int64) (models.StatusCounts, error)
}

// CreateInput holds the fields of a new request.
type CreateInput struct {
	CategoryID  int64  `json:"category_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Draft       bool   `json:"draft"`
}

// UpdateInput holds a partial edit; nil fields are left unchanged.
type UpdateInput struct {
	CategoryID  *int64  `json:"category_id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// Counters are the owner's engagement numbers for one request.
type Counters struct {
	Views      int64 `json:"view_count"`
	Shortlists int64 `json:"shortlist_count"`
}

// Manager runs request operations on behalf of an explicit identity.
type Manager struct {
	store  Store
	logger *slog.Logger
}

// NewManager creates a new request manager.
func NewManager(store Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, logger: logger}
}

// storageErr logs a persistence failure and hides its text from callers.
func (m *Manager) storageErr(op string, err error) error {
	m.logger.Error("request store failure", "op", op, "error", err)
	return apperr.Storage(err)
}

func (m *Manager) checkCategory(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperr.Validation("category is required")
	}
	c, err := m.store.GetCategoryByID(ctx, id)
	if errors.Is(err, db.ErrCategoryNotFound) {
		return apperr.Validation("unknown category")
	}
	if err != nil {
		return m.storageErr("get category", err)
	}
	if !c.IsActive {
		return apperr.Validation("category is not active")
	}
	return nil
}

// Create stores a new request owned by actor. Requests start open unless
// in.Draft is set.
func (m *Manager) Create(ctx context.Context, actor *auth.Identity, in CreateInput) (int64, error) {
	if err := auth.RequireRole(actor, models.RolePIN); err != nil {
		return 0, err
	}

	title := strings.TrimSpace(in.Title)
	desc := strings.TrimSpace(in.Description)
	if ok, msg := validation.ValidateTitle(title); !ok {
		return 0, apperr.Validation(msg)
	}
	if ok, msg := validation.ValidateDescription(desc); !ok {
		return 0, apperr.Validation(msg)
	}
	if err := m.checkCategory(ctx, in.CategoryID); err != nil {
		return 0, err
	}

	status := models.StatusOpen
	if in.Draft {
		status = models.StatusDraft
	}

	r := &models.Request{
		PinID:       actor.AccountID,
		CategoryID:  in.CategoryID,
		Title:       title,
		Description: desc,
		Status:      status,
	}
	if err := m.store.CreateRequest(ctx, r); err != nil {
		if errors.Is(err, db.ErrCategoryNotFound) {
			return 0, apperr.Validation("unknown category")
		}
		return 0, m.storageErr("create", err)
	}

	m.logger.Info("request created", "request_id", r.ID, "pin_id", r.PinID, "status", r.Status)
	return r.ID, nil
}

// loadOwned fetches a request and checks that actor owns it. Missing
// requests are NotFound, foreign ones Forbidden.
func (m *Manager) loadOwned(ctx context.Context, actor *auth.Identity, id int64) (*models.Request, error) {
	r, err := m.store.GetRequestByID(ctx, id)
	if errors.Is(err, db.ErrRequestNotFound) {
		return nil, apperr.NotFound("request not found")
	}
	if err != nil {
		return nil, m.storageErr("get", err)
	}
	if !r.IsOwnedBy(actor.AccountID) {
		return nil, apperr.Forbidden("not the owner of this request")
	}
	return r, nil
}

// Update applies a partial edit. Status changes must follow
// draft -> open -> completed; completed requests are read-only.
// It reports whether anything changed.
func (m *Manager) Update(ctx context.Context, actor *auth.Identity, id int64, in UpdateInput) (bool, error) {
	if err := auth.RequireRole(actor, models.RolePIN); err != nil {
		return false, err
	}
	r, err := m.loadOwned(ctx, actor, id)
	if err != nil {
		return false, err
	}
	if r.IsCompleted() {
		return false, apperr.Conflict("completed requests cannot be edited")
	}

	next := *r
	if in.Title != nil {
		next.Title = strings.TrimSpace(*in.Title)
		if ok, msg := validation.ValidateTitle(next.Title); !ok {
			return false, apperr.Validation(msg)
		}
	}
	if in.Description != nil {
		next.Description = strings.TrimSpace(*in.Description)
		if ok, msg := validation.ValidateDescription(next.Description); !ok {
			return false, apperr.Validation(msg)
		}
	}
	if in.CategoryID != nil && *in.CategoryID != r.CategoryID {
		if err := m.checkCategory(ctx, *in.CategoryID); err != nil {
			return false, err
		}
		next.CategoryID = *in.CategoryID
	}
	if in.Status != nil {
		status, ok := models.ParseStatus(*in.Status)
		if !ok {
			return false, apperr.Validation("unknown status")
		}
		if !r.Status.CanTransitionTo(status) {
			return false, apperr.Conflict("cannot change status from " + string(r.Status) + " to " + string(status))
		}
		next.Status = status
	}

	if next.Title == r.Title && next.Description == r.Description &&
		next.CategoryID == r.CategoryID && next.Status == r.Status {
		return false, nil
	}

	if err := m.store.UpdateRequest(ctx, &next); err != nil {
		switch {
		case errors.Is(err, db.ErrRequestNotFound):
			return false, apperr.NotFound("request not found")
		case errors.Is(err, db.ErrCategoryNotFound):
			return false, apperr.Validation("unknown category")
		}
		return false, m.storageErr("update", err)
	}

	if next.Status != r.Status {
		m.logger.Info("request status changed", "request_id", id, "from", r.Status, "to", next.Status)
	}
	return true, nil
}

// Delete removes a request and every shortlist entry referencing it.
// Completed requests are kept as match history.
func (m *Manager) Delete(ctx context.Context, actor *auth.Identity, id int64) error {
	if err := auth.RequireRole(actor, models.RolePIN); err != nil {
		return err
	}
	r, err := m.loadOwned(ctx, actor, id)
	if err != nil {
		return err
	}
	if r.IsCompleted() {
		return apperr.Conflict("completed requests cannot be deleted")
	}

	if err := m.store.DeleteRequest(ctx, id); err != nil {
		if errors.Is(err, db.ErrRequestNotFound) {
			return apperr.NotFound("request not found")
		}
		return m.storageErr("delete", err)
	}

	m.logger.Info("request deleted", "request_id", id, "pin_id", actor.AccountID)
	return nil
}

// Search returns one page of requests matching f.
func (m *Manager) Search(ctx context.Context, f models.RequestFilter) (models.Page[models.Request], error) {
	f.Title = strings.TrimSpace(f.Title)
	if f.Status != nil && !f.Status.Valid() {
		return models.Page[models.Request]{}, apperr.Validation("unknown status")
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return models.Page[models.Request]{}, apperr.Validation("invalid date range")
	}

	page, err := m.store.SearchRequests(ctx, f)
	if err != nil {
		return models.Page[models.Request]{}, m.storageErr("search", err)
	}
	return page, nil
}

// SearchOwn searches only actor's requests.
func (m *Manager) SearchOwn(ctx context.Context, actor *auth.Identity, f models.RequestFilter) (models.Page[models.Request], error) {
	if err := auth.RequireRole(actor, models.RolePIN); err != nil {
		return models.Page[models.Request]{}, err
	}
	f.PinID = &actor.AccountID
	return m.Search(ctx, f)
}

// SearchOpen searches the requests visible to reviewers. Drafts are never
// listed; the status filter may narrow to open or completed.
func (m *Manager) SearchOpen(ctx context.Context, actor *auth.Identity, f models.RequestFilter) (models.Page[models.Request], error) {
	if err := auth.RequireRole(actor, models.RoleCSR); err != nil {
		return models.Page[models.Request]{}, err
	}
	if f.Status == nil {
		open := models.StatusOpen
		f.Status = &open
	} else if *f.Status == models.StatusDraft {
		return models.NewPage[models.Request](nil, 0, f.Page), nil
	}
	return m.Search(ctx, f)
}

// Get returns one of actor's own requests. Requests owned by others are
// reported as NotFound.
func (m *Manager) Get(ctx context.Context, actor *auth.Identity, id int64) (*models.Request, error) {
	if err := auth.RequireRole(actor, models.RolePIN); err != nil {
		return nil, err
	}
	r, err := m.loadOwned(ctx, actor, id)
	if apperr.KindOf(err) == apperr.KindForbidden {
		return nil, apperr.NotFound("request not found")
	}
	return r, err
}

// View returns a request to a reviewer and counts the view. Drafts are
// invisible to reviewers.
func (m *Manager) View(ctx context.Context, actor *auth.Identity, id int64) (*models.Request, error) {
	if err := auth.RequireRole(actor, models.RoleCSR); err != nil {
		return nil, err
	}

	r, err := m.store.GetRequestByID(ctx, id)
	if errors.Is(err, db.ErrRequestNotFound) {
		return nil, apperr.NotFound("request not found")
	}
	if err != nil {
		return nil, m.storageErr("get", err)
	}
	if r.Status == models.StatusDraft {
		return nil, apperr.NotFound("request not found")
	}

	if err := m.store.IncrementRequestViews(ctx, id); err != nil {
		if errors.Is(err, db.ErrRequestNotFound) {
			return nil, apperr.NotFound("request not found")
		}
		return nil, m.storageErr("count view", err)
	}
	r.ViewCount++
	return r, nil
}

// Counters returns the view and shortlist counts of one of actor's requests.
func (m *Manager) Counters(ctx context.Context, actor *auth.Identity, id int64) (Counters, error) {
	r, err := m.Get(ctx, actor, id)
	if err != nil {
		return Counters{}, err
	}
	return Counters{Views: r.ViewCount, Shortlists: r.ShortlistCount}, nil
}

// Stats returns actor's request counts by status.
func (m *Manager) Stats(ctx context.Context, actor *auth.Identity) (models.StatusCounts, error) {
	if err := auth.RequireRole(actor, models.RolePIN); err != nil {
		return nil, err
	}
	counts, err := m.store.CountRequestsByStatus(ctx, &actor.AccountID)
	if err != nil {
		return nil, m.storageErr("stats", err)
	}
	return counts, nil
}
