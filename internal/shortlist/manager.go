// Package shortlist implements reviewer bookmarks on open requests and the
// append-only match history.
package shortlist

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"carematch/internal/apperr"
	"carematch/internal/auth"
	"carematch/internal/db"
	"carematch/internal/models"
)

// Store is the persistence the manager needs. *db.DB satisfies it.
type Store interface {
	GetRequestByID(ctx context.Context, id int64) (*models.Request, error)
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)
	AddShortlist(ctx context.Context, csrID, requestID int64) (bool, error)
	RemoveShortlist(ctx context.Context, csrID, requestID int64) error
	IsShortlisted(ctx context.Context, csrID, requestID int64) (bool, error)
	SearchShortlist(ctx context.Context, f models.ShortlistFilter) (models.Page[models.Request], error)
	CountShortlists(ctx context.Context, csrID int64) (int, error)
	CreateMatchRecord(ctx context.Context, m *models.MatchRecord) (bool, error)
	SearchMatchRecords(ctx context.Context, f models.MatchFilter) (models.Page[models.MatchRecord], error)
	CountMatches(ctx context.Context, csrID int64) (int, error)
	CountRequestsByStatus(ctx context.Context, pinID *int64) (models.StatusCounts, error)
}

// HistoryFilter narrows match history listings.
type HistoryFilter struct {
	CategoryID *int64
	From       *time.Time // matched_at >= From
	To         *time.Time // matched_at < To
	Page       models.PageRequest
}

// MatchNotifier is told about newly recorded matches.
type MatchNotifier interface {
	NotifyMatchRecorded(ctx context.Context, reviewer *models.Account, r *models.Request)
}

// Manager runs shortlist and match operations on behalf of an explicit identity.
type Manager struct {
	store    Store
	logger   *slog.Logger
	notifier MatchNotifier
}

// NewManager creates a new shortlist manager.
func NewManager(store Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, logger: logger}
}

// SetNotifier registers a notifier for recorded matches.
func (m *Manager) SetNotifier(n MatchNotifier) {
	m.notifier = n
}

func (m *Manager) storageErr(op string, err error) error {
	m.logger.Error("shortlist store failure", "op", op, "error", err)
	return apperr.Storage(err)
}

func (m *Manager) getRequest(ctx context.Context, id int64) (*models.Request, error) {
	r, err := m.store.GetRequestByID(ctx, id)
	if errors.Is(err, db.ErrRequestNotFound) {
		return nil, apperr.NotFound("request not found")
	}
	if err != nil {
		return nil, m.storageErr("get request", err)
	}
	return r, nil
}

// Add shortlists an open request for actor. It returns false when the
// request was already on actor's shortlist.
func (m *Manager) Add(ctx context.Context, actor *auth.Identity, requestID int64) (bool, error) {
	if err := auth.RequireRole(actor, models.RoleCSR); err != nil {
		return false, err
	}

	r, err := m.getRequest(ctx, requestID)
	if err != nil {
		return false, err
	}
	switch r.Status {
	case models.StatusDraft:
		return false, apperr.NotFound("request not found")
	case models.StatusOpen:
	default:
		return false, apperr.Validation("only open requests can be shortlisted")
	}

	added, err := m.store.AddShortlist(ctx, actor.AccountID, requestID)
	if errors.Is(err, db.ErrRequestNotFound) {
		return false, apperr.NotFound("request not found")
	}
	if err != nil {
		return false, m.storageErr("add", err)
	}
	if added {
		m.logger.Info("request shortlisted", "request_id", requestID, "csr_id", actor.AccountID)
	}
	return added, nil
}

// Remove takes a request off actor's shortlist.
func (m *Manager) Remove(ctx context.Context, actor *auth.Identity, requestID int64) error {
	if err := auth.RequireRole(actor, models.RoleCSR); err != nil {
		return err
	}

	err := m.store.RemoveShortlist(ctx, actor.AccountID, requestID)
	if errors.Is(err, db.ErrShortlistNotFound) {
		return apperr.NotFound("request is not on your shortlist")
	}
	if err != nil {
		return m.storageErr("remove", err)
	}
	return nil
}

// List returns one page of actor's shortlisted requests.
func (m *Manager) List(ctx context.Context, actor *auth.Identity, f models.ShortlistFilter) (models.Page[models.Request], error) {
	if err := auth.RequireRole(actor, models.RoleCSR); err != nil {
		return models.Page[models.Request]{}, err
	}
	f.CSRID = actor.AccountID

	page, err := m.store.SearchShortlist(ctx, f)
	if err != nil {
		return models.Page[models.Request]{}, m.storageErr("list", err)
	}
	return page, nil
}

// RecordMatch records that reviewerID fulfilled one of actor's completed
// requests. The reviewer must have shortlisted the request. It returns
// false when the pairing was already recorded.
func (m *Manager) RecordMatch(ctx context.Context, actor *auth.Identity, reviewerID, requestID int64) (bool, error) {
	if err := auth.RequireRole(actor, models.RolePIN); err != nil {
		return false, err
	}

	r, err := m.getRequest(ctx, requestID)
	if err != nil {
		return false, err
	}
	if !r.IsOwnedBy(actor.AccountID) {
		return false, apperr.Forbidden("not the owner of this request")
	}
	if !r.IsCompleted() {
		return false, apperr.Conflict("request must be completed before recording a match")
	}

	reviewer, err := m.store.GetAccountByID(ctx, reviewerID)
	if errors.Is(err, db.ErrAccountNotFound) || (err == nil && !reviewer.IsCSR()) {
		return false, apperr.Validation("unknown reviewer")
	}
	if err != nil {
		return false, m.storageErr("get reviewer", err)
	}

	shortlisted, err := m.store.IsShortlisted(ctx, reviewerID, requestID)
	if err != nil {
		return false, m.storageErr("check shortlist", err)
	}
	if !shortlisted {
		return false, apperr.Validation("reviewer has not shortlisted this request")
	}

	rec := &models.MatchRecord{CSRID: reviewerID, RequestID: requestID, CategoryID: r.CategoryID}
	created, err := m.store.CreateMatchRecord(ctx, rec)
	if errors.Is(err, db.ErrRequestNotFound) {
		return false, apperr.NotFound("request not found")
	}
	if err != nil {
		return false, m.storageErr("record match", err)
	}
	if created {
		m.logger.Info("match recorded", "match_id", rec.ID, "request_id", requestID, "csr_id", reviewerID)
		if m.notifier != nil {
			m.notifier.NotifyMatchRecorded(ctx, reviewer, r)
		}
	}
	return created, nil
}

func (f HistoryFilter) matchFilter() (models.MatchFilter, error) {
	mf := models.MatchFilter{CategoryID: f.CategoryID, From: f.From, To: f.To, Page: f.Page}
	if mf.From != nil && mf.To != nil && mf.To.Before(*mf.From) {
		return mf, apperr.Validation("invalid date range")
	}
	return mf, nil
}

// SearchHistory returns actor's own match history.
func (m *Manager) SearchHistory(ctx context.Context, actor *auth.Identity, f HistoryFilter) (models.Page[models.MatchRecord], error) {
	if err := auth.RequireRole(actor, models.RoleCSR); err != nil {
		return models.Page[models.MatchRecord]{}, err
	}
	mf, err := f.matchFilter()
	if err != nil {
		return models.Page[models.MatchRecord]{}, err
	}
	mf.CSRID = &actor.AccountID

	page, err := m.store.SearchMatchRecords(ctx, mf)
	if err != nil {
		return models.Page[models.MatchRecord]{}, m.storageErr("history", err)
	}
	return page, nil
}

// PinHistory returns the match records of actor's own requests.
func (m *Manager) PinHistory(ctx context.Context, actor *auth.Identity, f HistoryFilter) (models.Page[models.MatchRecord], error) {
	if err := auth.RequireRole(actor, models.RolePIN); err != nil {
		return models.Page[models.MatchRecord]{}, err
	}
	mf, err := f.matchFilter()
	if err != nil {
		return models.Page[models.MatchRecord]{}, err
	}
	mf.PinID = &actor.AccountID

	page, err := m.store.SearchMatchRecords(ctx, mf)
	if err != nil {
		return models.Page[models.MatchRecord]{}, m.storageErr("pin history", err)
	}
	return page, nil
}

// Stats returns the reviewer dashboard counts.
func (m *Manager) Stats(ctx context.Context, actor *auth.Identity) (models.ReviewerStats, error) {
	if err := auth.RequireRole(actor, models.RoleCSR); err != nil {
		return models.ReviewerStats{}, err
	}

	counts, err := m.store.CountRequestsByStatus(ctx, nil)
	if err != nil {
		return models.ReviewerStats{}, m.storageErr("stats", err)
	}
	shortlisted, err := m.store.CountShortlists(ctx, actor.AccountID)
	if err != nil {
		return models.ReviewerStats{}, m.storageErr("stats", err)
	}
	matches, err := m.store.CountMatches(ctx, actor.AccountID)
	if err != nil {
		return models.ReviewerStats{}, m.storageErr("stats", err)
	}

	return models.ReviewerStats{
		OpenRequests: counts[models.StatusOpen],
		Shortlisted:  shortlisted,
		Matches:      matches,
	}, nil
}
