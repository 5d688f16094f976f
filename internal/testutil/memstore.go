// Package testutil provides an in-memory store and fixtures for package tests.
package testutil

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"carematch/internal/db"
	"carematch/internal/models"
)

// ErrInjected is returned by every MemStore method once Fail is set.
var ErrInjected = errors.New("injected storage failure")

// MemStore is an in-memory implementation of the store interfaces used by
// the managers. It mirrors the Postgres store's sentinel errors and
// uniqueness rules.
type MemStore struct {
	mu sync.Mutex

	// Fail makes every call return ErrInjected.
	Fail bool

	nextID     int64
	accounts   map[int64]*models.Account
	profiles   map[int64]*models.Profile
	categories map[int64]*models.Category
	requests   map[int64]*models.Request
	shortlists []models.Shortlist
	matches    []models.MatchRecord
	now        time.Time
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		accounts:   make(map[int64]*models.Account),
		profiles:   make(map[int64]*models.Profile),
		categories: make(map[int64]*models.Category),
		requests:   make(map[int64]*models.Request),
		now:        time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *MemStore) id() int64 {
	m.nextID++
	return m.nextID
}

// tick returns a strictly increasing timestamp so ordering is deterministic.
func (m *MemStore) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

func (m *MemStore) check() error {
	if m.Fail {
		return ErrInjected
	}
	return nil
}

func paginate[T any](items []T, req models.PageRequest) models.Page[T] {
	req = req.Normalize()
	total := len(items)
	start := req.Offset()
	if start > total {
		start = total
	}
	end := start + req.Size
	if end > total {
		end = total
	}
	return models.NewPage(append([]T(nil), items[start:end]...), total, req)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// Ping always succeeds unless Fail is set.
func (m *MemStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.check()
}

// Profiles

func (m *MemStore) CreateProfile(ctx context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	for _, existing := range m.profiles {
		if existing.Name == p.Name {
			return db.ErrDuplicateProfile
		}
	}
	p.ID = m.id()
	p.CreatedAt = m.tick()
	cp := *p
	m.profiles[p.ID] = &cp
	return nil
}

func (m *MemStore) GetProfileByID(ctx context.Context, id int64) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	p, ok := m.profiles[id]
	if !ok {
		return nil, db.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemStore) GetProfileByName(ctx context.Context, name string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	for _, p := range m.profiles {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, db.ErrProfileNotFound
}

func (m *MemStore) UpdateProfile(ctx context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	existing, ok := m.profiles[p.ID]
	if !ok {
		return db.ErrProfileNotFound
	}
	for _, other := range m.profiles {
		if other.ID != p.ID && other.Name == p.Name {
			return db.ErrDuplicateProfile
		}
	}
	existing.Name = p.Name
	existing.Description = p.Description
	return nil
}

func (m *MemStore) SetProfileActive(ctx context.Context, id int64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	p, ok := m.profiles[id]
	if !ok {
		return db.ErrProfileNotFound
	}
	p.IsActive = active
	return nil
}

func (m *MemStore) ListProfiles(ctx context.Context, page models.PageRequest) (models.Page[models.Profile], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return models.Page[models.Profile]{}, err
	}
	var all []models.Profile
	for _, p := range m.profiles {
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, page), nil
}

// Accounts

func (m *MemStore) withProfileName(a models.Account) *models.Account {
	if p, ok := m.profiles[a.ProfileID]; ok {
		a.ProfileName = p.Name
	}
	return &a
}

func (m *MemStore) emailTaken(email string, exceptID int64) bool {
	for _, a := range m.accounts {
		if a.ID != exceptID && strings.EqualFold(a.Email, email) {
			return true
		}
	}
	return false
}

func (m *MemStore) CreateAccount(ctx context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	if m.emailTaken(a.Email, 0) {
		return db.ErrDuplicateEmail
	}
	if _, ok := m.profiles[a.ProfileID]; !ok {
		return db.ErrProfileNotFound
	}
	a.ID = m.id()
	a.CreatedAt = m.tick()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *MemStore) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	a, ok := m.accounts[id]
	if !ok {
		return nil, db.ErrAccountNotFound
	}
	return m.withProfileName(*a), nil
}

func (m *MemStore) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, email) {
			return m.withProfileName(*a), nil
		}
	}
	return nil, db.ErrAccountNotFound
}

func (m *MemStore) UpdateAccount(ctx context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	existing, ok := m.accounts[a.ID]
	if !ok {
		return db.ErrAccountNotFound
	}
	if m.emailTaken(a.Email, a.ID) {
		return db.ErrDuplicateEmail
	}
	if _, ok := m.profiles[a.ProfileID]; !ok {
		return db.ErrProfileNotFound
	}
	a.UpdatedAt = m.tick()
	a.IsActive = existing.IsActive
	a.CreatedAt = existing.CreatedAt
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *MemStore) SetAccountActive(ctx context.Context, id int64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	a, ok := m.accounts[id]
	if !ok {
		return db.ErrAccountNotFound
	}
	a.IsActive = active
	a.UpdatedAt = m.tick()
	return nil
}

func (m *MemStore) ListAccounts(ctx context.Context, f models.AccountFilter) (models.Page[models.Account], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return models.Page[models.Account]{}, err
	}
	var all []models.Account
	for _, a := range m.accounts {
		if f.Name != "" && !containsFold(a.Name, f.Name) {
			continue
		}
		if f.ProfileID != nil && a.ProfileID != *f.ProfileID {
			continue
		}
		all = append(all, *m.withProfileName(*a))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return paginate(all, f.Page), nil
}

func (m *MemStore) GetAccountStats(ctx context.Context) (models.AccountStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return models.AccountStats{}, err
	}
	s := models.AccountStats{Total: len(m.accounts), Profiles: len(m.profiles)}
	for _, a := range m.accounts {
		if a.IsActive {
			s.Active++
		} else {
			s.Suspended++
		}
	}
	return s, nil
}

func (m *MemStore) CountAccountsByRole(ctx context.Context) (map[models.Role]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	counts := make(map[models.Role]int)
	for _, a := range m.accounts {
		if a.IsActive {
			counts[a.Role]++
		}
	}
	return counts, nil
}

// Categories

func (m *MemStore) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	c, ok := m.categories[id]
	if !ok {
		return nil, db.ErrCategoryNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemStore) GetActiveCategories(ctx context.Context) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	var out []models.Category
	for _, c := range m.categories {
		if c.IsActive {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemStore) UpsertCategory(ctx context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	for _, existing := range m.categories {
		if existing.Name == c.Name {
			existing.IsActive = c.IsActive
			c.ID = existing.ID
			return nil
		}
	}
	c.ID = m.id()
	cp := *c
	m.categories[c.ID] = &cp
	return nil
}

// Requests

func (m *MemStore) withCategoryName(r models.Request) models.Request {
	if c, ok := m.categories[r.CategoryID]; ok {
		r.CategoryName = c.Name
	}
	return r
}

func (m *MemStore) CreateRequest(ctx context.Context, r *models.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	if _, ok := m.categories[r.CategoryID]; !ok {
		return db.ErrCategoryNotFound
	}
	r.ID = m.id()
	r.CreatedAt = m.tick()
	r.UpdatedAt = r.CreatedAt
	r.ViewCount = 0
	r.ShortlistCount = 0
	cp := *r
	m.requests[r.ID] = &cp
	return nil
}

func (m *MemStore) GetRequestByID(ctx context.Context, id int64) (*models.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	r, ok := m.requests[id]
	if !ok {
		return nil, db.ErrRequestNotFound
	}
	cp := m.withCategoryName(*r)
	return &cp, nil
}

func (m *MemStore) UpdateRequest(ctx context.Context, r *models.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	existing, ok := m.requests[r.ID]
	if !ok {
		return db.ErrRequestNotFound
	}
	if _, ok := m.categories[r.CategoryID]; !ok {
		return db.ErrCategoryNotFound
	}
	existing.CategoryID = r.CategoryID
	existing.Title = r.Title
	existing.Description = r.Description
	existing.Status = r.Status
	existing.UpdatedAt = m.tick()
	r.UpdatedAt = existing.UpdatedAt
	return nil
}

func (m *MemStore) DeleteRequest(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	if _, ok := m.requests[id]; !ok {
		return db.ErrRequestNotFound
	}
	kept := m.shortlists[:0]
	for _, s := range m.shortlists {
		if s.RequestID != id {
			kept = append(kept, s)
		}
	}
	m.shortlists = kept
	delete(m.requests, id)
	return nil
}

func (m *MemStore) IncrementRequestViews(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	r, ok := m.requests[id]
	if !ok {
		return db.ErrRequestNotFound
	}
	r.ViewCount++
	return nil
}

func matchesRequest(r *models.Request, f models.RequestFilter) bool {
	if f.PinID != nil && r.PinID != *f.PinID {
		return false
	}
	if f.Title != "" && !containsFold(r.Title, f.Title) {
		return false
	}
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	if f.CategoryID != nil && r.CategoryID != *f.CategoryID {
		return false
	}
	if f.From != nil && r.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !r.CreatedAt.Before(*f.To) {
		return false
	}
	return true
}

func (m *MemStore) SearchRequests(ctx context.Context, f models.RequestFilter) (models.Page[models.Request], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return models.Page[models.Request]{}, err
	}
	var all []models.Request
	for _, r := range m.requests {
		if matchesRequest(r, f) {
			all = append(all, m.withCategoryName(*r))
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return paginate(all, f.Page), nil
}

func (m *MemStore) CountRequestsByStatus(ctx context.Context, pinID *int64) (models.StatusCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	counts := make(models.StatusCounts)
	for _, s := range models.Statuses {
		counts[s] = 0
	}
	for _, r := range m.requests {
		if pinID == nil || r.PinID == *pinID {
			counts[r.Status]++
		}
	}
	return counts, nil
}

// Shortlists

func (m *MemStore) AddShortlist(ctx context.Context, csrID, requestID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return false, err
	}
	r, ok := m.requests[requestID]
	if !ok {
		return false, db.ErrRequestNotFound
	}
	for _, s := range m.shortlists {
		if s.CSRID == csrID && s.RequestID == requestID {
			return false, nil
		}
	}
	m.shortlists = append(m.shortlists, models.Shortlist{
		ID:        m.id(),
		CSRID:     csrID,
		RequestID: requestID,
		CreatedAt: m.tick(),
	})
	r.ShortlistCount++
	return true, nil
}

func (m *MemStore) RemoveShortlist(ctx context.Context, csrID, requestID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	for i, s := range m.shortlists {
		if s.CSRID == csrID && s.RequestID == requestID {
			m.shortlists = append(m.shortlists[:i], m.shortlists[i+1:]...)
			if r, ok := m.requests[requestID]; ok && r.ShortlistCount > 0 {
				r.ShortlistCount--
			}
			return nil
		}
	}
	return db.ErrShortlistNotFound
}

func (m *MemStore) IsShortlisted(ctx context.Context, csrID, requestID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return false, err
	}
	for _, s := range m.shortlists {
		if s.CSRID == csrID && s.RequestID == requestID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) SearchShortlist(ctx context.Context, f models.ShortlistFilter) (models.Page[models.Request], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return models.Page[models.Request]{}, err
	}
	var all []models.Request
	// Newest shortlist entry first.
	for i := len(m.shortlists) - 1; i >= 0; i-- {
		s := m.shortlists[i]
		if s.CSRID != f.CSRID {
			continue
		}
		r, ok := m.requests[s.RequestID]
		if !ok {
			continue
		}
		if f.CategoryID != nil && r.CategoryID != *f.CategoryID {
			continue
		}
		all = append(all, m.withCategoryName(*r))
	}
	return paginate(all, f.Page), nil
}

func (m *MemStore) CountShortlists(ctx context.Context, csrID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return 0, err
	}
	n := 0
	for _, s := range m.shortlists {
		if s.CSRID == csrID {
			n++
		}
	}
	return n, nil
}

func (m *MemStore) CountAllShortlists(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return 0, err
	}
	return len(m.shortlists), nil
}

// Match records

func (m *MemStore) CreateMatchRecord(ctx context.Context, rec *models.MatchRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return false, err
	}
	if _, ok := m.requests[rec.RequestID]; !ok {
		return false, db.ErrRequestNotFound
	}
	for _, existing := range m.matches {
		if existing.CSRID == rec.CSRID && existing.RequestID == rec.RequestID {
			return false, nil
		}
	}
	rec.ID = m.id()
	rec.MatchedAt = m.tick()
	m.matches = append(m.matches, *rec)
	return true, nil
}

func (m *MemStore) SearchMatchRecords(ctx context.Context, f models.MatchFilter) (models.Page[models.MatchRecord], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return models.Page[models.MatchRecord]{}, err
	}
	var all []models.MatchRecord
	for i := len(m.matches) - 1; i >= 0; i-- {
		rec := m.matches[i]
		r, ok := m.requests[rec.RequestID]
		if !ok {
			continue
		}
		if f.CSRID != nil && rec.CSRID != *f.CSRID {
			continue
		}
		if f.PinID != nil && r.PinID != *f.PinID {
			continue
		}
		if f.CategoryID != nil && rec.CategoryID != *f.CategoryID {
			continue
		}
		if f.From != nil && rec.MatchedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && !rec.MatchedAt.Before(*f.To) {
			continue
		}
		rec.RequestTitle = r.Title
		rec.PinID = r.PinID
		if c, ok := m.categories[rec.CategoryID]; ok {
			rec.CategoryName = c.Name
		}
		if a, ok := m.accounts[rec.CSRID]; ok {
			rec.CSRName = a.Name
		}
		all = append(all, rec)
	}
	return paginate(all, f.Page), nil
}

func (m *MemStore) CountMatches(ctx context.Context, csrID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return 0, err
	}
	n := 0
	for _, rec := range m.matches {
		if rec.CSRID == csrID {
			n++
		}
	}
	return n, nil
}

func (m *MemStore) CountAllMatches(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return 0, err
	}
	return len(m.matches), nil
}

// SetFail toggles injected storage failures.
func (m *MemStore) SetFail(fail bool) {
	m.mu.Lock()
	m.Fail = fail
	m.mu.Unlock()
}
