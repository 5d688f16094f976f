// Package admin implements account and profile administration and the
// startup bootstrap of reference data.
package admin

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
	CreateAccount(ctx context.Context, a *models.Account) error
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdateAccount(ctx context.Context, a *models.Account) error
	SetAccountActive(ctx context.Context, id int64, active bool) error
	ListAccounts(ctx context.Context, f models.AccountFilter) (models.Page[models.Account], error)
	GetAccountStats(ctx context.Context) (models.AccountStats, error)

	CreateProfile(ctx context.Context, p *models.Profile) error
	GetProfileByID(ctx context.Context, id int64) (*models.Profile, error)
	GetProfileByName(ctx context.Context, name string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, p *models.Profile) error
	SetProfileActive(ctx context.Context, id int64, active bool) error
	ListProfiles(ctx context.Context, page models.PageRequest) (models.Page[models.Profile], error)

	UpsertCategory(ctx context.Context, c *models.Category) error
}

// AccountInput holds the editable fields of an account. Password is
// required on create and optional on update.
type AccountInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Age         int    `json:"age"`
	PhoneNumber string `json:"phone_number"`
	Role        string `json:"role"`
	ProfileID   int64  `json:"profile_id"`
}

// ProfileInput holds the editable fields of a profile.
type ProfileInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AccountNotifier is told about newly created accounts.
type AccountNotifier interface {
	NotifyAccountCreated(ctx context.Context, a *models.Account)
}

// Manager runs administration operations. Every call requires an admin identity.
type Manager struct {
	store    Store
	logger   *slog.Logger
	notifier AccountNotifier
}

// NewManager creates a new admin manager.
func NewManager(store Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, logger: logger}
}

// SetNotifier registers a notifier for created accounts.
func (m *Manager) SetNotifier(n AccountNotifier) {
	m.notifier = n
}

func (m *Manager) storageErr(op string, err error) error {
	m.logger.Error("admin store failure", "op", op, "error", err)
	return apperr.Storage(err)
}

func requireAdmin(actor *auth.Identity) error {
	return auth.RequireRole(actor, models.RoleAdmin)
}

// buildAccount validates in and copies it onto a.
func (m *Manager) buildAccount(ctx context.Context, a *models.Account, in AccountInput) error {
	name := strings.TrimSpace(in.Name)
	email := validation.NormalizeEmail(in.Email)
	phone := strings.TrimSpace(in.PhoneNumber)

	if ok, msg := validation.ValidateName(name); !ok {
		return apperr.Validation(msg)
	}
	if ok, msg := validation.ValidateEmail(email); !ok {
		return apperr.Validation(msg)
	}
	if ok, msg := validation.ValidateAge(in.Age); !ok {
		return apperr.Validation(msg)
	}
	if ok, msg := validation.ValidatePhone(phone); !ok {
		return apperr.Validation(msg)
	}
	role, ok := models.ParseRole(in.Role)
	if !ok {
		return apperr.Validation("unknown role")
	}
	// Existing accounts may stay on a profile that was suspended later.
	if a.ID == 0 || in.ProfileID != a.ProfileID {
		if err := m.checkProfile(ctx, in.ProfileID); err != nil {
			return err
		}
	}

	a.Name = name
	a.Email = email
	a.Age = in.Age
	a.PhoneNumber = phone
	a.Role = role
	a.ProfileID = in.ProfileID
	return nil
}

func (m *Manager) checkProfile(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperr.Validation("profile is required")
	}
	p, err := m.store.GetProfileByID(ctx, id)
	if errors.Is(err, db.ErrProfileNotFound) {
		return apperr.Validation("unknown profile")
	}
	if err != nil {
		return m.storageErr("get profile", err)
	}
	if !p.IsActive {
		return apperr.Validation("profile is suspended")
	}
	return nil
}

func (m *Manager) accountWriteErr(op string, err error) error {
	switch {
	case errors.Is(err, db.ErrDuplicateEmail):
		return apperr.Conflict("email already registered")
	case errors.Is(err, db.ErrProfileNotFound):
		return apperr.Validation("unknown profile")
	case errors.Is(err, db.ErrAccountNotFound):
		return apperr.NotFound("account not found")
	}
	return m.storageErr(op, err)
}

// CreateAccount registers a new active account.
func (m *Manager) CreateAccount(ctx context.Context, actor *auth.Identity, in AccountInput) (*models.Account, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	a := &models.Account{IsActive: true}
	if err := m.buildAccount(ctx, a, in); err != nil {
		return nil, err
	}
	if err := auth.SetPassword(a, in.Password); err != nil {
		return nil, err
	}

	if err := m.store.CreateAccount(ctx, a); err != nil {
		return nil, m.accountWriteErr("create account", err)
	}

	m.logger.Info("account created", "account_id", a.ID, "role", a.Role, "by", actor.AccountID)
	if m.notifier != nil {
		m.notifier.NotifyAccountCreated(ctx, a)
	}
	return a, nil
}

// UpdateAccount edits an account. An empty password keeps the current one.
func (m *Manager) UpdateAccount(ctx context.Context, actor *auth.Identity, id int64, in AccountInput) (*models.Account, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	a, err := m.GetAccount(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := m.buildAccount(ctx, a, in); err != nil {
		return nil, err
	}
	if id == actor.AccountID && a.Role != models.RoleAdmin {
		return nil, apperr.Conflict("cannot remove your own admin role")
	}
	if in.Password != "" {
		if err := auth.SetPassword(a, in.Password); err != nil {
			return nil, err
		}
	}

	if err := m.store.UpdateAccount(ctx, a); err != nil {
		return nil, m.accountWriteErr("update account", err)
	}
	return a, nil
}

// SetAccountActive suspends or reactivates an account. Admins cannot
// suspend themselves.
func (m *Manager) SetAccountActive(ctx context.Context, actor *auth.Identity, id int64, active bool) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if id == actor.AccountID && !active {
		return apperr.Conflict("cannot suspend your own account")
	}

	if err := m.store.SetAccountActive(ctx, id, active); err != nil {
		return m.accountWriteErr("set account active", err)
	}

	m.logger.Info("account status changed", "account_id", id, "active", active, "by", actor.AccountID)
	return nil
}

// GetAccount returns one account.
func (m *Manager) GetAccount(ctx context.Context, actor *auth.Identity, id int64) (*models.Account, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	a, err := m.store.GetAccountByID(ctx, id)
	if errors.Is(err, db.ErrAccountNotFound) {
		return nil, apperr.NotFound("account not found")
	}
	if err != nil {
		return nil, m.storageErr("get account", err)
	}
	return a, nil
}

// SearchAccounts lists accounts by name substring and/or profile.
func (m *Manager) SearchAccounts(ctx context.Context, actor *auth.Identity, f models.AccountFilter) (models.Page[models.Account], error) {
	if err := requireAdmin(actor); err != nil {
		return models.Page[models.Account]{}, err
	}
	f.Name = strings.TrimSpace(f.Name)

	page, err := m.store.ListAccounts(ctx, f)
	if err != nil {
		return models.Page[models.Account]{}, m.storageErr("list accounts", err)
	}
	return page, nil
}

func (m *Manager) profileWriteErr(op string, err error) error {
	switch {
	case errors.Is(err, db.ErrDuplicateProfile):
		return apperr.Conflict("profile name already exists")
	case errors.Is(err, db.ErrProfileNotFound):
		return apperr.NotFound("profile not found")
	}
	return m.storageErr(op, err)
}

// CreateProfile adds an active profile.
func (m *Manager) CreateProfile(ctx context.Context, actor *auth.Identity, in ProfileInput) (*models.Profile, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	p := &models.Profile{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		IsActive:    true,
	}
	if ok, msg := validation.ValidateName(p.Name); !ok {
		return nil, apperr.Validation(msg)
	}

	if err := m.store.CreateProfile(ctx, p); err != nil {
		return nil, m.profileWriteErr("create profile", err)
	}
	return p, nil
}

// UpdateProfile edits a profile's name and description.
func (m *Manager) UpdateProfile(ctx context.Context, actor *auth.Identity, id int64, in ProfileInput) (*models.Profile, error) {
	p, err := m.GetProfile(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	p.Name = strings.TrimSpace(in.Name)
	p.Description = strings.TrimSpace(in.Description)
	if ok, msg := validation.ValidateName(p.Name); !ok {
		return nil, apperr.Validation(msg)
	}

	if err := m.store.UpdateProfile(ctx, p); err != nil {
		return nil, m.profileWriteErr("update profile", err)
	}
	return p, nil
}

// SetProfileActive suspends or reactivates a profile. Accounts keep their
// profile; new accounts cannot be assigned a suspended one.
func (m *Manager) SetProfileActive(ctx context.Context, actor *auth.Identity, id int64, active bool) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := m.store.SetProfileActive(ctx, id, active); err != nil {
		return m.profileWriteErr("set profile active", err)
	}
	return nil
}

// GetProfile returns one profile.
func (m *Manager) GetProfile(ctx context.Context, actor *auth.Identity, id int64) (*models.Profile, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	p, err := m.store.GetProfileByID(ctx, id)
	if errors.Is(err, db.ErrProfileNotFound) {
		return nil, apperr.NotFound("profile not found")
	}
	if err != nil {
		return nil, m.storageErr("get profile", err)
	}
	return p, nil
}

// ListProfiles returns one page of profiles.
func (m *Manager) ListProfiles(ctx context.Context, actor *auth.Identity, page models.PageRequest) (models.Page[models.Profile], error) {
	if err := requireAdmin(actor); err != nil {
		return models.Page[models.Profile]{}, err
	}
	out, err := m.store.ListProfiles(ctx, page)
	if err != nil {
		return models.Page[models.Profile]{}, m.storageErr("list profiles", err)
	}
	return out, nil
}

// ListProfileAccounts returns the accounts assigned to a profile.
func (m *Manager) ListProfileAccounts(ctx context.Context, actor *auth.Identity, profileID int64, page models.PageRequest) (models.Page[models.Account], error) {
	if _, err := m.GetProfile(ctx, actor, profileID); err != nil {
		return models.Page[models.Account]{}, err
	}
	return m.SearchAccounts(ctx, actor, models.AccountFilter{ProfileID: &profileID, Page: page})
}

// Dashboard returns account and profile totals.
func (m *Manager) Dashboard(ctx context.Context, actor *auth.Identity) (models.AccountStats, error) {
	if err := requireAdmin(actor); err != nil {
		return models.AccountStats{}, err
	}
	stats, err := m.store.GetAccountStats(ctx)
	if err != nil {
		return models.AccountStats{}, m.storageErr("dashboard", err)
	}
	return stats, nil
}
