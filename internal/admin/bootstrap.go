package admin

import (
	"context"
	"errors"
	"fmt"

	"carematch/internal/auth"
	"carematch/internal/config"
	"carematch/internal/db"
	"carematch/internal/models"
	"carematch/internal/validation"
)

// Bootstrap seeds profiles, categories and the initial admin account from
// cfg. Existing rows are left untouched, so it is safe to run on every start.
func (m *Manager) Bootstrap(ctx context.Context, cfg *config.YAMLConfig) error {
	if cfg == nil {
		return nil
	}

	for _, pc := range cfg.Profiles {
		if err := m.ensureProfile(ctx, pc); err != nil {
			return err
		}
	}

	for _, name := range cfg.Categories {
		c := &models.Category{Name: name, IsActive: true}
		if err := m.store.UpsertCategory(ctx, c); err != nil {
			return fmt.Errorf("seed category %q: %w", name, err)
		}
	}

	if cfg.Admin != nil {
		if cfg.GetProfileByName(cfg.Admin.Profile) == nil {
			m.logger.Warn("admin profile is not listed under profiles", "profile", cfg.Admin.Profile)
		}
		return m.ensureAdmin(ctx, cfg.Admin)
	}
	return nil
}

func (m *Manager) ensureProfile(ctx context.Context, pc config.ProfileConfig) error {
	_, err := m.store.GetProfileByName(ctx, pc.Name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, db.ErrProfileNotFound) {
		return fmt.Errorf("look up profile %q: %w", pc.Name, err)
	}

	p := &models.Profile{Name: pc.Name, Description: pc.Description, IsActive: true}
	if err := m.store.CreateProfile(ctx, p); err != nil && !errors.Is(err, db.ErrDuplicateProfile) {
		return fmt.Errorf("seed profile %q: %w", pc.Name, err)
	}
	m.logger.Info("profile seeded", "name", pc.Name)
	return nil
}

func (m *Manager) ensureAdmin(ctx context.Context, ac *config.AdminSeedConfig) error {
	email := validation.NormalizeEmail(ac.Email)
	if ok, msg := validation.ValidateEmail(email); !ok {
		return fmt.Errorf("admin seed: %s", msg)
	}

	_, err := m.store.GetAccountByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, db.ErrAccountNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}

	password := ac.Password()
	if password == "" {
		m.logger.Warn("admin account not seeded: password env var is empty", "env", ac.PasswordEnv)
		return nil
	}

	profile, err := m.store.GetProfileByName(ctx, ac.Profile)
	if err != nil {
		return fmt.Errorf("admin seed profile %q: %w", ac.Profile, err)
	}

	a := &models.Account{
		Name:      ac.Name,
		Email:     email,
		Role:      models.RoleAdmin,
		ProfileID: profile.ID,
		IsActive:  true,
	}
	if err := auth.SetPassword(a, password); err != nil {
		return fmt.Errorf("admin seed: %w", err)
	}
	if err := m.store.CreateAccount(ctx, a); err != nil && !errors.Is(err, db.ErrDuplicateEmail) {
		return fmt.Errorf("seed admin: %w", err)
	}

	m.logger.Info("admin account seeded", "email", email)
	return nil
}
