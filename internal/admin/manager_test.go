package admin

import (
	"context"
	"errors"
	"os"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"carematch/internal/apperr"
	"carematch/internal/auth"
	"carematch/internal/config"
	"carematch/internal/models"
	"carematch/internal/testutil"
)

func TestMain(m *testing.M) {
	auth.SetCost(bcrypt.MinCost)
	os.Exit(m.Run())
}

type fixture struct {
	store   *testutil.MemStore
	mgr     *Manager
	admin   *auth.Identity
	csr     *auth.Identity
	profile *models.Profile
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewMemStore()
	adminAcct := testutil.SeedAccount(t, store, "admin@example.com", models.RoleAdmin)
	return &fixture{
		store:   store,
		mgr:     NewManager(store, nil),
		admin:   auth.IdentityOf(adminAcct),
		csr:     auth.IdentityOf(testutil.SeedAccount(t, store, "csr@example.com", models.RoleCSR)),
		profile: testutil.SeedProfile(t, store, "Volunteer"),
	}
}

func (f *fixture) input(email string) AccountInput {
	return AccountInput{
		Name:      "New Person",
		Email:     email,
		Password:  "pa55word!",
		Age:       28,
		Role:      "PIN",
		ProfileID: f.profile.ID,
	}
}

func TestCreateAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.mgr.CreateAccount(ctx, f.admin, f.input("  New@Example.com "))
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if a.Email != "new@example.com" {
		t.Errorf("email = %q, want normalised %q", a.Email, "new@example.com")
	}
	if a.Role != models.RolePIN || !a.IsActive {
		t.Errorf("account = %+v, want active pin", a)
	}
	if !auth.Verify(a, "pa55word!") {
		t.Error("Verify() = false for the password given at creation")
	}

	// the new account can log in
	if _, err := auth.NewAuthenticator(f.store, nil).Login(ctx, newSession(), "new@example.com", "pa55word!"); err != nil {
		t.Errorf("Login() as created account error = %v", err)
	}
}

func TestCreateAccount_Errors(t *testing.T) {
	f := newFixture(t)
	suspended := testutil.SeedProfile(t, f.store, "Retired")
	f.store.SetProfileActive(context.Background(), suspended.ID, false)

	tests := []struct {
		name    string
		actor   *auth.Identity
		mutate  func(*AccountInput)
		wantErr error
	}{
		{"not admin", f.csr, func(*AccountInput) {}, apperr.ErrForbidden},
		{"anonymous", nil, func(*AccountInput) {}, apperr.ErrUnauthorized},
		{"duplicate email", f.admin, func(in *AccountInput) { in.Email = "CSR@example.com" }, apperr.ErrConflict},
		{"bad email", f.admin, func(in *AccountInput) { in.Email = "nope" }, apperr.ErrValidation},
		{"empty name", f.admin, func(in *AccountInput) { in.Name = " " }, apperr.ErrValidation},
		{"unknown role", f.admin, func(in *AccountInput) { in.Role = "root" }, apperr.ErrValidation},
		{"no profile", f.admin, func(in *AccountInput) { in.ProfileID = 0 }, apperr.ErrValidation},
		{"suspended profile", f.admin, func(in *AccountInput) { in.ProfileID = suspended.ID }, apperr.ErrValidation},
		{"empty password", f.admin, func(in *AccountInput) { in.Password = "" }, apperr.ErrValidation},
		{"bad age", f.admin, func(in *AccountInput) { in.Age = -3 }, apperr.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.input("fresh@example.com")
			tt.mutate(&in)
			_, err := f.mgr.CreateAccount(context.Background(), tt.actor, in)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateAccount() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateAccount_KeepsPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, _ := f.mgr.CreateAccount(ctx, f.admin, f.input("keep@example.com"))

	in := f.input("keep@example.com")
	in.Password = ""
	in.Name = "Renamed"
	updated, err := f.mgr.UpdateAccount(ctx, f.admin, a.ID, in)
	if err != nil {
		t.Fatalf("UpdateAccount() error = %v", err)
	}
	if updated.Name != "Renamed" {
		t.Errorf("name = %q, want %q", updated.Name, "Renamed")
	}
	if !auth.Verify(updated, "pa55word!") {
		t.Error("UpdateAccount() with empty password replaced the hash")
	}
}

func TestUpdateAccount_SelfDemotion(t *testing.T) {
	f := newFixture(t)
	in := f.input("admin@example.com")
	in.Role = "csr"

	if _, err := f.mgr.UpdateAccount(context.Background(), f.admin, f.admin.AccountID, in); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("UpdateAccount() self demotion error = %v, want conflict", err)
	}
}

func TestSetAccountActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.mgr.SetAccountActive(ctx, f.admin, f.admin.AccountID, false); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("self suspend error = %v, want conflict", err)
	}
	if err := f.mgr.SetAccountActive(ctx, f.admin, 9999, false); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("suspend missing error = %v, want not found", err)
	}
	if err := f.mgr.SetAccountActive(ctx, f.admin, f.csr.AccountID, false); err != nil {
		t.Fatalf("SetAccountActive() error = %v", err)
	}

	_, err := auth.NewAuthenticator(f.store, nil).Login(ctx, newSession(), "csr@example.com", testutil.TestPassword)
	if !errors.Is(err, auth.ErrAccountSuspended) {
		t.Errorf("Login() after suspend error = %v, want %v", err, auth.ErrAccountSuspended)
	}

	stats, err := f.mgr.Dashboard(ctx, f.admin)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if stats.Total != 2 || stats.Suspended != 1 || stats.Active != 1 {
		t.Errorf("Dashboard() = %+v, want 2 total, 1 active, 1 suspended", stats)
	}
}

func TestProfiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.mgr.CreateProfile(ctx, f.admin, ProfileInput{Name: "Staff", Description: "Platform staff"})
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	if _, err := f.mgr.CreateProfile(ctx, f.admin, ProfileInput{Name: "Staff"}); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("CreateProfile() duplicate error = %v, want conflict", err)
	}
	if _, err := f.mgr.UpdateProfile(ctx, f.admin, p.ID, ProfileInput{Name: "Volunteer"}); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("UpdateProfile() to taken name error = %v, want conflict", err)
	}
	if _, err := f.mgr.UpdateProfile(ctx, f.admin, 9999, ProfileInput{Name: "X"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("UpdateProfile() missing error = %v, want not found", err)
	}

	in := f.input("staffer@example.com")
	in.ProfileID = p.ID
	if _, err := f.mgr.CreateAccount(ctx, f.admin, in); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	accounts, err := f.mgr.ListProfileAccounts(ctx, f.admin, p.ID, models.PageRequest{})
	if err != nil {
		t.Fatalf("ListProfileAccounts() error = %v", err)
	}
	if accounts.TotalCount != 1 || accounts.Items[0].ProfileName != "Staff" {
		t.Errorf("ListProfileAccounts() = %+v, want one Staff account", accounts.Items)
	}

	if err := f.mgr.SetProfileActive(ctx, f.admin, p.ID, false); err != nil {
		t.Fatalf("SetProfileActive() error = %v", err)
	}
	in = f.input("late@example.com")
	in.ProfileID = p.ID
	if _, err := f.mgr.CreateAccount(ctx, f.admin, in); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("CreateAccount() on suspended profile error = %v, want validation", err)
	}

	list, err := f.mgr.ListProfiles(ctx, f.csr, models.PageRequest{})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("ListProfiles() by csr = %+v, %v, want forbidden", list, err)
	}
}

func TestSearchAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := f.input("alice@example.com")
	in.Name = "Alice Tan"
	f.mgr.CreateAccount(ctx, f.admin, in)

	page, err := f.mgr.SearchAccounts(ctx, f.admin, models.AccountFilter{Name: "alice"})
	if err != nil {
		t.Fatalf("SearchAccounts() error = %v", err)
	}
	if page.TotalCount != 1 {
		t.Errorf("SearchAccounts(alice) total = %d, want 1", page.TotalCount)
	}
}

func TestBootstrap(t *testing.T) {
	store := testutil.NewMemStore()
	mgr := NewManager(store, nil)
	ctx := context.Background()
	t.Setenv("SEED_ADMIN_PASSWORD", "first-boot-secret")

	cfg := &config.YAMLConfig{
		Profiles:   []config.ProfileConfig{{Name: "Staff"}, {Name: "Volunteer"}},
		Categories: []string{"Tutoring", "Groceries"},
		Admin: &config.AdminSeedConfig{
			Name:        "Root",
			Email:       "Root@Example.com",
			Profile:     "Staff",
			PasswordEnv: "SEED_ADMIN_PASSWORD",
		},
	}

	for i := 0; i < 2; i++ {
		if err := mgr.Bootstrap(ctx, cfg); err != nil {
			t.Fatalf("Bootstrap() run %d error = %v", i+1, err)
		}
	}

	profiles, _ := store.ListProfiles(ctx, models.PageRequest{})
	if profiles.TotalCount != 2 {
		t.Errorf("profiles = %d, want 2", profiles.TotalCount)
	}
	categories, _ := store.GetActiveCategories(ctx)
	if len(categories) != 2 {
		t.Errorf("categories = %d, want 2", len(categories))
	}
	stats, _ := store.GetAccountStats(ctx)
	if stats.Total != 1 {
		t.Errorf("accounts = %d, want 1", stats.Total)
	}

	dest, err := auth.NewAuthenticator(store, nil).Login(ctx, newSession(), "root@example.com", "first-boot-secret")
	if err != nil || dest != "/admin/dashboard" {
		t.Errorf("Login() as seeded admin = %q, %v, want /admin/dashboard", dest, err)
	}
}

func TestBootstrap_NoPassword(t *testing.T) {
	store := testutil.NewMemStore()
	t.Setenv("EMPTY_PASSWORD", "")
	cfg := &config.YAMLConfig{
		Profiles: []config.ProfileConfig{{Name: "Staff"}},
		Admin:    &config.AdminSeedConfig{Email: "root@example.com", Profile: "Staff", PasswordEnv: "EMPTY_PASSWORD"},
	}

	if err := NewManager(store, nil).Bootstrap(context.Background(), cfg); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if stats, _ := store.GetAccountStats(context.Background()); stats.Total != 0 {
		t.Errorf("accounts = %d, want 0 without a password", stats.Total)
	}
	if err := NewManager(store, nil).Bootstrap(context.Background(), nil); err != nil {
		t.Errorf("Bootstrap(nil) error = %v", err)
	}
}

// session is a minimal auth.Session.
type session map[any]any

func newSession() session { return session{} }

func (s session) Get(key any) any    { return s[key] }
func (s session) Set(key, value any) { s[key] = value }
func (s session) Delete(key any)     { delete(s, key) }
func (s session) Regenerate() error  { return nil }
func (s session) Destroy() error {
	for k := range s {
		delete(s, k)
	}
	return nil
}

type recordingNotifier struct {
	emails []string
}

func (n *recordingNotifier) NotifyAccountCreated(ctx context.Context, a *models.Account) {
	n.emails = append(n.emails, a.Email)
}

func TestCreateAccount_Notifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	notifier := &recordingNotifier{}
	f.mgr.SetNotifier(notifier)

	if _, err := f.mgr.CreateAccount(ctx, f.admin, f.input("welcome@example.com")); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if _, err := f.mgr.CreateAccount(ctx, f.admin, f.input("welcome@example.com")); err == nil {
		t.Fatal("CreateAccount() duplicate succeeded")
	}

	if len(notifier.emails) != 1 || notifier.emails[0] != "welcome@example.com" {
		t.Errorf("notified %v, want only welcome@example.com", notifier.emails)
	}
}
