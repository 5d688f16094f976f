package testutil

import (
	"context"
	"fmt"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"carematch/internal/models"
)

// TestPassword is the plaintext password of every fixture account.
const TestPassword = "correct horse battery"

var fixtureHash string

func init() {
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	fixtureHash = string(hash)
}

// SeedProfile creates an active profile.
func SeedProfile(t *testing.T, s *MemStore, name string) *models.Profile {
	t.Helper()
	p := &models.Profile{Name: name, Description: name, IsActive: true}
	if err := s.CreateProfile(context.Background(), p); err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	return p
}

// SeedAccount creates an active account with TestPassword, creating a
// default profile on first use.
func SeedAccount(t *testing.T, s *MemStore, email string, role models.Role) *models.Account {
	t.Helper()
	ctx := context.Background()

	profile, err := s.GetProfileByName(ctx, "Default")
	if err != nil {
		profile = SeedProfile(t, s, "Default")
	}

	a := &models.Account{
		Name:         fmt.Sprintf("%s %s", role, email),
		Email:        email,
		PasswordHash: fixtureHash,
		Age:          30,
		PhoneNumber:  "555-0100",
		Role:         role,
		ProfileID:    profile.ID,
		IsActive:     true,
	}
	if err := s.CreateAccount(ctx, a); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	return a
}

// SeedCategory creates an active category.
func SeedCategory(t *testing.T, s *MemStore, name string) *models.Category {
	t.Helper()
	c := &models.Category{Name: name, IsActive: true}
	if err := s.UpsertCategory(context.Background(), c); err != nil {
		t.Fatalf("UpsertCategory() error = %v", err)
	}
	return c
}

// SeedRequest creates a request owned by pinID in the given status.
func SeedRequest(t *testing.T, s *MemStore, pinID, categoryID int64, title string, status models.Status) *models.Request {
	t.Helper()
	r := &models.Request{
		PinID:       pinID,
		CategoryID:  categoryID,
		Title:       title,
		Description: "Description for " + title,
		Status:      status,
	}
	if err := s.CreateRequest(context.Background(), r); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}
	return r
}
