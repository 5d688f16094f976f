package auth

import (
	"errors"
	"strings"
	"testing"

	"carematch/internal/apperr"
	"carematch/internal/models"
)

func TestSetPasswordAndVerify(t *testing.T) {
	a := &models.Account{}
	if err := SetPassword(a, "s3cret-pass"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	if a.PasswordHash == "" || a.PasswordHash == "s3cret-pass" {
		t.Fatalf("SetPassword() stored %q, want a hash", a.PasswordHash)
	}

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"correct", "s3cret-pass", true},
		{"wrong", "s3cret-pasS", false},
		{"prefix", "s3cret", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Verify(a, tt.password); got != tt.want {
				t.Errorf("Verify(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}

func TestSetPassword_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"empty", ""},
		{"too long", strings.Repeat("x", 73)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &models.Account{PasswordHash: "unchanged"}
			err := SetPassword(a, tt.password)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("SetPassword() error = %v, want validation error", err)
			}
			if a.PasswordHash != "unchanged" {
				t.Errorf("SetPassword() modified hash on failure")
			}
		})
	}
}

func TestVerify_NoHash(t *testing.T) {
	if Verify(nil, "x") {
		t.Error("Verify(nil) = true, want false")
	}
	if Verify(&models.Account{}, "x") {
		t.Error("Verify() with empty hash = true, want false")
	}
}

func TestSetCost_OutOfRange(t *testing.T) {
	defer SetCost(currentCost())

	SetCost(99)
	if got := currentCost(); got != 10 {
		t.Errorf("SetCost(99) cost = %d, want default 10", got)
	}
}
