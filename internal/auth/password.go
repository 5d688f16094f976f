package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"

	"carematch/internal/apperr"
	"carematch/internal/models"
)

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

var (
	costMu     sync.RWMutex
	bcryptCost = bcrypt.DefaultCost

	dummyOnce sync.Once
	dummyHash []byte
)

// SetCost changes the bcrypt cost used for new hashes. Out-of-range values
// fall back to bcrypt.DefaultCost.
func SetCost(cost int) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	costMu.Lock()
	bcryptCost = cost
	costMu.Unlock()
}

func currentCost() int {
	costMu.RLock()
	defer costMu.RUnlock()
	return bcryptCost
}

// HashPassword derives a salted one-way hash of plaintext.
func HashPassword(plaintext string) (string, error) {
	if plaintext == "" {
		return "", apperr.Validation("password is required")
	}
	if len(plaintext) > maxPasswordBytes {
		return "", apperr.Validation("password must be at most 72 bytes")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), currentCost())
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// SetPassword hashes plaintext into the account. The plaintext is never stored.
func SetPassword(a *models.Account, plaintext string) error {
	hash, err := HashPassword(plaintext)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

// Verify reports whether plaintext matches the account's stored hash.
// The comparison runs in constant time.
func Verify(a *models.Account, plaintext string) bool {
	if a == nil || a.PasswordHash == "" || plaintext == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(plaintext)) == nil
}

// burnCompare performs one bcrypt comparison against a fixed hash so that
// lookups of unknown accounts cost about as much as real ones.
func burnCompare(plaintext string) {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("carematch-dummy-password"), currentCost())
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plaintext))
}
