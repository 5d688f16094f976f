package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"carematch/internal/apperr"
	"carematch/internal/db"
	"carematch/internal/metrics"
	"carematch/internal/models"
)

// SessionKeyAccountID is the session key holding the logged-in account id.
const SessionKeyAccountID = "account_id"

// Login failures. The wording never reveals whether the email exists.
var (
	ErrInvalidCredentials = apperr.Unauthorized("invalid credentials")
	ErrAccountSuspended   = apperr.Forbidden("account suspended")
)

// Session is the per-browser session state. *session.Middleware from
// fiber's session package satisfies it.
type Session interface {
	Get(key any) any
	Set(key, value any)
	Delete(key any)
	Regenerate() error
	Destroy() error
}

// AccountStore looks up accounts for authentication.
type AccountStore interface {
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
}

// Authenticator establishes and destroys session identities.
type Authenticator struct {
	store  AccountStore
	logger *slog.Logger
}

// NewAuthenticator creates a new authenticator.
func NewAuthenticator(store AccountStore, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{store: store, logger: logger}
}

// Login checks the credentials and binds the session to the account.
// It returns the role's landing page.
func (a *Authenticator) Login(ctx context.Context, sess Session, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		metrics.RecordLogin(metrics.LoginInvalid)
		return "", ErrInvalidCredentials
	}

	account, err := a.store.GetAccountByEmail(ctx, email)
	if errors.Is(err, db.ErrAccountNotFound) {
		burnCompare(password)
		metrics.RecordLogin(metrics.LoginInvalid)
		return "", ErrInvalidCredentials
	}
	if err != nil {
		a.logger.Error("login lookup failed", "error", err)
		return "", apperr.Storage(err)
	}

	if !Verify(account, password) {
		metrics.RecordLogin(metrics.LoginInvalid)
		return "", ErrInvalidCredentials
	}

	return a.establish(sess, account)
}

// LoginVerified binds the session to the account owning email without a
// password check. The caller must already have proven control of the email
// (e.g. through a verified OIDC ID token).
func (a *Authenticator) LoginVerified(ctx context.Context, sess Session, email string) (string, error) {
	account, err := a.store.GetAccountByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, db.ErrAccountNotFound) {
		metrics.RecordLogin(metrics.LoginInvalid)
		return "", ErrInvalidCredentials
	}
	if err != nil {
		a.logger.Error("login lookup failed", "error", err)
		return "", apperr.Storage(err)
	}
	return a.establish(sess, account)
}

func (a *Authenticator) establish(sess Session, account *models.Account) (string, error) {
	if !account.IsActive {
		metrics.RecordLogin(metrics.LoginSuspended)
		return "", ErrAccountSuspended
	}

	// Rotate the session id on every login.
	if err := sess.Regenerate(); err != nil {
		a.logger.Error("session regenerate failed", "error", err)
		return "", apperr.Storage(err)
	}
	sess.Set(SessionKeyAccountID, account.ID)

	metrics.RecordLogin(metrics.LoginSuccess)
	a.logger.Info("login", "account_id", account.ID, "role", account.Role)
	return Destination(account.Role), nil
}

// Logout clears the session. Calling it on an anonymous session is a no-op.
func (a *Authenticator) Logout(sess Session) error {
	if sess == nil || sess.Get(SessionKeyAccountID) == nil {
		return nil
	}
	sess.Delete(SessionKeyAccountID)
	if err := sess.Destroy(); err != nil {
		a.logger.Error("session destroy failed", "error", err)
		return apperr.Storage(err)
	}
	return nil
}

// Resolve loads the identity bound to the session. It returns Unauthorized
// for anonymous sessions or vanished accounts and Forbidden for suspended ones.
func (a *Authenticator) Resolve(ctx context.Context, sess Session) (*Identity, error) {
	if sess == nil {
		return nil, apperr.Unauthorized("authentication required")
	}
	id, ok := sessionAccountID(sess.Get(SessionKeyAccountID))
	if !ok {
		return nil, apperr.Unauthorized("authentication required")
	}

	account, err := a.store.GetAccountByID(ctx, id)
	if errors.Is(err, db.ErrAccountNotFound) {
		return nil, apperr.Unauthorized("authentication required")
	}
	if err != nil {
		a.logger.Error("session account lookup failed", "account_id", id, "error", err)
		return nil, apperr.Storage(err)
	}
	if !account.IsActive {
		return nil, ErrAccountSuspended
	}
	return IdentityOf(account), nil
}

// sessionAccountID normalises the stored id; storage backends may decode
// numbers with a different integer width.
func sessionAccountID(v any) (int64, bool) {
	switch id := v.(type) {
	case int64:
		return id, id > 0
	case int:
		return int64(id), id > 0
	case int32:
		return int64(id), id > 0
	case uint64:
		return int64(id), id > 0
	case float64:
		return int64(id), id > 0
	default:
		return 0, false
	}
}
