/*
accounts.go - Customer accounts, guest profiles and the admin secret

PURPOSE:
  A thin layer over three tables. Accounts are append-only and keyed by
  username; profiles are upserted by username; the admin secret is a single
  line replaced wholesale.

CREDENTIALS:
  Customers log in with username + phone. The admin logs in with the
  password held in admin_pass. Both are stored as plain text.

SEE ALSO:
  - validation.go: Username and phone shape rules
  - engine.go: Uses GetProfile for the booking completeness check
*/
package hotel

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/warp/hotel-engine/generic"
	"go.uber.org/zap"
)

// DefaultAdminPassword initializes admin_pass when it is absent.
const DefaultAdminPassword = "admin123"

// Accounts implements the account, profile and admin secret operations.
type Accounts struct {
	accounts *generic.Table[Account]
	profiles *generic.Table[Profile]
	admin    *generic.Table[string]

	defaultAdminPassword string

	log *zap.Logger
	mu  sync.Mutex
}

// NewAccounts binds the account tables to backend. An empty adminDefault
// falls back to DefaultAdminPassword.
func NewAccounts(backend generic.Backend, adminDefault string, log *zap.Logger) *Accounts {
	if log == nil {
		log = zap.NewNop()
	}
	if adminDefault == "" {
		adminDefault = DefaultAdminPassword
	}
	return &Accounts{
		accounts:             generic.NewTable(backend, AccountSchema, log),
		profiles:             generic.NewTable(backend, ProfileSchema, log),
		admin:                generic.NewTable(backend, AdminSecretSchema, log),
		defaultAdminPassword: adminDefault,
		log:                  log.Named("accounts"),
	}
}

// =============================================================================
// ACCOUNTS
// =============================================================================

// Register appends the account unless the username is taken, in which case
// it returns false.
func (a *Accounts) Register(ctx context.Context, username, phone string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	taken, err := a.UsernameExists(ctx, username)
	if err != nil {
		return false, err
	}
	if taken {
		return false, nil
	}
	if err := a.accounts.Append(ctx, Account{Username: username, Phone: phone}); err != nil {
		return false, fieldError(err)
	}
	a.log.Info("account registered", zap.String("username", username))
	return true, nil
}

// SignUp applies the sign-up form rules, then registers the account.
func (a *Accounts) SignUp(ctx context.Context, username, phone, confirmPhone string) error {
	if !IsValidUsername(username) {
		return ErrInvalidUsername
	}
	if !IsValidPhone(phone) {
		return ErrInvalidPhone
	}
	if phone != confirmPhone {
		return ErrPhoneMismatch
	}
	ok, err := a.Register(ctx, username, phone)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUsernameTaken
	}
	return nil
}

func (a *Accounts) UsernameExists(ctx context.Context, username string) (bool, error) {
	return a.accounts.Any(ctx, func(acc Account) bool { return acc.Username == username })
}

// ValidateCredentials is true iff an account matches both fields exactly.
func (a *Accounts) ValidateCredentials(ctx context.Context, username, phone string) (bool, error) {
	return a.accounts.Any(ctx, func(acc Account) bool {
		return acc.Username == username && acc.Phone == phone
	})
}

// Login returns a customer session for valid credentials.
func (a *Accounts) Login(ctx context.Context, username, phone string) (Session, error) {
	ok, err := a.ValidateCredentials(ctx, username, phone)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrInvalidCredentials
	}
	return Session{Username: username}, nil
}

// =============================================================================
// PROFILES
// =============================================================================

// SaveProfile creates or replaces the profile for p.Username.
func (a *Accounts) SaveProfile(ctx context.Context, p Profile) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	inserted, err := a.profiles.Upsert(ctx, func(existing Profile) bool {
		return existing.Username == p.Username
	}, p)
	if err != nil {
		return fieldError(err)
	}
	a.log.Info("profile saved", zap.String("username", p.Username), zap.Bool("created", inserted))
	return nil
}

// GetProfile returns the user's profile, or an all-empty Profile when there
// is none.
func (a *Accounts) GetProfile(ctx context.Context, username string) (Profile, error) {
	p, _, err := a.profiles.Find(ctx, func(p Profile) bool { return p.Username == username })
	return p, err
}

func (a *Accounts) ProfileExists(ctx context.Context, username string) (bool, error) {
	return a.profiles.Any(ctx, func(p Profile) bool { return p.Username == username })
}

// =============================================================================
// ADMIN SECRET
// =============================================================================

// EnsureAdminSecret writes the default admin password when the admin_pass
// table does not exist and returns the current one. An existing table is
// never re-defaulted; one holding only blank lines yields "".
func (a *Accounts) EnsureAdminSecret(ctx context.Context) (string, error) {
	exists, err := a.admin.Exists(ctx)
	if err != nil {
		return "", err
	}
	if exists {
		secret, found, err := a.admin.Find(ctx, nil)
		if err != nil {
			return "", err
		}
		if !found {
			a.log.Warn("admin password table holds no usable secret")
		}
		return secret, nil
	}
	if err := a.admin.Replace(ctx, []string{a.defaultAdminPassword}); err != nil {
		return "", err
	}
	a.log.Warn("admin password initialized to default")
	return a.defaultAdminPassword, nil
}

// ValidateAdminPassword compares candidate with the stored secret,
// initializing it to the default first if absent. A blank secret matches
// nothing.
func (a *Accounts) ValidateAdminPassword(ctx context.Context, candidate string) (bool, error) {
	secret, err := a.EnsureAdminSecret(ctx)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(secret) == "" {
		return false, nil
	}
	return candidate == secret, nil
}

// AdminLogin returns an admin session for the right password.
func (a *Accounts) AdminLogin(ctx context.Context, password string) (Session, error) {
	ok, err := a.ValidateAdminPassword(ctx, password)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrInvalidAdminPassword
	}
	return Session{Admin: true}, nil
}

// ChangeAdminPassword replaces the admin secret.
func (a *Accounts) ChangeAdminPassword(ctx context.Context, password, confirm string) error {
	if strings.TrimSpace(password) == "" {
		return ErrBlankPassword
	}
	if len(password) < minAdminPwLen {
		return ErrPasswordTooShort
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	if strings.ContainsAny(password, "\r\n") {
		return ErrInvalidField
	}
	if err := a.admin.Replace(ctx, []string{password}); err != nil {
		return err
	}
	a.log.Info("admin password changed")
	return nil
}

// fieldError turns an encoder refusal into the user-facing rejection.
func fieldError(err error) error {
	if errors.Is(err, generic.ErrInvalidField) {
		return ErrInvalidField
	}
	return err
}
