package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dom/kavholm-api/internal/auth"
	"github.com/dom/kavholm-api/internal/domain"
	"github.com/dom/kavholm-api/internal/logging"
	"github.com/dom/kavholm-api/internal/repository"
)

// timingPassword is hashed once so that logins for unknown emails still pay
// for a bcrypt comparison.
const timingPassword = "kavholm-timing-equalizer"

type AccountService struct {
	accounts repository.AccountRepository
	hasher   *auth.PasswordHasher
	sessions *auth.SessionIssuer
	log      logging.Logger
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAccountService(accounts repository.AccountRepository, hasher *auth.PasswordHasher, sessions *auth.SessionIssuer, log logging.Logger) *AccountService {
	return &AccountService{
		accounts: accounts,
		hasher:   hasher,
		sessions: sessions,
		log:      log,
		now:      time.Now,
	}
}

type RegisterInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
	// IsAdmin is honoured only for trusted callers; HTTP registration always
	// passes false.
	IsAdmin bool
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	User  domain.PublicAccount
	Token string
}

func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if err := requireFields(
		field{"username", input.Username},
		field{"email", input.Email},
		field{"firstName", input.FirstName},
		field{"lastName", input.LastName},
	); err != nil {
		return nil, err
	}
	if err := requirePassword("password", input.Password); err != nil {
		return nil, err
	}

	hashed, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashed,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		IsAdmin:      input.IsAdmin,
		CreatedAt:    s.now(),
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrDuplicateAccount) {
			return nil, err
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.log.Info(ctx, "account registered", "account_id", account.ID, "username", account.Username)
	return s.authResult(account)
}

// Login checks credentials. Unknown emails and wrong passwords fail the same
// way with domain.ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if err := requireFields(field{"email", input.Email}); err != nil {
		return nil, err
	}
	if err := requirePassword("password", input.Password); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.hasher.Compare(s.timingHash(), input.Password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("fetch account: %w", err)
	}

	if !s.hasher.Compare(account.PasswordHash, input.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	return s.authResult(account)
}

// FetchByEmail returns the full stored account, or nil when none matches.
func (s *AccountService) FetchByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return s.fetch(s.accounts.GetByEmail(ctx, email))
}

// FetchByUsername returns the full stored account, or nil when none matches.
func (s *AccountService) FetchByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return s.fetch(s.accounts.GetByUsername(ctx, username))
}

func (s *AccountService) fetch(account *domain.Account, err error) (*domain.Account, error) {
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch account: %w", err)
	}
	return account, nil
}

// RequestPasswordReset issues a reset credential for the account registered
// under email. It returns nil, nil when no account matches so callers can
// answer identically either way.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) (*domain.Account, error) {
	cred, err := auth.NewResetCredential(s.now())
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(email) == "" {
		return nil, nil
	}

	account, err := s.accounts.SaveResetCredential(ctx, email, cred)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("save reset credential: %w", err)
	}

	s.log.Info(ctx, "password reset requested", "account_id", account.ID)
	return account, nil
}

// ResetPassword consumes token and sets newPassword. The token must belong to
// an account and be unexpired; it can be used once.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) (*domain.Account, error) {
	if err := requirePassword("newPassword", newPassword); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, domain.ErrInvalidOrExpiredToken
	}

	hashed, err := s.hashPassword(newPassword)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.ConsumeResetCredential(ctx, token, hashed, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOrExpiredToken) {
			return nil, err
		}
		return nil, fmt.Errorf("consume reset credential: %w", err)
	}

	s.log.Info(ctx, "password reset completed", "account_id", account.ID)
	return account, nil
}

// Authenticate verifies a session envelope. An invalid one yields
// domain.ErrUnauthenticated.
func (s *AccountService) Authenticate(token string) (domain.SessionClaims, error) {
	claims := s.sessions.Verify(token)
	if claims.IsZero() {
		return domain.SessionClaims{}, domain.ErrUnauthenticated
	}
	return claims, nil
}

// CurrentAccount resolves the account behind verified session claims.
func (s *AccountService) CurrentAccount(ctx context.Context, claims domain.SessionClaims) (*domain.Account, error) {
	if claims.IsZero() {
		return nil, domain.ErrUnauthenticated
	}
	account, err := s.FetchByUsername(ctx, claims.Username)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrUnauthenticated
	}
	return account, nil
}

// SeedAdmin creates an administrator unless the username or email is taken.
func (s *AccountService) SeedAdmin(ctx context.Context, input RegisterInput) error {
	input.IsAdmin = true
	_, err := s.Register(ctx, input)
	if errors.Is(err, domain.ErrDuplicateAccount) {
		s.log.Info(ctx, "admin account already present, skipping seed", "username", input.Username)
		return nil
	}
	return err
}

func (s *AccountService) authResult(account *domain.Account) (*AuthResult, error) {
	token, err := s.sessions.Issue(account)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &AuthResult{User: account.Public(), Token: token}, nil
}

func (s *AccountService) hashPassword(password string) (string, error) {
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		if auth.IsTooLong(err) {
			return "", domain.NewValidationError("Password must be at most 72 bytes.")
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hashed, nil
}

func (s *AccountService) timingHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(timingPassword)
	})
	return s.dummyHash
}

type field struct {
	name  string
	value string
}

// requireFields rejects values that are empty once trimmed.
func requireFields(fields ...field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return domain.NewValidationError("Missing %s in request body.", f.name)
		}
	}
	return nil
}

// requirePassword only rejects the empty string. Passwords are hashed as
// given, so whitespace is significant.
func requirePassword(name, password string) error {
	if password == "" {
		return domain.NewValidationError("Missing %s in request body.", name)
	}
	return nil
}
