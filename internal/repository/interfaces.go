package repository

import (
	"context"
	"time"

	"github.com/dom/kavholm-api/internal/domain"
)

// AccountRepository is the credential store. Lookups that match nothing return
// domain.ErrAccountNotFound; uniqueness violations on Create return an error
// wrapping domain.ErrDuplicateAccount.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)

	// SaveResetCredential stores cred on the account registered under email,
	// replacing any previous one.
	SaveResetCredential(ctx context.Context, email string, cred domain.ResetCredential) (*domain.Account, error)

	// ConsumeResetCredential swaps in passwordHash and clears the reset
	// credential of the account holding token, in one statement guarded on the
	// token still being present and unexpired at now. Returns
	// domain.ErrInvalidOrExpiredToken when nothing qualifies.
	ConsumeResetCredential(ctx context.Context, token, passwordHash string, now time.Time) (*domain.Account, error)
}

type Repositories struct {
	Account AccountRepository
}
