package postgres

import (
	"context"
	"time"

	"github.com/dom/kavholm-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *accountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	return translateError(r.db.WithContext(ctx).Create(account).Error)
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *accountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *accountRepository) first(ctx context.Context, query string, args ...interface{}) (*domain.Account, error) {
	var account domain.Account
	err := r.db.WithContext(ctx).Where(query, args...).First(&account).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

func (r *accountRepository) SaveResetCredential(ctx context.Context, email string, cred domain.ResetCredential) (*domain.Account, error) {
	var accounts []domain.Account
	err := r.db.WithContext(ctx).
		Model(&accounts).
		Clauses(clause.Returning{}).
		Where("email = ?", email).
		Updates(map[string]interface{}{
			"password_reset_token":        cred.Token,
			"password_reset_token_expiry": cred.ExpiresAt,
		}).Error
	if err != nil {
		return nil, translateError(err)
	}
	if len(accounts) == 0 {
		return nil, domain.ErrAccountNotFound
	}
	return &accounts[0], nil
}

func (r *accountRepository) ConsumeResetCredential(ctx context.Context, token, passwordHash string, now time.Time) (*domain.Account, error) {
	if token == "" {
		return nil, domain.ErrInvalidOrExpiredToken
	}

	// The token predicate is re-checked by the UPDATE itself, so of two
	// concurrent consumers only the first one to take the row lock matches.
	var accounts []domain.Account
	err := r.db.WithContext(ctx).
		Model(&accounts).
		Clauses(clause.Returning{}).
		Where("password_reset_token = ? AND password_reset_token_expiry > ?", token, now).
		Updates(map[string]interface{}{
			"password":                    passwordHash,
			"password_reset_token":        nil,
			"password_reset_token_expiry": nil,
		}).Error
	if err != nil {
		return nil, translateError(err)
	}
	if len(accounts) == 0 {
		return nil, domain.ErrInvalidOrExpiredToken
	}
	return &accounts[0], nil
}
