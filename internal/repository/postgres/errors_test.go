package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dom/kavholm-api/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	down := errors.New("connection refused")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "username collision",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"},
			want: domain.ErrDuplicateUsername,
		},
		{
			name: "email collision",
			err:  fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}),
			want: domain.ErrDuplicateEmail,
		},
		{
			name: "unattributed collision",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "users_password_reset_token_idx"},
			want: domain.ErrDuplicateAccount,
		},
		{
			name: "gorm duplicated key",
			err:  gorm.ErrDuplicatedKey,
			want: domain.ErrDuplicateAccount,
		},
		{
			name: "record not found",
			err:  gorm.ErrRecordNotFound,
			want: domain.ErrAccountNotFound,
		},
		{
			name: "other failure",
			err:  down,
			want: down,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translateError(tt.err), tt.want)
		})
	}
}

func TestTranslateError_DuplicatesShareKind(t *testing.T) {
	assert.ErrorIs(t, translateError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}), domain.ErrDuplicateAccount)
	assert.ErrorIs(t, translateError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}), domain.ErrDuplicateAccount)
}

func TestTranslateError_Nil(t *testing.T) {
	assert.NoError(t, translateError(nil))
}

func TestTranslateError_OtherPgCode(t *testing.T) {
	err := translateError(&pgconn.PgError{Code: "23502"})
	assert.NotErrorIs(t, err, domain.ErrDuplicateAccount)
	assert.ErrorContains(t, err, "db error")
}
