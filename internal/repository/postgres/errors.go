package postgres

import (
	"errors"
	"fmt"

	"github.com/dom/kavholm-api/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	uniqueViolation = "23505"

	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

// translateError maps driver errors onto domain errors. Unique violations are
// attributed to the colliding column when the constraint name says which.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case usernameConstraint:
			return domain.ErrDuplicateUsername
		case emailConstraint:
			return domain.ErrDuplicateEmail
		default:
			return domain.ErrDuplicateAccount
		}
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicateAccount
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrAccountNotFound
	}

	return fmt.Errorf("db error: %w", err)
}
