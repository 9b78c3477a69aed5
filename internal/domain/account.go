package domain

import "time"

// Account is a persisted user record. Reset credential fields are either both
// nil or both set.
type Account struct {
	ID                       int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	Username                 string     `json:"username" gorm:"not null"`
	Email                    string     `json:"email" gorm:"not null"`
	PasswordHash             string     `json:"-" gorm:"column:password;not null"`
	FirstName                string     `json:"firstName" gorm:"not null"`
	LastName                 string     `json:"lastName" gorm:"not null"`
	IsAdmin                  bool       `json:"isAdmin" gorm:"not null;default:false"`
	CreatedAt                time.Time  `json:"createdAt" gorm:"autoCreateTime;<-:create"`
	PasswordResetToken       *string    `json:"-"`
	PasswordResetTokenExpiry *time.Time `json:"-"`
}

func (Account) TableName() string {
	return "users"
}

// Public strips the password hash and reset credential.
func (a *Account) Public() PublicAccount {
	return PublicAccount{
		ID:        a.ID,
		Username:  a.Username,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		IsAdmin:   a.IsAdmin,
		CreatedAt: a.CreatedAt,
	}
}

// PublicAccount is the projection of an Account that is safe to return to
// clients.
type PublicAccount struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

// ResetCredential is a single-use password reset token and its expiry.
type ResetCredential struct {
	Token     string
	ExpiresAt time.Time
}

// SessionClaims is what a session envelope asserts about its bearer.
type SessionClaims struct {
	Username string
	IsAdmin  bool
}

// IsZero reports whether the claims are empty, i.e. unauthenticated.
func (c SessionClaims) IsZero() bool {
	return c.Username == ""
}
