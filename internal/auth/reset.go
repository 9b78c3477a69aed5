package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dom/kavholm-api/internal/domain"
)

const (
	resetTokenBytes = 20
	ResetTokenTTL   = time.Hour
)

// NewResetCredential draws a random hex token and stamps it to expire
// ResetTokenTTL after now.
func NewResetCredential(now time.Time) (domain.ResetCredential, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return domain.ResetCredential{}, fmt.Errorf("generate reset token: %w", err)
	}

	return domain.ResetCredential{
		Token:     hex.EncodeToString(buf),
		ExpiresAt: now.Add(ResetTokenTTL),
	}, nil
}
