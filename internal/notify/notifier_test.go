package notify

import (
	"context"
	"html/template"
	"net/http"
	"testing"

	"github.com/dom/kavholm-api/internal/domain"
	"github.com/dom/kavholm-api/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier() (*Notifier, *InactiveGateway) {
	g := NewInactiveGateway(logging.Discard())
	n := NewNotifier(g, Config{
		FromAddress:     "noreply@kavholm.io",
		ClientURL:       "http://localhost:3000",
		ApplicationName: "Kavholm Homes",
	})
	return n, g
}

func TestNotifier_PasswordResetURL(t *testing.T) {
	n, _ := newTestNotifier()
	assert.Equal(t, "http://localhost:3000/password-reset?token=abc123", n.PasswordResetURL("abc123"))
}

func TestNotifier_SendPasswordReset(t *testing.T) {
	n, g := newTestNotifier()
	account := &domain.Account{Email: "lebron@james.io"}

	out := n.SendPasswordReset(context.Background(), account, "deadbeef")
	require.True(t, out.OK())

	sent := g.Sent()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, "lebron@james.io", msg.To)
	assert.Equal(t, "noreply@kavholm.io", msg.From)
	assert.Equal(t, "Reset your password for Kavholm Homes", msg.Subject)
	assert.Contains(t, msg.HTML, "http://localhost:3000/password-reset?token=deadbeef")
	assert.Contains(t, msg.Text, "http://localhost:3000/password-reset?token=deadbeef")
}

func TestNotifier_SendPasswordResetConfirmation(t *testing.T) {
	n, g := newTestNotifier()
	account := &domain.Account{Email: "lebron@james.io"}

	out := n.SendPasswordResetConfirmation(context.Background(), account)
	require.True(t, out.OK())

	sent := g.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Your Kavholm Homes password has been reset successfully.", sent[0].Subject)
	assert.NotContains(t, sent[0].HTML, "token=")
	assert.Contains(t, sent[0].HTML, "successful password reset")
}

func TestNotifier_MissingEmail(t *testing.T) {
	n, g := newTestNotifier()

	out := n.SendPasswordResetConfirmation(context.Background(), &domain.Account{})
	assert.False(t, out.OK())
	assert.ErrorIs(t, out.Err, ErrMissingRecipient)
	assert.Empty(t, g.Sent())
}

func TestNotifier_TemplateFailure(t *testing.T) {
	broken := template.Must(template.New("broken").Parse(`{{template "absent"}}`))
	account := &domain.Account{Email: "lebron@james.io"}

	tests := []struct {
		name string
		send func(n *Notifier) Outcome
	}{
		{
			name: "reset request",
			send: func(n *Notifier) Outcome {
				n.resetRequest = broken
				return n.SendPasswordReset(context.Background(), account, "deadbeef")
			},
		},
		{
			name: "reset confirmation",
			send: func(n *Notifier) Outcome {
				n.resetConfirm = broken
				return n.SendPasswordResetConfirmation(context.Background(), account)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, g := newTestNotifier()

			out := tt.send(n)

			assert.False(t, out.OK())
			assert.Equal(t, http.StatusInternalServerError, out.Status)
			assert.ErrorContains(t, out.Err, "render broken email")
			assert.Empty(t, g.Sent(), "nothing is sent with an empty body")
		})
	}
}
