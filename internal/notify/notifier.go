package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"

	"github.com/dom/kavholm-api/internal/domain"
	"github.com/dom/kavholm-api/internal/logging"
)

type Config struct {
	Active          bool
	SendGridAPIKey  string
	FromAddress     string
	ClientURL       string
	ApplicationName string
}

// NewGateway returns a SendGrid-backed gateway when cfg.Active, otherwise an
// InactiveGateway.
func NewGateway(cfg Config, log logging.Logger) Gateway {
	if cfg.Active {
		return NewTransportGateway(NewSendGridTransport(cfg.SendGridAPIKey), log)
	}
	return NewInactiveGateway(log)
}

var (
	resetRequestTmpl = template.Must(template.New("reset").Parse(`<html>
  <body>
    <h1>Password Reset Notification</h1>
    <p>You are receiving this email because you made a request to reset the password for your account.</p>
    <p>Click on the link below to finish the password reset process</p>
    <a href="{{.URL}}">{{.URL}}</a>
    <p>If you did not make this request, contact support immediately.</p>
  </body>
</html>`))

	resetConfirmTmpl = template.Must(template.New("confirm").Parse(`<html>
  <body>
    <h1>Password Reset Notification</h1>
    <p>This is a confirmation of a successful password reset for your account.</p>
    <p>If you did not change your password, please contact support immediately.</p>
  </body>
</html>`))
)

// Notifier builds the account emails and sends them through a Gateway.
type Notifier struct {
	gateway Gateway
	cfg     Config

	resetRequest *template.Template
	resetConfirm *template.Template
}

func NewNotifier(gateway Gateway, cfg Config) *Notifier {
	return &Notifier{
		gateway:      gateway,
		cfg:          cfg,
		resetRequest: resetRequestTmpl,
		resetConfirm: resetConfirmTmpl,
	}
}

// PasswordResetURL is the client page that finishes a reset for token.
func (n *Notifier) PasswordResetURL(token string) string {
	return n.cfg.ClientURL + "/password-reset?token=" + url.QueryEscape(token)
}

func (n *Notifier) SendPasswordReset(ctx context.Context, account *domain.Account, token string) Outcome {
	resetURL := n.PasswordResetURL(token)

	html, err := render(n.resetRequest, struct{ URL string }{URL: resetURL})
	if err != nil {
		return Outcome{Status: http.StatusInternalServerError, Err: err}
	}

	msg := Message{
		To:      account.Email,
		From:    n.cfg.FromAddress,
		Subject: "Reset your password for " + n.cfg.ApplicationName,
		Text: "You are receiving this email because you made a request to reset the password for your account.\n\n" +
			"Finish the password reset process here: " + resetURL + "\n\n" +
			"If you did not make this request, contact support immediately.\n",
		HTML: html,
	}
	return n.gateway.Send(ctx, msg)
}

func (n *Notifier) SendPasswordResetConfirmation(ctx context.Context, account *domain.Account) Outcome {
	html, err := render(n.resetConfirm, nil)
	if err != nil {
		return Outcome{Status: http.StatusInternalServerError, Err: err}
	}

	msg := Message{
		To:      account.Email,
		From:    n.cfg.FromAddress,
		Subject: "Your " + n.cfg.ApplicationName + " password has been reset successfully.",
		Text: "This is a confirmation of a successful password reset for your account.\n\n" +
			"If you did not change your password, please contact support immediately.\n",
		HTML: html,
	}
	return n.gateway.Send(ctx, msg)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}
