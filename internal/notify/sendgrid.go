package notify

import (
	"context"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridTransport struct {
	client *sendgrid.Client
}

func NewSendGridTransport(apiKey string) *SendGridTransport {
	return &SendGridTransport{client: sendgrid.NewSendClient(apiKey)}
}

func (t *SendGridTransport) Deliver(ctx context.Context, msg Message) (int, string, error) {
	from := mail.NewEmail("", msg.From)
	to := mail.NewEmail("", msg.To)
	email := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	resp, err := t.client.SendWithContext(ctx, email)
	if err != nil {
		return 0, "", err
	}
	return resp.StatusCode, resp.Body, nil
}
