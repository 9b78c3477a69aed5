// Package notify sends transactional email. A Gateway either hands messages to
// a real Transport (SendGrid) or, when inactive, only logs and records them.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/dom/kavholm-api/internal/logging"
)

var (
	ErrMissingRecipient = errors.New("missing to field")
	ErrDeliveryFailed   = errors.New("email delivery failed")
)

type Message struct {
	To      string
	From    string
	Subject string
	Text    string
	HTML    string
}

// Outcome is the uniform result of a send. Err is nil on success; on failure
// Status is at least 400.
type Outcome struct {
	Status  int
	Message Message
	Err     error
}

func (o Outcome) OK() bool {
	return o.Err == nil && o.Status < http.StatusBadRequest
}

type Gateway interface {
	Send(ctx context.Context, msg Message) Outcome
}

// Transport delivers a message and reports the provider's status code and
// response body.
type Transport interface {
	Deliver(ctx context.Context, msg Message) (status int, body string, err error)
}

type TransportGateway struct {
	transport Transport
	log       logging.Logger
}

func NewTransportGateway(transport Transport, log logging.Logger) *TransportGateway {
	return &TransportGateway{transport: transport, log: log}
}

func (g *TransportGateway) Send(ctx context.Context, msg Message) Outcome {
	if msg.To == "" {
		return Outcome{Status: http.StatusBadRequest, Message: msg, Err: ErrMissingRecipient}
	}

	status, body, err := g.transport.Deliver(ctx, msg)
	if err != nil {
		g.log.Error(ctx, "email delivery failed", "to", msg.To, "subject", msg.Subject, "error", err)
		return Outcome{
			Status:  http.StatusBadRequest,
			Message: msg,
			Err:     fmt.Errorf("%w: %s", ErrDeliveryFailed, err.Error()),
		}
	}

	if status < 200 || status >= 300 {
		g.log.Error(ctx, "email provider rejected message", "to", msg.To, "status", status)
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		return Outcome{
			Status:  status,
			Message: msg,
			Err:     fmt.Errorf("%w: status %d: %s", ErrDeliveryFailed, status, body),
		}
	}

	return Outcome{Status: status, Message: msg}
}

// InactiveGateway never touches the network. It accepts any message with a
// recipient and keeps a copy for inspection.
type InactiveGateway struct {
	log logging.Logger

	mu   sync.Mutex
	sent []Message
}

func NewInactiveGateway(log logging.Logger) *InactiveGateway {
	return &InactiveGateway{log: log}
}

func (g *InactiveGateway) Send(ctx context.Context, msg Message) Outcome {
	if msg.To == "" {
		return Outcome{Status: http.StatusBadRequest, Message: msg, Err: ErrMissingRecipient}
	}

	g.log.Info(ctx, "email service inactive, not sending", "to", msg.To, "from", msg.From, "subject", msg.Subject)

	g.mu.Lock()
	g.sent = append(g.sent, msg)
	g.mu.Unlock()

	return Outcome{Status: http.StatusAccepted, Message: msg}
}

// Sent returns a copy of every message accepted so far.
func (g *InactiveGateway) Sent() []Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Message, len(g.sent))
	copy(out, g.sent)
	return out
}

// Reset forgets recorded messages.
func (g *InactiveGateway) Reset() {
	g.mu.Lock()
	g.sent = nil
	g.mu.Unlock()
}
