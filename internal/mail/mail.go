// Package mail delivers account and service notifications.
package mail

import (
	"context"
	"fmt"
	"sync"

	"gopkg.in/gomail.v2"

	"github.com/serviceinfo/serviceinfo/internal/config"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
)

// Message is a plain text email
type Message struct {
	To      string
	Subject string
	Body    string
	// Kind labels the message for metrics, e.g. "activation"
	Kind string
}

// Sender delivers messages
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender builds the sender selected by cfg.Backend
func NewSender(cfg config.MailConfig, log *logger.Logger) (Sender, error) {
	switch cfg.Backend {
	case "smtp":
		return NewSMTPSender(cfg), nil
	case "console":
		return NewConsoleSender(log), nil
	case "memory":
		return NewOutbox(), nil
	default:
		return nil, fmt.Errorf("unsupported mail backend: %s", cfg.Backend)
	}
}

// SMTPSender sends mail through an SMTP relay
type SMTPSender struct {
	from   string
	dialer *gomail.Dialer
}

// NewSMTPSender creates an SMTP sender
func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{
		from:   cfg.FromEmail,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
	}
}

// Send dials the relay and delivers msg
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", msg.To, err)
	}
	return nil
}

// ConsoleSender writes messages to the log instead of sending them
type ConsoleSender struct {
	logger *logger.Logger
}

// NewConsoleSender creates a console sender
func NewConsoleSender(log *logger.Logger) *ConsoleSender {
	return &ConsoleSender{logger: log}
}

// Send logs msg
func (s *ConsoleSender) Send(ctx context.Context, msg Message) error {
	s.logger.WithFields(map[string]interface{}{
		"to":      msg.To,
		"subject": msg.Subject,
		"kind":    msg.Kind,
		"body":    msg.Body,
	}).Info("Mail")
	return nil
}

// Outbox keeps sent messages in memory
type Outbox struct {
	mu       sync.Mutex
	messages []Message
}

// NewOutbox creates an empty outbox
func NewOutbox() *Outbox {
	return &Outbox{}
}

// Send appends msg to the outbox
func (o *Outbox) Send(ctx context.Context, msg Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, msg)
	return nil
}

// Messages returns a copy of the messages sent so far
func (o *Outbox) Messages() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Message(nil), o.messages...)
}

// Reset empties the outbox
func (o *Outbox) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = nil
}
