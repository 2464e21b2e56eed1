package mailer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds the settings for an SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers mail through an SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender creates a new SMTPSender.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send dials the relay and sends msg. gomail has no context support, so the
// send runs in its own goroutine and Send returns early when ctx is done.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail to %s: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogSender writes messages to the log instead of sending them. It is used
// when no SMTP relay is configured. Bodies carry verification links, so they
// are only logged at debug level.
type LogSender struct {
	// Logger overrides the global logger.
	Logger *zerolog.Logger
}

func (s LogSender) Send(_ context.Context, msg Message) error {
	logger := &log.Logger
	if s.Logger != nil {
		logger = s.Logger
	}
	logger.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("Mail delivery disabled; message logged")
	logger.Debug().Str("to", msg.To).Str("body", msg.Text).Msg("Undelivered message body")
	return nil
}
