package notify

import (
	"context"
	"errors"
	"fmt"

	mail "github.com/wneessen/go-mail"
)

// SMTPConfig configures the SMTP notifier.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is the sender address on outgoing mail.
	From string
	// AllowPlaintext disables TLS. Local relays and test servers only.
	AllowPlaintext bool
}

// SMTP delivers reset codes as plain-text email through an SMTP relay. Safe
// for concurrent use; each Send dials, delivers, and closes.
type SMTP struct {
	client *mail.Client
	from   string
}

// NewSMTP validates cfg and builds the notifier. No connection is made until
// the first Send.
func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" {
		return nil, errors.New("notify: smtp host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("notify: sender address is required")
	}

	opts := []mail.Option{
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if cfg.Port > 0 {
		opts = append(opts, mail.WithPort(cfg.Port))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	if cfg.AllowPlaintext {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("notify: smtp client: %w", err)
	}

	return &SMTP{client: client, from: cfg.From}, nil
}

// Send delivers one message to the given recipient.
func (s *SMTP) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("notify: invalid sender %q: %w", s.from, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("notify: invalid recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("notify: send to %q: %w", to, err)
	}
	return nil
}
