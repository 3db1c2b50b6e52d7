// Package mail renders reminder emails and delivers them over SMTP.
package mail

import (
	"context"

	"github.com/pkg/errors"
	gomail "github.com/wneessen/go-mail"

	"github.com/mrlokans/library/internal/config"
)

type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

var ErrNotConfigured = errors.New("mail server is not configured")

// SMTPMailer sends one message per connection.
type SMTPMailer struct {
	cfg config.Mail
}

func NewSMTPMailer(cfg config.Mail) (*SMTPMailer, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	return &SMTPMailer{cfg: cfg}, nil
}

func (m *SMTPMailer) clientOptions() []gomail.Option {
	opts := []gomail.Option{gomail.WithPort(m.cfg.Port)}
	if m.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}
	switch {
	case m.cfg.SSLTLS:
		opts = append(opts, gomail.WithSSL())
	case m.cfg.StartTLS:
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	default:
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}
	return opts
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	out := gomail.NewMsg()
	if err := out.FromFormat(m.cfg.FromName, m.cfg.From); err != nil {
		return errors.Wrap(err, "invalid from address")
	}
	if err := out.AddToFormat(msg.ToName, msg.To); err != nil {
		return errors.Wrapf(err, "invalid recipient %q", msg.To)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(gomail.TypeTextHTML, msg.HTML)

	client, err := gomail.NewClient(m.cfg.Server, m.clientOptions()...)
	if err != nil {
		return errors.Wrap(err, "create smtp client")
	}
	if err := client.DialAndSendWithContext(ctx, out); err != nil {
		return errors.Wrapf(err, "send mail to %s", msg.To)
	}
	return nil
}
