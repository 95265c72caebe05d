package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/wneessen/go-mail"
)

// Mailer delivers a single HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// NewMailer returns an SMTP mailer, or one that always fails with a configuration
// error when no relay is configured.
func NewMailer(cfg config.SMTPConfig) (Mailer, error) {
	if !cfg.Enabled() {
		return disabledMailer{}, nil
	}
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if strings.TrimSpace(cfg.User) != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.User),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &smtpMailer{client: client, from: cfg.From}, nil
}

type smtpMailer struct {
	client *mail.Client
	from   string
}

func (m *smtpMailer) Send(ctx context.Context, to, subject, html string) error {
	if strings.TrimSpace(to) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient required")
	}
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "invalid sender address")
	}
	if err := msg.To(to); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid recipient address")
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, html)
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send email")
	}
	return nil
}

type disabledMailer struct{}

func (disabledMailer) Send(context.Context, string, string, string) error {
	return pkgerrors.New(pkgerrors.CodeConfiguration, "email delivery not configured")
}
