package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer sends fully built messages. *gomail.Dialer satisfies it.
type Mailer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier renders account emails and delivers them through a Mailer.
type SMTPNotifier struct {
	mailer      Mailer
	from        string
	appName     string
	frontendURL string
	resetTTL    string
	verifyTTL   string
	logger      *zap.Logger
}

var _ Notifier = (*SMTPNotifier)(nil)

// SMTPOptions describes the sender identity and the links put in emails.
// The TTLs are quoted in the reset and verification emails.
type SMTPOptions struct {
	From                 string
	AppName              string
	FrontendURL          string
	PasswordResetTTL     time.Duration
	EmailVerificationTTL time.Duration
}

// NewSMTPDialer returns a gomail dialer using STARTTLS on the given port.
func NewSMTPDialer(host string, port int, user, password string) *gomail.Dialer {
	return gomail.NewDialer(host, port, user, password)
}

func NewSMTPNotifier(mailer Mailer, opts SMTPOptions, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		mailer:      mailer,
		from:        opts.From,
		appName:     opts.AppName,
		frontendURL: strings.TrimRight(opts.FrontendURL, "/"),
		resetTTL:    humanizeTTL(opts.PasswordResetTTL),
		verifyTTL:   humanizeTTL(opts.EmailVerificationTTL),
		logger:      logger,
	}
}

func (n *SMTPNotifier) SendPasswordReset(ctx context.Context, email, link string) error {
	return n.send(ctx, kindPasswordReset, email, templateData{Link: link, ExpiresIn: n.resetTTL})
}

func (n *SMTPNotifier) SendVerification(ctx context.Context, email, link string) error {
	return n.send(ctx, kindVerification, email, templateData{Link: link, ExpiresIn: n.verifyTTL})
}

func (n *SMTPNotifier) SendWelcome(ctx context.Context, email, name string) error {
	return n.send(ctx, kindWelcome, email, templateData{Name: name, Link: n.frontendURL + "/dashboard"})
}

func (n *SMTPNotifier) send(ctx context.Context, kind, to string, data templateData) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data.AppName = n.appName
	m, err := n.build(kind, to, data)
	if err != nil {
		return err
	}

	if err := n.mailer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}

	n.logger.Info("Email sent", zap.String("kind", kind), zap.String("to", to))
	return nil
}

func (n *SMTPNotifier) build(kind, to string, data templateData) (*gomail.Message, error) {
	subject, body, err := render(kind, data)
	if err != nil {
		return nil, err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", n.from, n.appName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	return m, nil
}
