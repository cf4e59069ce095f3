package notification

import (
	"context"

	"go.uber.org/zap"
)

// Notifier delivers account emails. Callers treat delivery as
// fire-and-forget: a returned error is logged, never surfaced to clients.
type Notifier interface {
	SendPasswordReset(ctx context.Context, email, link string) error
	SendVerification(ctx context.Context, email, link string) error
	SendWelcome(ctx context.Context, email, name string) error
}

// LogNotifier is used when SMTP is not configured. It records that an email
// would have been sent without the link, which carries a bearer token.
type LogNotifier struct {
	logger *zap.Logger
}

var _ Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendPasswordReset(_ context.Context, email, _ string) error {
	n.skipped(kindPasswordReset, email)
	return nil
}

func (n *LogNotifier) SendVerification(_ context.Context, email, _ string) error {
	n.skipped(kindVerification, email)
	return nil
}

func (n *LogNotifier) SendWelcome(_ context.Context, email, _ string) error {
	n.skipped(kindWelcome, email)
	return nil
}

func (n *LogNotifier) skipped(kind, email string) {
	n.logger.Warn("Email delivery is not configured, email not sent",
		zap.String("kind", kind),
		zap.String("to", email),
	)
}
