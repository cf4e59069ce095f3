package notification

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/gomail.v2"
)

type recordingMailer struct {
	messages []*gomail.Message
	err      error
}

func (m *recordingMailer) DialAndSend(msgs ...*gomail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msgs...)
	return nil
}

func newTestNotifier(mailer Mailer) *SMTPNotifier {
	return NewSMTPNotifier(mailer, SMTPOptions{
		From:                 "no-reply@seeker.com",
		AppName:              "Seeker",
		FrontendURL:          "https://seeker.com/",
		PasswordResetTTL:     time.Hour,
		EmailVerificationTTL: 24 * time.Hour,
	}, zap.NewNop())
}

func rendered(t *testing.T, m *gomail.Message) string {
	t.Helper()

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestSMTPNotifier_SendPasswordReset(t *testing.T) {
	mailer := &recordingMailer{}
	n := newTestNotifier(mailer)

	link := "https://seeker.com/reset-password?token=abc"
	require.NoError(t, n.SendPasswordReset(context.Background(), "alice@x.com", link))
	require.Len(t, mailer.messages, 1)

	m := mailer.messages[0]
	assert.Equal(t, []string{"alice@x.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Reset Your Seeker Password"}, m.GetHeader("Subject"))
	assert.Contains(t, m.GetHeader("From")[0], "no-reply@seeker.com")
	assert.Contains(t, rendered(t, m), "reset-password?token=3Dabc")
	assert.Contains(t, rendered(t, m), "expire in 1 hour.")
}

func TestSMTPNotifier_SendVerification(t *testing.T) {
	mailer := &recordingMailer{}
	n := newTestNotifier(mailer)

	require.NoError(t, n.SendVerification(context.Background(), "alice@x.com", "https://seeker.com/verify-email?token=xyz"))
	require.Len(t, mailer.messages, 1)

	assert.Equal(t, []string{"Verify Your Seeker Account"}, mailer.messages[0].GetHeader("Subject"))
	assert.Contains(t, rendered(t, mailer.messages[0]), "expire in 24 hours")
}

func TestSMTPNotifier_QuotesConfiguredTTL(t *testing.T) {
	mailer := &recordingMailer{}
	n := NewSMTPNotifier(mailer, SMTPOptions{
		From:                 "no-reply@seeker.com",
		AppName:              "Seeker",
		FrontendURL:          "https://seeker.com",
		PasswordResetTTL:     30 * time.Minute,
		EmailVerificationTTL: 72 * time.Hour,
	}, zap.NewNop())

	require.NoError(t, n.SendVerification(context.Background(), "alice@x.com", "https://seeker.com/verify-email?token=xyz"))
	require.NoError(t, n.SendPasswordReset(context.Background(), "alice@x.com", "https://seeker.com/reset-password?token=abc"))
	require.Len(t, mailer.messages, 2)

	verification := rendered(t, mailer.messages[0])
	assert.Contains(t, verification, "expire in 3 days.")
	assert.NotContains(t, verification, "24 hours")
	assert.Contains(t, rendered(t, mailer.messages[1]), "expire in 30 minutes.")
}

func TestHumanizeTTL(t *testing.T) {
	for d, want := range map[time.Duration]string{
		0:                "",
		time.Hour:        "1 hour",
		24 * time.Hour:   "24 hours",
		48 * time.Hour:   "2 days",
		90 * time.Minute: "90 minutes",
		45 * time.Second: "45 seconds",
	} {
		assert.Equal(t, want, humanizeTTL(d), d.String())
	}
}

func TestSMTPNotifier_SendWelcomeEscapesName(t *testing.T) {
	mailer := &recordingMailer{}
	n := newTestNotifier(mailer)

	require.NoError(t, n.SendWelcome(context.Background(), "alice@x.com", "<b>Alice</b>"))
	require.Len(t, mailer.messages, 1)

	body := rendered(t, mailer.messages[0])
	assert.Equal(t, []string{"Welcome to Seeker - Start Your Adventure!"}, mailer.messages[0].GetHeader("Subject"))
	assert.Contains(t, body, "&lt;b&gt;Alice&lt;/b&gt;")
	assert.Contains(t, body, "https://seeker.com/dashboard")
}

func TestSMTPNotifier_DeliveryFailure(t *testing.T) {
	n := newTestNotifier(&recordingMailer{err: errors.New("connection refused")})

	err := n.SendWelcome(context.Background(), "alice@x.com", "Alice")
	assert.ErrorContains(t, err, "connection refused")
}

func TestSMTPNotifier_CanceledContext(t *testing.T) {
	mailer := &recordingMailer{}
	n := newTestNotifier(mailer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, n.SendVerification(ctx, "alice@x.com", "link"), context.Canceled)
	assert.Empty(t, mailer.messages)
}

func TestLogNotifier_DoesNotLogLinks(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	n := NewLogNotifier(zap.New(core))

	require.NoError(t, n.SendPasswordReset(context.Background(), "alice@x.com", "https://seeker.com/reset-password?token=secret"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "alice@x.com", entries[0].ContextMap()["to"])
	assert.Equal(t, kindPasswordReset, entries[0].ContextMap()["kind"])
	for _, v := range entries[0].ContextMap() {
		assert.NotContains(t, v, "secret")
	}
}
