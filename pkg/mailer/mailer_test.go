package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cchoiyon/PUBLISHTHIS/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSMTPMailerBuildsMessage(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "smtp.example.com", Port: 2525, Username: "u", Password: "p", From: "noreply@example.com"})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotBody []byte
	var gotAuth smtp.Auth
	m.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotBody = addr, a, from, to, msg
		return nil
	}

	err := m.Send(context.Background(), VerificationEmail("ann@example.com", "ann", "http://app/Account/Verify?token=abc", 24*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"ann@example.com"}, gotTo)
	body := string(gotBody)
	assert.Contains(t, body, "Subject: Confirm your email address\r\n")
	assert.Contains(t, body, "Content-Type: text/html")
	assert.Contains(t, body, `href="http://app/Account/Verify?token=abc"`)
}

func TestSMTPMailerSkipsAuthWithoutUsername(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "localhost", Port: 25, From: "a@b.c"})
	m.sendMail = func(_ string, a smtp.Auth, _ string, _ []string, _ []byte) error {
		assert.Nil(t, a)
		return errors.New("relay down")
	}

	err := m.Send(context.Background(), PasswordChangedEmail("x@y.z", "x"))
	assert.ErrorContains(t, err, "relay down")
}

func TestTemplatesEscapeInput(t *testing.T) {
	msg := ReservationReceivedEmail("g@example.com", "<script>", "Joe's", time.Date(2026, 5, 1, 19, 30, 0, 0, time.UTC), 4)
	assert.NotContains(t, msg.HTMLBody, "<script>")
	assert.Contains(t, msg.HTMLBody, "Friday, May 1, 2026 at 7:30 PM")

	code := TwoFactorEmail("a@b.c", "a", "123456", 15*time.Minute)
	assert.Contains(t, code.HTMLBody, "<strong>123456</strong>")
	assert.Contains(t, code.HTMLBody, "15 minutes")
}

func TestLinkEmailsStateConfiguredExpiry(t *testing.T) {
	verify := VerificationEmail("a@b.c", "a", "http://x", 48*time.Hour)
	assert.Contains(t, verify.HTMLBody, "expires in 48 hours.")

	reset := PasswordResetEmail("a@b.c", "a", "http://x", 30*time.Minute)
	assert.Contains(t, reset.HTMLBody, "expires in 30 minutes.")

	reset = PasswordResetEmail("a@b.c", "a", "http://x", time.Hour)
	assert.Contains(t, reset.HTMLBody, "expires in 1 hour.")
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (r *recordingMailer) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return r.err
}

func TestAsyncSenderDelivers(t *testing.T) {
	rec := &recordingMailer{}
	sender := NewAsyncSender(rec, zap.NewNop(), time.Second)

	sender.Dispatch(PasswordResetEmail("a@b.c", "a", "http://x", time.Hour))
	sender.Dispatch(PasswordChangedEmail("a@b.c", "a"))
	sender.Wait()

	require.Len(t, rec.sent, 2)
	subjects := []string{rec.sent[0].Subject, rec.sent[1].Subject}
	assert.Contains(t, strings.Join(subjects, "|"), "Reset your password")
}

func TestAsyncSenderSwallowsErrors(t *testing.T) {
	rec := &recordingMailer{err: errors.New("boom")}
	sender := NewAsyncSender(rec, zap.NewNop(), time.Second)

	sender.Dispatch(PasswordChangedEmail("a@b.c", "a"))
	sender.Wait()

	assert.Len(t, rec.sent, 1)
}
