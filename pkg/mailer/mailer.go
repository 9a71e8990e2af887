// Package mailer sends the account and reservation emails.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"github.com/cchoiyon/PUBLISHTHIS/pkg/config"
	"github.com/cchoiyon/PUBLISHTHIS/prometheus"
	"go.uber.org/zap"
)

// Message is a single outbound HTML email
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	// Template names the message kind for metrics and logs
	Template string
}

// Mailer delivers a message
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer delivers through an SMTP relay
type SMTPMailer struct {
	cfg      config.SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer creates a mailer for the configured relay
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, sendMail: smtp.SendMail}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := m.sendMail(addr, auth, m.cfg.From, []string{msg.To}, buildMIME(m.cfg.From, msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

func buildMIME(from string, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTMLBody)
	return []byte(b.String())
}

// LogMailer writes messages to the log instead of sending them.
// Used when SMTP is disabled.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info("Email not sent, SMTP disabled",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("template", msg.Template),
		zap.String("body", msg.HTMLBody))
	return nil
}

// AsyncSender delivers mail in the background so requests never wait on SMTP
type AsyncSender struct {
	mailer  Mailer
	log     *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsyncSender wraps mailer; each send is bounded by timeout
func NewAsyncSender(mailer Mailer, log *zap.Logger, timeout time.Duration) *AsyncSender {
	return &AsyncSender{mailer: mailer, log: log, timeout: timeout}
}

// Dispatch queues msg and returns immediately. Failures are logged and counted.
func (s *AsyncSender) Dispatch(msg Message) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		err := s.mailer.Send(ctx, msg)
		prometheus.RecordEmail(msg.Template, err)
		if err != nil {
			s.log.Error("Failed to send email",
				zap.String("to", msg.To),
				zap.String("template", msg.Template),
				zap.Error(err))
			return
		}
		s.log.Info("Email sent", zap.String("to", msg.To), zap.String("template", msg.Template))
	}()
}

// Wait blocks until every dispatched message has finished
func (s *AsyncSender) Wait() {
	s.wg.Wait()
}
