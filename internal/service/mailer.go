package service

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mentormatch/mentor-match-go/internal/config"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NewMailer returns an SMTP mailer when SMTP_HOST is set and a logging
// mailer otherwise.
func NewMailer(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		return LogMailer{}
	}
	return &SMTPMailer{
		addr: net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		host: cfg.SMTPHost,
		from: cfg.MailFrom,
		user: cfg.SMTPUsername,
		pass: cfg.SMTPPassword,
	}
}

type SMTPMailer struct {
	addr string
	host string
	from string
	user string
	pass string
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	msg := buildMessage(m.from, to, subject, body)
	if err := smtp.SendMail(m.addr, auth, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// LogMailer is the development mailer. It logs the recipient and subject
// only, never the body, which carries reset links.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, to, subject, body string) error {
	log.Info().Str("to", to).Str("subject", subject).Msg("mail not sent: SMTP not configured")
	return nil
}
