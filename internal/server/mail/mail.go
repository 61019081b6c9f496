// Package mail delivers transactional email (verification and password
// reset codes).
package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/chitchat/internal/logging"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// sendMail is a seam for testing smtp.SendMail.
var sendMail = smtp.SendMail

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}

	if err := sendMail(addr, auth, envelopeAddress(m.cfg.From), []string{to}, compose(m.cfg.From, to, subject, body)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// envelopeAddress extracts "x@y" from "Name <x@y>".
func envelopeAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return from[i+1 : j]
		}
	}
	return from
}

func compose(from, to, subject, body string) []byte {
	var sb strings.Builder
	sb.WriteString("From: " + from + "\r\n")
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + subject + "\r\n")
	sb.WriteString("Date: " + time.Now().UTC().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return []byte(sb.String())
}

// LogMailer writes messages to the log instead of sending them. Used when
// no SMTP host is configured.
type LogMailer struct {
	log logging.Logger
}

func NewLogMailer(log logging.Logger) *LogMailer {
	return &LogMailer{log: log.With("module", "mail")}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.log.Info(ctx, "mail not sent, smtp disabled", "to", to, "subject", subject, "body", body)
	return nil
}

// OTPBody renders the text of a one-time code email.
func OTPBody(purpose, code string, validity time.Duration) string {
	return fmt.Sprintf("Your ChitChat %s code is %s.\r\nIt expires in %d minutes.\r\n",
		purpose, code, int(validity.Minutes()))
}
