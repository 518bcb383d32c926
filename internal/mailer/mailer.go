// Package mailer delivers transactional email.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"

	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/config"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Gateway sends one message. Implementations must not retry on their own;
// a failed send is reported to the caller.
type Gateway interface {
	Send(ctx context.Context, msg Message) error
}

// New picks the SMTP gateway when it is configured and the log gateway
// otherwise. Production refuses to start without SMTP.
func New(cfg *config.Config) (Gateway, error) {
	if cfg.SMTPEnabled() {
		return NewSMTPGateway(cfg), nil
	}
	if cfg.IsProduction() {
		return nil, errors.New("SMTP_HOST and SMTP_FROM are required in production")
	}
	slog.Warn("SMTP not configured, recovery emails will only be logged without their body")
	return LogGateway{}, nil
}

type SMTPGateway struct {
	addr string
	host string
	from string
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPGateway(cfg *config.Config) *SMTPGateway {
	var auth smtp.Auth
	if cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return &SMTPGateway{
		addr: net.JoinHostPort(cfg.SMTPHost, cfg.SMTPPort),
		host: cfg.SMTPHost,
		from: cfg.SMTPFrom,
		auth: auth,
		send: smtp.SendMail,
	}
}

func (g *SMTPGateway) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(msg.To, "\r\n") || strings.ContainsAny(msg.Subject, "\r\n") {
		return errors.New("mail header contains a line break")
	}
	if err := g.send(g.addr, g.auth, g.from, []string{msg.To}, g.render(msg)); err != nil {
		return fmt.Errorf("smtp send via %s: %w", g.host, err)
	}
	return nil
}

func (g *SMTPGateway) render(msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + g.from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// LogGateway records that a message would have been sent. The body may hold
// a credential and is never logged.
type LogGateway struct{}

func (LogGateway) Send(ctx context.Context, msg Message) error {
	slog.InfoContext(ctx, "email suppressed (no SMTP configured)",
		"to", msg.To,
		"subject", msg.Subject,
		"body_bytes", len(msg.Body),
	)
	return nil
}
