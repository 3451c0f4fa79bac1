package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gopkg.in/mail.v2"
)

// SMTPConfig describes the outbound mail server.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	FrontendURL string
	Timeout     time.Duration
}

// SMTPSender delivers verification mail through an SMTP relay.
type SMTPSender struct {
	dialer      *mail.Dialer
	from        string
	frontendURL string
}

// NewSMTPSender configures an SMTP sender.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, errors.New("mailer: smtp host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	dialer := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.Timeout = cfg.Timeout

	return &SMTPSender{dialer: dialer, from: from, frontendURL: cfg.FrontendURL}, nil
}

// SendVerification renders and sends the verification message.
func (s *SMTPSender) SendVerification(ctx context.Context, msg Verification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	link := VerificationLink(s.frontendURL, msg.Token)

	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", verificationSubject)
	m.SetBody("text/plain", renderText(msg.Name, link))
	m.AddAlternative("text/html", renderHTML(msg.Name, link))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send verification mail to %s: %w", msg.To, err)
	}
	return nil
}
