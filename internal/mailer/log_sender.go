package mailer

import (
	"context"
	"log/slog"
)

// LogSender writes the verification link to the log instead of sending mail.
type LogSender struct {
	Logger      *slog.Logger
	FrontendURL string
}

// SendVerification logs the link a real sender would have mailed.
func (s LogSender) SendVerification(_ context.Context, msg Verification) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("verification mail not sent, smtp disabled",
		"to", msg.To,
		"link", VerificationLink(s.FrontendURL, msg.Token),
	)
	return nil
}
