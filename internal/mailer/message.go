// Package mailer delivers account verification mail.
package mailer

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"
)

// Verification is a request to confirm ownership of an email address.
type Verification struct {
	To    string
	Name  string
	Token string
}

// Sender delivers verification messages.
type Sender interface {
	SendVerification(ctx context.Context, msg Verification) error
}

// VerificationLink builds the front-end URL that confirms token.
func VerificationLink(frontendURL, token string) string {
	base := strings.TrimSuffix(frontendURL, "/")
	return fmt.Sprintf("%s/verify-email?token=%s", base, url.QueryEscape(token))
}

const verificationSubject = "Verify your F-Meta account"

func renderText(name, link string) string {
	return fmt.Sprintf("Hi %s,\n\nThanks for joining F-Meta. Confirm your email address by opening the link below:\n\n%s\n\nThe link expires in 24 hours. If you did not create an account you can ignore this message.\n", name, link)
}

func renderHTML(name, link string) string {
	safeLink := html.EscapeString(link)
	return fmt.Sprintf(`<p>Hi %s,</p>
<p>Thanks for joining F-Meta. Confirm your email address by clicking the button below.</p>
<p><a href="%s" style="background:#1877f2;color:#fff;padding:10px 18px;border-radius:6px;text-decoration:none">Verify email</a></p>
<p>Or paste this link into your browser:<br>%s</p>
<p>The link expires in 24 hours.</p>`, html.EscapeString(name), safeLink, safeLink)
}
