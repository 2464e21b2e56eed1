package mailer

import (
	"fmt"
	"html"
	"net/url"
)

// VerificationLink returns the link a user follows to confirm their email.
func VerificationLink(baseURL, code string) string {
	return fmt.Sprintf("%s/api/users/verify/%s", baseURL, url.PathEscape(code))
}

// VerificationMessage builds the email carrying a verification link.
func VerificationMessage(baseURL, to, code string) Message {
	link := VerificationLink(baseURL, code)
	return Message{
		To:      to,
		Subject: "Verify your email address",
		Text:    "Open the following link to verify your email address: " + link,
		HTML:    fmt.Sprintf(`<p>Click <a href="%s">here</a> to verify your email address.</p>`, html.EscapeString(link)),
	}
}
