package services

import (
	"fmt"
	"net/smtp"
	"os"
	"strings"

	"golang.org/x/net/html"
)

// convertHTMLToText converts HTML content to plain text for email sending
func convertHTMLToText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		// If parsing fails, return the original content
		return htmlContent
	}

	var text strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text.WriteString(n.Data)
		case html.ElementNode:
			// Add line breaks for block elements
			switch n.Data {
			case "p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6":
				text.WriteString("\n")
			case "li":
				text.WriteString("- ")
			case "table", "tr":
				text.WriteString("\n")
			case "td", "th":
				text.WriteString(" | ")
			}
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			extractText(child)
		}
	}

	extractText(doc)

	result := text.String()
	result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	result = strings.TrimSpace(result)

	return result
}

// EmailService sends transactional mail over SMTP. Credentials come from
// the environment: SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASSWORD and
// SMTP_FROM.
type EmailService struct {
	host     string
	port     string
	user     string
	password string
	from     string
}

// NewEmailService creates a new email service instance from the environment.
func NewEmailService() *EmailService {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		host = "smtp.gmail.com"
	}
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = os.Getenv("SMTP_USER")
	}

	return &EmailService{
		host:     host,
		port:     port,
		user:     os.Getenv("SMTP_USER"),
		password: os.Getenv("SMTP_PASSWORD"),
		from:     from,
	}
}

// SendEmail sends a plain text email to a single recipient.
func (es *EmailService) SendEmail(to, subject, body string) error {
	if es.user == "" || es.password == "" {
		return fmt.Errorf("SMTP credentials are not configured")
	}

	auth := smtp.PlainAuth("", es.user, es.password, es.host)

	msg := []byte("From: " + es.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n\r\n" +
		body + "\r\n")

	return smtp.SendMail(es.host+":"+es.port, auth, es.from, []string{to}, msg)
}

// SendPasswordResetEmail mails a reset link that stays valid for 15 minutes.
func (es *EmailService) SendPasswordResetEmail(to, resetLink string) error {
	subject := "Reset Your Password"
	htmlBody := fmt.Sprintf(`
		<h2>Password Reset</h2>
		<p>We received a request to reset the password for your account.</p>
		<p>Click the link below to choose a new password:</p>
		<p>%s</p>
		<p>This link will expire in 15 minutes. If you did not request a reset, you can ignore this email.</p>
	`, resetLink)

	return es.SendEmail(to, subject, convertHTMLToText(htmlBody))
}

// SendWelcomeEmail greets a newly registered user.
func (es *EmailService) SendWelcomeEmail(to, displayName string) error {
	if displayName == "" {
		displayName = to
	}

	subject := "Welcome to WorkMate"
	htmlBody := fmt.Sprintf(`
		<h2>Welcome, %s</h2>
		<p>Your account has been created.</p>
		<p>You can now set up projects, track stock and work through installation checklists.</p>
	`, displayName)

	return es.SendEmail(to, subject, convertHTMLToText(htmlBody))
}
