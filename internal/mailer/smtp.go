package mailer

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/go-mail/mail/v2"
)

//go:embed "templates"
var templateFS embed.FS

const (
	sendAttempts   = 3
	sendRetryDelay = 500 * time.Millisecond
)

// SMTPMailer renders a template holding "subject", "plainBody" and "htmlBody"
// blocks and delivers it over SMTP.
type SMTPMailer struct {
	dialer *mail.Dialer
	sender string

	attempts   int
	retryDelay time.Duration
	deliver    func(...*mail.Message) error
}

func NewSMTPMailer(host string, port int, username, password, sender string) *SMTPMailer {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 5 * time.Second

	return &SMTPMailer{
		dialer:     dialer,
		sender:     sender,
		attempts:   sendAttempts,
		retryDelay: sendRetryDelay,
		deliver:    dialer.DialAndSend,
	}
}

// Send retries failed deliveries, waiting between attempts, until ctx is done.
func (m *SMTPMailer) Send(ctx context.Context, recipient, templateFile string, data any, attachments ...string) error {
	subject, plainBody, htmlBody, err := render(templateFile, data)
	if err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("To", recipient)
	msg.SetHeader("From", m.sender)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", plainBody)
	msg.AddAlternative("text/html", htmlBody)

	for _, path := range attachments {
		msg.Attach(path)
	}

	for i := 1; ; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err = m.deliver(msg)
		if err == nil || i >= m.attempts {
			return err
		}

		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(m.retryDelay):
		}
	}
}

var funcs = map[string]any{
	"join": strings.Join,
}

// render executes the subject and plain text blocks with text/template and
// the HTML block with html/template.
func render(templateFile string, data any) (subject, plainBody, htmlBody string, err error) {
	textTmpl, err := texttemplate.New("email").Funcs(funcs).ParseFS(templateFS, "templates/"+templateFile)
	if err != nil {
		return "", "", "", err
	}

	subject, err = execute(textTmpl, "subject", data)
	if err != nil {
		return "", "", "", err
	}

	plainBody, err = execute(textTmpl, "plainBody", data)
	if err != nil {
		return "", "", "", err
	}

	htmlTmpl, err := template.New("email").Funcs(funcs).ParseFS(templateFS, "templates/"+templateFile)
	if err != nil {
		return "", "", "", err
	}

	htmlBody, err = execute(htmlTmpl, "htmlBody", data)
	if err != nil {
		return "", "", "", err
	}

	return strings.TrimSpace(subject), plainBody, htmlBody, nil
}

type executor interface {
	ExecuteTemplate(w io.Writer, name string, data any) error
}

func execute(tmpl executor, name string, data any) (string, error) {
	var buf bytes.Buffer

	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
