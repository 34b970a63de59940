package mailer

import "context"

// Mailer sends templated email. Attachments are paths of files to attach.
type Mailer interface {
	Send(ctx context.Context, recipient, templateFile string, data any, attachments ...string) error
}
