package mailer

import (
	"context"
	"slices"
	"sync"
)

// Email is one message captured by MockMailer.
type Email struct {
	Recipient    string
	TemplateFile string
	Data         any
	Attachments  []string
}

// MockMailer captures messages instead of delivering them. FailWith makes
// every following Send return an error, to exercise delivery failures.
type MockMailer struct {
	mu     sync.RWMutex
	emails []Email
	err    error
}

func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

func (m *MockMailer) Send(ctx context.Context, recipient, templateFile string, data any, attachments ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// Templates must exist even when nothing is delivered.
	if _, _, _, err := render(templateFile, data); err != nil {
		return err
	}

	m.emails = append(m.emails, Email{
		Recipient:    recipient,
		TemplateFile: templateFile,
		Data:         data,
		Attachments:  slices.Clone(attachments),
	})

	return nil
}

func (m *MockMailer) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.err = err
}

func (m *MockMailer) GetSentEmails() []Email {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.emails)
}

func (m *MockMailer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.emails = nil
	m.err = nil
}
