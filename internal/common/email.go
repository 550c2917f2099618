package common

// Email is a single outbound message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// EmailSender delivers transactional mail. Implementations must be safe for
// concurrent use.
type EmailSender interface {
	Send(to, subject, html string) error
}

// InMemoryEmail collects messages instead of delivering them. Tests inspect
// Outbox to assert on what would have been sent.
type InMemoryEmail struct {
	Outbox []Email
}

func (m *InMemoryEmail) Send(to, subject, html string) error {
	if m == nil {
		return nil
	}
	m.Outbox = append(m.Outbox, Email{To: to, Subject: subject, HTML: html})
	return nil
}

// NopEmailSender drops every message.
type NopEmailSender struct{}

func (NopEmailSender) Send(string, string, string) error { return nil }
