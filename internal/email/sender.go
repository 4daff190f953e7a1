// Package email delivers transactional and broadcast email through SMTP,
// the Plunk HTTP API, or a logging no-op sender.
package email

import "context"

// Message is a single email. HTML is optional; when set, senders deliver it
// as the body and Text is used only where a provider accepts both.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
