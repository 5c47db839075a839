// Package email delivers assignment notifications to students.
package email

import (
	"context"
	"time"
)

// SendRequest is one message to deliver.
type SendRequest struct {
	To      []string
	From    string // empty uses the sender's default address
	Subject string
	HTML    string
	ReplyTo string
}

// SendResult is the provider's receipt for one message.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers e-mail through an external provider.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
	SendBatch(ctx context.Context, reqs []SendRequest) ([]SendResult, error)
}
